package reporting

import "strings"

type jurisdiction struct {
	keywords []string
	agencies []string
}

var jurisdictions = []jurisdiction{
	{
		keywords: []string{"kenya", "nairobi"},
		agencies: []string{
			"Kenya National Police - Cybercrime Unit",
			"Ethics and Anti-Corruption Commission (EACC)",
			"Communications Authority of Kenya (CAK)",
			"Interpol Kenya",
		},
	},
	{
		keywords: []string{"nigeria", "lagos"},
		agencies: []string{
			"Economic and Financial Crimes Commission (EFCC)",
			"Nigeria Police Force - Cybercrime Unit",
			"Nigerian Communications Commission (NCC)",
			"Interpol Nigeria",
		},
	},
	{
		keywords: []string{"ghana", "accra"},
		agencies: []string{
			"Ghana Police Service - Cybercrime Unit",
			"Economic and Organised Crime Office (EOCO)",
			"National Communications Authority (NCA)",
			"Interpol Ghana",
		},
	},
	{
		keywords: []string{"south africa", "johannesburg"},
		agencies: []string{
			"South African Police Service - Cybercrime Unit",
			"Hawks (Directorate for Priority Crime Investigation)",
			"Financial Intelligence Centre (FIC)",
			"Interpol South Africa",
		},
	},
}

var defaultAgencies = []string{
	"Local Police Cybercrime Unit",
	"National Cybersecurity Agency",
	"Financial Crimes Commission",
	"Interpol National Central Bureau",
}

// AgenciesFor returns the agencies for a free-form location, matched by
// case-insensitive substring in a fixed order.
func AgenciesFor(location string) []string {
	loc := strings.ToLower(location)
	for _, j := range jurisdictions {
		for _, kw := range j.keywords {
			if strings.Contains(loc, kw) {
				return append([]string(nil), j.agencies...)
			}
		}
	}
	return append([]string(nil), defaultAgencies...)
}
