package providers

import "time"

var (
	scamSources      = []string{"ScamAdviser", "TrustPilot", "BBB", "Local Police"}
	scamSeverities   = []string{"Low", "Medium", "High"}
	scamDescriptions = []string{
		"Fake job posting requesting personal information",
		"Advance fee fraud scheme targeting job seekers",
		"Phishing attempt to steal banking credentials",
		"Romance scam using stolen photos",
		"Investment fraud promising unrealistic returns",
		"Tech support scam targeting elderly users",
	}
	knownScamDomains = []string{
		"scam-jobs-africa.tk",
		"fake-opportunities.ml",
		"nigerian-jobs-real.ga",
		"work-from-home-scam.cf",
	}
)

// NewOSINT simulates open-source intelligence gathering across report sites
func NewOSINT(opts Options) Provider {
	return newSimulated(TaskOSINT, 2*time.Second, opts, func(in Input, rng *Rand, now time.Time) Result {
		reports := scamReports(rng, now)
		return Result{
			"value":          in.Value,
			"inputType":      in.InputType,
			"scamReports":    reports,
			"relatedDomains": relatedDomains(rng),
			"socialProfiles": socialProfiles(rng),
			"screenshots": []string{
				"/screenshots/website_full.png",
				"/screenshots/suspicious_form.png",
				"/screenshots/fake_testimonials.png",
			},
			"reputation": Reputation(len(reports)),
		}
	})
}

func scamReports(rng *Rand, now time.Time) []map[string]interface{} {
	count := rng.Intn(15)
	reports := make([]map[string]interface{}, 0, count)
	for i := 0; i < count; i++ {
		reports = append(reports, map[string]interface{}{
			"id":          i + 1,
			"source":      rng.Pick(scamSources...),
			"date":        daysAgo(now, rng.Intn(90)),
			"description": rng.Pick(scamDescriptions...),
			"severity":    rng.Pick(scamSeverities...),
		})
	}
	return reports
}

func relatedDomains(rng *Rand) []string {
	if rng.Float64() > 0.4 {
		return []string{}
	}
	n := rng.Intn(3) + 1
	return append([]string(nil), knownScamDomains[:n]...)
}

func socialProfiles(rng *Rand) []map[string]interface{} {
	profiles := make([]map[string]interface{}, 0, 2)
	if rng.Float64() > 0.3 {
		profiles = append(profiles, map[string]interface{}{
			"platform":  "Instagram",
			"handle":    "@fake_jobs_africa",
			"status":    "SUSPENDED",
			"followers": 1247,
			"created":   "2024-01-15",
		})
	}
	if rng.Float64() > 0.5 {
		profiles = append(profiles, map[string]interface{}{
			"platform": "Telegram",
			"handle":   "@african_jobs_real",
			"status":   "ACTIVE",
			"members":  3421,
			"created":  "2024-01-10",
		})
	}
	return profiles
}

// Reputation grades an identifier by how many scam reports mention it
func Reputation(reportCount int) string {
	switch {
	case reportCount > 10:
		return "Very Poor"
	case reportCount > 5:
		return "Poor"
	case reportCount > 2:
		return "Questionable"
	default:
		return "Unknown"
	}
}
