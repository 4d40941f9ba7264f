package providers

import "time"

// NewWhois simulates a WHOIS lookup. Roughly 30% of domains are younger than 30 days.
func NewWhois(opts Options) Provider {
	return newSimulated(TaskWhois, 1500*time.Millisecond, opts, func(in Input, rng *Rand, now time.Time) Result {
		var age int
		if rng.Float64() > 0.7 {
			age = rng.Intn(30)
		} else {
			age = rng.Intn(1000) + 30
		}

		registrar := "GoDaddy"
		if age < 30 {
			registrar = "SuspiciousRegistrar Ltd"
		}
		country := "United States"
		if rng.Float64() > 0.6 {
			country = "Nigeria"
		}

		created := daysAgo(now, age)
		return Result{
			"domain":           in.Value,
			"registrationDate": created,
			"registrar":        registrar,
			"country":          country,
			"age":              age,
			"records": map[string]interface{}{
				"created": created,
				"updated": now.Format(time.RFC3339),
			},
		}
	})
}

// NewSSL simulates a TLS certificate check
func NewSSL(opts Options) Provider {
	return newSimulated(TaskSSL, 1200*time.Millisecond, opts, func(in Input, rng *Rand, now time.Time) Result {
		hasSSL := rng.Float64() > 0.3
		var certificate interface{}
		if hasSSL {
			certificate = map[string]interface{}{
				"issuer":    "Let's Encrypt",
				"validFrom": daysAgo(now, 30),
				"validTo":   daysAgo(now, -60),
				"isValid":   true,
			}
		}
		return Result{
			"hasSSL":      hasSSL,
			"certificate": certificate,
		}
	})
}
