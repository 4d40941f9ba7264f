package providers

import (
	"strings"
	"time"
)

// NewTruecaller simulates a caller-reputation lookup
func NewTruecaller(opts Options) Provider {
	return newSimulated(TaskTruecaller, time.Second, opts, func(in Input, rng *Rand, _ time.Time) Result {
		isSpam := rng.Float64() > 0.7
		spamScore, reportCount, name := rng.Intn(30), rng.Intn(5), "Unknown"
		if isSpam {
			spamScore = rng.Intn(40) + 60
			reportCount = rng.Intn(100) + 10
			name = "Unknown/Spam"
		}
		return Result{
			"phone":       in.Value,
			"isSpam":      isSpam,
			"spamScore":   spamScore,
			"reportCount": reportCount,
			"name":        name,
		}
	})
}

// NewBreachCheck simulates a breached-credentials lookup
func NewBreachCheck(opts Options) Provider {
	return newSimulated(TaskBreachCheck, 800*time.Millisecond, opts, func(in Input, rng *Rand, _ time.Time) Result {
		isBreached := rng.Float64() > 0.6
		breaches := []map[string]interface{}{}
		if isBreached {
			breaches = append(breaches,
				map[string]interface{}{"name": "Collection #1", "date": "2019-01-07"},
				map[string]interface{}{"name": "LinkedIn", "date": "2012-05-05"},
			)
		}
		return Result{
			"email":      in.Value,
			"isBreached": isBreached,
			"breaches":   breaches,
		}
	})
}

// NewProfileAnalysis simulates a social profile authenticity check
func NewProfileAnalysis(opts Options) Provider {
	return newSimulated(TaskProfileAnalysis, 1300*time.Millisecond, opts, func(in Input, rng *Rand, _ time.Time) Result {
		isSuspicious := rng.Float64() > 0.5
		indicators := []string{}
		if isSuspicious {
			indicators = append(indicators,
				"Recently created account",
				"Low follower count",
				"Suspicious posting patterns",
			)
		}
		return Result{
			"profile":              in.Value,
			"platform":             DetectPlatform(in.Value),
			"accountAge":           rng.Intn(2000) + 30,
			"followerCount":        rng.Intn(10000),
			"isSuspicious":         isSuspicious,
			"suspiciousIndicators": indicators,
		}
	})
}

// DetectPlatform names the social network a profile URL belongs to
func DetectPlatform(profile string) string {
	switch {
	case strings.Contains(profile, "instagram.com"):
		return "Instagram"
	case strings.Contains(profile, "tiktok.com"):
		return "TikTok"
	case strings.Contains(profile, "twitter.com"), strings.Contains(profile, "x.com"):
		return "Twitter/X"
	case strings.Contains(profile, "facebook.com"):
		return "Facebook"
	case strings.Contains(profile, "linkedin.com"):
		return "LinkedIn"
	default:
		return "Unknown"
	}
}
