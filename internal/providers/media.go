package providers

import (
	"regexp"
	"strings"
	"time"
)

var (
	imageExt = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)$`)
	videoExt = regexp.MustCompile(`(?i)\.(mp4|mov|avi|webm)$`)
)

// NewReverseSearch simulates a reverse image search
func NewReverseSearch(opts Options) Provider {
	return newSimulated(TaskReverseSearch, 2*time.Second, opts, func(in Input, rng *Rand, _ time.Time) Result {
		matches := rng.Intn(20)
		similar := []map[string]interface{}{}
		if matches > 5 {
			similar = append(similar,
				map[string]interface{}{"url": "https://example.com/stolen1.jpg", "similarity": 0.95},
				map[string]interface{}{"url": "https://example.com/stolen2.jpg", "similarity": 0.88},
			)
		}
		return Result{
			"imageUrl":      in.Value,
			"matches":       matches,
			"similarImages": similar,
		}
	})
}

// NewContentAnalysis simulates scam-content classification of media
func NewContentAnalysis(opts Options) Provider {
	return newSimulated(TaskContentAnalysis, 1800*time.Millisecond, opts, func(in Input, rng *Rand, _ time.Time) Result {
		isScam := rng.Float64() > 0.6
		indicators := []string{}
		if isScam {
			indicators = append(indicators,
				"Contains financial promises",
				"Urgent language detected",
				"Fake testimonials",
			)
		}
		return Result{
			"mediaUrl":       in.Value,
			"contentType":    DetectContentType(in.Value),
			"isScam":         isScam,
			"scamIndicators": indicators,
		}
	})
}

// DetectContentType classifies a media URL by host or extension
func DetectContentType(mediaURL string) string {
	switch {
	case strings.Contains(mediaURL, "youtube.com"), strings.Contains(mediaURL, "youtu.be"):
		return "YouTube Video"
	case strings.Contains(mediaURL, "tiktok.com"):
		return "TikTok Video"
	case imageExt.MatchString(mediaURL):
		return "Image"
	case videoExt.MatchString(mediaURL):
		return "Video"
	default:
		return "Unknown"
	}
}
