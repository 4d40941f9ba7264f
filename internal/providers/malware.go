package providers

import (
	"fmt"
	"time"
)

var (
	scanEngines = []string{
		"VirusTotal", "Kaspersky", "McAfee", "Norton",
		"Bitdefender", "Avast", "Malwarebytes", "ESET",
	}
	threatTypes = []string{"Phishing", "Malware", "Trojan", "Adware", "Spam"}
)

// maliciousDetections is the number of engine detections above which a URL is malicious
const maliciousDetections = 2

// NewMalware simulates a multi-engine URL scan
func NewMalware(opts Options) Provider {
	return newSimulated(TaskMalware, 1600*time.Millisecond, opts, func(in Input, rng *Rand, now time.Time) Result {
		engines := make([]map[string]interface{}, 0, len(scanEngines))
		detections := 0
		for _, name := range scanEngines {
			detected := rng.Float64() > 0.7
			if detected {
				detections++
			}
			verdict := "Clean"
			if rng.Float64() > 0.7 {
				verdict = "Phishing"
			}
			engines = append(engines, map[string]interface{}{
				"name":       name,
				"detected":   detected,
				"result":     verdict,
				"lastUpdate": daysAgo(now, rng.Intn(7)),
			})
		}

		isMalicious := detections > maliciousDetections
		threats := []string{}
		if isMalicious {
			threats = append(threats, threatTypes[:rng.Intn(3)+1]...)
		}

		return Result{
			"url":            in.Value,
			"engines":        engines,
			"detectionCount": detections,
			"totalEngines":   len(engines),
			"isMalicious":    isMalicious,
			"threatTypes":    threats,
			"networkTrace": map[string]interface{}{
				"ipAddress": fmt.Sprintf("%d.%d.%d.%d", rng.Intn(256), rng.Intn(256), rng.Intn(256), rng.Intn(256)),
				"country":   rng.Pick("Nigeria", "Russia", "China", "Unknown"),
				"isp":       "Unknown ISP",
				"redirectChain": []string{
					in.Value,
					"http://redirect1.suspicious.com",
					"http://final-destination.scam",
				},
				"httpStatus":   200,
				"responseTime": rng.Intn(3000) + 500,
			},
			"lastScanned": now.Format(time.RFC3339),
		}
	})
}
