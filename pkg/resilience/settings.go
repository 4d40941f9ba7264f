package resilience

import "time"

// Settings tunes a circuit breaker
type Settings struct {
	Name string
	// Interval is the cyclic period in closed state after which counts reset
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing again
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures that trips the breaker
	FailureThreshold uint32
	// SuccessThreshold is the number of probe requests allowed while half-open
	SuccessThreshold uint32
}

// BuildSettings produces a Settings struct from primitive tuning knobs.
func BuildSettings(name string, intervalSeconds, timeoutSeconds, failureThreshold, successThreshold int) Settings {
	interval := time.Duration(intervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if failureThreshold <= 0 {
		failureThreshold = 5
	}

	if successThreshold <= 0 {
		successThreshold = 1
	}

	return Settings{
		Name:             name,
		Interval:         interval,
		Timeout:          timeout,
		FailureThreshold: uint32(failureThreshold),
		SuccessThreshold: uint32(successThreshold),
	}
}
