package common

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck returns a health check handler
func HealthCheck(serviceName, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:    "healthy",
			Service:   serviceName,
			Version:   version,
			Timestamp: time.Now().UTC(),
		})
	}
}

// HealthCheckWithDeps returns a health check handler with dependency checks.
// Checks run concurrently.
func HealthCheckWithDeps(serviceName, version string, checks map[string]func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		checkResults := make(map[string]string, len(checks))

		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)
		for name, checkFunc := range checks {
			wg.Add(1)
			go func(name string, checkFunc func() error) {
				defer wg.Done()
				result := "healthy"
				if err := checkFunc(); err != nil {
					result = "unhealthy: " + err.Error()
				}
				mu.Lock()
				checkResults[name] = result
				if result != "healthy" {
					status = "unhealthy"
				}
				mu.Unlock()
			}(name, checkFunc)
		}
		wg.Wait()

		statusCode := http.StatusOK
		if status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, HealthResponse{
			Status:    status,
			Service:   serviceName,
			Version:   version,
			Timestamp: time.Now().UTC(),
			Checks:    checkResults,
		})
	}
}
