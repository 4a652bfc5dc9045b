package monitoring

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type Metrics struct {
	mu              sync.RWMutex
	RequestCount    int64            `json:"request_count"`
	RequestDuration time.Duration    `json:"avg_request_duration_ms"`
	ActiveRequests  int64            `json:"active_requests"`
	ErrorCount      int64            `json:"error_count"`
	StatusCodes     map[string]int64 `json:"status_codes"`
	Endpoints       map[string]int64 `json:"endpoint_calls"`
	StartTime       time.Time        `json:"start_time"`
	LastRequest     time.Time        `json:"last_request"`
	totalDuration   time.Duration
}

type HealthCheckFunc func(ctx context.Context) error

type HealthCheck struct {
	Name    string    `json:"name"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	LastRun time.Time `json:"last_run"`
}

type HealthChecker struct {
	mu     sync.RWMutex
	checks map[string]HealthCheckFunc
}

var globalMetrics = &Metrics{
	StatusCodes: make(map[string]int64),
	Endpoints:   make(map[string]int64),
	StartTime:   time.Now(),
}

var globalHealthChecker = &HealthChecker{
	checks: make(map[string]HealthCheckFunc),
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		globalMetrics.mu.Lock()
		globalMetrics.ActiveRequests++
		globalMetrics.mu.Unlock()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		globalMetrics.mu.Lock()
		globalMetrics.ActiveRequests--
		globalMetrics.RequestCount++
		globalMetrics.LastRequest = time.Now()
		globalMetrics.totalDuration += duration
		globalMetrics.RequestDuration = globalMetrics.totalDuration / time.Duration(globalMetrics.RequestCount)
		globalMetrics.StatusCodes[strconv.Itoa(status)]++
		globalMetrics.Endpoints[c.Request.Method+" "+c.FullPath()]++
		if status >= 500 {
			globalMetrics.ErrorCount++
		}
		globalMetrics.mu.Unlock()
	}
}

func RegisterHealthCheck(name string, check HealthCheckFunc) {
	globalHealthChecker.mu.Lock()
	defer globalHealthChecker.mu.Unlock()
	globalHealthChecker.checks[name] = check
}

func HealthHandler(c *gin.Context) {
	globalHealthChecker.mu.RLock()
	names := make([]string, 0, len(globalHealthChecker.checks))
	checks := make(map[string]HealthCheckFunc, len(globalHealthChecker.checks))
	for name, check := range globalHealthChecker.checks {
		names = append(names, name)
		checks[name] = check
	}
	globalHealthChecker.mu.RUnlock()

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	healthy := true
	results := make([]HealthCheck, 0, len(names))
	for _, name := range names {
		result := HealthCheck{Name: name, Status: "ok", LastRun: time.Now()}
		if err := checks[name](ctx); err != nil {
			result.Status = "failing"
			result.Message = err.Error()
			healthy = false
		}
		results = append(results, result)
	}

	status := http.StatusOK
	overall := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status": overall,
		"checks": results,
		"uptime": time.Since(globalMetrics.StartTime).String(),
	})
}

func MetricsHandler(c *gin.Context) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	globalMetrics.mu.RLock()
	defer globalMetrics.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"requests": gin.H{
			"total":           globalMetrics.RequestCount,
			"active":          globalMetrics.ActiveRequests,
			"errors":          globalMetrics.ErrorCount,
			"avg_duration_ms": globalMetrics.RequestDuration.Milliseconds(),
			"status_codes":    globalMetrics.StatusCodes,
			"endpoints":       globalMetrics.Endpoints,
		},
		"runtime": gin.H{
			"goroutines":     runtime.NumGoroutine(),
			"heap_alloc_mb":  memStats.HeapAlloc / 1024 / 1024,
			"total_alloc_mb": memStats.TotalAlloc / 1024 / 1024,
			"num_gc":         memStats.NumGC,
		},
		"uptime":       time.Since(globalMetrics.StartTime).String(),
		"last_request": globalMetrics.LastRequest,
	})
}
