package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
)

// MetricsPath is where the Prometheus scrape endpoint is mounted.
const MetricsPath = "/metrics"

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics registers the Prometheus scrape endpoint on app and returns the
// request-instrumenting middleware. Request counts and latencies are labelled
// by status code, method and route. The collectors are process-wide, so every
// app built in one process shares them.
func InitMetrics(app *fiber.App, serviceName string) fiber.Handler {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	prom.RegisterAt(app, MetricsPath)
	return prom.Middleware
}
