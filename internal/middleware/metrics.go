package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsPath is where Prometheus scrapes the service.
const MetricsPath = "/metrics"

// InitMetrics creates the HTTP request collectors for serviceName on reg
// rather than on the global registry.
func InitMetrics(serviceName string, reg *prometheus.Registry) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.NewWithRegistry(reg, serviceName, "postboard", "http", nil)
}

// MetricsMiddleware records request metrics, skipping the scrape endpoint itself.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == MetricsPath {
			return c.Next()
		}
		return p.Middleware(c)
	}
}

// MetricsHandler serves both the process-wide collectors and those in reg.
func MetricsHandler(reg *prometheus.Registry) fiber.Handler {
	gatherers := prometheus.Gatherers{prometheus.DefaultGatherer, reg}
	return adaptor.HTTPHandler(promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}))
}
