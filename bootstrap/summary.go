package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/skillsenselab/relay/component"
	"github.com/skillsenselab/relay/logger"
)

// Summary tracks and displays the application bootstrap process. The
// infrastructure and route sections are collected live from the component
// registry at display time.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
}

// NewSummary creates a new bootstrap summary tracker.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
	}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Display prints the bootstrap summary: infrastructure details from
// Describable components, routes from RouteProviders, and live health from
// the registry.
func (s *Summary) Display(registry *component.Registry, log *logger.Logger) {
	fmt.Printf("\n🚀 %s v%s started in %.2fs\n\n",
		s.serviceName, s.version, s.startupDuration.Seconds())

	if registry == nil {
		return
	}

	components := registry.All()

	var infra []component.Description
	var routes []component.Route
	for _, c := range components {
		if d, ok := c.(component.Describable); ok {
			infra = append(infra, d.Describe())
		}
		if rp, ok := c.(component.RouteProvider); ok {
			routes = append(routes, rp.Routes()...)
		}
	}

	if len(infra) > 0 {
		fmt.Printf("📊 Infrastructure\n")
		for i, inf := range infra {
			prefix := "├──"
			if i == len(infra)-1 {
				prefix = "└──"
			}
			details := inf.Details
			if inf.Port > 0 {
				details = fmt.Sprintf("%s (:%d)", details, inf.Port)
			}
			fmt.Printf("   %s %s: %s\n", prefix, inf.Name, details)
		}
		fmt.Printf("\n")
	}

	if len(routes) > 0 {
		fmt.Printf("🌐 Routes (%d)\n", len(routes))
		for i, r := range routes {
			prefix := "├──"
			if i == len(routes)-1 {
				prefix = "└──"
			}
			fmt.Printf("   %s %-7s %s → %s\n", prefix, r.Method, r.Path, r.Handler)
		}
		fmt.Printf("\n")
	}

	healthResults := registry.HealthAll(context.Background())
	if len(healthResults) > 0 {
		fmt.Printf("🏥 Health Check\n")
		healthy := 0
		for i, h := range healthResults {
			prefix := "├──"
			if i == len(healthResults)-1 {
				prefix = "└──"
			}
			msg := ""
			if h.Message != "" {
				msg = fmt.Sprintf(" — %s", h.Message)
			}
			fmt.Printf("   %s %s %s: %s%s\n", prefix, healthStatusIcon(h.Status), h.Name,
				strings.ToLower(string(h.Status)), msg)
			if h.Status == component.StatusHealthy {
				healthy++
			}
		}
		if healthy == len(healthResults) {
			fmt.Printf("\n✅ All components healthy (%d/%d)\n", healthy, len(healthResults))
		} else {
			fmt.Printf("\n⚠️  Some components have issues (%d/%d healthy)\n", healthy, len(healthResults))
		}
	}

	fmt.Printf("\n")
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
