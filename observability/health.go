package observability

import (
	"context"

	"github.com/skillsenselab/relay/component"
)

// ServiceHealth aggregates per-component health for the health endpoint.
type ServiceHealth struct {
	Service    string                 `json:"service"`
	Status     component.HealthStatus `json:"status"`
	Version    string                 `json:"version,omitempty"`
	Components []component.Health     `json:"components,omitempty"`
}

// NewServiceHealth creates a ServiceHealth with status healthy.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{
		Service: service,
		Status:  component.StatusHealthy,
		Version: version,
	}
}

// AddComponent adds a component health result and degrades overall status if needed.
func (sh *ServiceHealth) AddComponent(h component.Health) {
	sh.Components = append(sh.Components, h)

	switch h.Status {
	case component.StatusUnhealthy:
		sh.Status = component.StatusUnhealthy
	case component.StatusDegraded:
		if sh.Status != component.StatusUnhealthy {
			sh.Status = component.StatusDegraded
		}
	}
}

// CollectHealth gathers health from every registered component.
func CollectHealth(ctx context.Context, service, version string, reg *component.Registry) *ServiceHealth {
	sh := NewServiceHealth(service, version)
	for _, h := range reg.HealthAll(ctx) {
		sh.AddComponent(h)
	}
	return sh
}
