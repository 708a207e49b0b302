// Package component defines the lifecycle contracts shared by the bus components.
// It is the lowest layer and imports no other package of this module.
package component

import "context"

// Component lifecycle: Init → Start → Stop
type Component interface {
	// Name unique component name
	Name() string

	// DependsOn names of components that must be initialized first.
	// An "optional:" prefix marks a dependency that may be absent.
	DependsOn() []string

	// Init reads configuration and creates resources without serving anything
	Init(ctx context.Context, loader ConfigLoader) error

	// Start begins serving
	Start(ctx context.Context) error

	// Stop releases resources; must be safe to call more than once
	Stop(ctx context.Context) error
}

// HealthChecker optional health check capability of a component
type HealthChecker interface {
	// Check returns nil when healthy
	Check(ctx context.Context) error

	// Name check item name
	Name() string
}
