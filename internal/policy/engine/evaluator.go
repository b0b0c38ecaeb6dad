package engine

import (
	"context"

	"rederly/client/internal/session/domain"
)

// RouteFacts is what the route policy knows about a route.
type RouteFacts struct {
	Name       string
	Path       string
	NonStudent bool
}

// RouteEvaluator decides route visibility for a role using OPA or other engines.
type RouteEvaluator interface {
	// Visible reports whether route is navigable for role. Implementations fall back to the
	// built-in rule on evaluation failure, so the result is always usable. Callers clamp the
	// answer to the role rule: a policy can narrow what STUDENT sees, never widen it or hide
	// routes from PROFESSOR and ADMIN.
	Visible(ctx context.Context, role domain.Role, route RouteFacts) bool
}

// PolicySource supplies custom Rego modules that replace the built-in route policy.
type PolicySource interface {
	// Policies returns the Rego module sources. An empty slice means "use the built-in policy".
	Policies(ctx context.Context) ([]string, error)
}
