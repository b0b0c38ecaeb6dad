package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/sirupsen/logrus"

	"rederly/client/internal/logging"
	"rederly/client/internal/platform/rbac"
	"rederly/client/internal/session/domain"
)

const visibleQuery = "data.rederly.routes.visible"

// Default Rego policy: non-student routes are hidden from STUDENT only.
const defaultRegoPolicy = `package rederly.routes

default visible := false

visible if {
	not input.route.non_student
}

visible if {
	input.route.non_student
	input.role != "STUDENT"
}
`

var errNoResult = errors.New("policy query returned no result")

// OPAEvaluator evaluates route visibility with OPA Rego. The query is compiled once at construction.
type OPAEvaluator struct {
	query  rego.PreparedEvalQuery
	custom bool
	logger logrus.FieldLogger
}

// NewOPAEvaluator loads policies from source (nil or empty means the built-in policy), compiles them
// and prepares the visibility query. A custom policy that fails to compile is returned as an error.
func NewOPAEvaluator(ctx context.Context, source PolicySource, logger logrus.FieldLogger) (*OPAEvaluator, error) {
	var policies []string
	if source != nil {
		p, err := source.Policies(ctx)
		if err != nil {
			return nil, err
		}
		policies = p
	}
	custom := len(policies) > 0
	if !custom {
		policies = []string{defaultRegoPolicy}
	}
	query, err := prepare(ctx, policies)
	if err != nil {
		return nil, err
	}
	return &OPAEvaluator{query: query, custom: custom, logger: logging.Component(logger, "policy")}, nil
}

func prepare(ctx context.Context, policies []string) (rego.PreparedEvalQuery, error) {
	modules := make(map[string]string, len(policies))
	for i, p := range policies {
		modules[fmt.Sprintf("policy_%d.rego", i)] = p
	}
	compiler, err := ast.CompileModules(modules)
	if err != nil {
		return rego.PreparedEvalQuery{}, fmt.Errorf("compile route policy: %w", err)
	}
	q, err := rego.New(
		rego.Query(visibleQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return rego.PreparedEvalQuery{}, fmt.Errorf("prepare route policy: %w", err)
	}
	return q, nil
}

// Custom reports whether a custom policy replaced the built-in one.
func (e *OPAEvaluator) Custom() bool {
	return e.custom
}

// HealthCheck verifies that the prepared query evaluates for a minimal input.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	_, err := e.eval(ctx, domain.RoleStudent, RouteFacts{Name: "health", Path: "/"})
	return err
}

// Visible evaluates the policy for role and route. On evaluation failure it logs and applies
// the built-in rule.
func (e *OPAEvaluator) Visible(ctx context.Context, role domain.Role, route RouteFacts) bool {
	v, err := e.eval(ctx, role, route)
	if err != nil {
		e.logger.WithError(err).WithField("route", route.Name).Warn("route policy evaluation failed, using built-in rule")
		return DefaultVisible(role, route)
	}
	return v
}

func (e *OPAEvaluator) eval(ctx context.Context, role domain.Role, route RouteFacts) (bool, error) {
	input := map[string]interface{}{
		"role": string(role),
		"route": map[string]interface{}{
			"name":        route.Name,
			"path":        route.Path,
			"non_student": route.NonStudent,
		},
	}
	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("eval route policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, errNoResult
	}
	v, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("route policy returned %T, want bool", rs[0].Expressions[0].Value)
	}
	return v, nil
}

// DefaultVisible is the built-in rule: routes tagged non-student are visible iff role is not STUDENT.
func DefaultVisible(role domain.Role, route RouteFacts) bool {
	if !route.NonStudent {
		return true
	}
	return rbac.IsNonStudent(role)
}

// RuleEvaluator applies DefaultVisible without OPA.
type RuleEvaluator struct{}

// Visible applies the built-in rule.
func (RuleEvaluator) Visible(ctx context.Context, role domain.Role, route RouteFacts) bool {
	return DefaultVisible(role, route)
}
