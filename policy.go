package tasktrack

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"github.com/goliatone/go-errors"
)

// Requirement is what a route rule demands of the caller.
type Requirement int

const (
	// Public routes are reachable by anyone, identity or not
	Public Requirement = iota
	// Authenticated routes need any resolved identity
	Authenticated
	// RequireRole routes need an identity carrying the rule's role
	RequireRole
)

// Outcome is the policy's verdict for a request.
type Outcome int

const (
	// Allow lets the request through
	Allow Outcome = iota
	// DenyUnauthenticated rejects anonymous callers (401)
	DenyUnauthenticated
	// DenyForbidden rejects authenticated callers lacking the role (403)
	DenyForbidden
)

// Decision is the result of evaluating a request against the policy.
type Decision struct {
	Outcome Outcome
	// Reason is a human readable explanation, safe to surface to clients
	Reason string
}

// RouteRule binds a path pattern to a requirement. Patterns use glob
// syntax with '/' as separator, so "/tasks/admin/**" covers the whole
// admin subtree and "/tasks/admin" itself.
type RouteRule struct {
	Pattern     string
	Requirement Requirement
	// Role only applies when Requirement is RequireRole
	Role string
}

type compiledRule struct {
	rule    RouteRule
	matcher glob.Glob
	// base is the pattern prefix before "/**", matched exactly so the
	// subtree rule also covers its root path
	base string
}

// AccessPolicy evaluates requests against an ordered rule list,
// first match wins. Evaluation is pure: no I/O, no clock, no stores.
type AccessPolicy struct {
	rules []compiledRule
}

// NewAccessPolicy compiles the given rules in order.
func NewAccessPolicy(rules []RouteRule) (*AccessPolicy, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		pattern := normalizePath(rule.Pattern)
		matcher, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid route pattern").
				WithMetadata(map[string]any{"pattern": rule.Pattern})
		}

		cr := compiledRule{rule: rule, matcher: matcher}
		if base, ok := strings.CutSuffix(pattern, "/**"); ok {
			cr.base = base
		}
		compiled = append(compiled, cr)
	}
	return &AccessPolicy{rules: compiled}, nil
}

// MustAccessPolicy is NewAccessPolicy that panics on compile errors,
// for statically known rule sets.
func MustAccessPolicy(rules []RouteRule) *AccessPolicy {
	policy, err := NewAccessPolicy(rules)
	if err != nil {
		panic(err)
	}
	return policy
}

// DefaultAccessPolicy mirrors the backend's route protection: admin
// subtrees demand the ADMIN role, auth and user self-service plus the
// API docs are public, everything else needs an identity. Admin rules
// come first so the broader public rules never shadow them.
func DefaultAccessPolicy() *AccessPolicy {
	return MustAccessPolicy([]RouteRule{
		{Pattern: "/users/admin/**", Requirement: RequireRole, Role: RoleAdmin},
		{Pattern: "/comments/admin/**", Requirement: RequireRole, Role: RoleAdmin},
		{Pattern: "/tasks/admin/**", Requirement: RequireRole, Role: RoleAdmin},
		{Pattern: "/auth/admin/**", Requirement: RequireRole, Role: RoleAdmin},
		{Pattern: "/auth/**", Requirement: Public},
		{Pattern: "/users/**", Requirement: Public},
		{Pattern: "/swagger-ui/**", Requirement: Public},
		{Pattern: "/swagger-resources/*", Requirement: Public},
		{Pattern: "/v3/api-docs/**", Requirement: Public},
		{Pattern: "/**", Requirement: Authenticated},
	})
}

// Decide evaluates a request path against the policy. identity is nil for
// anonymous callers. Paths that match no rule are denied, so a policy
// without a catch-all fails closed.
func (p *AccessPolicy) Decide(path string, identity Identity) Decision {
	path = normalizePath(path)

	for _, cr := range p.rules {
		if !cr.matches(path) {
			continue
		}

		switch cr.rule.Requirement {
		case Public:
			return Decision{Outcome: Allow}
		case Authenticated:
			if identity == nil {
				return Decision{Outcome: DenyUnauthenticated, Reason: "authentication required"}
			}
			return Decision{Outcome: Allow}
		case RequireRole:
			if identity == nil {
				return Decision{Outcome: DenyUnauthenticated, Reason: "authentication required"}
			}
			if identity.Role() != cr.rule.Role {
				return Decision{
					Outcome: DenyForbidden,
					Reason:  fmt.Sprintf("requires role %s", cr.rule.Role),
				}
			}
			return Decision{Outcome: Allow}
		}
	}

	if identity == nil {
		return Decision{Outcome: DenyUnauthenticated, Reason: "authentication required"}
	}
	return Decision{Outcome: DenyForbidden, Reason: "no matching route rule"}
}

func (cr compiledRule) matches(path string) bool {
	if cr.matcher.Match(path) {
		return true
	}
	// "/tasks/admin/**" should also guard "/tasks/admin"
	return cr.base != "" && path == cr.base
}

func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	// collapse "//tasks//admin" style paths so segment globs cannot be
	// sidestepped with empty segments
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}
