package authware

import (
	"github.com/goliatone/go-router"
	"github.com/tasktrack/tasktrack"
)

// PolicyConfig configures the access policy middleware.
type PolicyConfig struct {
	// Policy is the compiled rule set. Required.
	Policy *tasktrack.AccessPolicy

	// ContextKey is the router locals key the authenticator stored the
	// identity under (default: "identity")
	ContextKey string

	// OnUnauthenticated and OnForbidden render denials. Defaults write
	// the standard JSON bodies.
	OnUnauthenticated func(ctx router.Context, decision tasktrack.Decision) error
	OnForbidden       func(ctx router.Context, decision tasktrack.Decision) error

	Logger tasktrack.Logger
}

// Protect builds the access policy middleware. It reads the identity the
// authenticator installed (nil for anonymous callers), asks the policy for
// a decision, and either forwards the request or renders the denial. It is
// the only place a 401 or 403 is produced.
func Protect(config ...PolicyConfig) router.MiddlewareFunc {
	var cfg PolicyConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Policy == nil {
		panic("authware: Policy is required")
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = "identity"
	}
	if cfg.OnUnauthenticated == nil {
		cfg.OnUnauthenticated = RespondUnauthenticated
	}
	if cfg.OnForbidden == nil {
		cfg.OnForbidden = RespondForbidden
	}
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			var identity tasktrack.Identity
			if resolved, ok := tasktrack.IdentityFromRouterContext(ctx, cfg.ContextKey); ok {
				identity = resolved
			}

			decision := cfg.Policy.Decide(ctx.Path(), identity)

			switch decision.Outcome {
			case tasktrack.Allow:
				return ctx.Next()
			case tasktrack.DenyUnauthenticated:
				return cfg.OnUnauthenticated(ctx, decision)
			default:
				cfg.Logger.Debug("authware access denied", "path", ctx.Path(), "reason", decision.Reason)
				return cfg.OnForbidden(ctx, decision)
			}
		}
	}
}

// RespondUnauthenticated writes the 401 body. It never leaks why the
// request had no usable identity.
func RespondUnauthenticated(ctx router.Context, decision tasktrack.Decision) error {
	return ctx.JSON(router.StatusUnauthorized, map[string]string{
		"error":   "Unauthorized",
		"message": "authentication required",
	})
}

// RespondForbidden writes the 403 body with the policy's reason.
func RespondForbidden(ctx router.Context, decision tasktrack.Decision) error {
	return ctx.JSON(router.StatusForbidden, map[string]string{
		"error":   "Access Denied",
		"message": decision.Reason,
	})
}
