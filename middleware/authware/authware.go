// Package authware provides the request authentication middleware: it
// extracts a bearer token, validates it, resolves the subject to a live
// identity, and installs that identity into the request context. It never
// rejects a request; denial is the access policy middleware's job.
package authware

import (
	"strings"

	"github.com/goliatone/go-router"
	"github.com/tasktrack/tasktrack"
)

var defaultTokenLookup = "header:" + router.HeaderAuthorization

type Config struct {
	// Filter skips the middleware entirely when it returns true
	Filter func(router.Context) bool

	// Validator checks token signatures and claims. Required.
	Validator tasktrack.TokenValidator

	// Resolver maps a token subject to a live identity. Required.
	Resolver tasktrack.IdentityResolver

	// ContextKey is the router locals key the identity is stored under
	// (default: "identity")
	ContextKey string

	// TokenLookup is a comma separated list of "source:name" entries,
	// e.g. "header:Authorization,query:auth_token,cookie:jwt"
	TokenLookup string

	// AuthScheme is the expected scheme prefix for header extraction
	// (default: "Bearer"). Matching is case sensitive.
	AuthScheme string

	Logger tasktrack.Logger
}

func getConfig(config ...Config) Config {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Validator == nil {
		panic("authware: Validator is required")
	}

	if cfg.Resolver == nil {
		panic("authware: Resolver is required")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "identity"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}

	return cfg
}

// New builds the authentication middleware. Requests without a usable
// token pass through anonymous: the identity slot is cleared so a stale
// value can never leak across requests, and no validator or store call
// is made. Failures during validation or resolution also pass through
// anonymous; this middleware never terminates a request.
func New(config ...Config) router.MiddlewareFunc {
	cfg := getConfig(config...)
	extractors := GetExtractors(cfg.TokenLookup, cfg.AuthScheme)

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			raw := extractRawToken(ctx, extractors)
			if raw == "" {
				resetIdentity(ctx, cfg.ContextKey)
				return ctx.Next()
			}

			claims, err := cfg.Validator.Validate(raw)
			if err != nil {
				cfg.Logger.Debug("authware token rejected", "error", err)
				resetIdentity(ctx, cfg.ContextKey)
				return ctx.Next()
			}

			identity, err := cfg.Resolver.FindIdentityByIdentifier(ctx.Context(), claims.Subject())
			if err != nil {
				cfg.Logger.Debug("authware identity resolution failed", "subject", claims.Subject(), "error", err)
				resetIdentity(ctx, cfg.ContextKey)
				return ctx.Next()
			}

			ctx.Locals(cfg.ContextKey, identity)
			ctx.SetContext(tasktrack.WithIdentityContext(ctx.Context(), identity))

			return ctx.Next()
		}
	}
}

// resetIdentity clears the identity slot in router locals and, when one
// was installed there, in the standard context too. Both stores have to
// be scrubbed or a stale identity would survive through the std context
// fallback.
func resetIdentity(ctx router.Context, contextKey string) {
	ctx.Locals(contextKey, nil)

	stdCtx := ctx.Context()
	if cleared := tasktrack.ClearIdentityContext(stdCtx); cleared != stdCtx {
		ctx.SetContext(cleared)
	}
}

// Extractor pulls a raw token out of the request, returning "" when absent.
type Extractor func(router.Context) string

func extractRawToken(ctx router.Context, extractors []Extractor) string {
	for _, extractor := range extractors {
		if raw := extractor(ctx); raw != "" {
			return raw
		}
	}
	return ""
}

// GetExtractors parses a token lookup string into extractor functions.
func GetExtractors(tokenLookup string, authSchemes ...string) []Extractor {
	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = authSchemes[0]
	}

	extractors := make([]Extractor, 0)

	// header:Authorization,query:auth_token,cookie:jwt
	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) != 2 {
			continue
		}

		source, name := parts[0], parts[1]
		switch source {
		case "header":
			extractors = append(extractors, tokenFromHeader(name, authScheme))
		case "query":
			extractors = append(extractors, tokenFromQuery(name))
		case "cookie":
			extractors = append(extractors, tokenFromCookie(name))
		}
	}

	return extractors
}

// tokenFromHeader returns the token from the given header. The scheme
// prefix is matched case sensitively, so "bearer x" is not accepted.
func tokenFromHeader(header, authScheme string) Extractor {
	prefix := authScheme + " "
	return func(c router.Context) string {
		value := c.GetString(header, "")
		if value == "" {
			return ""
		}
		token, found := strings.CutPrefix(value, prefix)
		if !found || token == "" {
			return ""
		}
		return token
	}
}

func tokenFromQuery(param string) Extractor {
	return func(c router.Context) string {
		return c.Query(param)
	}
}

func tokenFromCookie(name string) Extractor {
	return func(c router.Context) string {
		return c.Cookies(name)
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
