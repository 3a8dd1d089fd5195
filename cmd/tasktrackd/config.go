package main

import (
	"github.com/joeshaw/envdecode"
	"github.com/tasktrack/tasktrack"
)

// AppConfig is loaded once at startup from the environment.
type AppConfig struct {
	ListenAddr string `env:"LISTEN_ADDR,default=:8080"`
	DSN        string `env:"DATABASE_DSN,default=file:tasktrack.db?cache=shared&mode=rwc"`
	LogLevel   string `env:"LOG_LEVEL,default=info"`

	SigningKey  string `env:"JWT_SIGNING_KEY,required"`
	TokenTTLMs  int64  `env:"JWT_TTL_MS,default=86400000"`
	Issuer      string `env:"JWT_ISSUER,default=Task Management System"`
	ContextKey  string `env:"AUTH_CONTEXT_KEY,default=identity"`
	TokenLookup string `env:"AUTH_TOKEN_LOOKUP,default=header:Authorization"`
	AuthScheme  string `env:"AUTH_SCHEME,default=Bearer"`

	// SeedAdminEmail/Password create an admin account at startup when set
	SeedAdminEmail    string `env:"SEED_ADMIN_EMAIL,default="`
	SeedAdminPassword string `env:"SEED_ADMIN_PASSWORD,default="`
}

func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := envdecode.Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) GetSigningKey() string    { return c.SigningKey }
func (c *AppConfig) GetSigningMethod() string { return "HS256" }
func (c *AppConfig) GetContextKey() string    { return c.ContextKey }
func (c *AppConfig) GetTokenTTL() int64       { return c.TokenTTLMs }
func (c *AppConfig) GetTokenLookup() string   { return c.TokenLookup }
func (c *AppConfig) GetAuthScheme() string    { return c.AuthScheme }
func (c *AppConfig) GetIssuer() string        { return c.Issuer }

var _ tasktrack.Config = (*AppConfig)(nil)
