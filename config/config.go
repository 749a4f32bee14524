package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/goliatone/go-errors"
)

// BaseConfig is the application configuration root. go-config hydrates it
// from config files and environment overrides.
type BaseConfig struct {
	Name        string       `json:"name"`
	Env         string       `json:"env"`
	Auth        *Auth        `json:"auth"`
	Server      *Server      `json:"server"`
	Persistence *Persistence `json:"persistence"`
	Mail        *Mail        `json:"mail"`
}

func (a *BaseConfig) Validate() error {
	if a.Auth == nil {
		return errors.New("missing auth configuration", errors.CategoryValidation)
	}
	if a.Auth.SigningModulus == "" || a.Auth.SigningPrivateExponent == "" {
		return errors.New("missing signing key material", errors.CategoryValidation)
	}
	return nil
}

func (a *BaseConfig) GetName() string {
	return a.Name
}

func (a *BaseConfig) GetEnv() string {
	return a.Env
}

func (a *BaseConfig) GetAuth() *Auth {
	if a.Auth == nil {
		a.Auth = &Auth{}
	}
	return a.Auth
}

func (a *BaseConfig) GetServer() *Server {
	if a.Server == nil {
		a.Server = &Server{}
	}
	return a.Server
}

func (a *BaseConfig) GetPersistence() *Persistence {
	if a.Persistence == nil {
		a.Persistence = &Persistence{}
	}
	return a.Persistence
}

func (a *BaseConfig) GetMail() *Mail {
	if a.Mail == nil {
		a.Mail = &Mail{}
	}
	return a.Mail
}

// Auth carries the token signing and middleware settings. The duration
// fields hold expressions like "1h" or "720h", parsed on access.
type Auth struct {
	SigningModulus         string   `json:"signing_modulus"`
	SigningPublicExponent  string   `json:"signing_public_exponent"`
	SigningPrivateExponent string   `json:"signing_private_exponent"`
	SigningKeyID           string   `json:"signing_key_id"`
	Issuer                 string   `json:"issuer"`
	Audience               []string `json:"audience"`
	AccessTokenExpression  string   `json:"access_token_ttl"`
	RefreshTokenExpression string   `json:"refresh_token_ttl"`
	TokenLookup            string   `json:"token_lookup"`
	AuthScheme             string   `json:"auth_scheme"`
	ContextKey             string   `json:"context_key"`
	RestrictedStatus       int      `json:"restricted_status"`
	RequireConfirmation    bool     `json:"require_confirmation"`
	AccountActivationURL   string   `json:"account_activation_url"`
	// CustomLevels maps extra permission level identifiers to their display
	// names, keyed by the integer id as a string ("3": "support").
	CustomLevels map[string]string `json:"custom_levels"`
}

func (a *Auth) GetSigningModulus() string {
	return a.SigningModulus
}

func (a *Auth) GetSigningPublicExponent() string {
	return a.SigningPublicExponent
}

func (a *Auth) GetSigningPrivateExponent() string {
	return a.SigningPrivateExponent
}

func (a *Auth) GetSigningKeyID() string {
	return a.SigningKeyID
}

func (a *Auth) GetIssuer() string {
	return a.Issuer
}

func (a *Auth) GetAudience() []string {
	return a.Audience
}

func (a *Auth) GetAccessTokenTTL() time.Duration {
	return parseDurationExpression(a.AccessTokenExpression, time.Hour)
}

func (a *Auth) GetRefreshTokenTTL() time.Duration {
	return parseDurationExpression(a.RefreshTokenExpression, 30*24*time.Hour)
}

func (a *Auth) GetTokenLookup() string {
	return a.TokenLookup
}

func (a *Auth) GetAuthScheme() string {
	return a.AuthScheme
}

func (a *Auth) GetContextKey() string {
	return a.ContextKey
}

func (a *Auth) GetRestrictedStatus() int {
	return a.RestrictedStatus
}

func (a *Auth) GetRequireConfirmation() bool {
	return a.RequireConfirmation
}

func (a *Auth) GetAccountActivationURL() string {
	return a.AccountActivationURL
}

// GetCustomLevels returns the extra permission levels to register at
// bootstrap. Keys that do not parse as integers are skipped.
func (a *Auth) GetCustomLevels() map[int]string {
	out := make(map[int]string, len(a.CustomLevels))
	for key, name := range a.CustomLevels {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		out[id] = name
	}
	return out
}

// Server holds the HTTP listener settings.
type Server struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func (s *Server) GetAddress() string {
	host := s.Host
	port := s.Port
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// Persistence holds the database settings consumed by go-persistence-bun.
type Persistence struct {
	Debug                 bool   `json:"debug"`
	Driver                string `json:"driver"`
	Server                string `json:"server"`
	DSN                   string `json:"dsn"`
	PingTimeoutExpression string `json:"ping_timeout"`
	Seed                  bool   `json:"seed"`
}

func (p *Persistence) GetDebug() bool {
	return p.Debug
}

func (p *Persistence) GetDriver() string {
	if p.Driver == "" {
		return "sqlite"
	}
	return p.Driver
}

func (p *Persistence) GetServer() string {
	return p.Server
}

func (p *Persistence) GetDSN() string {
	if p.DSN == "" {
		return "file::memory:?cache=shared"
	}
	return p.DSN
}

func (p *Persistence) GetPingTimeout() time.Duration {
	return parseDurationExpression(p.PingTimeoutExpression, 5*time.Second)
}

func (p *Persistence) GetSeed() bool {
	return p.Seed
}

func (p *Persistence) GetOtelIdentifier() string {
	return ""
}

// Mail holds the SMTP transport settings. An empty host keeps the logging
// mailer in place.
type Mail struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

func (m *Mail) GetHost() string {
	return m.Host
}

func (m *Mail) GetPort() int {
	if m.Port == 0 {
		return 587
	}
	return m.Port
}

func (m *Mail) GetUsername() string {
	return m.Username
}

func (m *Mail) GetPassword() string {
	return m.Password
}

func (m *Mail) GetFrom() string {
	return m.From
}

func parseDurationExpression(expr string, def time.Duration) time.Duration {
	if expr == "" {
		return def
	}
	dur, err := time.ParseDuration(expr)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", expr),
		)
	}
	return dur
}
