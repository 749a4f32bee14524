package restrictware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	identity "github.com/goliatone/go-identity"
	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup       = "header:" + router.HeaderAuthorization
	ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")
)

// TokenVerifier mirrors the token service surface the middleware needs.
type TokenVerifier interface {
	Verify(tokenString string) (*identity.AccessClaims, error)
}

// Config drives the restriction middleware. A missing or unverifiable token
// is not itself a failure: the request proceeds without a payload and the
// evaluator decides whether the route demands one. Rejections answer with
// the evaluator's opaque status so restricted routes stay undiscoverable.
type Config struct {
	// Filter skips the middleware entirely when it returns true.
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	// ErrorHandler receives evaluation faults, never authorization
	// rejections; those answer with the opaque status directly.
	ErrorHandler router.ErrorHandler

	// Verifier checks tokens minted by this process.
	Verifier TokenVerifier

	// Evaluator decides governed requests. When nil one is built from
	// Restrictions.
	Evaluator    *identity.Evaluator
	Restrictions []identity.Restriction

	// KeyFunc, SigningKeys and JWKSetURLs verify tokens minted elsewhere,
	// for deployments where a peer service owns the signing key.
	KeyFunc     jwt.Keyfunc
	SigningKeys map[string]SigningKey
	JWKSetURLs  []string

	ContextKey  string
	TokenLookup string
	AuthScheme  string

	// ContextEnricher propagates the payload to the standard context after
	// a successful evaluation.
	ContextEnricher func(context.Context, *identity.AccessClaims) context.Context

	Logger identity.Logger
}

type SigningKey struct {
	JWTAlg string
	Key    any
}

// New builds the authorization middleware over a restriction set.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			var payload *identity.AccessClaims

			raw, err := ExtractRawTokenFromContext(ctx, cfg.getExtractors())
			if raw != "" && err == nil {
				claims, verr := cfg.verify(raw)
				if verr != nil {
					cfg.Logger.Debug("token rejected, treating request as anonymous", "error", verr)
				} else {
					payload = claims
				}
			}

			decision, err := cfg.Evaluator.Evaluate(ctx.Method(), requestPath(ctx), payload)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if !decision.Allowed {
				return ctx.Status(decision.Status).SendString(http.StatusText(decision.Status))
			}

			if payload != nil {
				ctx.Locals(cfg.ContextKey, payload)

				if cfg.ContextEnricher != nil {
					ctx.SetContext(cfg.ContextEnricher(ctx.Context(), payload))
				}
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

// requestPath strips the query string so evaluation sees the bare path.
func requestPath(ctx router.Context) string {
	url := ctx.OriginalURL()
	if i := strings.IndexByte(url, '?'); i >= 0 {
		url = url[:i]
	}
	return url
}

func (cfg *Config) verify(raw string) (*identity.AccessClaims, error) {
	if cfg.Verifier != nil {
		return cfg.Verifier.Verify(raw)
	}

	claims := &identity.AccessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, cfg.KeyFunc,
		jwt.WithValidMethods([]string{identity.SigningAlgorithm}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			return c.Status(router.StatusInternalServerError).SendString("Internal Server Error")
		}
	}

	if cfg.Logger == nil {
		cfg.Logger = defLogger{}
	}

	if cfg.Verifier == nil && cfg.KeyFunc == nil && len(cfg.SigningKeys) == 0 && len(cfg.JWKSetURLs) == 0 {
		panic("RESTRICT: middleware configuration: At least one of the following is required: Verifier, KeyFunc, SigningKeys, or JWKSetURLs.")
	}

	if cfg.Evaluator == nil {
		cfg.Evaluator = identity.NewEvaluator(cfg.Restrictions, identity.WithEvaluatorLogger(cfg.Logger))
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "payload"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.Verifier == nil && cfg.KeyFunc == nil {
		var givenKeys map[string]keyfunc.GivenKey
		if cfg.SigningKeys != nil {
			givenKeys = make(map[string]keyfunc.GivenKey, len(cfg.SigningKeys))
			for kid, key := range cfg.SigningKeys {
				givenKeys[kid] = keyfunc.NewGivenCustom(key.Key, keyfunc.GivenKeyOptions{
					Algorithm: key.JWTAlg,
				})
			}
		}
		if len(cfg.JWKSetURLs) > 0 {
			var err error
			cfg.KeyFunc, err = multiKeyfunc(givenKeys, cfg.JWKSetURLs)
			if err != nil {
				panic("Failed to create keyfunc from JWK Set URL: " + err.Error())
			}
		} else {
			cfg.KeyFunc = keyfunc.NewGiven(givenKeys).Keyfunc
		}
	}

	if cfg.ContextEnricher == nil {
		cfg.ContextEnricher = identity.WithPayloadContext
	}

	return cfg
}

func multiKeyfunc(givenKeys map[string]keyfunc.GivenKey, jwtSetUrls []string) (jwt.Keyfunc, error) {
	opts := keyfuncOptions(givenKeys)
	m := make(map[string]keyfunc.Options, len(jwtSetUrls))
	for _, url := range jwtSetUrls {
		m[url] = opts
	}
	mopts := keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	}
	multi, err := keyfunc.GetMultiple(m, mopts)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWT URLs: %w", err)
	}
	return multi.Keyfunc, nil
}

func keyfuncOptions(givenKeys map[string]keyfunc.GivenKey) keyfunc.Options {
	return keyfunc.Options{
		GivenKeys: givenKeys,
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWT set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}
}

func (cfg *Config) getExtractors() []TokenExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

// ExtractRawTokenFromContext runs the extractors in order and returns the
// first raw token found.
func ExtractRawTokenFromContext(ctx router.Context, extractors []TokenExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(ctx)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

// GetExtractors parses a lookup expression like
// "header:Authorization,cookie:jwt,query:auth_token,param:token" into the
// extractor chain.
func GetExtractors(tokenLookup string, authSchemes ...string) []TokenExtractor {
	extractors := make([]TokenExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = authSchemes[0]
	}

	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) != 2 {
			continue
		}

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, tokenFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, tokenFromQuery(parts[1]))
		case "param":
			extractors = append(extractors, tokenFromParam(parts[1]))
		case "cookie":
			extractors = append(extractors, tokenFromCookie(parts[1]))
		}
	}

	return extractors
}

type TokenExtractor func(c router.Context) (string, error)

// tokenFromHeader returns a function that extracts the token from the
// request header, honoring the auth scheme prefix.
func tokenFromHeader(header string, authScheme string) TokenExtractor {
	return func(c router.Context) (string, error) {
		a := c.GetString(header, "")
		scheme := strings.TrimSpace(authScheme)
		l := len(scheme)
		if l == 0 {
			return "", ErrJWTMissingOrMalformed
		}
		if len(a) > l+1 && strings.EqualFold(a[:l], scheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrJWTMissingOrMalformed
	}
}

func tokenFromQuery(param string) TokenExtractor {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

func tokenFromParam(param string) TokenExtractor {
	return func(c router.Context) (string, error) {
		token := c.Param(param)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

func tokenFromCookie(name string) TokenExtractor {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) { log.Printf("[ERR] RESTRICT "+format, args...) }
func (d defLogger) Warn(format string, args ...any)  { log.Printf("[WRN] RESTRICT "+format, args...) }
func (d defLogger) Info(format string, args ...any)  { log.Printf("[INF] RESTRICT "+format, args...) }
func (d defLogger) Debug(format string, args ...any) { log.Printf("[DBG] RESTRICT "+format, args...) }
