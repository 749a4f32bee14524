package identity_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-identity"
)

func TestParsePattern(t *testing.T) {
	pattern := auth.ParsePattern("/users/:userID(int)/**")
	assert.Equal(t, "/users/:userID(int)/**", pattern.String())

	pattern = auth.ParsePattern("users/*/attributes/:key")
	assert.Equal(t, "/users/*/attributes/:key(string)", pattern.String())
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"users", "42"}, auth.SplitPath("/users/42"))
	assert.Equal(t, []string{"users", "42"}, auth.SplitPath("users/42/"))
	assert.Equal(t, []string{"users", "42"}, auth.SplitPath("//users//42"))
	assert.Empty(t, auth.SplitPath("/"))
	assert.Empty(t, auth.SplitPath(""))
}

func TestMatchPath(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		method  string
		reqVerb string
		path    string
		matched bool
	}{
		{
			name:    "literal match",
			pattern: "/users/profile",
			method:  "GET",
			reqVerb: "GET",
			path:    "/users/profile",
			matched: true,
		},
		{
			name:    "method is compared case insensitively",
			pattern: "/users/profile",
			method:  "get",
			reqVerb: "GET",
			path:    "/users/profile",
			matched: true,
		},
		{
			name:    "method mismatch",
			pattern: "/users/profile",
			method:  "POST",
			reqVerb: "GET",
			path:    "/users/profile",
			matched: false,
		},
		{
			name:    "empty method matches any verb",
			pattern: "/users/profile",
			method:  "",
			reqVerb: "DELETE",
			path:    "/users/profile",
			matched: true,
		},
		{
			name:    "literal segments are case sensitive",
			pattern: "/users/profile",
			method:  "GET",
			reqVerb: "GET",
			path:    "/Users/profile",
			matched: false,
		},
		{
			name:    "path longer than pattern",
			pattern: "/users/profile",
			method:  "GET",
			reqVerb: "GET",
			path:    "/users/profile/extra",
			matched: false,
		},
		{
			name:    "path shorter than pattern",
			pattern: "/users/profile",
			method:  "GET",
			reqVerb: "GET",
			path:    "/users",
			matched: false,
		},
		{
			name:    "wildcard consumes exactly one segment",
			pattern: "/users/*/attributes",
			method:  "GET",
			reqVerb: "GET",
			path:    "/users/42/attributes",
			matched: true,
		},
		{
			name:    "wildcard does not span segments",
			pattern: "/users/*/attributes",
			method:  "GET",
			reqVerb: "GET",
			path:    "/users/42/profile/attributes",
			matched: false,
		},
		{
			name:    "catch-all absorbs the remainder",
			pattern: "/admin/**",
			method:  "GET",
			reqVerb: "GET",
			path:    "/admin/reports/2024/summary",
			matched: true,
		},
		{
			name:    "catch-all matches empty remainder",
			pattern: "/admin/**",
			method:  "GET",
			reqVerb: "GET",
			path:    "/admin",
			matched: true,
		},
		{
			name:    "bare catch-all matches everything",
			pattern: "/**",
			method:  "",
			reqVerb: "PATCH",
			path:    "/literally/anything",
			matched: true,
		},
		{
			name:    "empty pattern only matches the root path",
			pattern: "/",
			method:  "GET",
			reqVerb: "GET",
			path:    "/",
			matched: true,
		},
		{
			name:    "empty pattern rejects non-empty path",
			pattern: "/",
			method:  "GET",
			reqVerb: "GET",
			path:    "/users",
			matched: false,
		},
		{
			name:    "trailing slash is normalized",
			pattern: "/users/profile",
			method:  "GET",
			reqVerb: "GET",
			path:    "/users/profile/",
			matched: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pattern := auth.ParsePattern(tt.pattern)
			result, err := auth.MatchPath(pattern, tt.method, tt.reqVerb, auth.SplitPath(tt.path), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.matched, result.Matched)
		})
	}
}

func TestMatchPathParameterBinding(t *testing.T) {
	pattern := auth.ParsePattern("/users/:userID(int)")

	result, err := auth.MatchPath(pattern, "PATCH", "PATCH", auth.SplitPath("/users/42"), nil)
	require.NoError(t, err)
	require.True(t, result.Matched)

	binding, ok := result.Bindings["userID"]
	require.True(t, ok)
	assert.Equal(t, "42", binding.Raw)
	assert.Equal(t, int64(42), binding.Value)
}

func TestMatchPathUUIDParameter(t *testing.T) {
	id := uuid.New()
	pattern := auth.ParsePattern("/attributes/:attrID(uuid)")

	result, err := auth.MatchPath(pattern, "", "GET", auth.SplitPath("/attributes/"+id.String()), nil)
	require.NoError(t, err)
	require.True(t, result.Matched)
	assert.Equal(t, id, result.Bindings["attrID"].Value)
}

func TestMatchPathResolutionFailure(t *testing.T) {
	pattern := auth.ParsePattern("/users/:userID(int)")

	// a miss is a nil error with a zero result, a resolution failure is not
	result, err := auth.MatchPath(pattern, "GET", "GET", auth.SplitPath("/users/not-a-number"), nil)
	require.Error(t, err)
	assert.False(t, result.Matched)

	var resErr *auth.ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "userID", resErr.Param)
	assert.Equal(t, "int", resErr.Kind)
	assert.Equal(t, "not-a-number", resErr.Raw)
}

func TestMatchPathUnknownResolverKind(t *testing.T) {
	pattern := auth.ParsePattern("/users/:userID(hex)")

	_, err := auth.MatchPath(pattern, "GET", "GET", auth.SplitPath("/users/2a"), nil)
	require.Error(t, err)

	var resErr *auth.ResolutionError
	assert.False(t, errors.As(err, &resErr), "missing resolver is a config fault, not a resolution error")
}

func TestResolverTableExtras(t *testing.T) {
	table := auth.NewResolverTable(map[string]auth.ParameterResolver{
		"upper": auth.ParameterResolverFunc(func(raw string) (any, error) {
			return "U:" + raw, nil
		}),
		// replacing a built in is allowed
		"int": auth.ParameterResolverFunc(func(raw string) (any, error) {
			return raw, nil
		}),
	})

	pattern := auth.ParsePattern("/things/:name(upper)")
	result, err := auth.MatchPath(pattern, "", "GET", auth.SplitPath("/things/abc"), table)
	require.NoError(t, err)
	require.True(t, result.Matched)
	assert.Equal(t, "U:abc", result.Bindings["name"].Value)

	pattern = auth.ParsePattern("/users/:id(int)")
	result, err = auth.MatchPath(pattern, "", "GET", auth.SplitPath("/users/42"), table)
	require.NoError(t, err)
	assert.Equal(t, "42", result.Bindings["id"].Value)
}
