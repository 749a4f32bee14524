package identity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type segmentKind int

const (
	segmentLiteral segmentKind = iota
	segmentWildcard
	segmentCatchAll
	segmentParameter
)

// Segment is one element of a path pattern.
type Segment struct {
	kind segmentKind
	// literal text, or the parameter name for parameter segments
	value string
	// resolver type name for parameter segments, e.g. "int", "uuid", "string"
	paramKind string
}

// Lit matches a path segment by exact, case sensitive comparison.
func Lit(value string) Segment {
	return Segment{kind: segmentLiteral, value: value}
}

// Wildcard consumes exactly one path segment without inspecting its value.
func Wildcard() Segment {
	return Segment{kind: segmentWildcard}
}

// CatchAll matches the remainder of the path unconditionally, regardless of
// how many segments are left on either side. It terminates the walk.
func CatchAll() Segment {
	return Segment{kind: segmentCatchAll}
}

// Param matches a path segment by parsing it with the resolver registered
// for the given type name, binding the result under name.
func Param(name, kind string) Segment {
	return Segment{kind: segmentParameter, value: name, paramKind: kind}
}

func (s Segment) String() string {
	switch s.kind {
	case segmentWildcard:
		return "*"
	case segmentCatchAll:
		return "**"
	case segmentParameter:
		return ":" + s.value + "(" + s.paramKind + ")"
	default:
		return s.value
	}
}

// Pattern is an ordered sequence of segments, configured at startup and
// immutable thereafter.
type Pattern []Segment

// ParsePattern builds a pattern from a route expression. `*` is a single
// segment wildcard, `**` a catch-all, `:name` a string parameter and
// `:name(kind)` a typed parameter, e.g. "/users/:userID(int)/**".
func ParsePattern(expr string) Pattern {
	parts := SplitPath(expr)
	pattern := make(Pattern, 0, len(parts))

	for _, part := range parts {
		switch {
		case part == "**":
			pattern = append(pattern, CatchAll())
		case part == "*":
			pattern = append(pattern, Wildcard())
		case strings.HasPrefix(part, ":"):
			name := strings.TrimPrefix(part, ":")
			kind := "string"
			if open := strings.Index(name, "("); open > 0 && strings.HasSuffix(name, ")") {
				kind = name[open+1 : len(name)-1]
				name = name[:open]
			}
			pattern = append(pattern, Param(name, kind))
		default:
			pattern = append(pattern, Lit(part))
		}
	}

	return pattern
}

func (p Pattern) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return "/" + strings.Join(parts, "/")
}

// SplitPath breaks a request path into its segments, dropping empty ones so
// "/users/42" and "users/42/" normalize to the same sequence.
func SplitPath(path string) []string {
	raw := strings.Split(path, "/")
	segments := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// ParameterResolver parses a raw path segment into a typed value.
type ParameterResolver interface {
	Resolve(raw string) (any, error)
}

// ParameterResolverFunc adapts a function into a ParameterResolver.
type ParameterResolverFunc func(raw string) (any, error)

// Resolve satisfies the ParameterResolver interface.
func (f ParameterResolverFunc) Resolve(raw string) (any, error) {
	return f(raw)
}

// ResolverTable maps parameter type names to resolvers. It is built once at
// startup and read only afterwards, so lookups need no synchronization.
type ResolverTable struct {
	resolvers map[string]ParameterResolver
}

// NewResolverTable returns a table with the built in resolvers (int, uuid,
// string) plus any extras. Extras win on name collision so applications can
// replace a built in.
func NewResolverTable(extras ...map[string]ParameterResolver) *ResolverTable {
	table := map[string]ParameterResolver{
		"int": ParameterResolverFunc(func(raw string) (any, error) {
			return strconv.ParseInt(raw, 10, 64)
		}),
		"uuid": ParameterResolverFunc(func(raw string) (any, error) {
			return uuid.Parse(raw)
		}),
		"string": ParameterResolverFunc(func(raw string) (any, error) {
			return raw, nil
		}),
	}

	for _, extra := range extras {
		for name, resolver := range extra {
			if resolver != nil {
				table[name] = resolver
			}
		}
	}

	return &ResolverTable{resolvers: table}
}

func (t *ResolverTable) lookup(kind string) (ParameterResolver, bool) {
	r, ok := t.resolvers[kind]
	return r, ok
}

// Binding is the value captured for a named parameter: the raw path segment
// plus the typed value its resolver produced.
type Binding struct {
	Raw   string
	Value any
}

// MatchResult reports whether a pattern governs a request and carries the
// parameter bindings when it does. The zero value is "no match".
type MatchResult struct {
	Matched  bool
	Bindings map[string]Binding
}

// ResolutionError means a declared parameter could not parse a path segment
// into its declared type. This is a configuration or input fault, distinct
// from "pattern does not apply", and is never downgraded to a plain miss.
type ResolutionError struct {
	Param string
	Kind  string
	Raw   string
	cause error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve parameter %q (%s) from segment %q: %v", e.Param, e.Kind, e.Raw, e.cause)
}

func (e *ResolutionError) Unwrap() error {
	return e.cause
}

// MatchPath walks pattern and path segments pairwise. An empty pattern method
// matches every request method. A ResolutionError is returned as a non nil
// error with a zero MatchResult; plain misses return the zero result with a
// nil error.
func MatchPath(pattern Pattern, patternMethod, method string, path []string, resolvers *ResolverTable) (MatchResult, error) {
	if patternMethod != "" && !strings.EqualFold(patternMethod, method) {
		return MatchResult{}, nil
	}
	if resolvers == nil {
		resolvers = defaultResolvers
	}

	bindings := map[string]Binding{}

	for i, seg := range pattern {
		if seg.kind == segmentCatchAll {
			return MatchResult{Matched: true, Bindings: bindings}, nil
		}

		if i >= len(path) {
			return MatchResult{}, nil
		}
		actual := path[i]

		switch seg.kind {
		case segmentLiteral:
			if seg.value != actual {
				return MatchResult{}, nil
			}
		case segmentWildcard:
			// consumes the segment, value is irrelevant
		case segmentParameter:
			resolver, ok := resolvers.lookup(seg.paramKind)
			if !ok {
				return MatchResult{}, errors.New(
					"no parameter resolver registered",
					errors.CategoryInternal,
				).WithMetadata(map[string]any{
					"param": seg.value,
					"kind":  seg.paramKind,
				})
			}

			value, err := resolver.Resolve(actual)
			if err != nil {
				return MatchResult{}, &ResolutionError{
					Param: seg.value,
					Kind:  seg.paramKind,
					Raw:   actual,
					cause: err,
				}
			}
			bindings[seg.value] = Binding{Raw: actual, Value: value}
		}
	}

	// pattern exhausted with path segments left and no catch-all to absorb them
	if len(path) > len(pattern) {
		return MatchResult{}, nil
	}

	return MatchResult{Matched: true, Bindings: bindings}, nil
}

var defaultResolvers = NewResolverTable()
