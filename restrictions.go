package identity

import (
	"net/http"
	"strconv"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Restriction binds a method/path pattern to the permission levels allowed
// through it. An empty Method matches any method. SubjectParam optionally
// names a path parameter holding a subject id: a caller whose own id is
// bound there passes regardless of level (self-access bypass).
type Restriction struct {
	Method       string
	Pattern      Pattern
	Allowed      []int
	SubjectParam string
}

// Restrict is a convenience constructor mirroring how the route table reads:
// Restrict("POST", "/users/profile", LevelAdmin).
func Restrict(method, pattern string, allowed ...int) Restriction {
	return Restriction{
		Method:  method,
		Pattern: ParsePattern(pattern),
		Allowed: allowed,
	}
}

// WithSubjectParam designates the path parameter holding the resource
// owner's subject id.
func (r Restriction) WithSubjectParam(name string) Restriction {
	r.SubjectParam = name
	return r
}

func (r Restriction) allows(level int) bool {
	for _, allowed := range r.Allowed {
		if allowed == level {
			return true
		}
	}
	return false
}

// Decision is the outcome of evaluating a request against a restriction set.
type Decision struct {
	// Allowed is the final verdict.
	Allowed bool
	// Governed reports whether any restriction matched the request at all;
	// ungoverned requests are allowed unconditionally.
	Governed bool
	// Status is the opaque HTTP status a rejection must answer with. It is
	// the same for every rejection cause so that restricted routes are not
	// discoverable by probing.
	Status int
	// SelfAccess is set when the verdict came from the self-access bypass
	// rather than a level membership.
	SelfAccess bool
}

// Evaluator holds an ordered restriction set and decides whether requests
// governed by it may proceed. The set is fixed at construction; evaluation
// is pure and safe for concurrent use.
type Evaluator struct {
	restrictions  []Restriction
	resolvers     *ResolverTable
	failureStatus int
	logger        Logger
}

type EvaluatorOption func(*Evaluator)

// WithFailureStatus overrides the status rejections answer with. The default
// 404 hides the existence of restricted routes; use 401 where obscuring
// existence is not desired.
func WithFailureStatus(status int) EvaluatorOption {
	return func(e *Evaluator) {
		if status > 0 {
			e.failureStatus = status
		}
	}
}

// WithResolvers replaces the parameter resolver table.
func WithResolvers(table *ResolverTable) EvaluatorOption {
	return func(e *Evaluator) {
		if table != nil {
			e.resolvers = table
		}
	}
}

// WithEvaluatorLogger sets the evaluator logger.
func WithEvaluatorLogger(logger Logger) EvaluatorOption {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEvaluator builds an evaluator over an ordered restriction set.
func NewEvaluator(restrictions []Restriction, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		restrictions:  restrictions,
		resolvers:     defaultResolvers,
		failureStatus: http.StatusNotFound,
		logger:        defLogger{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FailureStatus returns the status rejections are answered with.
func (e *Evaluator) FailureStatus() int {
	return e.failureStatus
}

// Evaluate decides whether a request may proceed. payload is nil when the
// request carried no verifiable credential; that alone is not a failure,
// ungoverned routes stay reachable without credentials.
//
// Every matching restriction is considered, not just the first: the request
// passes if the caller's level is in any matching restriction's allowed set,
// or if any matching restriction binds its subject parameter to the caller's
// own id. A parameter resolution failure is returned as an error and must be
// surfaced as a server fault, never as a routing miss.
func (e *Evaluator) Evaluate(method, path string, payload *AccessClaims) (Decision, error) {
	segments := SplitPath(path)

	governed := false
	for _, restriction := range e.restrictions {
		result, err := MatchPath(restriction.Pattern, restriction.Method, method, segments, e.resolvers)
		if err != nil {
			return Decision{}, errors.Wrap(
				err,
				errors.CategoryInternal,
				"restriction parameter resolution failed",
			).WithMetadata(map[string]any{
				"pattern": restriction.Pattern.String(),
				"path":    path,
			})
		}
		if !result.Matched {
			continue
		}
		governed = true

		if payload == nil {
			continue
		}

		if restriction.allows(payload.Level) {
			return Decision{Allowed: true, Governed: true}, nil
		}

		if restriction.SubjectParam != "" {
			if binding, ok := result.Bindings[restriction.SubjectParam]; ok {
				if bindingMatchesSubject(binding, payload.UID) {
					return Decision{Allowed: true, Governed: true, SelfAccess: true}, nil
				}
			}
		}
	}

	if !governed {
		return Decision{Allowed: true}, nil
	}

	return Decision{Governed: true, Status: e.failureStatus}, nil
}

// bindingMatchesSubject compares a resolved path parameter against the
// caller's subject id, trying the typed value first and falling back to the
// raw segment text.
func bindingMatchesSubject(binding Binding, subjectID int64) bool {
	switch v := binding.Value.(type) {
	case int64:
		return v == subjectID
	case int:
		return int64(v) == subjectID
	case string:
		return v == strconv.FormatInt(subjectID, 10)
	case uuid.UUID:
		// uuid-typed parameters cannot name an integer subject
		return false
	default:
		return binding.Raw == strconv.FormatInt(subjectID, 10)
	}
}
