package identity_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-identity"
)

func payloadWithLevel(uid int64, level int) *auth.AccessClaims {
	return &auth.AccessClaims{UID: uid, Level: level}
}

func TestEvaluateUngovernedRouteAllowsAnonymous(t *testing.T) {
	evaluator := auth.NewEvaluator(auth.DefaultRestrictions())

	decision, err := evaluator.Evaluate("DELETE", "/attributes/1", nil)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.False(t, decision.Governed)
}

func TestEvaluateGovernedRouteRejectsAnonymous(t *testing.T) {
	evaluator := auth.NewEvaluator(auth.DefaultRestrictions())

	decision, err := evaluator.Evaluate("GET", "/users", nil)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.True(t, decision.Governed)
	assert.Equal(t, http.StatusNotFound, decision.Status)
}

func TestEvaluateLevelMembership(t *testing.T) {
	evaluator := auth.NewEvaluator(auth.DefaultRestrictions())

	decision, err := evaluator.Evaluate("GET", "/users", payloadWithLevel(1, auth.LevelAdmin))
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.False(t, decision.SelfAccess)

	decision, err = evaluator.Evaluate("GET", "/users", payloadWithLevel(42, auth.LevelStandard))
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, http.StatusNotFound, decision.Status)
}

func TestEvaluateSelfAccessBypass(t *testing.T) {
	evaluator := auth.NewEvaluator(auth.DefaultRestrictions())

	// a standard user may edit their own record
	decision, err := evaluator.Evaluate("PATCH", "/users/42", payloadWithLevel(42, auth.LevelStandard))
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.True(t, decision.SelfAccess)

	// but not someone else's
	decision, err = evaluator.Evaluate("PATCH", "/users/42", payloadWithLevel(7, auth.LevelStandard))
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, http.StatusNotFound, decision.Status)

	// admin passes through level membership, not self access
	decision, err = evaluator.Evaluate("PATCH", "/users/42", payloadWithLevel(1, auth.LevelAdmin))
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.False(t, decision.SelfAccess)
}

func TestEvaluateEveryMatchingRestrictionIsConsidered(t *testing.T) {
	restrictions := []auth.Restriction{
		auth.Restrict("GET", "/reports/**", auth.LevelAdmin),
		auth.Restrict("GET", "/reports/:ownerID(int)", auth.LevelModerator).WithSubjectParam("ownerID"),
	}
	evaluator := auth.NewEvaluator(restrictions)

	// rejected by the first restriction, admitted by the second via self access
	decision, err := evaluator.Evaluate("GET", "/reports/9", payloadWithLevel(9, auth.LevelStandard))
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.True(t, decision.SelfAccess)

	// matches both, passes neither
	decision, err = evaluator.Evaluate("GET", "/reports/9", payloadWithLevel(3, auth.LevelStandard))
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestEvaluateCustomLevels(t *testing.T) {
	restrictions := []auth.Restriction{
		auth.Restrict("POST", "/imports", 7, 12),
	}
	evaluator := auth.NewEvaluator(restrictions)

	decision, err := evaluator.Evaluate("POST", "/imports", payloadWithLevel(1, 12))
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = evaluator.Evaluate("POST", "/imports", payloadWithLevel(1, auth.LevelAdmin))
	require.NoError(t, err)
	assert.False(t, decision.Allowed, "admin is not implicitly in a custom allowed set")
}

func TestEvaluateFailureStatusOverride(t *testing.T) {
	evaluator := auth.NewEvaluator(
		auth.DefaultRestrictions(),
		auth.WithFailureStatus(http.StatusUnauthorized),
	)
	assert.Equal(t, http.StatusUnauthorized, evaluator.FailureStatus())

	decision, err := evaluator.Evaluate("GET", "/users", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, decision.Status)
}

func TestEvaluateRejectionStatusIsUniform(t *testing.T) {
	evaluator := auth.NewEvaluator(auth.DefaultRestrictions())

	anonymous, err := evaluator.Evaluate("GET", "/users", nil)
	require.NoError(t, err)
	wrongLevel, err := evaluator.Evaluate("GET", "/users", payloadWithLevel(5, auth.LevelStandard))
	require.NoError(t, err)
	notOwner, err := evaluator.Evaluate("DELETE", "/users/42", payloadWithLevel(7, auth.LevelStandard))
	require.NoError(t, err)

	// a probing client cannot tell the rejection causes apart
	assert.Equal(t, anonymous.Status, wrongLevel.Status)
	assert.Equal(t, wrongLevel.Status, notOwner.Status)
}

func TestEvaluateResolutionFailureIsAnError(t *testing.T) {
	evaluator := auth.NewEvaluator([]auth.Restriction{
		auth.Restrict("GET", "/users/:userID(int)", auth.LevelAdmin),
	})

	// the pattern applies structurally but the parameter cannot resolve;
	// this must surface as a server fault, not as an ungoverned pass
	_, err := evaluator.Evaluate("GET", "/users/not-a-number", payloadWithLevel(1, auth.LevelAdmin))
	require.Error(t, err)
}

func TestEvaluateSubjectParamStringKind(t *testing.T) {
	evaluator := auth.NewEvaluator([]auth.Restriction{
		auth.Restrict("GET", "/profiles/:owner", auth.LevelAdmin).WithSubjectParam("owner"),
	})

	decision, err := evaluator.Evaluate("GET", "/profiles/42", payloadWithLevel(42, auth.LevelStandard))
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.True(t, decision.SelfAccess)

	decision, err = evaluator.Evaluate("GET", "/profiles/41", payloadWithLevel(42, auth.LevelStandard))
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestDefaultRestrictionsTable(t *testing.T) {
	evaluator := auth.NewEvaluator(auth.DefaultRestrictions())

	// profile editing is admin only
	decision, err := evaluator.Evaluate("POST", "/users/profile", payloadWithLevel(3, auth.LevelStandard))
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	// reading the profile is ungoverned, authentication happens in the handler
	decision, err = evaluator.Evaluate("GET", "/users/profile", payloadWithLevel(3, auth.LevelStandard))
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.False(t, decision.Governed)
}
