package identity_test

import (
	"context"
	"testing"

	auth "github.com/goliatone/go-identity"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// 2048 bit RSA test key, generated for this suite only.
const (
	testKeyModulus         = "0Rg2cumtG6s1uvWgv2ne1WUScMp7nioTbDcSZea8ZmBP6WXwEfdoj2TmmEB7P48RHplXzktgwBQjLngKqGf5ynflzbPSImhPstYVgiknh7mJ7wqD7xIUnzOw8mGXjHWgxfbn7NY5YVaTZPv7SMDt5Z55FRDL72jppXDXUuJ-2WzWKx4SnEE_BwI57bNRSe1tiTLsNSH3YouHQIYVXx7oGy4QMRrbQDumJCe18vcNVGdmyIpOIJrE0Rz4il1zF8Ny4ptULJnBLKr92kg5EV4nS1v_svbzkiwejJTWgpnZaG3lBWXL6-v0VTaULOpRswDWXwRI9htVjJ-L5LW6lqSSOw"
	testKeyExponent        = "AQAB"
	testKeyPrivateExponent = "S1PHudpJTOB_ON1ojczcRFBnNk8b_bz2xlOIw0E-ujsUTuc0d6SD_LTDBjKktB8cccOYiG9LaadXjVQdstHSgYh0N4kCuPaPT8Qkd4HQBetnr8BAC46d80SyCH_0EtwFkYwDvaTngxOnggftXSZ0DfbrdBVbAuLu2XUvfWKvhDA0rciqtTtwgm0e5PBYeeBH-_yJ9TNCNwWnL0Sk8bdAH1BRC-J0o1NOG_vLIhivEMfKWoM7EwpW3NvFeX33Sw__j5z_zXR0w8h8nKhaXG4bBoSa0wPVhzpY_ADp7Zn_Jd4KjFL1Skl1FwWTXtjbvZwhVbK2J-vsZr1WiS7jOrIawQ"
)

// second key for signature mismatch scenarios
const (
	otherKeyModulus         = "2m7OnwXgsdmNkx8ViYosvQHVNXHj3k4CPsZg8m3mBxhxNxBelnnJnyh4I3iijyVvPFVxcupEGaXl6UEnP8_DJlv5PT5AVdwkiQzEOlXZOVqox24dfct1W7Y-8afRz-zo9jQ6RvIh2YtUhqvruoR1p78kyi8MgFkQh3nVBgHU2qhPnk7WYS1I82q2GcP4AysDIrzimQIwhIfPmkQqtxwEsCYuZAZgyT2vVPZHZqBXxkSkVOHWDBhkh6JE-gUqV238j9exL4ubJZAlh6M92A6CKLkhbKl3EMKRn4_xDGUdWBcr3GcQV1IocFeBH8UhIykaZypzuh6AYY67-L1_NEQh5w"
	otherKeyExponent        = "AQAB"
	otherKeyPrivateExponent = "CsP3TwMdJebRAXVAvHyg49fZSD8KugQiPDHOyWP9OFBOFCasYsIx27RE54qkiGWR6-lSJBXDsXfpsutRIeX9ekCCMjCFPzYQXujQKwfcIuWC-AFHVtHWQOTkiUh6IMNOYAQG80QvwucJDXIfthudKN1U1NooxZKeK-8nPpqMgRI_KpnO_HOspyQZAyGoNeFOevmzmyWASiHuRkter2uDKFHfVHM6OY17vNkYhqoU4xyKgR_VXvYkeMUltRsOregA9nnXcS9PB65AKgmGj2RMx_5Kc5_AHX11mEWjjcsWZDnjpa3HPEf5tS6nt3gCSwMAg_i-gFBKE3tFqbVoK-Re0Q"
)

func newTestSigningKey(t *testing.T) *auth.SigningKey {
	t.Helper()
	key, err := auth.NewSigningKey(testKeyModulus, testKeyExponent, testKeyPrivateExponent, "test-key")
	require.NoError(t, err)
	return key
}

func newOtherSigningKey(t *testing.T) *auth.SigningKey {
	t.Helper()
	key, err := auth.NewSigningKey(otherKeyModulus, otherKeyExponent, otherKeyPrivateExponent, "other-key")
	require.NoError(t, err)
	return key
}

// testSubject is a plain Subject implementation for issuance tests.
type testSubject struct {
	id        int64
	level     int
	firstName string
	lastName  string
	language  string
	email     string
}

func (s testSubject) SubjectID() int64     { return s.id }
func (s testSubject) PermissionLevel() int { return s.level }
func (s testSubject) FirstName() string    { return s.firstName }
func (s testSubject) LastName() string     { return s.lastName }
func (s testSubject) Language() string     { return s.language }
func (s testSubject) Email() string        { return s.email }

// MockSubjectLookup implements auth.SubjectLookup
type MockSubjectLookup struct {
	mock.Mock
}

func (m *MockSubjectLookup) FindSubject(ctx context.Context, id int64) (auth.Subject, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(auth.Subject), args.Error(1)
}
