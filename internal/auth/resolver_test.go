package auth

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePool backs both lookup interfaces in tests: a map from email to the
// stored credential, returning sql.ErrNoRows for unknown emails like the
// real repositories do.
type fakePool map[string]Credential

func (p fakePool) CredentialByEmail(_ context.Context, email string) (Credential, error) {
	if cred, ok := p[email]; ok {
		return cred, nil
	}
	return Credential{}, sql.ErrNoRows
}

// plainVerify treats stored hashes as "hash(<password>)" so tests control
// matches without running bcrypt.
func plainVerify(hash, plain string) bool { return hash == "hash("+plain+")" }

func newTestResolver(users, beneficiaries fakePool) *Resolver {
	return NewResolver(users, beneficiaries, plainVerify)
}

func TestResolveClassification(t *testing.T) {
	users := fakePool{"a@x.com": {ID: 1, PasswordHash: "hash(pw-a)"}}
	beneficiaries := fakePool{
		"a@x.com": {ID: 10, PasswordHash: "hash(pw-ab)"},
		"b@x.com": {ID: 11, PasswordHash: "hash(pw-b)"},
	}
	r := newTestResolver(users, beneficiaries)
	ctx := context.Background()

	t.Run("both pools", func(t *testing.T) {
		res, err := r.Resolve(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, RoleBoth, res.Role)
		assert.Equal(t, uint64(1), res.UserID)
		assert.Equal(t, uint64(10), res.BeneficiaryID)
	})

	t.Run("beneficiary only", func(t *testing.T) {
		res, err := r.Resolve(ctx, "b@x.com")
		require.NoError(t, err)
		assert.Equal(t, RoleBeneficiary, res.Role)
		assert.Zero(t, res.UserID)
		assert.Equal(t, uint64(11), res.BeneficiaryID)
	})

	t.Run("user only", func(t *testing.T) {
		users := fakePool{"solo@x.com": {ID: 7, PasswordHash: "hash(pw)"}}
		res, err := newTestResolver(users, fakePool{}).Resolve(ctx, "solo@x.com")
		require.NoError(t, err)
		assert.Equal(t, RoleUser, res.Role)
		assert.Equal(t, uint64(7), res.UserID)
		assert.Zero(t, res.BeneficiaryID)
	})

	t.Run("neither pool", func(t *testing.T) {
		_, err := r.Resolve(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("email is normalized", func(t *testing.T) {
		res, err := r.Resolve(ctx, "  B@X.COM ")
		require.NoError(t, err)
		assert.Equal(t, "b@x.com", res.Email)
		assert.Equal(t, RoleBeneficiary, res.Role)
	})
}

func TestAuthenticate(t *testing.T) {
	users := fakePool{"a@x.com": {ID: 1, PasswordHash: "hash(user-pw)"}}
	beneficiaries := fakePool{"a@x.com": {ID: 10, PasswordHash: "hash(ben-pw)"}}
	r := newTestResolver(users, beneficiaries)
	ctx := context.Background()

	t.Run("account-holder credential wins first", func(t *testing.T) {
		res, err := r.Authenticate(ctx, "a@x.com", "user-pw")
		require.NoError(t, err)
		assert.Equal(t, RoleBoth, res.Role)
	})

	t.Run("falls back to beneficiary credential", func(t *testing.T) {
		res, err := r.Authenticate(ctx, "a@x.com", "ben-pw")
		require.NoError(t, err)
		// Still the combined identity: the role comes from resolution, the
		// password only has to match one of the stored hashes.
		assert.Equal(t, RoleBoth, res.Role)
		assert.Equal(t, uint64(1), res.UserID)
		assert.Equal(t, uint64(10), res.BeneficiaryID)
	})

	t.Run("no matching password", func(t *testing.T) {
		_, err := r.Authenticate(ctx, "a@x.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email issues no identity", func(t *testing.T) {
		_, err := r.Authenticate(ctx, "ghost@x.com", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("beneficiary-only login", func(t *testing.T) {
		b := fakePool{"b@x.com": {ID: 11, PasswordHash: "hash(pw-b)"}}
		res, err := newTestResolver(fakePool{}, b).Authenticate(ctx, "b@x.com", "pw-b")
		require.NoError(t, err)
		assert.Equal(t, RoleBeneficiary, res.Role)
	})
}

func TestRoleSatisfies(t *testing.T) {
	assert.True(t, RoleUser.Satisfies(RoleUser))
	assert.True(t, RoleBoth.Satisfies(RoleUser))
	assert.True(t, RoleBoth.Satisfies(RoleBeneficiary))
	assert.True(t, RoleBeneficiary.Satisfies(RoleBeneficiary))
	assert.False(t, RoleUser.Satisfies(RoleBeneficiary))
	assert.False(t, RoleBeneficiary.Satisfies(RoleUser))
	assert.False(t, Role("").Satisfies(RoleUser))
}
