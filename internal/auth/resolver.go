// Package auth implements the dual-role identity model of the vault.  One
// email address may exist in two independent identity pools at the same
// time: as an account-holder (unique email) and as a beneficiary (email
// deliberately not unique).  The resolver classifies an email against both
// pools and the result travels inside the access token as the resolved role.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// Role is the tagged classification computed at login from the dual lookup.
type Role string

const (
	RoleUser        Role = "user"        // email found only among account-holders
	RoleBeneficiary Role = "beneficiary" // email found only among beneficiaries
	RoleBoth        Role = "both"        // email found in both pools
)

// ErrInvalidCredentials is returned when an email matches neither pool or
// when no stored credential validates the supplied password.  Both cases
// look identical to the client.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Resolved is the session identity: derived at login, never persisted.
// UserID and BeneficiaryID are zero when the email is absent from the
// respective pool.
type Resolved struct {
	Role          Role
	UserID        uint64
	BeneficiaryID uint64
	Email         string
}

// Credential is the subset of an identity row the resolver needs: the pool
// id and the bcrypt hash to validate against.
type Credential struct {
	ID           uint64
	PasswordHash string
}

// UserLookup finds an account-holder credential by email.  Implementations
// return sql.ErrNoRows when the email is not registered in the pool.
type UserLookup interface {
	CredentialByEmail(ctx context.Context, email string) (Credential, error)
}

// BeneficiaryLookup finds a beneficiary credential by email.  Because
// beneficiary emails are not unique, implementations pick the first match
// in insertion order, mirroring how the record is displayed to clients.
type BeneficiaryLookup interface {
	CredentialByEmail(ctx context.Context, email string) (Credential, error)
}

// PasswordVerifier reports whether a plain password matches a stored hash.
type PasswordVerifier func(hash, plain string) bool

// Resolver performs the independent dual lookup and credential validation.
type Resolver struct {
	Users         UserLookup
	Beneficiaries BeneficiaryLookup
	Verify        PasswordVerifier
}

func NewResolver(users UserLookup, beneficiaries BeneficiaryLookup, verify PasswordVerifier) *Resolver {
	return &Resolver{Users: users, Beneficiaries: beneficiaries, Verify: verify}
}

// Resolve looks the email up in both pools independently and classifies it.
// Matching neither pool fails with ErrInvalidCredentials rather than a
// not-found error so unregistered emails are indistinguishable from wrong
// passwords.
func (r *Resolver) Resolve(ctx context.Context, email string) (Resolved, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var res Resolved
	res.Email = email

	u, uerr := r.Users.CredentialByEmail(ctx, email)
	if uerr != nil && !errors.Is(uerr, sql.ErrNoRows) {
		return Resolved{}, uerr
	}
	b, berr := r.Beneficiaries.CredentialByEmail(ctx, email)
	if berr != nil && !errors.Is(berr, sql.ErrNoRows) {
		return Resolved{}, berr
	}

	switch {
	case uerr == nil && berr == nil:
		res.Role, res.UserID, res.BeneficiaryID = RoleBoth, u.ID, b.ID
	case uerr == nil:
		res.Role, res.UserID = RoleUser, u.ID
	case berr == nil:
		res.Role, res.BeneficiaryID = RoleBeneficiary, b.ID
	default:
		return Resolved{}, ErrInvalidCredentials
	}
	return res, nil
}

// Authenticate resolves the role for the email and then validates the
// password.  The account-holder credential is tried first when the role is
// user or both; the beneficiary credential is the fallback.  Under the
// "both" role this means a password matching either stored hash logs the
// caller in with the combined identity.
func (r *Resolver) Authenticate(ctx context.Context, email, password string) (Resolved, error) {
	res, err := r.Resolve(ctx, email)
	if err != nil {
		return Resolved{}, err
	}

	valid := false
	if res.Role == RoleUser || res.Role == RoleBoth {
		if u, err := r.Users.CredentialByEmail(ctx, res.Email); err == nil {
			valid = r.Verify(u.PasswordHash, password)
		}
	}
	if !valid && (res.Role == RoleBeneficiary || res.Role == RoleBoth) {
		if b, err := r.Beneficiaries.CredentialByEmail(ctx, res.Email); err == nil {
			valid = r.Verify(b.PasswordHash, password)
		}
	}
	if !valid {
		return Resolved{}, ErrInvalidCredentials
	}
	return res, nil
}

// Satisfies reports whether the resolved role grants a required role.  The
// combined "both" role satisfies either single role; a single role only
// satisfies itself.
func (r Role) Satisfies(required Role) bool {
	return r == required || r == RoleBoth
}
