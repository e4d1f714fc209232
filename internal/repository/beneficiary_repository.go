package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/legacy-vault/internal/auth"
	"github.com/iliyamo/legacy-vault/internal/utils"
)

// Beneficiary mirrors the 'beneficiaries' table.  Unlike users.email this
// pool has no uniqueness constraint: the same email may back several
// beneficiary records, or one beneficiary record linked to several
// account-holders through the user_beneficiaries join table.
type Beneficiary struct {
	ID           uint64
	FullName     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type BeneficiaryRepo struct{ DB *sql.DB }

func NewBeneficiaryRepo(db *sql.DB) *BeneficiaryRepo { return &BeneficiaryRepo{DB: db} }

// Create inserts a beneficiary and returns its ID.  No duplicate check: a
// shared email across beneficiary rows is valid by design.
func (r *BeneficiaryRepo) Create(ctx context.Context, fullName, email, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO beneficiaries (full_name, email, password_hash) VALUES (?,?,?)",
		fullName, email, hash)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches the oldest beneficiary row for a normalized email.
// With duplicate emails permitted, the first-registered record is the one a
// login under that email resolves to.
func (r *BeneficiaryRepo) GetByEmail(ctx context.Context, email string) (Beneficiary, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var b Beneficiary
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,full_name,email,password_hash,created_at FROM beneficiaries WHERE email=? ORDER BY id LIMIT 1",
		email).Scan(&b.ID, &b.FullName, &b.Email, &b.PasswordHash, &b.CreatedAt)
	return b, err
}

// GetByID fetches a beneficiary by id.
func (r *BeneficiaryRepo) GetByID(ctx context.Context, id uint64) (Beneficiary, error) {
	var b Beneficiary
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,full_name,email,password_hash,created_at FROM beneficiaries WHERE id=? LIMIT 1",
		id).Scan(&b.ID, &b.FullName, &b.Email, &b.PasswordHash, &b.CreatedAt)
	return b, err
}

// CredentialByEmail implements auth.BeneficiaryLookup for the role resolver.
func (r *BeneficiaryRepo) CredentialByEmail(ctx context.Context, email string) (auth.Credential, error) {
	b, err := r.GetByEmail(ctx, email)
	if err != nil {
		return auth.Credential{}, err
	}
	return auth.Credential{ID: b.ID, PasswordHash: b.PasswordHash}, nil
}

// Link associates a beneficiary with an account-holder.  The insert is
// idempotent so re-linking an existing pair is not an error.
func (r *BeneficiaryRepo) Link(ctx context.Context, userID, beneficiaryID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO user_beneficiaries (user_id, beneficiary_id) VALUES (?,?)",
		userID, beneficiaryID)
	return err
}

// Unlink removes the association only; the beneficiary record itself stays
// so other account-holders linked to it are unaffected.
func (r *BeneficiaryRepo) Unlink(ctx context.Context, userID, beneficiaryID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM user_beneficiaries WHERE user_id=? AND beneficiary_id=?",
		userID, beneficiaryID)
	return err
}

// LinkedOwnerIDs returns the account-holder ids currently linked to a
// beneficiary.  Authorization decisions call this per request instead of
// trusting any id set cached in a token, so an unlink revokes access
// immediately.
func (r *BeneficiaryRepo) LinkedOwnerIDs(ctx context.Context, beneficiaryID uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT user_id FROM user_beneficiaries WHERE beneficiary_id=?",
		beneficiaryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FindLinkedByUserID returns the account-holder's linked beneficiary.  The
// storage model permits many links per user but the product caps it at one,
// so the oldest link wins.  ErrBeneficiaryNotFound when no link exists.
func (r *BeneficiaryRepo) FindLinkedByUserID(ctx context.Context, userID uint64) (Beneficiary, error) {
	var b Beneficiary
	err := r.DB.QueryRowContext(ctx,
		`SELECT b.id, b.full_name, b.email, b.password_hash, b.created_at
		   FROM beneficiaries b
		   JOIN user_beneficiaries ub ON ub.beneficiary_id = b.id
		  WHERE ub.user_id = ?
		  ORDER BY b.id LIMIT 1`,
		userID).Scan(&b.ID, &b.FullName, &b.Email, &b.PasswordHash, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Beneficiary{}, ErrBeneficiaryNotFound
	}
	return b, err
}

// UpdateProfile updates name/email/password of a beneficiary.  Nil fields
// are left untouched.  newHash must already be bcrypt-hashed by the caller.
func (r *BeneficiaryRepo) UpdateProfile(ctx context.Context, id uint64, fullName, email, newHash *string) error {
	set := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if fullName != nil {
		set = append(set, "full_name=?")
		args = append(args, strings.TrimSpace(*fullName))
	}
	if email != nil {
		set = append(set, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*email)))
	}
	if newHash != nil {
		set = append(set, "password_hash=?")
		args = append(args, *newHash)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE beneficiaries SET "+strings.Join(set, ", ")+" WHERE id=?", args...)
	return err
}
