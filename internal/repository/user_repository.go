package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/legacy-vault/internal/auth"
	"github.com/iliyamo/legacy-vault/internal/utils"
)

// User mirrors the 'users' table: an account-holder who owns items and
// performs releases.  Email is unique in this pool.
type User struct {
	ID           uint64
	FullName     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts an account-holder and returns its ID.  A duplicate email
// surfaces as ErrEmailExists (MySQL error 1062 on the unique index).
func (r *UserRepo) Create(ctx context.Context, fullName, email, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (full_name, email, password_hash) VALUES (?,?,?)",
		fullName, email, hash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an account-holder by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,full_name,email,password_hash,created_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

// GetByID fetches an account-holder by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
	var u User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,full_name,email,password_hash,created_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

// CredentialByEmail implements auth.UserLookup for the role resolver.
func (r *UserRepo) CredentialByEmail(ctx context.Context, email string) (auth.Credential, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		return auth.Credential{}, err
	}
	return auth.Credential{ID: u.ID, PasswordHash: u.PasswordHash}, nil
}
