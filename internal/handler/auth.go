package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/legacy-vault/internal/auth"
	"github.com/iliyamo/legacy-vault/internal/config"
	"github.com/iliyamo/legacy-vault/internal/repository"
	"github.com/iliyamo/legacy-vault/internal/utils"
)

// UserAccounts is the account-holder surface the auth endpoints need.
type UserAccounts interface {
	Create(ctx context.Context, fullName, email, password string, cost int) (uint64, error)
	GetByID(ctx context.Context, id uint64) (repository.User, error)
}

// BeneficiaryAccounts covers beneficiary creation and linking during
// registration plus the lookup behind the auth response.
type BeneficiaryAccounts interface {
	Create(ctx context.Context, fullName, email, password string, cost int) (uint64, error)
	GetByID(ctx context.Context, id uint64) (repository.Beneficiary, error)
	Link(ctx context.Context, userID, beneficiaryID uint64) error
}

// TokenStore persists and revokes refresh tokens by hash.
// *repository.TokenRepo is the production implementation.
type TokenStore interface {
	StoreRefresh(ctx context.Context, email, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForEmail(ctx context.Context, email string) error
}

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg           config.Config
	Users         UserAccounts
	Beneficiaries BeneficiaryAccounts
	Tokens        TokenStore
	Resolver      *auth.Resolver
}

func NewAuthHandler(cfg config.Config, u UserAccounts, b BeneficiaryAccounts, t TokenStore, r *auth.Resolver) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Beneficiaries: b, Tokens: t, Resolver: r}
}

// ----- DTOs -----

// registerReq carries both halves of a registration: the account-holder and
// the beneficiary they designate.  Both identities are created in one call.
type registerReq struct {
	UserFullName        string `json:"user_full_name" validate:"required"`
	UserEmail           string `json:"user_email" validate:"required,email"`
	UserPassword        string `json:"user_password" validate:"required,min=8"`
	BeneficiaryFullName string `json:"beneficiary_full_name" validate:"required"`
	BeneficiaryEmail    string `json:"beneficiary_email" validate:"required,email"`
	BeneficiaryPassword string `json:"beneficiary_password" validate:"required,min=8"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type identityPart struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// authResp is the login/refresh response.  Token is the access JWT; Role is
// the resolved classification; User is the display identity (the
// account-holder record when the role is user or both, the beneficiary
// record otherwise).
type authResp struct {
	Token   string       `json:"token"`
	Role    auth.Role    `json:"role"`
	User    identityPart `json:"user"`
	Refresh tokenPart    `json:"refresh"`
}

// Register creates the account-holder, unconditionally creates the
// beneficiary (duplicate beneficiary emails are allowed by design) and links
// the pair.  There is no payment step: billing is simulated and the account
// activates immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full name, valid email and password of at least 8 characters are required for both identities"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, strings.TrimSpace(req.UserFullName), req.UserEmail, req.UserPassword, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	bid, err := h.Beneficiaries.Create(ctx, strings.TrimSpace(req.BeneficiaryFullName), req.BeneficiaryEmail, req.BeneficiaryPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create beneficiary failed"})
	}
	if err := h.Beneficiaries.Link(ctx, uid, bid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "link beneficiary failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "registration successful, payment simulated, account activated",
		"user": identityPart{
			ID:       uid,
			Email:    strings.ToLower(strings.TrimSpace(req.UserEmail)),
			FullName: strings.TrimSpace(req.UserFullName),
		},
		"beneficiary": identityPart{
			ID:       bid,
			Email:    strings.ToLower(strings.TrimSpace(req.BeneficiaryEmail)),
			FullName: strings.TrimSpace(req.BeneficiaryFullName),
		},
	})
}

// Login resolves the caller's role from both identity pools, validates the
// password against the matching credential(s) and returns a signed access
// token plus a refresh token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Resolver.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	return h.issueSession(c, ctx, id, http.StatusOK)
}

// Refresh validates the presented refresh token by hash, revokes it and
// issues a fresh pair.  The role is re-resolved from the stored email, so a
// role acquired or lost since login takes effect here without a new login.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	email, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	// The old token must be dead before its replacement exists.  If the
	// revocation cannot be recorded the rotation is aborted, otherwise the
	// presented token would stay replayable alongside the new one.
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}

	id, err := h.Resolver.Resolve(ctx, email)
	if err != nil {
		// The email vanished from both pools since the token was issued.
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}

	return h.issueSession(c, ctx, id, http.StatusOK)
}

// Logout revokes a specific refresh token from the body, or every active
// token for the caller's email when only a bearer token is supplied.
func (h *AuthHandler) Logout(c echo.Context) error {
	email, hasBearer := h.emailFromBearer(c)

	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}

	if hasBearer && email != "" {
		if err := h.Tokens.RevokeAllForEmail(ctx, email); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}

	return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

// Me echoes the authenticated identity claims (protected route).
func (h *AuthHandler) Me(c echo.Context) error {
	resp := echo.Map{
		"role":  c.Get("role"),
		"email": getEmail(c),
	}
	if uid := getUserID(c); uid != 0 {
		resp["user_id"] = uid
	}
	if bid := getBeneficiaryID(c); bid != 0 {
		resp["beneficiary_id"] = bid
	}
	return c.JSON(http.StatusOK, resp)
}

// issueSession signs the access token, stores a refresh token for the email
// and writes the auth response with the display identity.
func (h *AuthHandler) issueSession(c echo.Context, ctx context.Context, id auth.Resolved, status int) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, id, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, id.Email, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}

	user, err := h.displayIdentity(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load identity failed"})
	}

	return c.JSON(status, authResp{
		Token:   access.Token,
		Role:    id.Role,
		User:    user,
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	})
}

// displayIdentity picks the record shown as "user" in auth responses: the
// account-holder when the role includes user, otherwise the beneficiary.
func (h *AuthHandler) displayIdentity(ctx context.Context, id auth.Resolved) (identityPart, error) {
	if id.Role == auth.RoleUser || id.Role == auth.RoleBoth {
		u, err := h.Users.GetByID(ctx, id.UserID)
		if err != nil {
			return identityPart{}, err
		}
		return identityPart{ID: u.ID, Email: u.Email, FullName: u.FullName}, nil
	}
	b, err := h.Beneficiaries.GetByID(ctx, id.BeneficiaryID)
	if err != nil {
		return identityPart{}, err
	}
	return identityPart{ID: b.ID, Email: b.Email, FullName: b.FullName}, nil
}

// emailFromBearer parses an optional Authorization header and returns the
// email claim.  Used by Logout, which is registered outside the JWT
// middleware so a refresh token alone can end a session.
func (h *AuthHandler) emailFromBearer(c echo.Context) (string, bool) {
	authHeader := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	raw := strings.TrimPrefix(authHeader, "Bearer ")
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(h.Cfg.JWTSecret), nil
	})
	if err != nil || !tok.Valid {
		return "", false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	email, _ := claims["email"].(string)
	return email, email != ""
}
