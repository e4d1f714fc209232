package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/legacy-vault/internal/auth"
	"github.com/iliyamo/legacy-vault/internal/utils"
)

const testSecret = "mw-secret"

func doRequest(t *testing.T, authHeader string, h echo.HandlerFunc) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := JWTAuth(testSecret)(h)(c)
	require.NoError(t, err)
	return rec, c
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec, _ := doRequest(t, "", func(c echo.Context) error {
		t.Fatal("handler must not run without a token")
		return nil
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthGarbageToken(t *testing.T) {
	rec, _ := doRequest(t, "Bearer not-a-jwt", func(c echo.Context) error {
		t.Fatal("handler must not run with an invalid token")
		return nil
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	id := auth.Resolved{Role: auth.RoleUser, UserID: 1, Email: "a@x.com"}
	at, err := utils.NewAccessToken("different-secret", id, 5)
	require.NoError(t, err)

	rec, _ := doRequest(t, "Bearer "+at.Token, func(c echo.Context) error {
		t.Fatal("handler must not run with a foreign signature")
		return nil
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthInjectsClaims(t *testing.T) {
	id := auth.Resolved{Role: auth.RoleBoth, UserID: 3, BeneficiaryID: 9, Email: "a@x.com"}
	at, err := utils.NewAccessToken(testSecret, id, 5)
	require.NoError(t, err)

	var seen echo.Context
	rec, _ := doRequest(t, "Bearer "+at.Token, func(c echo.Context) error {
		seen = c
		return c.NoContent(http.StatusOK)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "both", seen.Get("role"))
	assert.Equal(t, "a@x.com", seen.Get("email"))
	assert.EqualValues(t, 3, seen.Get("user_id"))
	assert.EqualValues(t, 9, seen.Get("beneficiary_id"))
}

func TestJWTAuthOmitsAbsentPoolIDs(t *testing.T) {
	id := auth.Resolved{Role: auth.RoleBeneficiary, BeneficiaryID: 11, Email: "b@x.com"}
	at, err := utils.NewAccessToken(testSecret, id, 5)
	require.NoError(t, err)

	var seen echo.Context
	rec, _ := doRequest(t, "Bearer "+at.Token, func(c echo.Context) error {
		seen = c
		return c.NoContent(http.StatusOK)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Nil(t, seen.Get("user_id"))
	assert.EqualValues(t, 11, seen.Get("beneficiary_id"))
}
