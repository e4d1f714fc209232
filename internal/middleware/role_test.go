package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/legacy-vault/internal/auth"
)

func runWithRole(t *testing.T, role string, required ...auth.Role) int {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != "" {
		c.Set("role", role)
	}
	h := RequireRole(required...)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec.Code
}

func TestRequireRoleUser(t *testing.T) {
	assert.Equal(t, http.StatusOK, runWithRole(t, "user", auth.RoleUser))
	assert.Equal(t, http.StatusOK, runWithRole(t, "both", auth.RoleUser))
	assert.Equal(t, http.StatusForbidden, runWithRole(t, "beneficiary", auth.RoleUser))
}

func TestRequireRoleBeneficiary(t *testing.T) {
	assert.Equal(t, http.StatusOK, runWithRole(t, "beneficiary", auth.RoleBeneficiary))
	assert.Equal(t, http.StatusOK, runWithRole(t, "both", auth.RoleBeneficiary))
	assert.Equal(t, http.StatusForbidden, runWithRole(t, "user", auth.RoleBeneficiary))
}

func TestRequireRoleEither(t *testing.T) {
	// The /me route accepts any resolved role.
	for _, role := range []string{"user", "beneficiary", "both"} {
		assert.Equal(t, http.StatusOK, runWithRole(t, role, auth.RoleUser, auth.RoleBeneficiary), role)
	}
}

func TestRequireRoleRejectsMissingOrUnknown(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, runWithRole(t, "", auth.RoleUser))
	assert.Equal(t, http.StatusForbidden, runWithRole(t, "admin", auth.RoleUser, auth.RoleBeneficiary))
}
