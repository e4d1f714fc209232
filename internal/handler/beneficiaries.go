package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/legacy-vault/internal/repository"
	"github.com/iliyamo/legacy-vault/internal/utils"
)

// beneficiaryPart is the beneficiary view exposed to the linked
// account-holder.  The password hash never leaves the repository layer.
type beneficiaryPart struct {
	ID        uint64    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toBeneficiaryPart(b repository.Beneficiary) beneficiaryPart {
	return beneficiaryPart{ID: b.ID, FullName: b.FullName, Email: b.Email, CreatedAt: b.CreatedAt}
}

// GetMyBeneficiary handles GET /beneficiaries/me and returns the caller's
// linked beneficiary, or null when none is linked.
func (h *VaultHandler) GetMyBeneficiary(c echo.Context) error {
	ownerID := getUserID(c)
	if ownerID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Beneficiaries.FindLinkedByUserID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrBeneficiaryNotFound) {
			return c.JSON(http.StatusOK, echo.Map{"beneficiary": nil})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"beneficiary": toBeneficiaryPart(b)})
}

// UpdateMyBeneficiary handles PATCH /beneficiaries/me and updates the linked
// beneficiary's name, email and/or password.  The beneficiary email pool has
// no uniqueness constraint, so any email value is accepted here.
func (h *VaultHandler) UpdateMyBeneficiary(c echo.Context) error {
	ownerID := getUserID(c)
	if ownerID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var body struct {
		FullName *string `json:"full_name"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if body.FullName != nil && strings.TrimSpace(*body.FullName) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name cannot be empty"})
	}
	if body.Email != nil && !strings.Contains(*body.Email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email"})
	}
	if body.Password != nil && len(*body.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Beneficiaries.FindLinkedByUserID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrBeneficiaryNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no linked beneficiary"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	var newHash *string
	if body.Password != nil {
		hash, err := utils.HashPassword(*body.Password, h.BcryptCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
		}
		newHash = &hash
	}

	if err := h.Beneficiaries.UpdateProfile(ctx, b.ID, body.FullName, body.Email, newHash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	updated, err := h.Beneficiaries.GetByID(ctx, b.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"beneficiary": toBeneficiaryPart(updated)})
}

// UnlinkMyBeneficiary handles DELETE /beneficiaries/me.  Only the
// association is removed; the beneficiary record stays because other
// account-holders may be linked to it.  Released items stop being visible to
// the beneficiary immediately, since every read recomputes the link set.
func (h *VaultHandler) UnlinkMyBeneficiary(c echo.Context) error {
	ownerID := getUserID(c)
	if ownerID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Beneficiaries.FindLinkedByUserID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrBeneficiaryNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no linked beneficiary"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := h.Beneficiaries.Unlink(ctx, ownerID, b.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unlink failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "beneficiary unlinked successfully"})
}
