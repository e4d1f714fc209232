package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// ListBeneficiaryItems handles GET /beneficiary/items and returns the
// released items of every account-holder currently linked to the caller's
// beneficiary identity, each annotated with the owner's display name.  The
// link set is read from storage on each call, so an unlink made after the
// token was issued already excludes that owner's items here.
func (h *VaultHandler) ListBeneficiaryItems(c echo.Context) error {
	beneficiaryID := getBeneficiaryID(c)
	if beneficiaryID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Items.ListReleasedForBeneficiary(ctx, beneficiaryID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
