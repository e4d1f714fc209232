package handler

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/legacy-vault/internal/auth"
	"github.com/iliyamo/legacy-vault/internal/repository"
	"github.com/iliyamo/legacy-vault/internal/storage"
)

// GetUpload handles GET /uploads/:owner_id/:filename and streams an item's
// file blob to any authenticated identity that passes the read-access rule:
// the owning account-holder always, a beneficiary only when the item is
// released and the owner is in the beneficiary's current link set.  The link
// set is queried fresh here rather than taken from the token, so access ends
// the moment the link does.
//
// 404 covers both "no item references this path" and "blob missing on
// disk"; a failed access rule is an explicit 403 because release gating is a
// visibility feature, not a secrecy one.
func (h *VaultHandler) GetUpload(c echo.Context) error {
	ownerSeg := c.Param("owner_id")
	filename := c.Param("filename")
	if ownerSeg == "" || filename == "" || strings.ContainsAny(filename, "/\\") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid path"})
	}
	relPath := "uploads/" + ownerSeg + "/" + filename

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	item, err := h.Items.GetByFilePath(ctx, relPath)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "file not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	userID := getUserID(c)
	beneficiaryID := getBeneficiaryID(c)

	var linked []uint64
	if beneficiaryID != 0 && userID != item.OwnerID {
		linked, err = h.Beneficiaries.LinkedOwnerIDs(ctx, beneficiaryID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
	}
	if !auth.CanReadItem(userID, beneficiaryID, item.OwnerID, item.IsReleased, linked) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not have access to this file"})
	}

	abs := h.Store.Resolve(relPath)
	f, err := os.Open(abs)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "file not found"})
	}
	defer f.Close()

	return c.Stream(http.StatusOK, storage.ContentTypeFor(filename), f)
}
