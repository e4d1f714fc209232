package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/legacy-vault/internal/queue"
	"github.com/iliyamo/legacy-vault/internal/repository"
	queue_publisher "github.com/iliyamo/legacy-vault/internal/service"
)

// ListItems handles GET /items and returns the caller's own items, drafts
// and released alike, newest first.
func (h *VaultHandler) ListItems(c echo.Context) error {
	ownerID := getUserID(c)
	if ownerID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Items.ListByOwner(ctx, ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreateItem handles POST /items.  The body is a multipart form with a
// required title, an optional content field and an optional file part; at
// least one of content/file must be present.  A supplied file is written to
// the blob store first and its generated path recorded on the row.  The two
// writes are not atomic, a crash in between leaves an orphaned blob at
// worst.
func (h *VaultHandler) CreateItem(c echo.Context) error {
	ownerID := getUserID(c)
	if ownerID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}

	var content *string
	if v := strings.TrimSpace(c.FormValue("content")); v != "" {
		content = &v
	}

	var filePath *string
	fileHeader, err := c.FormFile("file")
	if err == nil && fileHeader != nil {
		src, err := fileHeader.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable file"})
		}
		defer src.Close()
		rel, err := h.Store.Put(ownerID, fileHeader.Filename, src)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store file failed"})
		}
		filePath = &rel
	}

	if content == nil && filePath == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one of content or file is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	item, err := h.Items.Create(ctx, ownerID, title, content, filePath)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create item failed"})
	}
	return c.JSON(http.StatusCreated, item)
}

// UpdateItem handles PATCH /items/:id and updates title and/or content.  The
// file attachment is immutable after creation.  A foreign item id gets the
// same 404 as a missing one.
func (h *VaultHandler) UpdateItem(c echo.Context) error {
	ownerID := getUserID(c)
	if ownerID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	var body struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if body.Title != nil && strings.TrimSpace(*body.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title cannot be empty"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	item, err := h.Items.Update(ctx, id, ownerID, body.Title, body.Content)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, item)
}

// ReleaseItem handles PATCH /items/:id/release.  Release is one-way: there
// is no unrelease.  Releasing again re-stamps released_at.  After a
// successful release an ItemReleasedEvent is published best-effort so a
// notification worker can fan out to the linked beneficiaries.
func (h *VaultHandler) ReleaseItem(c echo.Context) error {
	ownerID := getUserID(c)
	if ownerID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	item, err := h.Items.Release(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release failed"})
	}

	go h.publishRelease(item)

	return c.JSON(http.StatusOK, item)
}

// DeleteItem handles DELETE /items/:id.  The blob (when present) is dropped
// best-effort before the row; an already-missing blob is tolerated.
func (h *VaultHandler) DeleteItem(c echo.Context) error {
	ownerID := getUserID(c)
	if ownerID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	filePath, err := h.Items.Delete(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if filePath != "" {
		if err := h.Store.Delete(filePath); err != nil {
			log.Printf("items: delete blob %s failed: %v", filePath, err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "item deleted successfully"})
}

// publishRelease builds and publishes the release event off the request
// goroutine.  Broker failures are logged by the publisher and ignored.
func (h *VaultHandler) publishRelease(item repository.Item) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ev := queue.ItemReleasedEvent{
		ItemID:  item.ID,
		OwnerID: item.OwnerID,
		Title:   item.Title,
		HasFile: item.FilePath != nil,
	}
	if item.ReleasedAt != nil {
		ev.ReleasedAt = item.ReleasedAt.UTC().Format(time.RFC3339)
	}
	if owner, err := h.Users.GetByID(ctx, item.OwnerID); err == nil {
		ev.OwnerName = owner.FullName
	}
	if b, err := h.Beneficiaries.FindLinkedByUserID(ctx, item.OwnerID); err == nil {
		ev.BeneficiaryIDs = []uint64{b.ID}
	}

	publish := h.Publish
	if publish == nil {
		publish = queue_publisher.PublishItemReleased
	}
	_ = publish(ctx, ev)
}
