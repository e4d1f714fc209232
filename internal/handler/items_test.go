package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/legacy-vault/internal/storage"
)

// multipartBody builds a multipart form with the given fields.
func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func createItemRequest(t *testing.T, h *VaultHandler, userID uint64, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/items", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user_id", userID)
	}
	require.NoError(t, h.CreateItem(c))
	return rec
}

// The validation layer of CreateItem runs before any repository call, so a
// handler with only the blob store wired is enough to exercise it.
func validationOnlyHandler(t *testing.T) *VaultHandler {
	t.Helper()
	return &VaultHandler{Store: storage.NewFileStore(t.TempDir())}
}

func TestCreateItemRequiresTitle(t *testing.T) {
	h := validationOnlyHandler(t)
	rec := createItemRequest(t, h, 1, map[string]string{"content": "my wishes"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = createItemRequest(t, h, 1, map[string]string{"title": "   ", "content": "my wishes"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateItemRequiresContentOrFile(t *testing.T) {
	h := validationOnlyHandler(t)
	rec := createItemRequest(t, h, 1, map[string]string{"title": "Will"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Whitespace-only content does not count as content.
	rec = createItemRequest(t, h, 1, map[string]string{"title": "Will", "content": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateItemRejectsMissingIdentity(t *testing.T) {
	h := validationOnlyHandler(t)
	rec := createItemRequest(t, h, 0, map[string]string{"title": "Will", "content": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClaimHelpers(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	// JWT claims arrive as float64; direct context values may be typed.
	c.Set("user_id", float64(3))
	c.Set("beneficiary_id", uint64(9))
	c.Set("email", "a@x.com")

	assert.Equal(t, uint64(3), getUserID(c))
	assert.Equal(t, uint64(9), getBeneficiaryID(c))
	assert.Equal(t, "a@x.com", getEmail(c))

	c2 := e.NewContext(req, httptest.NewRecorder())
	assert.Zero(t, getUserID(c2))
	assert.Zero(t, getBeneficiaryID(c2))
	assert.Empty(t, getEmail(c2))
}
