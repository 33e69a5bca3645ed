package handler

import (
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/veriscribe/signature-api/internal/infrastructure/storage"
)

// placeholderPNG is a 1x1 transparent PNG served when an artifact has gone
// missing. Stored images disappear legitimately (orphan cleanup, manual
// pruning) and a broken-image 404 in old history entries is worse than a
// blank.
var placeholderPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// UploadsHandler serves stored artifacts under /uploads/*.
type UploadsHandler struct {
	store *storage.Store
}

func NewUploadsHandler(store *storage.Store) *UploadsHandler {
	return &UploadsHandler{store: store}
}

// Serve resolves the requested public path against the uploads root and
// streams the file. Missing or escaping paths get the placeholder instead of
// an error.
func (h *UploadsHandler) Serve(c echo.Context) error {
	public := c.Request().URL.Path

	file, ok := h.store.ArtifactFile(public)
	if !ok {
		return h.placeholder(c)
	}
	if _, err := os.Stat(file); err != nil {
		return h.placeholder(c)
	}
	return c.File(file)
}

func (h *UploadsHandler) placeholder(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, "image/png", placeholderPNG)
}
