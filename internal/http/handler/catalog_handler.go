package handler

import (
	"net/http"

	"graphical-auth-service/internal/catalog"
	"graphical-auth-service/internal/http/response"
)

// CatalogHandler serves the image catalog the enrollment UI renders.
// The endpoint is public: the catalog is the same for everyone and
// reveals nothing about any user's chosen sequence.
type CatalogHandler struct {
	images *catalog.Catalog
}

func NewCatalogHandler(images *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{images: images}
}

func (h *CatalogHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, map[string]any{"images": h.images.Tokens(), "count": h.images.Len()})
}
