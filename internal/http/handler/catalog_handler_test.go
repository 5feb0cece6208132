package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"graphical-auth-service/internal/catalog"
)

func TestCatalogHandlerListImages(t *testing.T) {
	h := NewCatalogHandler(catalog.Default())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/images", nil)
	rr := httptest.NewRecorder()

	h.ListImages(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload struct {
		Data struct {
			Images []string `json:"images"`
			Count  int      `json:"count"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.Count != catalog.Default().Len() {
		t.Fatalf("expected count %d, got %d", catalog.Default().Len(), payload.Data.Count)
	}
	if len(payload.Data.Images) != payload.Data.Count {
		t.Fatalf("image list and count disagree: %d vs %d", len(payload.Data.Images), payload.Data.Count)
	}
}
