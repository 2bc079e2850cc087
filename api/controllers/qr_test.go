package controllers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/angelmondragon/tableside-backend/pkg/errors"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G'}

func TestTableQRCode(t *testing.T) {
	handler := TableQRCode(&stubCatalogService{}, "https://diner.example", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, newRequest(http.MethodGet, "/api/restaurants/1/tables/12/qr?size=128", "", map[string]string{"restaurantId": "1", "tableNumber": "12"}))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png got %q", ct)
	}
	if !bytes.HasPrefix(resp.Body.Bytes(), pngSignature) {
		t.Fatalf("expected png body")
	}
}

func TestTableQRCodeValidation(t *testing.T) {
	handler := TableQRCode(&stubCatalogService{}, "https://diner.example", nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, newRequest(http.MethodGet, "/api/restaurants/1/tables/0/qr", "", map[string]string{"restaurantId": "1", "tableNumber": "0"}))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for table 0 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, newRequest(http.MethodGet, "/api/restaurants/1/tables/2/qr?size=5000", "", map[string]string{"restaurantId": "1", "tableNumber": "2"}))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversize got %d", resp.Code)
	}
}

func TestTableQRCodeUnknownRestaurant(t *testing.T) {
	svc := &stubCatalogService{err: pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")}
	resp := httptest.NewRecorder()
	TableQRCode(svc, "https://diner.example", nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/restaurants/9/tables/1/qr", "", map[string]string{"restaurantId": "9", "tableNumber": "1"}))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
