package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestListCategoriesOrdersBySortOrder(t *testing.T) {
	svc := newService()
	for _, order := range []int{3, 1, 2} {
		_, err := svc.createCategory(nil, productCategory{
			Name:        "cat",
			Description: "desc",
			ImageURL:    "/images/cat.jpg",
			SortOrder:   order,
		})
		if err != nil {
			t.Fatalf("createCategory returned error: %v", err)
		}
	}

	items, err := svc.listCategories(nil)
	if err != nil {
		t.Fatalf("listCategories returned error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, want := range []int{1, 2, 3} {
		if items[i].SortOrder != want {
			t.Fatalf("position %d has sortOrder %d, want %d", i, items[i].SortOrder, want)
		}
	}
}

func TestListCategoriesTiesKeepInsertionOrder(t *testing.T) {
	svc := newService()
	names := []string{"first", "second", "third"}
	for _, n := range names {
		if _, err := svc.createCategory(nil, productCategory{Name: n, Description: "d", ImageURL: "/i.jpg", SortOrder: 5}); err != nil {
			t.Fatalf("createCategory returned error: %v", err)
		}
	}
	items, err := svc.listCategories(nil)
	if err != nil {
		t.Fatalf("listCategories returned error: %v", err)
	}
	for i, n := range names {
		if items[i].Name != n {
			t.Fatalf("position %d = %q, want %q", i, items[i].Name, n)
		}
	}
}

func TestCategoryIDsAreMonotonicAndNeverReused(t *testing.T) {
	svc := newService()
	for i := 0; i < 3; i++ {
		c, err := svc.createCategory(nil, productCategory{Name: "c", Description: "d", ImageURL: "/i.jpg"})
		if err != nil {
			t.Fatalf("createCategory returned error: %v", err)
		}
		if c.ID != i+1 {
			t.Fatalf("id = %d, want %d", c.ID, i+1)
		}
	}
	if err := svc.deleteCategory(nil, 2); err != nil {
		t.Fatalf("deleteCategory returned error: %v", err)
	}
	c, err := svc.createCategory(nil, productCategory{Name: "c", Description: "d", ImageURL: "/i.jpg"})
	if err != nil {
		t.Fatalf("createCategory returned error: %v", err)
	}
	if c.ID != 4 {
		t.Fatalf("id after delete = %d, want 4 (ids are never reused)", c.ID)
	}
}

func TestUpdateAndDeleteUnknownIDSignalNotFound(t *testing.T) {
	svc := newService()

	if _, err := svc.updateCategory(nil, 42, productCategory{Name: "c", Description: "d", ImageURL: "/i.jpg"}); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("updateCategory error = %v, want sql.ErrNoRows", err)
	}
	if err := svc.deleteCategory(nil, 42); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("deleteCategory error = %v, want sql.ErrNoRows", err)
	}
	if _, err := svc.updateService(nil, 7, specialService{Name: "s", Description: "d", Icon: "truck"}); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("updateService error = %v, want sql.ErrNoRows", err)
	}
	if err := svc.deleteBrand(nil, 7); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("deleteBrand error = %v, want sql.ErrNoRows", err)
	}
}

func TestUpdatePreservesCreatedAt(t *testing.T) {
	svc := newService()
	created, err := svc.createBrand(nil, featuredBrand{Name: "Purina", Description: "d", LogoURL: "/l.jpg", WebsiteURL: "https://purina.com"})
	if err != nil {
		t.Fatalf("createBrand returned error: %v", err)
	}
	updated, err := svc.updateBrand(nil, created.ID, featuredBrand{Name: "Purina", Description: "new", LogoURL: "/l.jpg", WebsiteURL: "https://purina.com"})
	if err != nil {
		t.Fatalf("updateBrand returned error: %v", err)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("createdAt changed on update: %s != %s", updated.CreatedAt, created.CreatedAt)
	}
	if updated.Description != "new" {
		t.Fatalf("description = %q", updated.Description)
	}
}

func TestCollectionEndpointNotFoundIs404(t *testing.T) {
	svc := newService()
	handler := svc.routes(newThemeGenerator(nil, "", ""), newPhotoClient(nil, "", ""), t.TempDir())

	req := httptest.NewRequest(http.MethodDelete, "/api/special-services/99", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete status = %d, want 404", rec.Code)
	}

	body := `{"name":"n","description":"d","icon":"truck"}`
	req = httptest.NewRequest(http.MethodPut, "/api/special-services/99", strings.NewReader(body))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("update status = %d, want 404", rec.Code)
	}
}

func TestCollectionEndpointCreateValidatesAllFields(t *testing.T) {
	svc := newService()
	handler := svc.routes(newThemeGenerator(nil, "", ""), newPhotoClient(nil, "", ""), t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/api/featured-brands", strings.NewReader(`{"name":"Purina"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp struct {
		Fields []string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(resp.Fields) != 3 {
		t.Fatalf("expected description, logoUrl and websiteUrl flagged, got %v", resp.Fields)
	}
}

func TestCollectionEndpointRoundTrip(t *testing.T) {
	svc := newService()
	handler := svc.routes(newThemeGenerator(nil, "", ""), newPhotoClient(nil, "", ""), t.TempDir())

	body := `{"name":"Livestock Feed","description":"Premium feed","imageUrl":"/images/livestock-feed.jpg","featured":true,"sortOrder":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/product-categories", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/product-categories", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var items []productCategory
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("invalid list body: %v", err)
	}
	if len(items) != 1 || items[0].ID != 1 || items[0].Name != "Livestock Feed" {
		t.Fatalf("unexpected list: %+v", items)
	}
}
