package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidateSettingsReportsEveryMissingField(t *testing.T) {
	def := defaultSettings("brown-feed-store", "brownfeedstore.com")
	in := settingsToInput(def)
	in.Tagline = nil
	empty := "   "
	in.Phone = &empty

	err := validateSettings(in)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var ve *validationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *validationError, got %T", err)
	}
	if len(ve.Fields) != 2 {
		t.Fatalf("expected 2 offending fields, got %v", ve.Fields)
	}
	want := map[string]bool{"tagline": true, "phone": true}
	for _, f := range ve.Fields {
		if !want[f] {
			t.Fatalf("unexpected field %q in %v", f, ve.Fields)
		}
	}
}

func TestValidateSettingsSkipsOptionalFields(t *testing.T) {
	def := defaultSettings("acme", "")
	in := settingsToInput(def)
	// No email, images, or social URLs set at all.
	if err := validateSettings(in); err != nil {
		t.Fatalf("optional fields should not be required: %v", err)
	}
}

func TestMergeSettingsRetainsUnspecifiedFields(t *testing.T) {
	cur := defaultSettings("brown-feed-store", "brownfeedstore.com")
	cur.StoreName = "A"
	cur.Tagline = "T1"
	cur.FacebookURL = "https://facebook.com/brownfeedstore"

	t2 := "T2"
	merged := mergeSettings(cur, settingsInput{Tagline: &t2})

	if merged.StoreName != "A" {
		t.Fatalf("storeName = %q, want retained %q", merged.StoreName, "A")
	}
	if merged.Tagline != "T2" {
		t.Fatalf("tagline = %q, want %q", merged.Tagline, "T2")
	}
	if merged.FacebookURL != cur.FacebookURL {
		t.Fatalf("facebookUrl = %q, want retained %q", merged.FacebookURL, cur.FacebookURL)
	}
	if merged.Email != cur.Email {
		t.Fatalf("email = %q, want retained %q", merged.Email, cur.Email)
	}
	if !merged.UpdatedAt.After(cur.UpdatedAt) && !merged.UpdatedAt.Equal(cur.UpdatedAt) {
		t.Fatalf("updatedAt went backwards: %s < %s", merged.UpdatedAt, cur.UpdatedAt)
	}
}

func TestMergeSettingsOverwritesPresentFields(t *testing.T) {
	cur := defaultSettings("acme", "acme.example")
	in := settingsToInput(cur)
	name := "Acme Wholesale"
	hero := "/uploads/hero.jpg"
	in.StoreName = &name
	in.HeroImageURL = &hero

	merged := mergeSettings(cur, in)
	if merged.StoreName != "Acme Wholesale" {
		t.Fatalf("storeName = %q", merged.StoreName)
	}
	if merged.HeroImageURL != "/uploads/hero.jpg" {
		t.Fatalf("heroImageUrl = %q", merged.HeroImageURL)
	}
}

func TestSettingsEndpointValidationError(t *testing.T) {
	svc := newService()
	svc.seedMemory("brown-feed-store", "brownfeedstore.com")
	handler := svc.routes(newThemeGenerator(nil, "", ""), newPhotoClient(nil, "", ""), t.TempDir())

	body := `{"storeName":"Brown Feed Store","tagline":""}`
	req := httptest.NewRequest(http.MethodPut, "/api/store-settings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp struct {
		Success bool     `json:"success"`
		Fields  []string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if resp.Success {
		t.Fatal("expected success=false")
	}
	// Everything except storeName is absent or empty.
	if len(resp.Fields) < 2 {
		t.Fatalf("expected the full list of offending fields, got %v", resp.Fields)
	}
	for _, f := range resp.Fields {
		if f == "storeName" {
			t.Fatalf("storeName was present and non-empty, should not be flagged: %v", resp.Fields)
		}
	}
}

func TestSettingsEndpointPutMergesAndReturnsFullRecord(t *testing.T) {
	svc := newService()
	svc.seedMemory("brown-feed-store", "brownfeedstore.com")
	handler := svc.routes(newThemeGenerator(nil, "", ""), newPhotoClient(nil, "", ""), t.TempDir())

	def := defaultSettings("brown-feed-store", "brownfeedstore.com")
	in := settingsToInput(def)
	t2 := "Your Agricultural Supply Partner Since 1967"
	in.Tagline = &t2
	payload, _ := json.Marshal(in)

	req := httptest.NewRequest(http.MethodPut, "/api/store-settings", strings.NewReader(string(payload)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success bool          `json:"success"`
		Data    storeSettings `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success=true")
	}
	if resp.Data.Tagline != t2 {
		t.Fatalf("tagline = %q", resp.Data.Tagline)
	}
	if resp.Data.StoreName != "Brown Feed Store" {
		t.Fatalf("storeName = %q", resp.Data.StoreName)
	}
	// Optional email was omitted from the payload and must be retained.
	if resp.Data.Email != "info@brownfeedstore.com" {
		t.Fatalf("email = %q, want retained seed value", resp.Data.Email)
	}
}

func TestSettingsEndpointGetFallbackBeforeSeed(t *testing.T) {
	svc := newService()
	handler := svc.routes(newThemeGenerator(nil, "", ""), newPhotoClient(nil, "", ""), t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/store-settings", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var st storeSettings
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if st.StoreName != "Loading..." {
		t.Fatalf("fallback storeName = %q", st.StoreName)
	}
}
