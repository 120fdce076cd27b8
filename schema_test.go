package main

import (
	"strings"
	"testing"
)

func TestMakeSchemaKeySanitizesEveryInput(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Bob's Feed & Seed!", "bob_s_feed___seed_"},
		{"brown-feed-store", "brown_feed_store"},
		{"ACME wholesale", "acme_wholesale"},
		{"plain123", "plain123"},
		{"héllo", "h_llo"},
	}
	for _, tc := range cases {
		got := makeSchemaKey(tc.in)
		if string(got) != tc.want {
			t.Fatalf("makeSchemaKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMakeSchemaKeyIdempotent(t *testing.T) {
	inputs := []string{"Bob's Feed & Seed!", "brown-feed-store", "A B C", "x"}
	for _, in := range inputs {
		once := makeSchemaKey(in)
		twice := makeSchemaKey(string(once))
		if once != twice {
			t.Fatalf("re-sanitizing %q changed the key: %q -> %q", in, once, twice)
		}
		for _, r := range string(once) {
			if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_') {
				t.Fatalf("key %q contains forbidden rune %q", once, r)
			}
		}
	}
}

func TestTablesForQualifiesAllFourTables(t *testing.T) {
	tables := tablesFor(makeSchemaKey("Brown Feed"))
	want := map[string]string{
		"settings":   "brown_feed.store_settings",
		"categories": "brown_feed.product_categories",
		"services":   "brown_feed.special_services",
		"brands":     "brown_feed.featured_brands",
	}
	got := map[string]string{
		"settings":   tables.settings,
		"categories": tables.categories,
		"services":   tables.services,
		"brands":     tables.brands,
	}
	for k, w := range want {
		if got[k] != w {
			t.Fatalf("%s table = %q, want %q", k, got[k], w)
		}
	}
}

func TestTitleize(t *testing.T) {
	cases := map[string]string{
		"brown-feed-store": "Brown Feed Store",
		"bobs_feed":        "Bobs Feed",
		"acme":             "Acme",
	}
	for in, want := range cases {
		if got := titleize(in); got != want {
			t.Fatalf("titleize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaultSettingsSeed(t *testing.T) {
	def := defaultSettings("brown-feed-store", "brownfeedstore.com")
	if def.StoreName != "Brown Feed Store" {
		t.Fatalf("store name = %q", def.StoreName)
	}
	if def.Email != "info@brownfeedstore.com" {
		t.Fatalf("email = %q", def.Email)
	}
	if def.AboutTitle != "About Brown Feed Store" {
		t.Fatalf("about title = %q", def.AboutTitle)
	}
	if def.SundayHours != "Closed" {
		t.Fatalf("sunday hours = %q", def.SundayHours)
	}
	if def.PrimaryColor != "#2563eb" || def.FontFamily != "Inter" {
		t.Fatalf("theme defaults = %q / %q", def.PrimaryColor, def.FontFamily)
	}
	if !strings.HasPrefix(def.SEOTitle, "Brown Feed Store") {
		t.Fatalf("seo title = %q", def.SEOTitle)
	}
	if err := validateSettings(settingsToInput(def)); err != nil {
		t.Fatalf("seed record should satisfy validation: %v", err)
	}
}

func TestDefaultSettingsWithoutDomainHasNoEmail(t *testing.T) {
	def := defaultSettings("acme", "")
	if def.Email != "" {
		t.Fatalf("expected empty email without a domain, got %q", def.Email)
	}
}

func TestSeedMemoryRunsOnlyOnce(t *testing.T) {
	svc := newService()
	svc.seedMemory("brown-feed-store", "brownfeedstore.com")

	tagline := "Hand-edited tagline"
	if _, err := svc.applySettings(nil, settingsInput{Tagline: &tagline}); err != nil {
		t.Fatalf("applySettings returned error: %v", err)
	}

	// A restart re-runs seeding; the existing record must survive untouched.
	svc.seedMemory("brown-feed-store", "brownfeedstore.com")

	st, err := svc.getSettings(nil)
	if err != nil {
		t.Fatalf("getSettings returned error: %v", err)
	}
	if st.Tagline != tagline {
		t.Fatalf("second seed overwrote settings: tagline = %q", st.Tagline)
	}
}

// settingsToInput builds a full merge payload from an existing record, the
// way the admin UI submits the whole form.
func settingsToInput(st storeSettings) settingsInput {
	return settingsInput{
		StoreName:        &st.StoreName,
		Tagline:          &st.Tagline,
		Address:          &st.Address,
		Phone:            &st.Phone,
		MondayHours:      &st.MondayHours,
		TuesdayHours:     &st.TuesdayHours,
		WednesdayHours:   &st.WednesdayHours,
		ThursdayHours:    &st.ThursdayHours,
		FridayHours:      &st.FridayHours,
		SaturdayHours:    &st.SaturdayHours,
		SundayHours:      &st.SundayHours,
		AboutTitle:       &st.AboutTitle,
		AboutDescription: &st.AboutDescription,
		AboutStory:       &st.AboutStory,
		FoundedYear:      &st.FoundedYear,
		PrimaryColor:     &st.PrimaryColor,
		SecondaryColor:   &st.SecondaryColor,
		AccentColor:      &st.AccentColor,
		FontFamily:       &st.FontFamily,
		SEOTitle:         &st.SEOTitle,
		SEODescription:   &st.SEODescription,
		SEOKeywords:      &st.SEOKeywords,
	}
}
