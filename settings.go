package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Entity
// ---------------------------------------------------------------------------

// storeSettings is the per-client singleton. It is created once at
// provisioning time and only ever merged over, never deleted.
type storeSettings struct {
	ID               int       `json:"id"`
	StoreName        string    `json:"storeName"`
	Tagline          string    `json:"tagline"`
	Address          string    `json:"address"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email,omitempty"`
	MondayHours      string    `json:"mondayHours"`
	TuesdayHours     string    `json:"tuesdayHours"`
	WednesdayHours   string    `json:"wednesdayHours"`
	ThursdayHours    string    `json:"thursdayHours"`
	FridayHours      string    `json:"fridayHours"`
	SaturdayHours    string    `json:"saturdayHours"`
	SundayHours      string    `json:"sundayHours"`
	AboutTitle       string    `json:"aboutTitle"`
	AboutDescription string    `json:"aboutDescription"`
	AboutStory       string    `json:"aboutStory"`
	FoundedYear      string    `json:"foundedYear"`
	LogoURL          string    `json:"logoUrl,omitempty"`
	FaviconURL       string    `json:"faviconUrl,omitempty"`
	HeroImageURL     string    `json:"heroImageUrl,omitempty"`
	AboutImageURL    string    `json:"aboutImageUrl,omitempty"`
	PrimaryColor     string    `json:"primaryColor"`
	SecondaryColor   string    `json:"secondaryColor"`
	AccentColor      string    `json:"accentColor"`
	FontFamily       string    `json:"fontFamily"`
	FacebookURL      string    `json:"facebookUrl,omitempty"`
	InstagramURL     string    `json:"instagramUrl,omitempty"`
	XURL             string    `json:"xUrl,omitempty"`
	GoogleURL        string    `json:"googleUrl,omitempty"`
	YelpURL          string    `json:"yelpUrl,omitempty"`
	SEOTitle         string    `json:"seoTitle"`
	SEODescription   string    `json:"seoDescription"`
	SEOKeywords      string    `json:"seoKeywords"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// settingsInput is the merge payload. Absent fields stay nil and retain the
// current value; present fields overwrite unconditionally.
type settingsInput struct {
	StoreName        *string `json:"storeName,omitempty"`
	Tagline          *string `json:"tagline,omitempty"`
	Address          *string `json:"address,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	Email            *string `json:"email,omitempty"`
	MondayHours      *string `json:"mondayHours,omitempty"`
	TuesdayHours     *string `json:"tuesdayHours,omitempty"`
	WednesdayHours   *string `json:"wednesdayHours,omitempty"`
	ThursdayHours    *string `json:"thursdayHours,omitempty"`
	FridayHours      *string `json:"fridayHours,omitempty"`
	SaturdayHours    *string `json:"saturdayHours,omitempty"`
	SundayHours      *string `json:"sundayHours,omitempty"`
	AboutTitle       *string `json:"aboutTitle,omitempty"`
	AboutDescription *string `json:"aboutDescription,omitempty"`
	AboutStory       *string `json:"aboutStory,omitempty"`
	FoundedYear      *string `json:"foundedYear,omitempty"`
	LogoURL          *string `json:"logoUrl,omitempty"`
	FaviconURL       *string `json:"faviconUrl,omitempty"`
	HeroImageURL     *string `json:"heroImageUrl,omitempty"`
	AboutImageURL    *string `json:"aboutImageUrl,omitempty"`
	PrimaryColor     *string `json:"primaryColor,omitempty"`
	SecondaryColor   *string `json:"secondaryColor,omitempty"`
	AccentColor      *string `json:"accentColor,omitempty"`
	FontFamily       *string `json:"fontFamily,omitempty"`
	FacebookURL      *string `json:"facebookUrl,omitempty"`
	InstagramURL     *string `json:"instagramUrl,omitempty"`
	XURL             *string `json:"xUrl,omitempty"`
	GoogleURL        *string `json:"googleUrl,omitempty"`
	YelpURL          *string `json:"yelpUrl,omitempty"`
	SEOTitle         *string `json:"seoTitle,omitempty"`
	SEODescription   *string `json:"seoDescription,omitempty"`
	SEOKeywords      *string `json:"seoKeywords,omitempty"`
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// validationError reports every offending field, not just the first.
type validationError struct {
	Fields []string
}

func (e *validationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// validateSettings checks that every required field is present and
// non-empty. Optional fields (email, image URLs, social URLs) are skipped.
func validateSettings(in settingsInput) error {
	required := []struct {
		name  string
		value *string
	}{
		{"storeName", in.StoreName},
		{"tagline", in.Tagline},
		{"address", in.Address},
		{"phone", in.Phone},
		{"mondayHours", in.MondayHours},
		{"tuesdayHours", in.TuesdayHours},
		{"wednesdayHours", in.WednesdayHours},
		{"thursdayHours", in.ThursdayHours},
		{"fridayHours", in.FridayHours},
		{"saturdayHours", in.SaturdayHours},
		{"sundayHours", in.SundayHours},
		{"aboutTitle", in.AboutTitle},
		{"aboutDescription", in.AboutDescription},
		{"aboutStory", in.AboutStory},
		{"foundedYear", in.FoundedYear},
		{"primaryColor", in.PrimaryColor},
		{"secondaryColor", in.SecondaryColor},
		{"accentColor", in.AccentColor},
		{"fontFamily", in.FontFamily},
		{"seoTitle", in.SEOTitle},
		{"seoDescription", in.SEODescription},
		{"seoKeywords", in.SEOKeywords},
	}
	var missing []string
	for _, f := range required {
		if f.value == nil || strings.TrimSpace(*f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &validationError{Fields: missing}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Merge
// ---------------------------------------------------------------------------

// mergeSettings applies a shallow, last-write-wins merge of in over cur.
// Theme application reuses this with a payload holding only the three color
// fields and the font family.
func mergeSettings(cur storeSettings, in settingsInput) storeSettings {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&cur.StoreName, in.StoreName)
	set(&cur.Tagline, in.Tagline)
	set(&cur.Address, in.Address)
	set(&cur.Phone, in.Phone)
	set(&cur.Email, in.Email)
	set(&cur.MondayHours, in.MondayHours)
	set(&cur.TuesdayHours, in.TuesdayHours)
	set(&cur.WednesdayHours, in.WednesdayHours)
	set(&cur.ThursdayHours, in.ThursdayHours)
	set(&cur.FridayHours, in.FridayHours)
	set(&cur.SaturdayHours, in.SaturdayHours)
	set(&cur.SundayHours, in.SundayHours)
	set(&cur.AboutTitle, in.AboutTitle)
	set(&cur.AboutDescription, in.AboutDescription)
	set(&cur.AboutStory, in.AboutStory)
	set(&cur.FoundedYear, in.FoundedYear)
	set(&cur.LogoURL, in.LogoURL)
	set(&cur.FaviconURL, in.FaviconURL)
	set(&cur.HeroImageURL, in.HeroImageURL)
	set(&cur.AboutImageURL, in.AboutImageURL)
	set(&cur.PrimaryColor, in.PrimaryColor)
	set(&cur.SecondaryColor, in.SecondaryColor)
	set(&cur.AccentColor, in.AccentColor)
	set(&cur.FontFamily, in.FontFamily)
	set(&cur.FacebookURL, in.FacebookURL)
	set(&cur.InstagramURL, in.InstagramURL)
	set(&cur.XURL, in.XURL)
	set(&cur.GoogleURL, in.GoogleURL)
	set(&cur.YelpURL, in.YelpURL)
	set(&cur.SEOTitle, in.SEOTitle)
	set(&cur.SEODescription, in.SEODescription)
	set(&cur.SEOKeywords, in.SEOKeywords)
	cur.UpdatedAt = time.Now().UTC()
	return cur
}

// ---------------------------------------------------------------------------
// Storage
// ---------------------------------------------------------------------------

const settingsColumns = `id, store_name, tagline, address, phone, email,
	monday_hours, tuesday_hours, wednesday_hours, thursday_hours, friday_hours, saturday_hours, sunday_hours,
	about_title, about_description, about_story, founded_year,
	logo_url, favicon_url, hero_image_url, about_image_url,
	primary_color, secondary_color, accent_color, font_family,
	facebook_url, instagram_url, x_url, google_url, yelp_url,
	seo_title, seo_description, seo_keywords, created_at, updated_at`

func (s *service) getSettings(ctx context.Context) (storeSettings, error) {
	if s.db == nil {
		s.memMu.RLock()
		defer s.memMu.RUnlock()
		if s.memSettings == nil {
			return storeSettings{}, sql.ErrNoRows
		}
		return *s.memSettings, nil
	}

	q := `SELECT ` + settingsColumns + ` FROM ` + s.tables.settings + ` ORDER BY id LIMIT 1`
	row := s.db.QueryRowContext(ctx, q)

	var st storeSettings
	var email, logo, favicon, hero, about sql.NullString
	var fb, ig, x, goog, yelp sql.NullString
	err := row.Scan(
		&st.ID, &st.StoreName, &st.Tagline, &st.Address, &st.Phone, &email,
		&st.MondayHours, &st.TuesdayHours, &st.WednesdayHours, &st.ThursdayHours, &st.FridayHours, &st.SaturdayHours, &st.SundayHours,
		&st.AboutTitle, &st.AboutDescription, &st.AboutStory, &st.FoundedYear,
		&logo, &favicon, &hero, &about,
		&st.PrimaryColor, &st.SecondaryColor, &st.AccentColor, &st.FontFamily,
		&fb, &ig, &x, &goog, &yelp,
		&st.SEOTitle, &st.SEODescription, &st.SEOKeywords, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return storeSettings{}, err
	}
	st.Email = email.String
	st.LogoURL = logo.String
	st.FaviconURL = favicon.String
	st.HeroImageURL = hero.String
	st.AboutImageURL = about.String
	st.FacebookURL = fb.String
	st.InstagramURL = ig.String
	st.XURL = x.String
	st.GoogleURL = goog.String
	st.YelpURL = yelp.String
	return st, nil
}

// applySettings merges in over the current singleton and persists the
// result. The caller is responsible for validation; theme application calls
// this with an unvalidated four-field payload on purpose.
func (s *service) applySettings(ctx context.Context, in settingsInput) (storeSettings, error) {
	cur, err := s.getSettings(ctx)
	if err != nil {
		return storeSettings{}, err
	}
	merged := mergeSettings(cur, in)

	if s.db == nil {
		s.memMu.Lock()
		s.memSettings = &merged
		s.memMu.Unlock()
		return merged, nil
	}

	q := fmt.Sprintf(`UPDATE %s SET
		store_name=$1, tagline=$2, address=$3, phone=$4, email=$5,
		monday_hours=$6, tuesday_hours=$7, wednesday_hours=$8, thursday_hours=$9, friday_hours=$10, saturday_hours=$11, sunday_hours=$12,
		about_title=$13, about_description=$14, about_story=$15, founded_year=$16,
		logo_url=$17, favicon_url=$18, hero_image_url=$19, about_image_url=$20,
		primary_color=$21, secondary_color=$22, accent_color=$23, font_family=$24,
		facebook_url=$25, instagram_url=$26, x_url=$27, google_url=$28, yelp_url=$29,
		seo_title=$30, seo_description=$31, seo_keywords=$32, updated_at=$33
		WHERE id=$34`, s.tables.settings)
	_, err = s.db.ExecContext(ctx, q,
		merged.StoreName, merged.Tagline, merged.Address, merged.Phone, nilIfEmpty(merged.Email),
		merged.MondayHours, merged.TuesdayHours, merged.WednesdayHours, merged.ThursdayHours, merged.FridayHours, merged.SaturdayHours, merged.SundayHours,
		merged.AboutTitle, merged.AboutDescription, merged.AboutStory, merged.FoundedYear,
		nilIfEmpty(merged.LogoURL), nilIfEmpty(merged.FaviconURL), nilIfEmpty(merged.HeroImageURL), nilIfEmpty(merged.AboutImageURL),
		merged.PrimaryColor, merged.SecondaryColor, merged.AccentColor, merged.FontFamily,
		nilIfEmpty(merged.FacebookURL), nilIfEmpty(merged.InstagramURL), nilIfEmpty(merged.XURL), nilIfEmpty(merged.GoogleURL), nilIfEmpty(merged.YelpURL),
		merged.SEOTitle, merged.SEODescription, merged.SEOKeywords, merged.UpdatedAt,
		merged.ID,
	)
	if err != nil {
		return storeSettings{}, err
	}
	return merged, nil
}
