package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Schema key
// ---------------------------------------------------------------------------

// schemaKey is a sanitized Postgres schema identifier derived from a client
// name. It only ever contains [a-z0-9_], so it is safe to qualify table
// names with. All sanitization happens in makeSchemaKey; nothing else in the
// codebase builds identifiers from raw input.
type schemaKey string

func makeSchemaKey(clientName string) schemaKey {
	var b strings.Builder
	b.Grow(len(clientName))
	for _, r := range clientName {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	return schemaKey(b.String())
}

// tenantTables holds the fully qualified table names for one client schema.
// It is built once from a validated schemaKey and passed around as a handle;
// queries never interpolate raw client input.
type tenantTables struct {
	settings   string
	categories string
	services   string
	brands     string
}

func tablesFor(key schemaKey) tenantTables {
	return tenantTables{
		settings:   string(key) + ".store_settings",
		categories: string(key) + ".product_categories",
		services:   string(key) + ".special_services",
		brands:     string(key) + ".featured_brands",
	}
}

// ---------------------------------------------------------------------------
// Provisioning
// ---------------------------------------------------------------------------

// provisionTenant creates the client schema, its four tables, and the seed
// settings row. Every statement uses IF NOT EXISTS semantics and the seed
// only runs when the settings table is empty, so calling this on every boot
// is safe.
func provisionTenant(ctx context.Context, db *sql.DB, key schemaKey, clientName, domain string) error {
	tables := tablesFor(key)
	stmts := []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, key),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id SERIAL PRIMARY KEY,
			store_name VARCHAR(255) NOT NULL,
			tagline TEXT NOT NULL,
			address TEXT NOT NULL,
			phone VARCHAR(50) NOT NULL,
			email VARCHAR(255),
			monday_hours VARCHAR(100) NOT NULL,
			tuesday_hours VARCHAR(100) NOT NULL,
			wednesday_hours VARCHAR(100) NOT NULL,
			thursday_hours VARCHAR(100) NOT NULL,
			friday_hours VARCHAR(100) NOT NULL,
			saturday_hours VARCHAR(100) NOT NULL,
			sunday_hours VARCHAR(100) NOT NULL,
			about_title VARCHAR(255) NOT NULL,
			about_description TEXT NOT NULL,
			about_story TEXT NOT NULL,
			founded_year VARCHAR(10) NOT NULL,
			logo_url TEXT,
			favicon_url TEXT,
			hero_image_url TEXT,
			about_image_url TEXT,
			primary_color VARCHAR(20) NOT NULL,
			secondary_color VARCHAR(20) NOT NULL,
			accent_color VARCHAR(20) NOT NULL,
			font_family VARCHAR(100) NOT NULL,
			facebook_url TEXT,
			instagram_url TEXT,
			x_url TEXT,
			google_url TEXT,
			yelp_url TEXT,
			seo_title VARCHAR(255) NOT NULL,
			seo_description TEXT NOT NULL,
			seo_keywords TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, tables.settings),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			image_url TEXT NOT NULL,
			featured BOOLEAN NOT NULL DEFAULT false,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, tables.categories),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			icon VARCHAR(100) NOT NULL,
			featured BOOLEAN NOT NULL DEFAULT false,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, tables.services),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			logo_url TEXT NOT NULL,
			website_url TEXT NOT NULL,
			featured BOOLEAN NOT NULL DEFAULT false,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, tables.brands),
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("provision %s: %w", key, err)
		}
	}
	return seedSettings(ctx, db, tables, clientName, domain)
}

// seedSettings inserts the default settings row, but only when the table is
// empty. A restart against an already provisioned schema must leave the
// existing row untouched.
func seedSettings(ctx context.Context, db *sql.DB, tables tenantTables, clientName, domain string) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM `+tables.settings).Scan(&count); err != nil {
		return fmt.Errorf("seed check %s: %w", tables.settings, err)
	}
	if count > 0 {
		return nil
	}
	def := defaultSettings(clientName, domain)
	q := fmt.Sprintf(`INSERT INTO %s (
		store_name, tagline, address, phone, email,
		monday_hours, tuesday_hours, wednesday_hours, thursday_hours, friday_hours, saturday_hours, sunday_hours,
		about_title, about_description, about_story, founded_year,
		primary_color, secondary_color, accent_color, font_family,
		seo_title, seo_description, seo_keywords
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`, tables.settings)
	_, err := db.ExecContext(ctx, q,
		def.StoreName, def.Tagline, def.Address, def.Phone, nilIfEmpty(def.Email),
		def.MondayHours, def.TuesdayHours, def.WednesdayHours, def.ThursdayHours, def.FridayHours, def.SaturdayHours, def.SundayHours,
		def.AboutTitle, def.AboutDescription, def.AboutStory, def.FoundedYear,
		def.PrimaryColor, def.SecondaryColor, def.AccentColor, def.FontFamily,
		def.SEOTitle, def.SEODescription, def.SEOKeywords,
	)
	if err != nil {
		return fmt.Errorf("seed %s: %w", tables.settings, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Seed defaults
// ---------------------------------------------------------------------------

func defaultSettings(clientName, domain string) storeSettings {
	display := titleize(clientName)
	email := ""
	if domain != "" {
		email = "info@" + domain
	}
	now := time.Now().UTC()
	return storeSettings{
		ID:               1,
		StoreName:        display,
		Tagline:          "Your trusted local business",
		Address:          "123 Main Street, Your City, State 12345",
		Phone:            "(555) 123-4567",
		Email:            email,
		MondayHours:      "9:00 AM - 6:00 PM",
		TuesdayHours:     "9:00 AM - 6:00 PM",
		WednesdayHours:   "9:00 AM - 6:00 PM",
		ThursdayHours:    "9:00 AM - 6:00 PM",
		FridayHours:      "9:00 AM - 6:00 PM",
		SaturdayHours:    "9:00 AM - 4:00 PM",
		SundayHours:      "Closed",
		AboutTitle:       "About " + display,
		AboutDescription: "A trusted local business serving our community",
		AboutStory:       "Our story begins with a commitment to quality and service...",
		FoundedYear:      fmt.Sprintf("%d", now.Year()),
		PrimaryColor:     "#2563eb",
		SecondaryColor:   "#64748b",
		AccentColor:      "#f59e0b",
		FontFamily:       "Inter",
		SEOTitle:         display + " - Quality Service",
		SEODescription:   "Your trusted local business providing quality products and services.",
		SEOKeywords:      "local business, quality service, trusted provider",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// titleize turns a deployment name like "brown-feed-store" into a display
// name like "Brown Feed Store".
func titleize(name string) string {
	cleaned := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	words := strings.Fields(cleaned)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
