package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// service owns all persisted state for one client site. With a database it
// works against the client's provisioned schema; without one it serves the
// same API from memory so a deployment without DATABASE_URL still boots.
type service struct {
	db     *sql.DB
	tables tenantTables

	memMu          sync.RWMutex
	memSettings    *storeSettings
	memCategories  map[int]productCategory
	nextCategoryID int
	memServices    map[int]specialService
	nextServiceID  int
	memBrands      map[int]featuredBrand
	nextBrandID    int
}

func newService() *service {
	return &service{
		memCategories:  make(map[int]productCategory),
		nextCategoryID: 1,
		memServices:    make(map[int]specialService),
		nextServiceID:  1,
		memBrands:      make(map[int]featuredBrand),
		nextBrandID:    1,
	}
}

// seedMemory mirrors the database seeding guard for memory mode: the default
// settings record is written only when none exists yet.
func (s *service) seedMemory(clientName, domain string) {
	if clientName == "" {
		clientName = "local-business"
	}
	s.memMu.Lock()
	defer s.memMu.Unlock()
	if s.memSettings != nil {
		return
	}
	def := defaultSettings(clientName, domain)
	s.memSettings = &def
}

// ---------------------------------------------------------------------------
// main
// ---------------------------------------------------------------------------

func main() {
	_ = godotenv.Load()

	port := env("PORT", "5000")
	clientName := env("CLIENT_NAME", "")
	domain := env("DOMAIN", env("VERCEL_URL", ""))
	uploadDir := env("UPLOAD_DIR", "uploads")

	svc := newService()

	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	switch {
	case clientName == "" || dsn == "" || dsn == "postgresql://placeholder":
		log.Printf("skipping client provisioning: missing CLIENT_NAME or DATABASE_URL, running in memory mode")
		svc.seedMemory(clientName, domain)
	default:
		db, err := connectDB()
		if err != nil {
			log.Printf("warn: database unavailable, running in memory mode: %v", err)
			svc.seedMemory(clientName, domain)
			break
		}
		key := makeSchemaKey(clientName)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = provisionTenant(ctx, db, key, clientName, domain)
		cancel()
		if err != nil {
			log.Printf("warn: failed to provision client %s: %v", clientName, err)
			_ = db.Close()
			svc.seedMemory(clientName, domain)
			break
		}
		svc.db = db
		svc.tables = tablesFor(key)
		log.Printf("initialized schema for client: %s", clientName)
	}
	defer func() {
		if svc.db != nil {
			_ = svc.db.Close()
		}
	}()

	gen := newThemeGenerator(nil, env("OPENAI_API_KEY", ""), env("OPENAI_BASE_URL", ""))
	photos := newPhotoClient(nil, env("UNSPLASH_ACCESS_KEY", ""), env("UNSPLASH_BASE_URL", ""))

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           withRequestLog(withServerDefaults(svc.routes(gen, photos, uploadDir))),
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	log.Printf("site service listening on :%s", port)
	log.Fatal(srv.ListenAndServe())
}

func connectDB() (*sql.DB, error) {
	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		host := env("DB_HOST", "")
		if host == "" {
			return nil, errors.New("missing DATABASE_URL or DB_HOST")
		}
		port := env("DB_PORT", "5432")
		user := env("DB_USER", "postgres")
		pass := env("DB_PASSWORD", "postgres")
		name := env("DB_NAME", "site")
		ssl := env("DB_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, name, ssl)
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(intEnv("DB_MAX_OPEN_CONNS", 20))
	db.SetMaxIdleConns(intEnv("DB_MAX_IDLE_CONNS", 10))
	db.SetConnMaxIdleTime(durationEnv("DB_CONN_MAX_IDLE", 5*time.Minute))
	db.SetConnMaxLifetime(durationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *service) routes(gen *themeGenerator, photos *photoClient, uploadDir string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealth)

	mux.HandleFunc("/api/store-settings", s.handleSettings)

	mux.HandleFunc("/api/product-categories", s.handleCategories)
	mux.HandleFunc("/api/product-categories/", s.handleCategoryByID)
	mux.HandleFunc("/api/special-services", s.handleServices)
	mux.HandleFunc("/api/special-services/", s.handleServiceByID)
	mux.HandleFunc("/api/featured-brands", s.handleBrands)
	mux.HandleFunc("/api/featured-brands/", s.handleBrandByID)

	mux.HandleFunc("/api/generate-themes", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
			return
		}
		var req struct {
			BusinessDescription string `json:"businessDescription"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		result, err := gen.generateThemes(r.Context(), req.BusinessDescription)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	mux.HandleFunc("/api/apply-theme", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
			return
		}
		var req struct {
			ThemeID   string        `json:"themeId"`
			Themes    []themeOption `json:"themes"`
			HeroImage string        `json:"heroImage"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		if req.ThemeID == "" || len(req.Themes) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Theme ID and themes are required"})
			return
		}
		var selected *themeOption
		for i := range req.Themes {
			if req.Themes[i].ID == req.ThemeID {
				selected = &req.Themes[i]
				break
			}
		}
		if selected == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Theme not found"})
			return
		}
		in, err := themeToSettingsInput(*selected)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		if req.HeroImage != "" {
			in.HeroImageURL = &req.HeroImage
		}
		updated, err := s.applySettings(r.Context(), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	})

	mux.HandleFunc("/api/stock-photos/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
			return
		}
		query := strings.TrimSpace(r.URL.Query().Get("query"))
		if query == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Search query is required"})
			return
		}
		result, err := photos.search(r.Context(), query)
		if err != nil {
			if errors.Is(err, errPhotoKeyMissing) {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
				return
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	mux.HandleFunc("/api/upload", handleUpload(uploadDir))
	mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))))

	return mux
}

// ---------------------------------------------------------------------------
// Handlers - health
// ---------------------------------------------------------------------------

func (s *service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
		return
	}
	mode := "postgres"
	if s.db == nil {
		mode = "memory"
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	start := time.Now()
	status := "healthy"
	if _, err := s.getSettings(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          status,
		"mode":            mode,
		"storage_latency": time.Since(start).String(),
	})
}

// ---------------------------------------------------------------------------
// Handlers - settings
// ---------------------------------------------------------------------------

func (s *service) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		st, err := s.getSettings(r.Context())
		if errors.Is(err, sql.ErrNoRows) {
			// Nothing seeded yet; give the public page enough to render.
			writeJSON(w, http.StatusOK, storeSettings{
				ID:             1,
				StoreName:      "Loading...",
				Tagline:        "Website initializing...",
				PrimaryColor:   "#2563eb",
				SecondaryColor: "#64748b",
				AccentColor:    "#f59e0b",
				FontFamily:     "Inter",
			})
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	case http.MethodPut:
		var in settingsInput
		if err := decodeJSON(r, &in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		if err := validateSettings(in); err != nil {
			writeError(w, err)
			return
		}
		updated, err := s.applySettings(r.Context(), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": updated})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
	}
}

// ---------------------------------------------------------------------------
// Handlers - collections
// ---------------------------------------------------------------------------

func (s *service) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := s.listCategories(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		var c productCategory
		if err := decodeJSON(r, &c); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		if err := validateCategory(c); err != nil {
			writeError(w, err)
			return
		}
		created, err := s.createCategory(r.Context(), c)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": created})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
	}
}

func (s *service) handleCategoryByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "/api/product-categories/")
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodPut:
		var c productCategory
		if err := decodeJSON(r, &c); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		if err := validateCategory(c); err != nil {
			writeError(w, err)
			return
		}
		updated, err := s.updateCategory(r.Context(), id, c)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": updated})
	case http.MethodDelete:
		if err := s.deleteCategory(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
	}
}

func (s *service) handleServices(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := s.listServices(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		var v specialService
		if err := decodeJSON(r, &v); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		if err := validateService(v); err != nil {
			writeError(w, err)
			return
		}
		created, err := s.createService(r.Context(), v)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": created})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
	}
}

func (s *service) handleServiceByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "/api/special-services/")
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodPut:
		var v specialService
		if err := decodeJSON(r, &v); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		if err := validateService(v); err != nil {
			writeError(w, err)
			return
		}
		updated, err := s.updateService(r.Context(), id, v)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": updated})
	case http.MethodDelete:
		if err := s.deleteService(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
	}
}

func (s *service) handleBrands(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := s.listBrands(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		var b featuredBrand
		if err := decodeJSON(r, &b); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		if err := validateBrand(b); err != nil {
			writeError(w, err)
			return
		}
		created, err := s.createBrand(r.Context(), b)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": created})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
	}
}

func (s *service) handleBrandByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "/api/featured-brands/")
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodPut:
		var b featuredBrand
		if err := decodeJSON(r, &b); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		if err := validateBrand(b); err != nil {
			writeError(w, err)
			return
		}
		updated, err := s.updateBrand(r.Context(), id, b)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": updated})
	case http.MethodDelete:
		if err := s.deleteBrand(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
	}
}

// pathID extracts the numeric trailing id from a collection item path.
func pathID(w http.ResponseWriter, r *http.Request, prefix string) (int, bool) {
	raw := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, prefix))
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "missing id"})
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid id"})
		return 0, false
	}
	return id, true
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

// writeError translates the error taxonomy to status codes: validation 400,
// not-found 404, storage unavailability 503, anything else 500.
func writeError(w http.ResponseWriter, err error) {
	var ve *validationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Please fill in all required fields correctly.",
			"fields":  ve.Fields,
		})
	case errors.Is(err, sql.ErrNoRows):
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "not found"})
	case isStorageUnavailable(err):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"success": false, "message": "Database connection unavailable"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": err.Error()})
	}
}

func isStorageUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "bad connection") ||
		strings.Contains(msg, "failed to connect")
}

// ---------------------------------------------------------------------------
// HTTP helpers
// ---------------------------------------------------------------------------

func withServerDefaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if strings.HasPrefix(r.URL.Path, "/api") {
			log.Printf("%s %s %d in %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
		}
	})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return errors.New("empty request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.New("invalid JSON payload")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ---------------------------------------------------------------------------
// Env helpers
// ---------------------------------------------------------------------------

func env(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func intEnv(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
