package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Uploads
// ---------------------------------------------------------------------------

const maxUploadBytes = 5 << 20

var allowedImageExts = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// handleUpload stores a single image under uploadDir and returns its public
// /uploads URL.
func handleUpload(uploadDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "No file uploaded"})
			return
		}
		defer file.Close()

		ext := strings.ToLower(filepath.Ext(header.Filename))
		if !allowedImageExts[ext] {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Only image files are allowed"})
			return
		}

		if err := os.MkdirAll(uploadDir, 0o755); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Upload failed"})
			return
		}
		name := fmt.Sprintf("file-%s%s", uuid.NewString(), ext)
		dst, err := os.Create(filepath.Join(uploadDir, name))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Upload failed"})
			return
		}
		defer dst.Close()
		if _, err := io.Copy(dst, file); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Upload failed"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"success": true, "url": "/uploads/" + name})
	}
}
