package server

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/UnknownOlympus/demeter/internal/enrich"
	"github.com/UnknownOlympus/demeter/internal/geocoding"
	"github.com/UnknownOlympus/demeter/internal/table"
	"github.com/google/uuid"
)

// maxUploadMemory bounds the in-memory part of multipart parsing.
const maxUploadMemory = 32 << 20

// processedSuffix names the processed file per provider, matching what the
// front-end expects to offer for download.
func processedSuffix(providerType geocoding.ProviderType) string {
	switch providerType {
	case geocoding.ProviderTypeElevation:
		return "elevation"
	case geocoding.ProviderTypeOpenCage:
		return "OpenCage"
	case geocoding.ProviderTypeGoogleGeocode:
		return "GoogleGeocoding"
	default:
		return string(providerType)
	}
}

// handleEnrich returns the upload handler for one provider type. The request
// is a multipart form with an api_key field and a spreadsheet file; the
// response names the processed file available under /download/.
func (s *Server) handleEnrich(providerType geocoding.ProviderType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			writeDetail(w, http.StatusBadRequest, "multipart form is required")
			return
		}

		apiKey := r.FormValue("api_key")
		if apiKey == "" {
			writeDetail(w, http.StatusBadRequest, "api_key is required")
			return
		}

		upload, header, err := r.FormFile("file")
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "file is required")
			return
		}
		defer upload.Close()

		name := uuid.NewString()
		ext := strings.ToLower(filepath.Ext(header.Filename))

		inPath, err := s.saveUpload(upload, name+ext)
		if err != nil {
			s.internalError(ctx, w, "Failed to store uploaded file", err)
			return
		}

		tbl, err := table.Load(inPath)
		if err != nil {
			s.internalError(ctx, w, "Failed to load uploaded table", err)
			return
		}

		provider, err := s.newProvider(geocoding.ProviderConfig{
			Type:      providerType,
			APIKey:    apiKey,
			RateLimit: s.cfg.RateLimit,
			Logger:    s.log,
		})
		if err != nil {
			s.internalError(ctx, w, "Failed to create provider", err)
			return
		}

		processor := enrich.NewProcessor(s.log, provider, s.metrics, s.cfg.LookupTimeout, s.cfg.MaxRows)
		if err = processor.Process(ctx, tbl); err != nil {
			s.internalError(ctx, w, "Failed to process table", err)
			return
		}

		outName := name + "_processed_" + processedSuffix(providerType) + ext
		if err = tbl.Save(filepath.Join(s.cfg.UploadsDir, outName)); err != nil {
			s.internalError(ctx, w, "Failed to save processed table", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"file_path": outName,
			"message":   "File uploaded and processed successfully",
		})
	}
}

// saveUpload copies the uploaded file into the uploads directory and returns
// its path.
func (s *Server) saveUpload(upload io.Reader, name string) (string, error) {
	if err := os.MkdirAll(s.cfg.UploadsDir, 0o750); err != nil {
		return "", err
	}

	path := filepath.Join(s.cfg.UploadsDir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err = io.Copy(dst, upload); err != nil {
		return "", err
	}

	return path, nil
}

// handleDownload streams a previously produced file back to the caller.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	// Base strips any path components a crafted file name could smuggle in.
	name := filepath.Base(r.PathValue("file_name"))

	path := filepath.Join(s.cfg.UploadsDir, name)
	if _, err := os.Stat(path); err != nil {
		writeDetail(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, path)
}
