package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
	"github.com/MeiZhiYying/classifyDoc/internal/core/ports"
)

const uploadMemoryLimit = 32 << 20

// Router exposes the catalog engine over HTTP. Wire shapes follow the
// UI contract: upload batches, scan triggers, stats and file listings.
type Router struct {
	ingestor   ports.BatchIngestor
	scanner    ports.DirectoryScanner
	categories ports.CategoryService
	queries    ports.CatalogQueryService
	registry   ports.CategoryRegistry
	storage    ports.ObjectStorage

	metricsHandler http.Handler

	rateLimitRPS   int
	rateLimitBurst int
	maxConcurrent  int
}

type RouterOptions struct {
	MetricsHandler http.Handler
	RateLimitRPS   int
	RateLimitBurst int
	MaxConcurrent  int
}

func NewRouter(
	ingestor ports.BatchIngestor,
	scanner ports.DirectoryScanner,
	categories ports.CategoryService,
	queries ports.CatalogQueryService,
	registry ports.CategoryRegistry,
	storage ports.ObjectStorage,
	options RouterOptions,
) *Router {
	return &Router{
		ingestor:       ingestor,
		scanner:        scanner,
		categories:     categories,
		queries:        queries,
		registry:       registry,
		storage:        storage,
		metricsHandler: options.MetricsHandler,
		rateLimitRPS:   options.RateLimitRPS,
		rateLimitBurst: options.RateLimitBurst,
		maxConcurrent:  options.MaxConcurrent,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	if rt.metricsHandler != nil {
		mux.Handle("/metrics", rt.metricsHandler)
	}
	mux.HandleFunc("/upload", rt.uploadBatch)
	mux.HandleFunc("/api/scan-uploads", rt.scanUploads)
	mux.HandleFunc("/api/stats", rt.stats)
	mux.HandleFunc("/api/files/", rt.categoryFiles)
	mux.HandleFunc("/api/all-files", rt.allFiles)
	mux.HandleFunc("/api/add-category", rt.addCategory)
	mux.HandleFunc("/api/scan-status/", rt.scanStatus)
	mux.HandleFunc("/api/categories", rt.listCategories)
	mux.HandleFunc("/files/", rt.serveFile)
	mux.HandleFunc("/download/", rt.downloadFile)

	var handler http.Handler = mux
	if rt.maxConcurrent > 0 {
		handler = backpressureMiddleware(handler, rt.maxConcurrent, 100*time.Millisecond)
	}
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse multipart form: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	originalPaths := r.MultipartForm.Value["originalPaths"]

	batch := make([]ports.UploadFile, 0, len(headers))
	opened := make([]interface{ Close() error }, 0, len(headers))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for i, header := range headers {
		file, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("open uploaded file %q: %w", header.Filename, err))
			return
		}
		opened = append(opened, file)

		upload := ports.UploadFile{
			Filename: header.Filename,
			Size:     header.Size,
			Body:     file,
		}
		if i < len(originalPaths) && originalPaths[i] != "" {
			upload.OriginalPath = originalPaths[i]
		}
		batch = append(batch, upload)
	}

	result, err := rt.ingestor.Ingest(r.Context(), batch)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "results": result})
}

func (rt *Router) scanUploads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	result, err := rt.scanner.FullScan(r.Context())
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "results": result})
}

func (rt *Router) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	stats, err := rt.queries.Stats(r.Context())
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) categoryFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	category := strings.TrimPrefix(r.URL.Path, "/api/files/")
	if category == "" {
		writeError(w, http.StatusBadRequest, errors.New("category name is required"))
		return
	}

	stats, err := rt.queries.CategoryFiles(r.Context(), category)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) allFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	query := r.URL.Query()
	category, sortBy, order := query.Get("category"), query.Get("sort"), query.Get("order")
	files, err := rt.queries.AllFiles(r.Context(), category, sortBy, order)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]any{"success": false, "error": err.Error()})
		return
	}
	if sortBy == "" {
		sortBy = string(domain.SortByTime)
	}
	if order == "" {
		order = string(domain.OrderDesc)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"total":   len(files),
		"files":   files,
		"sort":    sortBy,
		"order":   order,
		"filter":  category,
	})
}

type addCategoryRequest struct {
	CategoryName string `json:"categoryName"`
	Username     string `json:"username"`
}

func (rt *Router) addCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req addCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid json body"})
		return
	}
	if strings.TrimSpace(req.CategoryName) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "categoryName is required"})
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "username is required"})
		return
	}

	category, rescanID, err := rt.categories.Create(r.Context(), req.CategoryName, req.Username)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  fmt.Sprintf("category %q created, rescan started", category.Name),
		"rescanId": rescanID,
	})
}

func (rt *Router) scanStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/scan-status/")
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("rescan job id is required"))
		return
	}

	status, err := rt.scanner.RescanJob(id)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (rt *Router) listCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "categories": rt.registry.Keywords()})
}

func (rt *Router) serveFile(w http.ResponseWriter, r *http.Request) {
	rt.serveStored(w, r, "/files/", false)
}

func (rt *Router) downloadFile(w http.ResponseWriter, r *http.Request) {
	rt.serveStored(w, r, "/download/", true)
}

func (rt *Router) serveStored(w http.ResponseWriter, r *http.Request, prefix string, attachment bool) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, prefix)
	key, err := url.PathUnescape(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad file path: %w", err))
		return
	}

	full, err := rt.storage.Resolve(key)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err)
		return
	}
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, domain.WrapError(domain.ErrFileNotFound, "serve file", fmt.Errorf("no file at %q", key)))
		return
	}

	name := key
	if i := strings.LastIndex(key, "/"); i >= 0 {
		name = key[i+1:]
	}
	if attachment {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	} else {
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	}
	http.ServeFile(w, r, full)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}
