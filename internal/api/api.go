// Package api exposes the export pipeline over HTTP.
//
// The server is a thin adapter: it parses multipart uploads into export
// options, hands them to an export.Runner, and serves the resulting
// artifacts. Export jobs run asynchronously; clients poll the job resource
// until it reaches a terminal status and then fetch artifacts by format.
package api

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/elfabitto/gis-saas-project/pkg/errors"
	"github.com/elfabitto/gis-saas-project/pkg/export"
	"github.com/elfabitto/gis-saas-project/pkg/ingest"
	"github.com/elfabitto/gis-saas-project/pkg/render"
	"github.com/elfabitto/gis-saas-project/pkg/scene"
)

// maxUploadBytes caps the total size of a multipart upload.
const maxUploadBytes = 64 << 20

// Server handles HTTP requests against an export runner.
type Server struct {
	runner *export.Runner
	logger *log.Logger

	mu   sync.RWMutex
	jobs map[string]*job
}

// job tracks one export request through its lifecycle. Results are nil
// until the pipeline finishes.
type job struct {
	ID        string           `json:"id"`
	Project   string           `json:"project"`
	Status    export.Status    `json:"status"`
	Error     string           `json:"error,omitempty"`
	ErrorCode errors.Code      `json:"error_code,omitempty"`
	Results   []*export.Result `json:"results,omitempty"`
	CreatedAt time.Time        `json:"created_at"`

	payloads  map[render.Format]*export.Result
	thumbnail []byte
}

// New creates a server around the given runner. A nil logger discards.
func New(runner *export.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Server{
		runner: runner,
		logger: logger,
		jobs:   make(map[string]*job),
	}
}

// Handler returns the HTTP routing tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/themes", s.handleThemes)
		r.Post("/inspect", s.handleInspect)
		r.Post("/projects/{project}/exports", s.handleCreateExport)
		r.Get("/exports/{job}", s.handleGetExport)
		r.Get("/exports/{job}/artifacts/{format}", s.handleGetArtifact)
		r.Get("/exports/{job}/thumbnail", s.handleGetThumbnail)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	resolved := make([]scene.ResolvedTheme, 0, len(scene.Themes()))
	for _, name := range scene.Themes() {
		t, err := scene.ResolveTheme(scene.StyleConfig{Theme: name})
		if err != nil {
			writeError(w, err)
			return
		}
		resolved = append(resolved, t)
	}
	writeJSON(w, http.StatusOK, resolved)
}

// handleInspect parses a single uploaded file and reports its metadata.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, errors.New(errors.ErrCodeConfiguration, "parse upload: %v", err))
		return
	}
	files, err := formFiles(r.MultipartForm, "file")
	if err != nil {
		writeError(w, err)
		return
	}
	if len(files) != 1 {
		writeError(w, errors.New(errors.ErrCodeConfiguration, "exactly one file is required"))
		return
	}

	summary, err := ingest.Inspect(files[0])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleCreateExport accepts a multipart upload and starts an export job.
// The response is 202 Accepted with the job resource; clients poll the job
// until it reaches a terminal status.
func (s *Server) handleCreateExport(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")

	opts, err := parseExportForm(r, project)
	if err != nil {
		writeError(w, err)
		return
	}
	opts.Logger = s.logger

	j := &job{
		ID:        uuid.NewString(),
		Project:   project,
		Status:    export.StatusPending,
		CreatedAt: time.Now().UTC(),
		payloads:  make(map[render.Format]*export.Result),
	}
	s.mu.Lock()
	s.jobs[j.ID] = j
	s.mu.Unlock()

	view := j.view()
	go s.run(j, opts)

	writeJSON(w, http.StatusAccepted, view)
}

// run executes the pipeline for one job. It is detached from the request
// context so a dropped connection never abandons a paid-for export.
func (s *Server) run(j *job, opts export.Options) {
	s.mu.Lock()
	j.Status = export.StatusProcessing
	s.mu.Unlock()

	exec, err := s.runner.Execute(context.Background(), opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		j.Status = export.StatusFailed
		j.Error = errors.UserMessage(err)
		j.ErrorCode = errors.GetCode(err)
		if exec != nil {
			j.Results = exec.Results
		}
		return
	}

	j.Status = export.StatusCompleted
	j.Results = exec.Results
	for _, res := range exec.Results {
		j.payloads[res.Format] = res
		if len(res.Thumbnail) > 0 && j.thumbnail == nil {
			j.thumbnail = res.Thumbnail
		}
	}
}

func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	j, ok := s.lookup(chi.URLParam(r, "job"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.mu.RLock()
	view := j.view()
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	j, ok := s.lookup(chi.URLParam(r, "job"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	format := render.Format(chi.URLParam(r, "format"))

	s.mu.RLock()
	res, ok := j.payloads[format]
	s.mu.RUnlock()
	if !ok || res.Status != export.StatusCompleted {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", render.ContentType(format))
	w.Header().Set("Content-Disposition",
		`attachment; filename="`+j.Project+render.Extension(format)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Payload)
}

func (s *Server) handleGetThumbnail(w http.ResponseWriter, r *http.Request) {
	j, ok := s.lookup(chi.URLParam(r, "job"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.mu.RLock()
	thumb := j.thumbnail
	s.mu.RUnlock()
	if thumb == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(thumb)
}

func (s *Server) lookup(id string) (*job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	return j, ok
}

// view copies the JSON-visible fields so the caller can marshal outside
// the lock.
func (j *job) view() job {
	return job{
		ID:        j.ID,
		Project:   j.Project,
		Status:    j.Status,
		Error:     j.Error,
		ErrorCode: j.ErrorCode,
		Results:   j.Results,
		CreatedAt: j.CreatedAt,
	}
}

// =============================================================================
// Form Parsing
// =============================================================================

// parseExportForm builds export options from a multipart request.
func parseExportForm(r *http.Request, project string) (export.Options, error) {
	var opts export.Options
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return opts, errors.New(errors.ErrCodeConfiguration, "parse upload: %v", err)
	}

	files, err := formFiles(r.MultipartForm, "files")
	if err != nil {
		return opts, err
	}

	style := scene.StyleConfig{
		Theme:          scene.Theme(r.FormValue("theme")),
		Title:          r.FormValue("title"),
		Subtitle:       r.FormValue("subtitle"),
		PrimaryColor:   r.FormValue("primary_color"),
		SecondaryColor: r.FormValue("secondary_color"),
		ShowScaleBar:   formBool(r, "show_scale_bar", true),
		ShowNorthArrow: formBool(r, "show_north_arrow", true),
		ShowLegend:     formBool(r, "show_legend", true),
		Annotation:     r.FormValue("annotation"),
	}
	if logos := r.MultipartForm.File["logo"]; len(logos) > 0 {
		data, err := readUpload(logos[0])
		if err != nil {
			return opts, err
		}
		style.Logo = data
	}

	dpi := 0
	if v := r.FormValue("dpi"); v != "" {
		dpi, err = strconv.Atoi(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeConfiguration, "invalid dpi %q", v)
		}
	}

	var formats []render.Format
	if v := r.FormValue("formats"); v != "" {
		for _, part := range strings.Split(v, ",") {
			formats = append(formats, render.Format(strings.TrimSpace(part)))
		}
	}

	opts = export.Options{
		Project:     project,
		Files:       files,
		Style:       style,
		Formats:     formats,
		DPI:         dpi,
		Author:      r.FormValue("author"),
		Refresh:     formBool(r, "refresh", false),
		NoThumbnail: !formBool(r, "thumbnail", true),
	}
	return opts, nil
}

// formFiles reads the uploads under the given field into ingest files,
// detecting each format from its filename.
func formFiles(form *multipart.Form, field string) ([]ingest.File, error) {
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, errors.New(errors.ErrCodeConfiguration,
			"at least one file is required under field %q", field)
	}
	files := make([]ingest.File, 0, len(headers))
	for _, hdr := range headers {
		format, ok := ingest.FormatForName(hdr.Filename)
		if !ok {
			return nil, errors.New(errors.ErrCodeUnsupportedFormat,
				"cannot infer format for %q", hdr.Filename)
		}
		data, err := readUpload(hdr)
		if err != nil {
			return nil, err
		}
		files = append(files, ingest.File{
			Name:   hdr.Filename,
			Format: format,
			Data:   data,
		})
	}
	return files, nil
}

func readUpload(hdr *multipart.FileHeader) ([]byte, error) {
	f, err := hdr.Open()
	if err != nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "open upload %q: %v", hdr.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "read upload %q: %v", hdr.Filename, err)
	}
	return data, nil
}

// formBool parses a boolean form value, falling back to def when absent
// or malformed.
func formBool(r *http.Request, key string, def bool) bool {
	v := r.FormValue(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// =============================================================================
// Responses
// =============================================================================

// statusForCode maps pipeline error codes to HTTP status codes.
func statusForCode(code errors.Code) int {
	switch code {
	case errors.ErrCodeUnsupportedFormat, errors.ErrCodeConfiguration:
		return http.StatusBadRequest
	case errors.ErrCodeEmptyGeometry, errors.ErrCodeEmptyScene, errors.ErrCodeReprojection:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	writeJSON(w, statusForCode(code), errorResponse{
		Error: errors.UserMessage(err),
		Code:  code,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
