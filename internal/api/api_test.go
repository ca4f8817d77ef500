package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elfabitto/gis-saas-project/pkg/export"
)

const siteGeoJSON = `{
	"type": "FeatureCollection",
	"features": [{
		"type": "Feature",
		"properties": {"name": "site"},
		"geometry": {
			"type": "Polygon",
			"coordinates": [[[-51.0,-20.0],[-50.9,-20.0],[-50.9,-19.9],[-51.0,-19.9],[-51.0,-20.0]]]
		}
	}]
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	runner := export.NewRunner(nil, nil, nil)
	srv := httptest.NewServer(New(runner, nil).Handler())
	t.Cleanup(srv.Close)
	t.Cleanup(func() { runner.Close() })
	return srv
}

// uploadRequest builds a multipart body with one file field per name.
func uploadRequest(t *testing.T, field string, names []string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, name := range names {
		part, err := w.CreateFormFile(field, name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte(siteGeoJSON)); err != nil {
			t.Fatal(err)
		}
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestThemes(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/themes")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var themes []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&themes); err != nil {
		t.Fatal(err)
	}
	if len(themes) != 3 {
		t.Errorf("got %d themes, want 3", len(themes))
	}
}

func TestInspect(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := uploadRequest(t, "file", []string{"site.geojson"}, nil)
	resp, err := http.Post(srv.URL+"/api/v1/inspect", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var summary struct {
		FeatureCount int    `json:"feature_count"`
		CRS          string `json:"coordinate_system"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatal(err)
	}
	if summary.FeatureCount != 1 {
		t.Errorf("feature count = %d, want 1", summary.FeatureCount)
	}
	if summary.CRS == "" {
		t.Error("coordinate system should be reported")
	}
}

func TestInspectRejectsUnknownExtension(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := uploadRequest(t, "file", []string{"site.docx"}, nil)
	resp, err := http.Post(srv.URL+"/api/v1/inspect", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	var errResp struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatal(err)
	}
	if errResp.Code != "UNSUPPORTED_FORMAT" {
		t.Errorf("code = %q, want UNSUPPORTED_FORMAT", errResp.Code)
	}
}

func TestExportMissingFiles(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := uploadRequest(t, "wrong-field", []string{"site.geojson"}, nil)
	resp, err := http.Post(srv.URL+"/api/v1/projects/p1/exports", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestExportLifecycle(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := uploadRequest(t, "files", []string{"site.geojson"}, map[string]string{
		"formats": "interactive",
		"title":   "Site Plan",
	})
	resp, err := http.Post(srv.URL+"/api/v1/projects/p1/exports", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Fatal("job id should be set")
	}

	status := pollJob(t, srv.URL, created.ID)
	if status != string(export.StatusCompleted) {
		t.Fatalf("job status = %q, want completed", status)
	}

	artifact, err := http.Get(srv.URL + "/api/v1/exports/" + created.ID + "/artifacts/interactive")
	if err != nil {
		t.Fatal(err)
	}
	defer artifact.Body.Close()

	if artifact.StatusCode != http.StatusOK {
		t.Fatalf("artifact status = %d, want 200", artifact.StatusCode)
	}
	if ct := artifact.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}

	var page bytes.Buffer
	if _, err := page.ReadFrom(artifact.Body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(page.String(), "Site Plan") {
		t.Error("artifact should contain the title")
	}
}

func TestExportJobNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/exports/nope")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestExportFailureSurfacesCode(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("files", "junk.geojson")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("not json")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Post(srv.URL+"/api/v1/projects/p1/exports", w.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}

	status := pollJob(t, srv.URL, created.ID)
	if status != string(export.StatusFailed) {
		t.Fatalf("job status = %q, want failed", status)
	}
}

// pollJob polls the job resource until it reaches a terminal status.
func pollJob(t *testing.T, baseURL, id string) string {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(baseURL + "/api/v1/exports/" + id)
		if err != nil {
			t.Fatal(err)
		}
		var j struct {
			Status string `json:"status"`
		}
		err = json.NewDecoder(resp.Body).Decode(&j)
		resp.Body.Close()
		if err != nil {
			t.Fatal(err)
		}
		if export.Status(j.Status).Terminal() {
			return j.Status
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal status")
	return ""
}
