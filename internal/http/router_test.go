package http_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursegen-backend/internal/data/repos"
	"github.com/yungbote/coursegen-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursegen-backend/internal/domain"
	cghttp "github.com/yungbote/coursegen-backend/internal/http"
	httpH "github.com/yungbote/coursegen-backend/internal/http/handlers"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen/normmatch"
	"github.com/yungbote/coursegen-backend/internal/normcorpus"
)

const courseText = "Procédure de sécurité électrique. Chapitre 1: Introduction."

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := testutil.Logger(t)
	reg, err := normcorpus.NewRegistry(domain.NormCorpus{
		NormID: "nfc18-510",
		Title:  "NF C 18-510",
		Rules: []domain.NormRule{
			{ID: "r1", Titre: "Prévention", Article: "Art. 4", Content: "Toute opération est précédée d'une analyse de risque.", Keywords: []string{"sécurité"}},
		},
		Sommaire: []domain.SommaireNode{{Index: "1", Label: "Généralités", Level: 1}},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	matcher := normmatch.New(reg)
	svc, err := coursegen.NewService(coursegen.ServiceDeps{
		Log:       log,
		Generator: coursegen.NewGenerator(matcher),
		Runs:      repos.NewGenerationRunRepo(testutil.DB(t), log),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return cghttp.NewRouter(cghttp.RouterConfig{
		Log:               log,
		GenerationHandler: httpH.NewGenerationHandler(log, svc),
		NormHandler:       httpH.NewNormHandler(reg, matcher),
		HealthHandler:     httpH.NewHealthHandler(reg),
	})
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func generateJSON(t *testing.T, r http.Handler) domain.GenerationResult {
	t.Helper()
	body := `{"documents":[{"name":"procedure.txt","content":"` + courseText + `"}],"settings":{"qcmQuestionCount":5},"activeNormId":"nfc18-510"}`
	req := httptest.NewRequest(http.MethodPost, "/api/courses/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", "req-history-1")
	rec := do(r, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate status %d: %s", rec.Code, rec.Body.String())
	}
	var res domain.GenerationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return res
}

func TestGenerateJSONAndHistory(t *testing.T) {
	r := newRouter(t)
	res := generateJSON(t, r)
	if res.NormRulesUsed != 1 {
		t.Fatalf("expected one rule used, got %d", res.NormRulesUsed)
	}
	if n := len(res.Course.Content.QCM); n == 0 || n > 5 {
		t.Fatalf("unexpected quiz size %d", n)
	}
	// omitted settings keep their defaults
	if res.Course.Content.Introduction == "" {
		t.Fatalf("introduction should default to on")
	}

	rec := do(r, httptest.NewRequest(http.MethodGet, "/api/generations", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status %d", rec.Code)
	}
	var list struct {
		Generations []struct {
			ID        string `json:"id"`
			CourseID  string `json:"courseId"`
			RequestID string `json:"requestId"`
		} `json:"generations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list.Generations) != 1 {
		t.Fatalf("unexpected list %s (%v)", rec.Body.String(), err)
	}
	if list.Generations[0].CourseID != res.Course.ID {
		t.Fatalf("history course id mismatch")
	}
	if list.Generations[0].RequestID != "req-history-1" {
		t.Fatalf("history row lost the request id: %q", list.Generations[0].RequestID)
	}

	rec = do(r, httptest.NewRequest(http.MethodGet, "/api/generations/"+list.Generations[0].ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status %d: %s", rec.Code, rec.Body.String())
	}
	var stored domain.GenerationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &stored); err != nil || stored.Course.ID != res.Course.ID {
		t.Fatalf("stored result mismatch: %v", err)
	}

	if rec := do(r, httptest.NewRequest(http.MethodGet, "/api/generations/not-a-uuid", nil)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	r := newRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/courses/generate", strings.NewReader(`{"settings":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	if rec := do(r, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func multipartRequest(t *testing.T, name string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("files", name)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.WriteField("seed", "42"); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/courses/generate", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestGenerateMultipart(t *testing.T) {
	r := newRouter(t)
	rec := do(r, multipartRequest(t, "notes.txt", []byte(courseText)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var res domain.GenerationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.ProcessingStats.Seed != 42 || len(res.Course.Documents) != 1 {
		t.Fatalf("unexpected result stats %+v", res.ProcessingStats)
	}

	rec = do(r, multipartRequest(t, "image.png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")))
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "unsupported_file_type") {
		t.Fatalf("expected error code in envelope: %s", rec.Body.String())
	}
}

func TestGenerateStreamsProgress(t *testing.T) {
	r := newRouter(t)
	body := `{"documents":[{"name":"procedure.txt","content":"` + courseText + `"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/courses/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	rec := do(r, req)
	out := rec.Body.String()
	for _, want := range []string{"event:progress", `"progress":10`, `"progress":100`, "event:result"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in stream:\n%s", want, out)
		}
	}
	if strings.Index(out, "event:result") < strings.LastIndex(out, "event:progress") {
		t.Fatalf("result must follow progress events")
	}
}

func TestNormEndpoints(t *testing.T) {
	r := newRouter(t)

	rec := do(r, httptest.NewRequest(http.MethodGet, "/api/norms", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ruleCount":1`) {
		t.Fatalf("unexpected norms list %d %s", rec.Code, rec.Body.String())
	}

	rec = do(r, httptest.NewRequest(http.MethodGet, "/api/norms/nfc18-510/sommaire", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Généralités") {
		t.Fatalf("unexpected sommaire %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(r, httptest.NewRequest(http.MethodGet, "/api/norms/unknown/sommaire", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = do(r, httptest.NewRequest(http.MethodGet, "/api/norms/search?q=analyse+de+risque", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("search status %d", rec.Code)
	}
	var sr struct {
		Results []struct {
			MatchType string `json:"matchType"`
		} `json:"results"`
		CorpusFound bool `json:"corpusFound"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sr); err != nil || len(sr.Results) != 1 || !sr.CorpusFound {
		t.Fatalf("unexpected search response %s", rec.Body.String())
	}
	if rec := do(r, httptest.NewRequest(http.MethodGet, "/api/norms/search", nil)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing query, got %d", rec.Code)
	}

	rec = do(r, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"norms":1`) {
		t.Fatalf("unexpected health %d %s", rec.Code, rec.Body.String())
	}
}
