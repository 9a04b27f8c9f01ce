package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursegen-backend/internal/domain"
	"github.com/yungbote/coursegen-backend/internal/http/response"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen/ids"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen/ingestion"
	"github.com/yungbote/coursegen-backend/internal/platform/apierr"
	"github.com/yungbote/coursegen-backend/internal/platform/logger"
)

const (
	maxMultipartMemory = 32 << 20
	maxUploadFiles     = 20
)

type GenerationHandler struct {
	log *logger.Logger
	svc *coursegen.Service
}

func NewGenerationHandler(log *logger.Logger, svc *coursegen.Service) *GenerationHandler {
	return &GenerationHandler{log: log.With("handler", "GenerationHandler"), svc: svc}
}

type inlineDocument struct {
	ID      string              `json:"id"`
	Name    string              `json:"name"`
	Type    domain.DocumentType `json:"type"`
	Content string              `json:"content"`
}

type generateRequest struct {
	Documents    []inlineDocument `json:"documents"`
	Settings     json.RawMessage  `json:"settings"`
	ActiveNormID string           `json:"activeNormId"`
	Seed         *int64           `json:"seed"`
	Enrich       bool             `json:"enrich"`
}

// Generate accepts either a JSON body with inline documents or a multipart
// form with "files" plus optional "settings", "activeNormId", "seed" and
// "enrich" fields. With Accept: text/event-stream it streams progress events
// before the final result.
func (h *GenerationHandler) Generate(c *gin.Context) {
	in, err := h.parseInput(c)
	if err != nil {
		response.RespondAPIError(c, err, "invalid_request")
		return
	}

	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		h.stream(c, in)
		return
	}

	res, err := h.svc.Generate(c.Request.Context(), in)
	if err != nil {
		h.respondGenerateError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (h *GenerationHandler) stream(c *gin.Context, in coursegen.GenerateInput) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	// progress is reported synchronously on this goroutine
	in.Progress = func(stage string, pct int, message string) {
		c.SSEvent("progress", gin.H{"stage": stage, "progress": pct, "message": message})
		c.Writer.Flush()
	}
	res, err := h.svc.Generate(c.Request.Context(), in)
	if err != nil {
		ae := apierr.From(err, "generation_failed")
		c.SSEvent("error", response.APIError{Message: ae.Error(), Code: ae.Code})
		c.Writer.Flush()
		return
	}
	c.SSEvent("result", res)
	c.Writer.Flush()
}

func (h *GenerationHandler) respondGenerateError(c *gin.Context, err error) {
	if ctxErr := c.Request.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		response.RespondError(c, 499, "client_closed_request", err)
		return
	}
	h.log.Warn("generation failed", "error", err)
	response.RespondAPIError(c, err, "generation_failed")
}

func (h *GenerationHandler) parseInput(c *gin.Context) (coursegen.GenerateInput, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return h.parseMultipart(c)
	}
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return coursegen.GenerateInput{}, apierr.New(http.StatusBadRequest, "invalid_json", err)
	}
	settings, err := parseSettings(req.Settings)
	if err != nil {
		return coursegen.GenerateInput{}, err
	}
	now := time.Now().UTC()
	docs := make([]domain.Document, 0, len(req.Documents))
	for _, d := range req.Documents {
		docs = append(docs, inlineToDocument(d, now))
	}
	return coursegen.GenerateInput{
		Documents:    docs,
		Settings:     settings,
		ActiveNormID: strings.TrimSpace(req.ActiveNormID),
		Seed:         req.Seed,
		Enrich:       req.Enrich,
	}, nil
}

func (h *GenerationHandler) parseMultipart(c *gin.Context) (coursegen.GenerateInput, error) {
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		return coursegen.GenerateInput{}, apierr.New(http.StatusBadRequest, "invalid_multipart_form", err)
	}
	form := c.Request.MultipartForm
	headers := form.File["files"]
	if len(headers) > maxUploadFiles {
		return coursegen.GenerateInput{}, apierr.New(http.StatusBadRequest, "too_many_files", fmt.Errorf("at most %d files per request", maxUploadFiles))
	}
	files := make([]coursegen.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > ingestion.MaxFileBytes {
			return coursegen.GenerateInput{}, apierr.New(http.StatusRequestEntityTooLarge, "file_too_large", fmt.Errorf("%s exceeds %d bytes", fh.Filename, ingestion.MaxFileBytes))
		}
		f, err := fh.Open()
		if err != nil {
			return coursegen.GenerateInput{}, apierr.New(http.StatusBadRequest, "unreadable_file", err)
		}
		data, err := io.ReadAll(io.LimitReader(f, ingestion.MaxFileBytes+1))
		_ = f.Close()
		if err != nil {
			return coursegen.GenerateInput{}, apierr.New(http.StatusBadRequest, "unreadable_file", err)
		}
		files = append(files, coursegen.UploadedFile{Name: fh.Filename, Data: data})
	}

	settings, err := parseSettings(json.RawMessage(c.PostForm("settings")))
	if err != nil {
		return coursegen.GenerateInput{}, err
	}
	in := coursegen.GenerateInput{
		Files:        files,
		Settings:     settings,
		ActiveNormID: strings.TrimSpace(c.PostForm("activeNormId")),
	}
	if raw := strings.TrimSpace(c.PostForm("seed")); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return coursegen.GenerateInput{}, apierr.New(http.StatusBadRequest, "invalid_seed", err)
		}
		in.Seed = &seed
	}
	if raw := strings.TrimSpace(c.PostForm("enrich")); raw != "" {
		in.Enrich, _ = strconv.ParseBool(raw)
	}
	return in, nil
}

// parseSettings overlays the provided JSON on the defaults so omitted fields
// keep their default value.
func parseSettings(raw json.RawMessage) (domain.GenerationSettings, error) {
	s := domain.DefaultGenerationSettings()
	if len(strings.TrimSpace(string(raw))) == 0 || string(raw) == "null" {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, apierr.New(http.StatusBadRequest, "invalid_settings", err)
	}
	return s, nil
}

func inlineToDocument(d inlineDocument, now time.Time) domain.Document {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		name = "document.txt"
	}
	id := strings.TrimSpace(d.ID)
	if id == "" {
		id = ids.Document(name, d.Content)
	}
	typ := d.Type
	if typ == "" {
		typ = domain.DocumentTypeTXT
	}
	return domain.Document{
		ID:         id,
		Name:       name,
		Type:       typ,
		Size:       int64(len(d.Content)),
		UploadedAt: now,
		Content:    d.Content,
		Processed:  true,
	}
}

type runSummary struct {
	ID               uuid.UUID `json:"id"`
	CourseID         string    `json:"courseId"`
	Title            string    `json:"title"`
	ActiveNormID     string    `json:"activeNormId,omitempty"`
	RequestID        string    `json:"requestId,omitempty"`
	NormRulesUsed    int       `json:"normRulesUsed"`
	GeneratedWithAI  bool      `json:"generatedWithAI"`
	ProcessingTimeMs int64     `json:"processingTimeMs"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (h *GenerationHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := h.svc.ListRuns(c.Request.Context(), limit)
	if err != nil {
		response.RespondAPIError(c, err, "list_generations_failed")
		return
	}
	out := make([]runSummary, 0, len(runs))
	for _, r := range runs {
		out = append(out, runSummary{
			ID:               r.ID,
			CourseID:         r.CourseID,
			Title:            r.Title,
			ActiveNormID:     r.ActiveNormID,
			RequestID:        r.RequestID,
			NormRulesUsed:    r.NormRulesUsed,
			GeneratedWithAI:  r.GeneratedWithAI,
			ProcessingTimeMs: r.ProcessingTimeMs,
			CreatedAt:        r.CreatedAt,
		})
	}
	response.RespondOK(c, gin.H{"generations": out})
}

// GetRun returns the stored GenerationResult of one run.
func (h *GenerationHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	run, err := h.svc.GetRun(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err, "get_generation_failed")
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", run.Result)
}
