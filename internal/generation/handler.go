package generation

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/passgen/composer"
	"github.com/sundayezeilo/passgen/internal/errx"
	"github.com/sundayezeilo/passgen/internal/httpx"
)

// HTTPGenerateRequest is the JSON body of POST /api/passwords.
type HTTPGenerateRequest struct {
	Length  *int     `json:"length"`
	Classes []string `json:"classes"`
}

// GenerateResponse is the JSON response for a generated password.
type GenerateResponse struct {
	ID        string         `json:"id"`
	Password  string         `json:"password"`
	Length    int            `json:"length"`
	Classes   []string       `json:"classes"`
	Counts    map[string]int `json:"counts"`
	CreatedAt string         `json:"created_at"`
}

// RecordResponse is the JSON form of an audit record.
type RecordResponse struct {
	ID        string         `json:"id"`
	Length    int            `json:"length"`
	Classes   []string       `json:"classes"`
	Counts    map[string]int `json:"counts"`
	CreatedAt string         `json:"created_at"`
}

// Handler provides HTTP handlers for password generation.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service Service
	Logger  *slog.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: cfg.Service,
		logger:  logger,
	}
}

// GeneratePassword handles POST /api/passwords.
func (h *Handler) GeneratePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With(
		"request_id", httpx.GetRequestID(ctx),
		"method", r.Method,
		"path", r.URL.Path,
	)

	req, err := httpx.DecodeJSON[HTTPGenerateRequest](w, r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	classes, err := parseClasses(req.Classes)
	if err != nil {
		logger.WarnContext(ctx, "request validation failed", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
		return
	}

	gen, err := h.service.Generate(ctx, GenerateRequest{Length: req.Length, Classes: classes})
	if err != nil {
		if errx.Is(err, errx.Invalid) {
			logger.WarnContext(ctx, "invalid generation request", "error", err.Error())
		}
		httpx.WriteErr(ctx, w, logger, err)
		return
	}

	resp := GenerateResponse{
		Password:  gen.Password,
		Length:    gen.Length,
		Classes:   classNames(gen.Classes),
		Counts:    countsByName(gen.Counts),
		CreatedAt: gen.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if gen.ID != uuid.Nil {
		resp.ID = gen.ID.String()
	}

	logger.InfoContext(ctx, "password generated",
		"generation_id", resp.ID,
		"length", gen.Length,
		"classes", resp.Classes,
	)

	httpx.WriteJSON(w, http.StatusCreated, resp)
}

// ListClasses handles GET /api/classes.
func (h *Handler) ListClasses(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, Catalog())
}

// GetGeneration handles GET /api/generations/{id}.
func (h *Handler) GetGeneration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", "id must be a UUID", nil)
		return
	}

	rec, err := h.service.Get(ctx, id)
	if err != nil {
		httpx.WriteErr(ctx, w, h.logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

// ListGenerations handles GET /api/generations?limit=N.
func (h *Handler) ListGenerations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_input", "limit must be a positive integer", nil)
			return
		}
		limit = n
	}

	recs, err := h.service.List(ctx, limit)
	if err != nil {
		httpx.WriteErr(ctx, w, h.logger, err)
		return
	}

	out := make([]RecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toRecordResponse(rec))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func parseClasses(names []string) ([]composer.Class, error) {
	if len(names) == 0 {
		return nil, errors.New("at least one character class must be selected")
	}
	out := make([]composer.Class, 0, len(names))
	for _, name := range names {
		c, err := composer.ParseClass(name)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func classNames(classes []composer.Class) []string {
	out := make([]string, 0, len(classes))
	for _, c := range classes {
		out = append(out, c.String())
	}
	return out
}

func countsByName(counts map[composer.Class]int) map[string]int {
	out := make(map[string]int, len(counts))
	for c, n := range counts {
		out[c.String()] = n
	}
	return out
}

func toRecordResponse(rec Record) RecordResponse {
	return RecordResponse{
		ID:        rec.ID.String(),
		Length:    rec.Length,
		Classes:   classNames(rec.Classes),
		Counts:    countsByName(rec.Counts),
		CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
