// match/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cs2stats/stats-services/match/ingest"
	"github.com/cs2stats/stats-services/match/service"
	"github.com/cs2stats/stats-services/shared/api"
	"github.com/cs2stats/stats-services/shared/models"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Error texts of the upload endpoint.
const (
	ErrTextNoFile          = "no file uploaded"
	ErrTextNoFileSelected  = "no file selected"
	ErrTextUnsupportedType = "unsupported file type"
	ErrTextParseFailed     = "failed to parse file"
	ErrTextFileTooLarge    = "file too large"
	ErrTextSaveFailed      = "failed to save match"
)

// MatchService is the business logic behind the handlers; *service.MatchService implements it.
type MatchService interface {
	ListMatches(ctx context.Context) ([]models.Match, error)
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	CreateMatch(ctx context.Context, match *models.Match) (*models.Match, error)
	ImportMatch(ctx context.Context, match *models.Match) (string, error)
	DeleteMatch(ctx context.Context, id string) error
}

// SpreadsheetParser turns an uploaded workbook into a match.
type SpreadsheetParser interface {
	Parse(r io.Reader, now time.Time) (*models.Match, error)
}

// MatchAPIHandlers holds the dependencies of the match endpoints.
type MatchAPIHandlers struct {
	matches        MatchService
	parser         SpreadsheetParser
	requestTimeout time.Duration
	maxUploadBytes int64
	now            func() time.Time
}

func NewMatchAPIHandlers(ms MatchService, parser SpreadsheetParser, requestTimeout time.Duration, maxUploadBytes int64) *MatchAPIHandlers {
	return &MatchAPIHandlers{
		matches:        ms,
		parser:         parser,
		requestTimeout: requestTimeout,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

// UploadResponse is returned after a successful spreadsheet import.
type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	MatchID string `json:"match_id"`
}

// RegisterRoutes mounts the match endpoints. OPTIONS and unmatched routes are answered by
// the middleware and the router's NotFound handlers.
func (h *MatchAPIHandlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/matches", h.ListMatchesHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/matches/{id}", h.GetMatchHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/matches", h.CreateMatchHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/matches/{id}", h.DeleteMatchHandler).Methods(http.MethodDelete)
	r.HandleFunc("/api/upload", h.UploadHandler).Methods(http.MethodPost)
}

// ListMatchesHandler returns every match.
// GET /api/matches
func (h *MatchAPIHandlers) ListMatchesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	matches, err := h.matches.ListMatches(ctx)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to list matches")
		api.WriteInternalServerError(w, err)
		return
	}
	_ = api.WriteJSON(w, http.StatusOK, matches)
}

// GetMatchHandler returns one match, or an empty object when the id is unknown.
// GET /api/matches/{id}
func (h *MatchAPIHandlers) GetMatchHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	match, err := h.matches.GetMatch(ctx, id)
	if errors.Is(err, service.ErrMatchNotFound) {
		zerolog.Ctx(r.Context()).Debug().Str("match_id", id).Msg("match not found")
		_ = api.WriteJSON(w, http.StatusOK, struct{}{})
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("match_id", id).Msg("failed to get match")
		api.WriteInternalServerError(w, err)
		return
	}
	_ = api.WriteJSON(w, http.StatusOK, match)
}

// CreateMatchHandler stores the body as a new match and returns it as persisted.
// POST /api/matches
func (h *MatchAPIHandlers) CreateMatchHandler(w http.ResponseWriter, r *http.Request) {
	req := h.decodeCreateRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	created, err := h.matches.CreateMatch(ctx, req.toMatch())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to create match")
		api.WriteInternalServerError(w, err)
		return
	}
	_ = api.WriteJSON(w, http.StatusCreated, created)
}

// decodeCreateRequest never fails: an unreadable or malformed body counts as an empty object,
// and a field of the wrong type is left at its zero value.
func (h *MatchAPIHandlers) decodeCreateRequest(r *http.Request) createMatchRequest {
	var req createMatchRequest
	if r.Body == nil {
		return req
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxUploadBytes))
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("failed to read request body, using empty object")
		return req
	}
	if len(body) == 0 {
		return req
	}
	err = json.Unmarshal(body, &req)
	var typeErr *json.UnmarshalTypeError
	switch {
	case err == nil:
	case errors.As(err, &typeErr):
		// The mismatched field keeps its zero value; the rest of the document is used.
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("field", typeErr.Field).Msg("ignoring mistyped field in JSON body")
	default:
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("malformed JSON body, using empty object")
		return createMatchRequest{}
	}
	return req
}

// DeleteMatchHandler removes a match whether or not it exists.
// DELETE /api/matches/{id}
func (h *MatchAPIHandlers) DeleteMatchHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	if err := h.matches.DeleteMatch(ctx, id); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("match_id", id).Msg("failed to delete match")
		api.WriteInternalServerError(w, err)
		return
	}
	api.WriteNoContent(w)
}

// UploadHandler imports one match from a spreadsheet in the multipart field "file".
// POST /api/upload
func (h *MatchAPIHandlers) UploadHandler(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			api.WriteError(w, http.StatusRequestEntityTooLarge, ErrTextFileTooLarge, "")
		case errors.Is(err, http.ErrMissingFile) && r.MultipartForm != nil && len(r.MultipartForm.Value["file"]) > 0:
			// A part without a filename is parsed as a plain form value.
			api.WriteBadRequest(w, ErrTextNoFileSelected)
		default:
			logger.Debug().Err(err).Msg("no upload in request")
			api.WriteBadRequest(w, ErrTextNoFile)
		}
		return
	}
	defer file.Close()

	if header.Filename == "" {
		api.WriteBadRequest(w, ErrTextNoFileSelected)
		return
	}
	if !ingest.AllowedFile(header.Filename) {
		api.WriteBadRequest(w, ErrTextUnsupportedType)
		return
	}

	match, err := h.parser.Parse(file, h.now())
	if err != nil {
		logger.Warn().Err(err).Str("filename", header.Filename).Msg("failed to parse upload")
		api.WriteBadRequest(w, ErrTextParseFailed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	id, err := h.matches.ImportMatch(ctx, match)
	if err != nil {
		logger.Error().Err(err).Str("filename", header.Filename).Msg("failed to save uploaded match")
		api.WriteError(w, http.StatusInternalServerError, ErrTextSaveFailed, err.Error())
		return
	}

	logger.Info().Str("match_id", id).Str("filename", header.Filename).Msg("match imported from spreadsheet")
	_ = api.WriteJSON(w, http.StatusOK, UploadResponse{Success: true, Message: "upload succeeded", MatchID: id})
}
