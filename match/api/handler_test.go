package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cs2stats/stats-services/match/ingest"
	"github.com/cs2stats/stats-services/match/service"
	"github.com/cs2stats/stats-services/shared/api"
	"github.com/cs2stats/stats-services/shared/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory service.MatchStore.
type memStore struct {
	mu       sync.Mutex
	matches  map[string]models.Match
	order    []string
	seq      int
	failList error
}

func newMemStore() *memStore {
	return &memStore{matches: make(map[string]models.Match)}
}

func (m *memStore) List(ctx context.Context) ([]models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList != nil {
		return nil, m.failList
	}
	out := make([]models.Match, 0, len(m.matches))
	for _, id := range m.order {
		if match, ok := m.matches[id]; ok {
			out = append(out, match)
		}
	}
	return out, nil
}

func (m *memStore) Get(ctx context.Context, id string) (*models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[id]
	if !ok {
		return nil, service.ErrMatchNotFound
	}
	return &match, nil
}

func (m *memStore) Insert(ctx context.Context, match *models.Match) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	match.ID = fmt.Sprintf("match-%03d", m.seq)
	m.matches[match.ID] = *match
	m.order = append(m.order, match.ID)
	return match.ID, nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.matches, id)
	return nil
}

type stubParser struct {
	match *models.Match
	err   error
}

func (p *stubParser) Parse(r io.Reader, now time.Time) (*models.Match, error) {
	if p.err != nil {
		return nil, p.err
	}
	m := *p.match
	return &m, nil
}

type failingImporter struct {
	*service.MatchService
}

func (f failingImporter) ImportMatch(ctx context.Context, match *models.Match) (string, error) {
	return "", errors.New("disk full")
}

func newTestHandler(t *testing.T, ms MatchService, parser SpreadsheetParser) http.Handler {
	t.Helper()
	srv := api.NewBaseServer(":0", zerolog.Nop())
	NewMatchAPIHandlers(ms, parser, 5*time.Second, 1<<20).RegisterRoutes(srv.Router)
	return srv.Handler()
}

func newStack(t *testing.T) (http.Handler, *memStore) {
	store := newMemStore()
	svc := service.NewMatchService(store, nil, zerolog.Nop())
	return newTestHandler(t, svc, ingest.NewParser(zerolog.Nop())), store
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeMatch(t *testing.T, rec *httptest.ResponseRecorder) models.Match {
	t.Helper()
	var m models.Match
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestCreateMajorFinal(t *testing.T) {
	h, _ := newStack(t)
	body := `{"name":"Major Final","map":"Mirage","teams":{"A":{"name":"Alpha","score":16,"players":[]},"B":{"name":"Beta","score":10,"players":[]}}}`

	before := time.Now().UTC().Add(-time.Second)
	rec := do(h, http.MethodPost, "/api/matches", body)
	after := time.Now().UTC().Add(time.Second)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	m := decodeMatch(t, rec)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "Major Final", m.Name)
	assert.Equal(t, "Mirage", m.Map)
	assert.Equal(t, "Alpha", m.Teams.A.Name)
	assert.Equal(t, 16, m.Teams.A.Score)
	assert.Equal(t, "Beta", m.Teams.B.Name)
	assert.Equal(t, 10, m.Teams.B.Score)
	assert.Empty(t, m.Teams.A.Players)
	assert.True(t, m.CreatedAt.After(before) && m.CreatedAt.Before(after), "createdAt %v", m.CreatedAt)
}

func TestCreateIgnoresClientCreatedAtAndID(t *testing.T) {
	h, _ := newStack(t)

	rec := do(h, http.MethodPost, "/api/matches", `{"id":"mine","name":"x","createdAt":"1999-01-01T00:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	m := decodeMatch(t, rec)
	assert.NotEqual(t, "mine", m.ID)
	assert.Equal(t, "x", m.Name)
	assert.True(t, m.CreatedAt.After(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestCreateWithMalformedBodyStoresEmptyDocument(t *testing.T) {
	h, store := newStack(t)

	for _, body := range []string{`{"name": "broken"`, `not json`, `{"teams":"wrong type"}`} {
		rec := do(h, http.MethodPost, "/api/matches", body)
		require.Equal(t, http.StatusCreated, rec.Code, body)

		m := decodeMatch(t, rec)
		assert.NotEmpty(t, m.ID)
		assert.Empty(t, m.Name)
		assert.Empty(t, m.Map)
		assert.False(t, m.CreatedAt.IsZero())
	}
	all, _ := store.List(context.Background())
	assert.Len(t, all, 3)
}

func TestCreateKeepsDocumentWhenAFieldIsMistyped(t *testing.T) {
	h, _ := newStack(t)
	body := `{"name":"Major Final","map":"Mirage","date":20250601,"teams":{` +
		`"A":{"name":"Alpha","score":16.0,"players":[{"name":"a1","kills":"21","deaths":9.7,"assists":true,"rws":11.5}]},` +
		`"B":{"name":"Beta","score":"ten","players":"none"}}}`

	rec := do(h, http.MethodPost, "/api/matches", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	m := decodeMatch(t, rec)
	assert.Equal(t, "Major Final", m.Name)
	assert.Equal(t, "Mirage", m.Map)
	assert.Empty(t, m.Date)
	assert.Equal(t, "Alpha", m.Teams.A.Name)
	assert.Equal(t, 16, m.Teams.A.Score)
	require.Len(t, m.Teams.A.Players, 1)
	a1 := m.Teams.A.Players[0]
	assert.Equal(t, "a1", a1.Name)
	assert.Equal(t, 21, a1.Kills)
	assert.Equal(t, 9, a1.Deaths)
	assert.Equal(t, 0, a1.Assists)
	assert.InDelta(t, 11.5, a1.RWS, 1e-9)
	assert.Equal(t, "Beta", m.Teams.B.Name)
	assert.Equal(t, 0, m.Teams.B.Score)
	assert.Empty(t, m.Teams.B.Players)
}

func TestListUnencodableMatchIs500(t *testing.T) {
	h, store := newStack(t)
	_, err := store.Insert(context.Background(), &models.Match{
		Name:  "bad",
		Teams: models.Teams{A: models.Team{Players: []models.PlayerLine{{Name: "x", RWS: math.NaN()}}}},
	})
	require.NoError(t, err)

	rec := do(h, http.MethodGet, "/api/matches", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, api.MsgInternalServerError, body.Error)
}

func TestCreateWithoutBody(t *testing.T) {
	h, _ := newStack(t)

	rec := do(h, http.MethodPost, "/api/matches", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, decodeMatch(t, rec).CreatedAt.IsZero())
}

func TestGetUnknownIDReturnsEmptyObject(t *testing.T) {
	h, _ := newStack(t)

	rec := do(h, http.MethodGet, "/api/matches/nope", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestDeleteThenGet(t *testing.T) {
	h, _ := newStack(t)

	created := decodeMatch(t, do(h, http.MethodPost, "/api/matches", `{"name":"temp"}`))

	rec := do(h, http.MethodGet, "/api/matches/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "temp", decodeMatch(t, rec).Name)

	rec = do(h, http.MethodDelete, "/api/matches/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(h, http.MethodGet, "/api/matches/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())

	// Deleting again is still 204.
	assert.Equal(t, http.StatusNoContent, do(h, http.MethodDelete, "/api/matches/"+created.ID, "").Code)
}

func TestListAfterInsertsAndDeletes(t *testing.T) {
	h, _ := newStack(t)

	rec := do(h, http.MethodGet, "/api/matches", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		ids = append(ids, decodeMatch(t, do(h, http.MethodPost, "/api/matches", fmt.Sprintf(`{"name":"m%d"}`, i))).ID)
	}
	for _, id := range ids[:2] {
		require.Equal(t, http.StatusNoContent, do(h, http.MethodDelete, "/api/matches/"+id, "").Code)
	}

	rec = do(h, http.MethodGet, "/api/matches", "")
	var list []models.Match
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 3)
}

func TestListFailureIs500(t *testing.T) {
	h, store := newStack(t)
	store.failList = errors.New("connection reset")

	rec := do(h, http.MethodGet, "/api/matches", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error","message":"service failed to list matches: connection reset"}`, rec.Body.String())
}

func TestUnmatchedRoutes(t *testing.T) {
	h, _ := newStack(t)

	cases := []struct{ method, path string }{
		{http.MethodPut, "/api/matches"},
		{http.MethodPatch, "/api/matches/abc"},
		{http.MethodGet, "/api/matches/"},
		{http.MethodGet, "/api/matches/abc/def"},
		{http.MethodDelete, "/api/matches"},
		{http.MethodGet, "/api/unknown"},
		{http.MethodGet, "/api//matches"},
		{http.MethodGet, "/api/matches/./abc"},
		{http.MethodGet, "/api/./matches"},
		{http.MethodGet, "/api/matches/../matches"},
	}
	for _, tc := range cases {
		rec := do(h, tc.method, tc.path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
		assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())
	}
}

func TestOptionsOnAnyPath(t *testing.T) {
	h, _ := newStack(t)

	for _, path := range []string{"/api/matches", "/api/matches/abc", "/does/not/exist", "/"} {
		rec := do(h, http.MethodOptions, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Empty(t, rec.Body.String())
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
	}
}

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUploadErrors(t *testing.T) {
	parsed := &models.Match{Name: "Uploaded", Map: "Inferno"}
	svc := service.NewMatchService(newMemStore(), nil, zerolog.Nop())

	t.Run("missing field", func(t *testing.T) {
		h := newTestHandler(t, svc, &stubParser{match: parsed})
		rec := serve(h, multipartRequest(t, "other", "a.xlsx", []byte("x")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"no file uploaded"}`, rec.Body.String())
	})

	t.Run("not multipart", func(t *testing.T) {
		h := newTestHandler(t, svc, &stubParser{match: parsed})
		rec := do(h, http.MethodPost, "/api/upload", `{"file":"a.xlsx"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"no file uploaded"}`, rec.Body.String())
	})

	t.Run("empty filename", func(t *testing.T) {
		h := newTestHandler(t, svc, &stubParser{match: parsed})
		rec := serve(h, multipartRequest(t, "file", "", []byte("x")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"no file selected"}`, rec.Body.String())
	})

	t.Run("wrong extension", func(t *testing.T) {
		h := newTestHandler(t, svc, &stubParser{match: parsed})
		rec := serve(h, multipartRequest(t, "file", "stats.csv", []byte("a,b")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"unsupported file type"}`, rec.Body.String())
	})

	t.Run("unreadable workbook", func(t *testing.T) {
		h := newTestHandler(t, svc, ingest.NewParser(zerolog.Nop()))
		rec := serve(h, multipartRequest(t, "file", "legacy.xls", []byte("\xd0\xcf\x11\xe0 not really")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"failed to parse file"}`, rec.Body.String())
	})

	t.Run("store failure", func(t *testing.T) {
		h := newTestHandler(t, failingImporter{svc}, &stubParser{match: parsed})
		rec := serve(h, multipartRequest(t, "file", "ok.xlsx", []byte("x")))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"failed to save match","message":"disk full"}`, rec.Body.String())
	})
}

func TestUploadStoresParsedMatch(t *testing.T) {
	store := newMemStore()
	svc := service.NewMatchService(store, nil, zerolog.Nop())
	parsed := &models.Match{Name: "Uploaded", Map: "Inferno", Teams: models.Teams{
		A: models.Team{Name: "Alpha", Score: 13, Players: []models.PlayerLine{{Name: "a1", Kills: 20, Deaths: 10, KDRatio: 2}}},
		B: models.Team{Name: "Beta", Score: 7},
	}}
	h := newTestHandler(t, svc, &stubParser{match: parsed})

	rec := serve(h, multipartRequest(t, "file", "FINAL.XLSX", []byte("x")))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "upload succeeded", resp.Message)
	require.NotEmpty(t, resp.MatchID)

	stored, err := store.Get(context.Background(), resp.MatchID)
	require.NoError(t, err)
	assert.Equal(t, "Uploaded", stored.Name)
	assert.False(t, stored.CreatedAt.IsZero())
	assert.Len(t, stored.Teams.A.Players, 1)
}

func TestInvokeRunsTheSameRouter(t *testing.T) {
	h, _ := newStack(t)
	body := `{"name":"via function"}`

	resp := api.Invoke(context.Background(), h, api.FunctionRequest{Path: "/api/matches", HTTPMethod: "post", Body: &body})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])

	var created models.Match
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &created))

	resp = api.Invoke(context.Background(), h, api.FunctionRequest{Path: "/api/matches/" + created.ID, HTTPMethod: "DELETE"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, resp.Body)
}
