package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cs2stats/stats-services/shared/api"
	"github.com/cs2stats/stats-services/stats/compute"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeMatchService(t *testing.T) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc("/api/matches", func(w http.ResponseWriter, r *http.Request) {
		_ = api.WriteJSON(w, http.StatusOK, []map[string]interface{}{{"id": "m1", "name": "Major Final"}})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/matches/{id}", func(w http.ResponseWriter, r *http.Request) {
		if mux.Vars(r)["id"] != "m1" {
			_ = api.WriteJSON(w, http.StatusOK, struct{}{})
			return
		}
		_ = api.WriteJSON(w, http.StatusOK, map[string]interface{}{"id": "m1", "map": "Mirage"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/matches", func(w http.ResponseWriter, r *http.Request) {
		_ = api.WriteJSON(w, http.StatusCreated, map[string]interface{}{"id": "new", "name": "created"})
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/matches/{id}", func(w http.ResponseWriter, r *http.Request) {
		api.WriteNoContent(w)
	}).Methods(http.MethodDelete)
	r.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			api.WriteBadRequest(w, "no file uploaded")
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		if header.Filename != "final.xlsx" || string(body) != "sheet" {
			api.WriteBadRequest(w, "failed to parse file")
			return
		}
		_ = api.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "upload succeeded", "match_id": "up1"})
	}).Methods(http.MethodPost)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestMatchServiceClient(t *testing.T) {
	srv := newFakeMatchService(t)
	c := NewMatchClient(srv.URL, srv.Client())
	ctx := context.Background()

	matches, err := c.ListMatches(ctx)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Major Final", matches[0].Name)

	m, err := c.GetMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "Mirage", m.Map)

	_, err = c.GetMatch(ctx, "missing")
	assert.ErrorIs(t, err, api.ErrNotFound)

	created, err := c.CreateMatch(ctx, CreateMatchRequest{Name: "created"})
	require.NoError(t, err)
	assert.Equal(t, "new", created.ID)

	assert.NoError(t, c.DeleteMatch(ctx, "m1"))

	id, err := c.UploadSpreadsheet(ctx, "final.xlsx", strings.NewReader("sheet"))
	require.NoError(t, err)
	assert.Equal(t, "up1", id)

	_, err = c.UploadSpreadsheet(ctx, "final.xlsx", strings.NewReader("garbage"))
	assert.ErrorIs(t, err, api.ErrBadRequest)
	assert.Contains(t, err.Error(), "failed to parse file")
}

func TestStatsServiceClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/players":
			_, _ = io.WriteString(w, `[{"name":"zeta","totalMatches":2,"avgRatingPlus":1.1,"sniperKillRatio":9.7}]`)
		case "/api/leaderboards":
			_, _ = io.WriteString(w, `{"mvp":[{"name":"zeta","score":1.1,"tag":"🏆 Certified MVP","totalMatches":2}],"rws_dominance":[]}`)
		default:
			api.WriteError(w, http.StatusInternalServerError, api.MsgInternalServerError, "boom")
		}
	}))
	defer srv.Close()

	c := NewStatsClient(srv.URL, srv.Client())

	players, err := c.Players(context.Background())
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, 2, players[0].TotalMatches)
	assert.InDelta(t, 9.7, players[0].SniperKillRatio, 1e-9)

	boards, err := c.Leaderboards(context.Background())
	require.NoError(t, err)
	require.Len(t, boards[compute.BoardMVP], 1)
	assert.Equal(t, "zeta", boards[compute.BoardMVP][0].Name)
	assert.InDelta(t, 2.0, boards[compute.BoardMVP][0].Metrics["totalMatches"], 1e-9)
	assert.Empty(t, boards[compute.BoardRWSDominance])
}
