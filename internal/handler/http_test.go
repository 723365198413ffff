package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/game-leaderboard/internal/config"
	"github.com/game-leaderboard/internal/domain"
)

// stubRanking records calls and returns canned responses
type stubRanking struct {
	submitResult *domain.SubmitResult
	page         *domain.LeaderboardPage
	rank         *domain.PlayerRank
	err          error

	gotSubmit    domain.ScoreSubmit
	gotLimit     int
	gotOffset    int
	gotPlayerID  string
	gotTimeRange domain.TimeRange
}

func (s *stubRanking) SubmitScore(_ context.Context, sub domain.ScoreSubmit) (*domain.SubmitResult, error) {
	s.gotSubmit = sub
	return s.submitResult, s.err
}

func (s *stubRanking) GetLeaderboard(_ context.Context, limit, offset int, timeRange domain.TimeRange) (*domain.LeaderboardPage, error) {
	s.gotLimit = limit
	s.gotOffset = offset
	s.gotTimeRange = timeRange
	return s.page, s.err
}

func (s *stubRanking) GetPlayerRank(_ context.Context, playerID string, timeRange domain.TimeRange) (*domain.PlayerRank, error) {
	s.gotPlayerID = playerID
	s.gotTimeRange = timeRange
	return s.rank, s.err
}

func newTestHandler(stub *stubRanking) http.Handler {
	cfg := &config.LeaderboardConfig{DefaultLimit: 50, MaxLimit: 100}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(stub, cfg, logger).Router()
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestSubmitScoreSuccess(t *testing.T) {
	stub := &stubRanking{submitResult: &domain.SubmitResult{Rank: 3, BestScore: 1500}}
	h := newTestHandler(stub)

	rec := doRequest(t, h, http.MethodPost, "/leaderboard/submit",
		`{"player_id":"p1","score":1500,"timestamp":1701936000}`)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, float64(0), envelope["code"])
	assert.Equal(t, "success", envelope["message"])

	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["rank"])
	assert.Equal(t, float64(1500), data["best_score"])

	assert.Equal(t, "p1", stub.gotSubmit.PlayerID)
	assert.Equal(t, int64(1500), stub.gotSubmit.Score)
	assert.Equal(t, int64(1701936000), stub.gotSubmit.Timestamp)
}

func TestSubmitScoreMalformedBody(t *testing.T) {
	h := newTestHandler(&stubRanking{})

	rec := doRequest(t, h, http.MethodPost, "/leaderboard/submit", `{"player_id":`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, float64(http.StatusBadRequest), envelope["code"])
}

func TestSubmitScoreValidationError(t *testing.T) {
	stub := &stubRanking{err: domain.ErrInvalidRequest}
	h := newTestHandler(stub)

	rec := doRequest(t, h, http.MethodPost, "/leaderboard/submit", `{"player_id":"","score":1}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitScoreStorageErrorSurfacesMessage(t *testing.T) {
	stub := &stubRanking{err: errors.New("connection refused")}
	h := newTestHandler(stub)

	rec := doRequest(t, h, http.MethodPost, "/leaderboard/submit", `{"player_id":"p1","score":1}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, float64(http.StatusInternalServerError), envelope["code"])
	assert.Equal(t, "connection refused", envelope["message"])
}

func TestGetLeaderboardDefaults(t *testing.T) {
	stub := &stubRanking{page: &domain.LeaderboardPage{Total: 0, Entries: []domain.LeaderboardEntry{}}}
	h := newTestHandler(stub)

	rec := doRequest(t, h, http.MethodGet, "/leaderboard", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, stub.gotLimit)
	assert.Equal(t, 0, stub.gotOffset)
	assert.Equal(t, domain.TimeRangeAll, stub.gotTimeRange)
}

func TestGetLeaderboardQueryParams(t *testing.T) {
	stub := &stubRanking{page: &domain.LeaderboardPage{Total: 0, Entries: []domain.LeaderboardEntry{}}}
	h := newTestHandler(stub)

	rec := doRequest(t, h, http.MethodGet, "/leaderboard?limit=10&offset=20&time_range=weekly", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, stub.gotLimit)
	assert.Equal(t, 20, stub.gotOffset)
	assert.Equal(t, domain.TimeRangeWeekly, stub.gotTimeRange)
}

func TestGetLeaderboardBadQueryParams(t *testing.T) {
	h := newTestHandler(&stubRanking{})

	for _, target := range []string{"/leaderboard?limit=abc", "/leaderboard?offset=x"} {
		rec := doRequest(t, h, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestGetLeaderboardEnvelope(t *testing.T) {
	stub := &stubRanking{page: &domain.LeaderboardPage{
		Total: 2,
		Entries: []domain.LeaderboardEntry{
			{Rank: 1, PlayerID: "p2", Score: 200, Timestamp: 1001},
			{Rank: 2, PlayerID: "p1", Score: 100, Timestamp: 1000},
		},
	}}
	h := newTestHandler(stub)

	rec := doRequest(t, h, http.MethodGet, "/leaderboard?limit=10&offset=0", "")

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total"])

	entries := data["entries"].([]interface{})
	require.Len(t, entries, 2)
	first := entries[0].(map[string]interface{})
	assert.Equal(t, float64(1), first["rank"])
	assert.Equal(t, "p2", first["player_id"])
	assert.Equal(t, float64(200), first["score"])
	assert.Equal(t, float64(1001), first["timestamp"])
}

func TestGetPlayerRankSuccess(t *testing.T) {
	stub := &stubRanking{rank: &domain.PlayerRank{
		PlayerID:     "p1",
		Rank:         2,
		Score:        100,
		Timestamp:    1000,
		TotalPlayers: 5,
	}}
	h := newTestHandler(stub)

	rec := doRequest(t, h, http.MethodGet, "/leaderboard/player/p1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "p1", data["player_id"])
	assert.Equal(t, float64(2), data["rank"])
	assert.Equal(t, float64(100), data["score"])
	assert.Equal(t, float64(1000), data["timestamp"])
	assert.Equal(t, float64(5), data["total_players"])
	assert.Equal(t, "p1", stub.gotPlayerID)
}

func TestGetPlayerRankNotFound(t *testing.T) {
	stub := &stubRanking{err: domain.ErrPlayerNotFound}
	h := newTestHandler(stub)

	rec := doRequest(t, h, http.MethodGet, "/leaderboard/player/ghost", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, float64(http.StatusNotFound), envelope["code"])
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestHandler(&stubRanking{})

	for _, target := range []string{"/health", "/ready"} {
		rec := doRequest(t, h, http.MethodGet, target, "")
		assert.Equal(t, http.StatusOK, rec.Code, target)
		envelope := decodeEnvelope(t, rec)
		assert.Equal(t, float64(0), envelope["code"])
	}
}
