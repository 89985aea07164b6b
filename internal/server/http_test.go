package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"habbo-tracker/internal/config"
	"habbo-tracker/internal/domain"
	"habbo-tracker/internal/service"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

type stubFetcher struct {
	profile *domain.Profile
	err     error
}

func (f stubFetcher) FetchProfile(ctx context.Context, hotelID, playerID string) (*domain.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func (f stubFetcher) FetchGroups(ctx context.Context, hotelID, playerID string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`[{"id":"g-1"}]`), nil
}

type stubRanking struct {
	entries []domain.LeaderboardEntry
	err     error
	limit   int
}

func (s *stubRanking) RankByBadgeCount(ctx context.Context, hotelID string, limit int) ([]domain.LeaderboardEntry, error) {
	s.limit = limit
	return s.entries, s.err
}

func newTestRouter(t *testing.T, fetcher stubFetcher, store service.RankingStore) http.Handler {
	t.Helper()
	log := zerolog.Nop()
	profiles := service.NewProfileService(fetcher, nil, service.NewReconciler(nil, log), log)
	rankings := service.NewRankingService(store, nil, log)
	return NewTrackerServer(profiles, rankings, log).Router(&config.Config{CORSOrigins: []string{"*"}})
}

func sampleProfile() *domain.Profile {
	return &domain.Profile{
		User:    json.RawMessage(`{"name":"Alice"}`),
		Friends: json.RawMessage(`[]`),
		Groups:  json.RawMessage(`[]`),
		Rooms:   json.RawMessage(`[]`),
		Badges:  []domain.Badge{{BadgeIndex: 0, Code: "ACH_1", Name: "One"}},
	}
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestProfileEndpoint(t *testing.T) {
	h := newTestRouter(t, stubFetcher{profile: sampleProfile()}, nil)

	for _, target := range []string{
		"/profile?deployment=com&playerId=p1",
		"/profile?hotel=com&id=p1",
	} {
		rec := do(t, h, http.MethodGet, target, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, body %s", target, rec.Code, rec.Body)
		}

		var got struct {
			User           map[string]any   `json:"user"`
			Badges         []domain.Badge   `json:"badges"`
			NewBadgeCodes  []string         `json:"newBadgeCodes"`
			BadgeFirstSeen map[string]any   `json:"badgeFirstSeen"`
			Rooms          []map[string]any `json:"rooms"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.User["name"] != "Alice" || len(got.Badges) != 1 {
			t.Errorf("unexpected body: %s", rec.Body)
		}
		if got.NewBadgeCodes == nil || got.BadgeFirstSeen == nil {
			t.Errorf("annotations must be present even without persistence: %s", rec.Body)
		}
	}
}

func TestProfileEndpointErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		want   int
	}{
		{name: "missing player", target: "/profile?deployment=com", want: http.StatusBadRequest},
		{name: "unknown hotel", target: "/profile?deployment=co.uk&playerId=p1", want: http.StatusBadRequest},
		{name: "not found", target: "/profile?deployment=com&playerId=p1", err: domain.ErrPlayerNotFound, want: http.StatusNotFound},
		{name: "upstream down", target: "/profile?deployment=com&playerId=p1", err: domain.ErrUpstreamUnavailable, want: http.StatusInternalServerError},
		{name: "groups not found", target: "/groups?deployment=com&playerId=p1", err: domain.ErrPlayerNotFound, want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, stubFetcher{profile: sampleProfile(), err: tt.err}, nil)
			rec := do(t, h, http.MethodGet, tt.target, "")
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error == "" {
				t.Errorf("error body = %s", rec.Body)
			}
		})
	}
}

func TestGroupsEndpoint(t *testing.T) {
	h := newTestRouter(t, stubFetcher{}, nil)
	rec := do(t, h, http.MethodGet, "/groups?deployment=nl&playerId=p1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `[{"id":"g-1"}]` {
		t.Errorf("body = %s", got)
	}
}

func TestRankingEndpoint(t *testing.T) {
	store := &stubRanking{entries: []domain.LeaderboardEntry{
		{Rank: 1, HotelID: "com", PlayerID: "p1", DisplayName: "Alice", AppearanceString: "hr-1", BadgeCount: 5},
	}}
	h := newTestRouter(t, stubFetcher{}, store)

	rec := do(t, h, http.MethodGet, "/ranking?deployment=com&limit=99999", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var got struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []map[string]any{{
		"rank":             float64(1),
		"deploymentId":     "com",
		"playerId":         "p1",
		"displayName":      "Alice",
		"appearanceString": "hr-1",
		"badgeCount":       float64(5),
	}}
	if diff := cmp.Diff(want, got.Items); diff != "" {
		t.Errorf("items (-want +got):\n%s", diff)
	}
	if store.limit != 5000 {
		t.Errorf("limit passed to store = %d, want clamped 5000", store.limit)
	}
}

func TestRankingEndpointErrors(t *testing.T) {
	tests := []struct {
		name   string
		store  service.RankingStore
		target string
		want   int
	}{
		{name: "no persistence", store: nil, target: "/ranking?deployment=com", want: http.StatusServiceUnavailable},
		{name: "missing deployment", store: &stubRanking{}, target: "/ranking", want: http.StatusBadRequest},
		{name: "unknown deployment", store: &stubRanking{}, target: "/ranking?deployment=xx", want: http.StatusBadRequest},
		{name: "query failure", store: &stubRanking{err: errors.New("boom")}, target: "/ranking?deployment=com", want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, stubFetcher{}, tt.store)
			if rec := do(t, h, http.MethodGet, tt.target, ""); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHotelsHealthAndMetrics(t *testing.T) {
	h := newTestRouter(t, stubFetcher{}, nil)

	rec := do(t, h, http.MethodGet, "/hotels", "")
	var hotels []map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &hotels); err != nil || len(hotels) != 9 {
		t.Errorf("hotels = %s (%v)", rec.Body, err)
	}

	if rec := do(t, h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/metrics", ""); rec.Code != http.StatusOK {
		t.Errorf("metrics status = %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t, stubFetcher{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/profile", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Errorf("no CORS headers on preflight: %v", rec.Header())
	}
}

func TestRPCProcedures(t *testing.T) {
	store := &stubRanking{entries: []domain.LeaderboardEntry{}}
	h := newTestRouter(t, stubFetcher{profile: sampleProfile()}, store)

	rec := do(t, h, http.MethodPost, GetProfileProcedure, `{"deployment":"com","playerId":"p1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("GetProfile status = %d, body %s", rec.Code, rec.Body)
	}
	var view domain.ProfileView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil || len(view.Badges) != 1 {
		t.Errorf("GetProfile body = %s (%v)", rec.Body, err)
	}

	rec = do(t, h, http.MethodPost, GetRankingProcedure, `{"deployment":"com"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"items":[]`) {
		t.Errorf("GetRanking = %d %s", rec.Code, rec.Body)
	}

	rec = do(t, h, http.MethodPost, ListHotelsProcedure, `{}`)
	var hotels HotelsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &hotels); err != nil || len(hotels.Hotels) != 9 {
		t.Errorf("ListHotels = %s (%v)", rec.Body, err)
	}
}

func TestRPCErrorCodes(t *testing.T) {
	tests := []struct {
		name      string
		fetchErr  error
		procedure string
		body      string
		wantCode  string
		wantHTTP  int
	}{
		{name: "invalid", procedure: GetProfileProcedure, body: `{"deployment":"xx","playerId":"p"}`, wantCode: "invalid_argument", wantHTTP: http.StatusBadRequest},
		{name: "not found", fetchErr: domain.ErrPlayerNotFound, procedure: GetGroupsProcedure, body: `{"deployment":"com","playerId":"p"}`, wantCode: "not_found", wantHTTP: http.StatusNotFound},
		{name: "upstream", fetchErr: domain.ErrUpstreamUnavailable, procedure: GetProfileProcedure, body: `{"deployment":"com","playerId":"p"}`, wantCode: "internal", wantHTTP: http.StatusInternalServerError},
		{name: "no persistence", procedure: GetRankingProcedure, body: `{"deployment":"com"}`, wantCode: "unavailable", wantHTTP: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, stubFetcher{profile: sampleProfile(), err: tt.fetchErr}, nil)
			rec := do(t, h, http.MethodPost, tt.procedure, tt.body)
			if rec.Code != tt.wantHTTP {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantHTTP)
			}
			var body struct {
				Code string `json:"code"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Code != tt.wantCode {
				t.Errorf("code = %q (%v), want %q; body %s", body.Code, err, tt.wantCode, rec.Body)
			}
		})
	}
}
