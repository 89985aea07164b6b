package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"habbo-tracker/internal/constants"
	"habbo-tracker/internal/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

type fakeRankingStore struct {
	entries []domain.LeaderboardEntry
	err     error
	limits  []int
}

func (f *fakeRankingStore) RankByBadgeCount(ctx context.Context, hotelID string, limit int) ([]domain.LeaderboardEntry, error) {
	f.limits = append(f.limits, limit)
	return f.entries, f.err
}

type mapCache struct {
	data    map[string][]domain.LeaderboardEntry
	readErr error
}

func cacheKey(hotelID string, limit int) string {
	return fmt.Sprintf("%s/%d", hotelID, limit)
}

func (c *mapCache) Get(ctx context.Context, hotelID string, limit int) ([]domain.LeaderboardEntry, bool, error) {
	if c.readErr != nil {
		return nil, false, c.readErr
	}
	e, ok := c.data[cacheKey(hotelID, limit)]
	return e, ok, nil
}

func (c *mapCache) Set(ctx context.Context, hotelID string, limit int, entries []domain.LeaderboardEntry) error {
	c.data[cacheKey(hotelID, limit)] = entries
	return nil
}

func TestClampLimit(t *testing.T) {
	tests := map[int]int{
		0:     constants.RankingDefaultLimit,
		-5:    constants.RankingMinLimit,
		1:     1,
		250:   250,
		99999: constants.RankingMaxLimit,
	}
	for in, want := range tests {
		if got := ClampLimit(in); got != want {
			t.Errorf("ClampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestParseLimit(t *testing.T) {
	tests := map[string]int{
		"":      constants.RankingDefaultLimit,
		"abc":   constants.RankingDefaultLimit,
		"0":     constants.RankingDefaultLimit,
		" 25 ":  25,
		"-1":    constants.RankingMinLimit,
		"10000": constants.RankingMaxLimit,
	}
	for in, want := range tests {
		if got := ParseLimit(in); got != want {
			t.Errorf("ParseLimit(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestRankByBadgeCount(t *testing.T) {
	entries := []domain.LeaderboardEntry{
		{Rank: 1, HotelID: "com", PlayerID: "p1", DisplayName: "Alice", BadgeCount: 9},
	}
	store := &fakeRankingStore{entries: entries}
	s := NewRankingService(store, nil, zerolog.Nop())

	got, err := s.RankByBadgeCount(context.Background(), "com", 0)
	if err != nil {
		t.Fatalf("RankByBadgeCount: %v", err)
	}
	if diff := cmp.Diff(entries, got); diff != "" {
		t.Errorf("entries (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{constants.RankingDefaultLimit}, store.limits); diff != "" {
		t.Errorf("limits (-want +got):\n%s", diff)
	}
}

func TestRankByBadgeCountEmptyIsNonNil(t *testing.T) {
	s := NewRankingService(&fakeRankingStore{}, nil, zerolog.Nop())
	got, err := s.RankByBadgeCount(context.Background(), "fi", 10)
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("got %#v, %v; want empty slice", got, err)
	}
}

func TestRankByBadgeCountErrors(t *testing.T) {
	storeErr := errors.New("query failed")
	tests := []struct {
		name    string
		store   RankingStore
		hotel   string
		wantErr error
	}{
		{name: "missing hotel", store: &fakeRankingStore{}, hotel: "", wantErr: domain.ErrInvalidInput},
		{name: "unknown hotel", store: &fakeRankingStore{}, hotel: "co.uk", wantErr: domain.ErrInvalidDeployment},
		{name: "no persistence", store: nil, hotel: "com", wantErr: domain.ErrPersistenceUnavailable},
		{name: "store failure", store: &fakeRankingStore{err: storeErr}, hotel: "com", wantErr: storeErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewRankingService(tt.store, nil, zerolog.Nop())
			if _, err := s.RankByBadgeCount(context.Background(), tt.hotel, 10); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRankByBadgeCountUsesCache(t *testing.T) {
	store := &fakeRankingStore{entries: []domain.LeaderboardEntry{{Rank: 1, HotelID: "nl", PlayerID: "p", BadgeCount: 2}}}
	cache := &mapCache{data: map[string][]domain.LeaderboardEntry{}}
	s := NewRankingService(store, cache, zerolog.Nop())

	for i := 0; i < 3; i++ {
		if _, err := s.RankByBadgeCount(context.Background(), "nl", 5); err != nil {
			t.Fatalf("RankByBadgeCount: %v", err)
		}
	}
	if len(store.limits) != 1 {
		t.Errorf("store queried %d times, want 1", len(store.limits))
	}

	cache.readErr = errors.New("redis down")
	if _, err := s.RankByBadgeCount(context.Background(), "nl", 5); err != nil {
		t.Fatalf("cache failure should fall through: %v", err)
	}
	if len(store.limits) != 2 {
		t.Errorf("store queried %d times, want 2", len(store.limits))
	}
}
