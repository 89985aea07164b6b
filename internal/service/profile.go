package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"habbo-tracker/internal/constants"
	"habbo-tracker/internal/domain"
	"habbo-tracker/internal/hotel"
	"habbo-tracker/internal/monitoring"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type ProfileFetcher interface {
	FetchProfile(ctx context.Context, hotelID, playerID string) (*domain.Profile, error)
	FetchGroups(ctx context.Context, hotelID, playerID string) (json.RawMessage, error)
}

// IdentityStore may be nil when persistence is not available.
type IdentityStore interface {
	Upsert(ctx context.Context, identity domain.PlayerIdentity) error
}

type ProfileService struct {
	upstream   ProfileFetcher
	identities IdentityStore
	reconciler *Reconciler
	logger     zerolog.Logger
	now        func() time.Time
}

func NewProfileService(upstream ProfileFetcher, identities IdentityStore, reconciler *Reconciler, logger zerolog.Logger) *ProfileService {
	return &ProfileService{
		upstream:   upstream,
		identities: identities,
		reconciler: reconciler,
		logger:     logger,
		now:        time.Now,
	}
}

// GetProfile fetches a profile upstream and enriches it with badge discovery
// data. Only upstream failures are returned; persistence is best effort.
func (s *ProfileService) GetProfile(ctx context.Context, hotelID, playerID string) (*domain.ProfileView, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if err := validateLookup(hotelID, playerID); err != nil {
		return nil, err
	}

	s.logger.Info().Str("hotel", hotelID).Str("player_id", playerID).Msg("getting profile")

	profile, err := s.upstream.FetchProfile(ctx, hotelID, playerID)
	if err != nil {
		s.logger.Error().Err(err).Str("hotel", hotelID).Str("player_id", playerID).Msg("failed to fetch profile")
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	observedAt := s.now().UTC()

	// identities and badge_observations are independent tables
	var discovery Discovery
	g := new(errgroup.Group)
	g.Go(func() error {
		s.recordIdentity(ctx, hotelID, playerID, profile.User, observedAt)
		return nil
	})
	g.Go(func() error {
		discovery = s.reconciler.Reconcile(ctx, hotelID, playerID, profile.Badges, observedAt)
		return nil
	})
	_ = g.Wait()

	s.logger.Info().
		Str("hotel", hotelID).
		Str("player_id", playerID).
		Int("badges", len(discovery.Badges)).
		Int("new_badges", len(discovery.NewBadgeCodes)).
		Msg("profile fetched successfully")

	return &domain.ProfileView{
		User:           profile.User,
		Friends:        profile.Friends,
		Groups:         profile.Groups,
		Rooms:          profile.Rooms,
		Badges:         discovery.Badges,
		NewBadgeCodes:  discovery.NewBadgeCodes,
		BadgeFirstSeen: discovery.BadgeFirstSeen,
	}, nil
}

func (s *ProfileService) GetGroups(ctx context.Context, hotelID, playerID string) (json.RawMessage, error) {
	if err := validateLookup(hotelID, playerID); err != nil {
		return nil, err
	}

	groups, err := s.upstream.FetchGroups(ctx, hotelID, playerID)
	if err != nil {
		s.logger.Error().Err(err).Str("hotel", hotelID).Str("player_id", playerID).Msg("failed to fetch groups")
		return nil, fmt.Errorf("failed to fetch groups: %w", err)
	}
	return groups, nil
}

func (s *ProfileService) recordIdentity(ctx context.Context, hotelID, playerID string, rawUser json.RawMessage, observedAt time.Time) {
	if s.identities == nil || len(rawUser) == 0 || string(rawUser) == "null" {
		return
	}

	var user domain.ProfileUser
	if err := json.Unmarshal(rawUser, &user); err != nil {
		s.logger.Warn().Err(err).Str("hotel", hotelID).Str("player_id", playerID).Msg("unreadable user block, skipping identity")
		return
	}
	name := user.Name
	if name == "" {
		name = constants.UnknownDisplayName
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	err := s.identities.Upsert(ctx, domain.PlayerIdentity{
		HotelID:          hotelID,
		PlayerID:         playerID,
		DisplayName:      name,
		AppearanceString: user.FigureString,
		LastSeenAt:       observedAt,
	})
	if err != nil {
		monitoring.PersistenceDegraded.WithLabelValues("identity_upsert").Inc()
		s.logger.Warn().Err(err).Str("hotel", hotelID).Str("player_id", playerID).Msg("failed to upsert identity")
	}
}

func validateLookup(hotelID, playerID string) error {
	if hotelID == "" || playerID == "" {
		return fmt.Errorf("%w: hotel and player id are required", domain.ErrInvalidInput)
	}
	if _, ok := hotel.ByID(hotelID); !ok {
		return fmt.Errorf("%w: %q", domain.ErrInvalidDeployment, hotelID)
	}
	return nil
}
