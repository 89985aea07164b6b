package service

import (
	"context"
	"time"

	"habbo-tracker/internal/constants"
	"habbo-tracker/internal/domain"
	"habbo-tracker/internal/monitoring"

	"github.com/rs/zerolog"
)

// Ledger is the badge observation store. A nil Ledger means persistence is
// not available and discovery annotations are skipped.
type Ledger interface {
	ObservedCodes(ctx context.Context, hotelID, playerID string) (map[string]struct{}, error)
	RecordNew(ctx context.Context, hotelID, playerID string, entries []domain.NewObservation, observedAt time.Time) error
	Touch(ctx context.Context, hotelID, playerID string, codes []string, observedAt time.Time) error
	OrderedHistory(ctx context.Context, hotelID, playerID string) ([]domain.ObservationHistory, error)
}

type Discovery struct {
	Badges         []domain.Badge
	NewBadgeCodes  []string
	BadgeFirstSeen map[string]time.Time
}

type Reconciler struct {
	ledger Ledger
	logger zerolog.Logger
}

func NewReconciler(ledger Ledger, logger zerolog.Logger) *Reconciler {
	return &Reconciler{ledger: ledger, logger: logger}
}

// Reconcile diffs fresh against the ledger, records first and last
// sightings, and orders the badges newest discovery first. It never fails:
// any ledger problem yields fresh in upstream order with no annotations.
func (r *Reconciler) Reconcile(ctx context.Context, hotelID, playerID string, fresh []domain.Badge, observedAt time.Time) Discovery {
	// an empty badge list is not evidence that badges were lost
	if r.ledger == nil || len(fresh) == 0 {
		return passthrough(fresh)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	log := r.logger.With().Str("hotel", hotelID).Str("player_id", playerID).Logger()

	// duplicate codes collapse onto their first occurrence
	byCode := make(map[string]domain.Badge, len(fresh))
	position := make(map[string]int, len(fresh))
	currentCodes := make([]string, 0, len(fresh))
	for _, b := range fresh {
		if _, dup := byCode[b.Code]; dup {
			continue
		}
		byCode[b.Code] = b
		position[b.Code] = len(currentCodes)
		currentCodes = append(currentCodes, b.Code)
	}

	observed, err := r.ledger.ObservedCodes(ctx, hotelID, playerID)
	if err != nil {
		return r.degrade(log, "observed_codes", err, fresh)
	}

	newCodes := make([]string, 0)
	var entries []domain.NewObservation
	for _, code := range currentCodes {
		if _, seen := observed[code]; seen {
			continue
		}
		newCodes = append(newCodes, code)
		entries = append(entries, domain.NewObservation{Code: code, Position: position[code]})
	}

	if len(entries) > 0 {
		if err := r.ledger.RecordNew(ctx, hotelID, playerID, entries, observedAt); err != nil {
			return r.degrade(log, "record_new", err, fresh)
		}
		monitoring.BadgeDiscoveries.WithLabelValues(hotelID).Add(float64(len(entries)))
	}

	if err := r.ledger.Touch(ctx, hotelID, playerID, currentCodes, observedAt); err != nil {
		return r.degrade(log, "touch", err, fresh)
	}

	history, err := r.ledger.OrderedHistory(ctx, hotelID, playerID)
	if err != nil {
		return r.degrade(log, "history", err, fresh)
	}

	firstSeen := make(map[string]time.Time, len(history))
	ordered := make([]domain.Badge, 0, len(byCode))
	placed := make(map[string]struct{}, len(history))
	for _, h := range history {
		firstSeen[h.Code] = h.FirstSeenAt
		placed[h.Code] = struct{}{}
		// codes the upstream no longer returns stay in the ledger but are not shown
		if b, ok := byCode[h.Code]; ok {
			ordered = append(ordered, b)
		}
	}
	for _, code := range currentCodes {
		if _, ok := placed[code]; !ok {
			ordered = append(ordered, byCode[code])
		}
	}

	log.Debug().
		Int("badges", len(ordered)).
		Int("new", len(newCodes)).
		Msg("badges reconciled")

	return Discovery{
		Badges:         ordered,
		NewBadgeCodes:  newCodes,
		BadgeFirstSeen: firstSeen,
	}
}

func (r *Reconciler) degrade(log zerolog.Logger, op string, err error, fresh []domain.Badge) Discovery {
	monitoring.PersistenceDegraded.WithLabelValues(op).Inc()
	log.Warn().Err(err).Str("operation", op).Msg("badge ledger unavailable, returning upstream order")
	return passthrough(fresh)
}

func passthrough(fresh []domain.Badge) Discovery {
	if fresh == nil {
		fresh = []domain.Badge{}
	}
	return Discovery{
		Badges:         fresh,
		NewBadgeCodes:  []string{},
		BadgeFirstSeen: map[string]time.Time{},
	}
}
