package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/courtside/courtside-api/internal/domain/slot"
	"github.com/courtside/courtside-api/internal/domain/venue"
)

// Quoter gathers the live signals a quote needs and runs the pure engine.
// Signal reads fail soft: a missing counter or cache entry degrades the
// multiplier to 1.0 instead of failing the request.
type Quoter struct {
	venues     *venue.Repository
	searches   SearchCounter
	popularity PopularityCache
}

func NewQuoter(venues *venue.Repository, searches SearchCounter, popularity PopularityCache) *Quoter {
	return &Quoter{venues: venues, searches: searches, popularity: popularity}
}

// Record feeds the demand signal for a venue. Called once per search
// request and once per lock attempt.
func (q *Quoter) Record(ctx context.Context, s *slot.Slot) {
	q.RecordVenue(ctx, s.VenueID)
}

// RecordVenue is Record when only the venue is known.
func (q *Quoter) RecordVenue(ctx context.Context, venueID uuid.UUID) {
	if err := q.searches.Record(ctx, venueID); err != nil {
		log.Warn().Err(err).Str("venue_id", venueID.String()).Msg("Failed to record venue search")
	}
}

// QuoteSlot computes the price that would be frozen into a lock taken now.
func (q *Quoter) QuoteSlot(ctx context.Context, s *slot.Slot, now time.Time) (int64, error) {
	count, err := q.searches.Count(ctx, s.VenueID)
	if err != nil {
		log.Warn().Err(err).Str("venue_id", s.VenueID.String()).Msg("Search counter unavailable, demand multiplier defaults to 1.0")
		count = 0
	}

	multiplier, err := q.popularity.Get(ctx, s.VenueID)
	if err != nil {
		log.Warn().Err(err).Str("venue_id", s.VenueID.String()).Msg("Popularity cache unavailable, multiplier defaults to 1.0")
		multiplier = 0
	}

	discounts, err := q.venues.ActiveDiscounts(ctx, s.VenueID, s.CourtID, s.StartTime)
	if err != nil {
		return 0, err
	}

	return Quote(Inputs{
		BasePriceCents: s.BasePriceCents,
		SlotStart:      s.StartTime,
		Now:            now,
		SearchCount:    count,
		Popularity:     multiplier,
		Discounts:      discounts,
	}), nil
}
