package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Worker recomputes the historical popularity multiplier per venue from
// average venue ratings and refreshes the cache. The cache TTL must be
// longer than the recompute interval so reads never observe a gap.
type Worker struct {
	db       *sqlx.DB
	cache    PopularityCache
	interval time.Duration
	cacheTTL time.Duration
	stopCh   chan struct{}
}

func NewWorker(db *sqlx.DB, cache PopularityCache, interval, cacheTTL time.Duration) *Worker {
	if interval == 0 {
		interval = time.Hour
	}
	if cacheTTL <= interval {
		cacheTTL = 2 * interval
	}
	return &Worker{
		db:       db,
		cache:    cache,
		interval: interval,
		cacheTTL: cacheTTL,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background worker
func (w *Worker) Start() {
	log.Info().Msg("Starting popularity worker...")
	go w.loop()
}

// Stop gracefully stops the background worker
func (w *Worker) Stop() {
	log.Info().Msg("Stopping popularity worker...")
	close(w.stopCh)
}

func (w *Worker) loop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately on startup
	w.refresh()

	for {
		select {
		case <-ticker.C:
			w.refresh()
		case <-w.stopCh:
			return
		}
	}
}

func (w *Worker) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.RunOnce(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to refresh venue popularity cache")
		return
	}
	log.Info().Int("venues", count).Msg("Refreshed venue popularity cache")
}

// RunOnce recomputes multipliers for all rated venues. Exposed for manual
// trigger and testing.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	var rows []struct {
		VenueID   uuid.UUID `db:"target_id"`
		AvgRating float64   `db:"avg_rating"`
	}
	err := w.db.SelectContext(ctx, &rows, `
		SELECT target_id, AVG(score)::float AS avg_rating
		FROM ratings
		WHERE target_type = 'venue'
		GROUP BY target_id
	`)
	if err != nil {
		return 0, err
	}

	for _, row := range rows {
		multiplier := PopularityMultiplier(row.AvgRating)
		if err := w.cache.Set(ctx, row.VenueID, multiplier, w.cacheTTL); err != nil {
			log.Error().Err(err).Str("venue_id", row.VenueID.String()).Msg("Failed to cache popularity multiplier")
		}
	}
	return len(rows), nil
}
