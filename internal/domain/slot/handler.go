package slot

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/courtside/courtside-api/internal/pkg/response"
)

// Quoter prices a slot for display. Satisfied by the pricing quoter.
type Quoter interface {
	RecordVenue(ctx context.Context, venueID uuid.UUID)
	QuoteSlot(ctx context.Context, s *Slot, now time.Time) (int64, error)
}

type Handler struct {
	repo   *Repository
	quoter Quoter
}

func NewHandler(repo *Repository, quoter Quoter) *Handler {
	return &Handler{repo: repo, quoter: quoter}
}

type slotWithQuote struct {
	Slot
	QuotedPriceCents int64 `json:"quoted_price_cents"`
}

// Search lists available slots with current quotes. Each request counts
// once toward the venue's demand signal.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	venueID, err := uuid.Parse(r.URL.Query().Get("venue_id"))
	if err != nil {
		response.BadRequest(w, "venue_id is required and must be a UUID")
		return
	}

	var courtID *uuid.UUID
	if raw := r.URL.Query().Get("court_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(w, "court_id must be a UUID")
			return
		}
		courtID = &id
	}

	now := time.Now()
	dayStart, dayEnd, err := dayBounds(now, r.URL.Query().Get("date"))
	if err != nil {
		response.BadRequest(w, "date must be YYYY-MM-DD")
		return
	}

	h.quoter.RecordVenue(r.Context(), venueID)

	slots, err := h.repo.SearchAvailable(r.Context(), venueID, courtID, dayStart, dayEnd)
	if err != nil {
		log.Error().Err(err).Str("venue_id", venueID.String()).Msg("Slot search failed")
		response.InternalError(w)
		return
	}

	quoted := make([]slotWithQuote, 0, len(slots))
	for i := range slots {
		price, err := h.quoter.QuoteSlot(r.Context(), &slots[i], now)
		if err != nil {
			log.Error().Err(err).Str("slot_id", slots[i].ID.String()).Msg("Slot quote failed")
			response.InternalError(w)
			return
		}
		quoted = append(quoted, slotWithQuote{Slot: slots[i], QuotedPriceCents: price})
	}

	response.OK(w, map[string]interface{}{"slots": quoted})
}

// dayBounds resolves the search window: the given YYYY-MM-DD day, or the
// current day when raw is empty. Midnight is taken in now's location, not
// against the UTC epoch.
func dayBounds(now time.Time, raw string) (time.Time, time.Time, error) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		day = parsed
	}
	return day, day.Add(24 * time.Hour), nil
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Search)
	return r
}
