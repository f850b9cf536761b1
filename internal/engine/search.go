package engine

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"flightdeck/internal/metrics"
	"flightdeck/internal/models"
)

// Search finds up to count itineraries from origin to dest on the given day
// and installs them as the session's new snapshot. Direct flights are
// fetched first; if the cap is not met and directOnly is false, one-hop
// pairs fill the remainder. The merged list is re-sorted by total duration
// (stable, so the per-query fid tie-breaks survive) and indexed 0..k-1.
//
// On any store failure the snapshot is reset to empty, never left half
// populated: a later Book must not index into a list the client never saw.
func (s *Session) Search(ctx context.Context, origin, dest string, directOnly bool, day, count int) (result string, err error) {
	e := s.engine
	defer e.guard("search", &result, &err)

	if count < 1 {
		count = 0
	}

	direct, queryErr := e.flights.Direct(ctx, e.store, origin, dest, day, count)
	if queryErr != nil {
		return s.searchFailed(queryErr)
	}

	itineraries := make([]models.Itinerary, 0, count)
	for _, f := range direct {
		itineraries = append(itineraries, models.Itinerary{
			First: f,
			Price: f.Price,
			Day:   f.DayOfMonth,
			Total: f.Duration,
		})
	}

	if !directOnly && len(itineraries) < count {
		pairs, queryErr := e.flights.OneHop(ctx, e.store, origin, dest, day, count-len(itineraries))
		if queryErr != nil {
			return s.searchFailed(queryErr)
		}
		for _, pair := range pairs {
			second := pair[1]
			itineraries = append(itineraries, models.Itinerary{
				First:  pair[0],
				Second: &second,
				Price:  pair[0].Price + second.Price,
				Day:    pair[0].DayOfMonth,
				Total:  pair[0].Duration + second.Duration,
			})
		}
	}

	sort.SliceStable(itineraries, func(i, j int) bool {
		return itineraries[i].Total < itineraries[j].Total
	})

	s.search = &searchSnapshot{itineraries: itineraries}

	if len(itineraries) == 0 {
		e.record("search", metrics.OutcomeOK)
		return "No flights match your selection\n", nil
	}

	var b strings.Builder
	for i, it := range itineraries {
		b.WriteString(it.Render(i))
		b.WriteByte('\n')
	}

	e.record("search", metrics.OutcomeOK)
	return b.String(), nil
}

func (s *Session) searchFailed(queryErr error) (string, error) {
	s.search = &searchSnapshot{}
	slog.Error("Search query failed", "error", queryErr)
	s.engine.record("search", metrics.OutcomeFailed)
	return "Failed to search\n", nil
}
