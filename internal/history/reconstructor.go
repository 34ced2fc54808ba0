// Package history derives head-to-head opponent records from raw tournament
// game results. It walks a bounded window of the subject's most recent
// completed events and accumulates per-opponent win/loss tallies across
// them.
package history

import (
	"context"
	"sort"

	"github.com/DevNDanger/MyPinballStats/internal/constants"
	"github.com/DevNDanger/MyPinballStats/internal/domain"
	"github.com/DevNDanger/MyPinballStats/internal/matchplay"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type eventSource interface {
	FetchRecentEvents(ctx context.Context, userID, maxEvents int) ([]matchplay.EventRef, error)
	FetchEvent(ctx context.Context, ref matchplay.EventRef) (*domain.CompletedEvent, error)
}

type Reconstructor struct {
	events eventSource
	logger zerolog.Logger
}

func NewReconstructor(matchplayClient *matchplay.Client, logger zerolog.Logger) *Reconstructor {
	return &Reconstructor{events: matchplayClient, logger: logger}
}

type tally struct {
	wins   int
	losses int
	last   string
}

// Reconstruct builds head-to-head records for the subject against every
// opponent encountered in the subject's maxEvents most recent completed
// events, ordered by most recent encounter, capped at MaxOpponentRecords.
// A subject with no qualifying events yields an empty slice, not an error;
// only the initial event listing can fail the whole reconstruction.
func (r *Reconstructor) Reconstruct(ctx context.Context, subjectID, maxEvents int) ([]domain.OpponentRecord, error) {
	refs, err := r.events.FetchRecentEvents(ctx, subjectID, maxEvents)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return []domain.OpponentRecord{}, nil
	}

	// Events are fetched concurrently and settle independently: a slot whose
	// fetch fails stays nil and is skipped, it never aborts the others.
	events := make([]*domain.CompletedEvent, len(refs))
	g := new(errgroup.Group)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			event, err := r.events.FetchEvent(ctx, ref)
			if err != nil {
				r.logger.Warn().Err(err).Int("event_id", ref.EventID).Msg("skipping unfetchable event")
				return nil
			}
			events[i] = event
			return nil
		})
	}
	_ = g.Wait() // closures never return an error

	tallies := make(map[string]*tally)
	var order []string // deterministic record order under equal timestamps

	for _, event := range events {
		if event == nil {
			continue
		}
		r.accumulateEvent(event, subjectID, tallies, &order)
	}

	records := make([]domain.OpponentRecord, 0, len(order))
	for _, name := range order {
		t := tallies[name]
		rec := domain.OpponentRecord{
			OpponentName: name,
			Wins:         t.wins,
			Losses:       t.losses,
			TotalGames:   t.wins + t.losses,
			LastPlayed:   t.last,
		}
		if decisive := t.wins + t.losses; decisive > 0 {
			rate := float64(t.wins) / float64(decisive)
			rec.WinRate = &rate
		}
		records = append(records, rec)
	}

	// ISO-8601 strings order lexicographically; stable keeps equal
	// timestamps deterministic.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].LastPlayed > records[j].LastPlayed
	})

	if len(records) > constants.MaxOpponentRecords {
		records = records[:constants.MaxOpponentRecords]
	}

	r.logger.Debug().Int("subject_id", subjectID).Int("opponents", len(records)).Msg("opponent history reconstructed")
	return records, nil
}

func (r *Reconstructor) accumulateEvent(event *domain.CompletedEvent, subjectID int, tallies map[string]*tally, order *[]string) {
	subjectLocalID, ok := subjectRosterID(event, subjectID)
	if !ok {
		// Should not normally happen for an event the subject played in.
		r.logger.Debug().Int("event_id", event.EventID).Msg("subject not on roster, skipping event")
		return
	}

	names := make(map[int]string, len(event.Roster))
	for _, entry := range event.Roster {
		names[entry.LocalPlayerID] = entry.DisplayName
	}

	for _, game := range event.Games {
		if game.Status != "completed" || game.IsBye {
			continue
		}

		subjectPos := finishPosition(game, subjectLocalID)
		if subjectPos == nil {
			continue
		}

		timestamp := game.StartedAt
		if timestamp == "" {
			timestamp = event.StartTime
		}

		for _, p := range game.Participants {
			if p.LocalPlayerID == subjectLocalID || p.FinishPosition == nil {
				continue
			}
			name := names[p.LocalPlayerID]
			if name == "" {
				continue
			}

			t, exists := tallies[name]
			if !exists {
				t = &tally{}
				tallies[name] = t
				*order = append(*order, name)
			}

			// Lower finish position is better; equal positions are a tie
			// and count in neither column.
			switch {
			case *subjectPos < *p.FinishPosition:
				t.wins++
			case *subjectPos > *p.FinishPosition:
				t.losses++
			}
			if timestamp > t.last {
				t.last = timestamp
			}
		}
	}
}

func subjectRosterID(event *domain.CompletedEvent, subjectID int) (int, bool) {
	for _, entry := range event.Roster {
		if entry.ClaimedByGlobalID != nil && *entry.ClaimedByGlobalID == subjectID {
			return entry.LocalPlayerID, true
		}
	}
	return 0, false
}

func finishPosition(game domain.CompletedGame, localID int) *int {
	for _, p := range game.Participants {
		if p.LocalPlayerID == localID {
			return p.FinishPosition
		}
	}
	return nil
}
