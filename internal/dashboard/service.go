// Package dashboard assembles the unified view: both providers' stats, the
// reconstructed opponent history, and the derived identity, merged with
// partial-failure tolerance and cached whole for a fixed freshness window.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/DevNDanger/MyPinballStats/internal/config"
	"github.com/DevNDanger/MyPinballStats/internal/constants"
	"github.com/DevNDanger/MyPinballStats/internal/domain"
	"github.com/DevNDanger/MyPinballStats/internal/history"
	"github.com/DevNDanger/MyPinballStats/internal/identity"
	"github.com/DevNDanger/MyPinballStats/internal/ifpa"
	"github.com/DevNDanger/MyPinballStats/internal/matchplay"
	"github.com/DevNDanger/MyPinballStats/internal/store"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type ifpaSource interface {
	FetchStats(ctx context.Context, id int) (*domain.IFPAStats, error)
	FetchProfile(ctx context.Context, id int) (*ifpa.Profile, error)
	FetchYearSummaries(ctx context.Context, id int) ([]domain.YearSummary, error)
}

type matchplaySource interface {
	FetchStats(ctx context.Context, id int) (*domain.MatchplayStats, error)
	FetchProfile(ctx context.Context, id int) (*matchplay.Profile, error)
}

type historySource interface {
	Reconstruct(ctx context.Context, subjectID, maxEvents int) ([]domain.OpponentRecord, error)
}

type cacheStore interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
}

type Service struct {
	ifpa         ifpaSource
	matchplay    matchplaySource
	history      historySource
	cache        cacheStore
	cacheEnabled bool
	logger       zerolog.Logger
}

func NewService(
	cfg *config.Config,
	ifpaClient *ifpa.Client,
	matchplayClient *matchplay.Client,
	reconstructor *history.Reconstructor,
	cache *store.Store,
	logger zerolog.Logger,
) *Service {
	return &Service{
		ifpa:         ifpaClient,
		matchplay:    matchplayClient,
		history:      reconstructor,
		cache:        cache,
		cacheEnabled: cfg.CacheEnabled,
		logger:       logger,
	}
}

// CacheKey builds the dashboard cache key from the resolved ID pair. Absent
// IDs use the "none" sentinel so (5, none), (none, 5), and (5, 5) stay
// distinct.
func CacheKey(res identity.Resolution) string {
	return fmt.Sprintf("dashboard:%s:%s", idOrNone(res.IFPAID), idOrNone(res.MatchplayID))
}

// Get returns the cached dashboard for the resolved pair, assembling a fresh
// one on miss or when bypassCache is set.
func (s *Service) Get(ctx context.Context, res identity.Resolution, bypassCache bool) *domain.UnifiedDashboard {
	key := CacheKey(res)

	if s.cacheEnabled && !bypassCache {
		if cached, ok := s.cache.Get(key); ok {
			if dash, ok := cached.(*domain.UnifiedDashboard); ok {
				s.logger.Debug().Str("key", key).Msg("dashboard cache hit")
				return dash
			}
		}
	}

	dash := s.Assemble(ctx, res)
	if s.cacheEnabled {
		s.cache.Set(key, dash, constants.DashboardCacheTTL)
	}
	return dash
}

// Assemble fetches everything the dashboard needs concurrently and merges
// the results. Every fetch settles independently: a failed slot degrades to
// a nil block or a warning, it never fails the assembly.
func (s *Service) Assemble(ctx context.Context, res identity.Resolution) *domain.UnifiedDashboard {
	fetchID, _ := gonanoid.New()
	logger := s.logger.With().Str("fetch_id", fetchID).Logger()

	var (
		ifpaStats   *domain.IFPAStats
		ifpaErr     error
		ifpaProfile *ifpa.Profile
		years       []domain.YearSummary
		yearsErr    error

		mpStats   *domain.MatchplayStats
		mpErr     error
		mpProfile *matchplay.Profile

		opponents    []domain.OpponentRecord
		opponentsErr error
	)

	// Settle-all: every closure records its own outcome and returns nil, so
	// no slot's failure cancels the rest of the batch.
	g := new(errgroup.Group)
	if res.IFPAID != nil {
		id := *res.IFPAID
		g.Go(func() error {
			ifpaStats, ifpaErr = s.ifpa.FetchStats(ctx, id)
			return nil
		})
		g.Go(func() error {
			ifpaProfile, _ = s.ifpa.FetchProfile(ctx, id)
			return nil
		})
		g.Go(func() error {
			years, yearsErr = s.ifpa.FetchYearSummaries(ctx, id)
			return nil
		})
	}
	if res.MatchplayID != nil {
		id := *res.MatchplayID
		g.Go(func() error {
			mpStats, mpErr = s.matchplay.FetchStats(ctx, id)
			return nil
		})
		g.Go(func() error {
			mpProfile, _ = s.matchplay.FetchProfile(ctx, id)
			return nil
		})
		g.Go(func() error {
			opponents, opponentsErr = s.history.Reconstruct(ctx, id, constants.MaxHistoryEvents)
			return nil
		})
	}
	_ = g.Wait()

	dash := &domain.UnifiedDashboard{
		FetchID:   fetchID,
		Identity:  deriveIdentity(res, ifpaProfile, mpProfile),
		FetchedAt: time.Now().UTC(),
	}

	if res.MismatchWarning != "" {
		dash.Warnings = append(dash.Warnings, res.MismatchWarning)
	}

	if ifpaErr != nil {
		logger.Warn().Err(ifpaErr).Msg("ifpa stats unavailable")
		dash.Warnings = append(dash.Warnings, "IFPA data is currently unavailable")
	} else {
		dash.IFPA = ifpaStats
	}

	if res.IFPAID != nil {
		if yearsErr != nil {
			logger.Warn().Err(yearsErr).Msg("ifpa results history unavailable")
			dash.Warnings = append(dash.Warnings, "IFPA results history is currently unavailable")
		} else {
			dash.YearSummaries = years
		}
	}

	if mpErr != nil {
		logger.Warn().Err(mpErr).Msg("matchplay stats unavailable")
		dash.Warnings = append(dash.Warnings, "Matchplay data is currently unavailable")
	} else {
		dash.Matchplay = mpStats
	}

	if res.MatchplayID != nil {
		if opponentsErr != nil {
			// Failure is distinct from an empty history: Opponents stays nil.
			logger.Warn().Err(opponentsErr).Msg("opponent reconstruction failed")
			dash.Warnings = append(dash.Warnings, "Opponent history is currently unavailable")
		} else {
			dash.Opponents = opponents
		}
	}

	logger.Info().
		Bool("ifpa", dash.IFPA != nil).
		Bool("matchplay", dash.Matchplay != nil).
		Int("opponents", len(dash.Opponents)).
		Int("warnings", len(dash.Warnings)).
		Msg("dashboard assembled")

	return dash
}

// deriveIdentity prefers IFPA display data, falls back to Matchplay, then to
// the "Unknown Player" sentinel.
func deriveIdentity(res identity.Resolution, ifpaProfile *ifpa.Profile, mpProfile *matchplay.Profile) domain.PlayerIdentity {
	id := domain.PlayerIdentity{
		Name:        "Unknown Player",
		IFPAID:      res.IFPAID,
		MatchplayID: res.MatchplayID,
	}

	switch {
	case ifpaProfile != nil && ifpaProfile.Name != "":
		id.Name = ifpaProfile.Name
		id.Location = ifpaProfile.Location
	case mpProfile != nil && mpProfile.Name != "":
		id.Name = mpProfile.Name
		id.Location = mpProfile.Location
	}

	return id
}

func idOrNone(id *int) string {
	if id == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *id)
}
