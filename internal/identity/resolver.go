// Package identity validates the supplied provider IDs, discovers a missing
// ID through the providers' embedded cross-links, and detects conflicts
// between the two ID systems.
package identity

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/DevNDanger/MyPinballStats/internal/domain"
	"github.com/DevNDanger/MyPinballStats/internal/ifpa"
	"github.com/DevNDanger/MyPinballStats/internal/matchplay"
	"github.com/rs/zerolog"
)

// Resolution carries the resolved ID pair. Cross-link discovery is
// best-effort enrichment: a discovered ID always traces back to a real
// upstream cross-link, and user-supplied IDs are never overwritten.
type Resolution struct {
	IFPAID          *int
	MatchplayID     *int
	MismatchWarning string
}

type ifpaProfileSource interface {
	FetchProfile(ctx context.Context, id int) (*ifpa.Profile, error)
}

type matchplayProfileSource interface {
	FetchProfile(ctx context.Context, id int) (*matchplay.Profile, error)
}

type Resolver struct {
	ifpa      ifpaProfileSource
	matchplay matchplayProfileSource
	logger    zerolog.Logger
}

func NewResolver(ifpaClient *ifpa.Client, matchplayClient *matchplay.Client, logger zerolog.Logger) *Resolver {
	return &Resolver{ifpa: ifpaClient, matchplay: matchplayClient, logger: logger}
}

// Resolve validates rawIFPA/rawMatchplay and fills in whichever ID is
// missing via the other provider's cross-link. Lookup failures are
// swallowed: enrichment that cannot be verified simply does not happen.
func (r *Resolver) Resolve(ctx context.Context, rawIFPA, rawMatchplay string) (Resolution, error) {
	rawIFPA = strings.TrimSpace(rawIFPA)
	rawMatchplay = strings.TrimSpace(rawMatchplay)

	if rawIFPA == "" && rawMatchplay == "" {
		return Resolution{}, domain.NewValidationError("at least one of ifpa or matchplay id is required")
	}

	var res Resolution
	var err error
	if res.IFPAID, err = parseID("ifpa", rawIFPA); err != nil {
		return Resolution{}, err
	}
	if res.MatchplayID, err = parseID("matchplay", rawMatchplay); err != nil {
		return Resolution{}, err
	}

	switch {
	case res.IFPAID != nil && res.MatchplayID != nil:
		r.verifyPair(ctx, &res)
	case res.IFPAID != nil:
		res.MatchplayID = r.discoverMatchplayID(ctx, *res.IFPAID)
	default:
		res.IFPAID = r.discoverIFPAID(ctx, *res.MatchplayID)
	}

	return res, nil
}

// verifyPair checks the IFPA profile's Matchplay cross-link against the
// supplied Matchplay ID. A conflict only warns; a failed verifying fetch is
// skipped silently.
func (r *Resolver) verifyPair(ctx context.Context, res *Resolution) {
	profile, err := r.ifpa.FetchProfile(ctx, *res.IFPAID)
	if err != nil {
		r.logger.Debug().Err(err).Int("ifpa_id", *res.IFPAID).Msg("cross-link verification skipped")
		return
	}
	if profile.MatchplayID == nil || *profile.MatchplayID == *res.MatchplayID {
		return
	}

	res.MismatchWarning = fmt.Sprintf(
		"IFPA player %d is linked to Matchplay user %d, not the supplied %d",
		*res.IFPAID, *profile.MatchplayID, *res.MatchplayID)
	r.logger.Warn().
		Int("ifpa_id", *res.IFPAID).
		Int("linked_matchplay_id", *profile.MatchplayID).
		Int("supplied_matchplay_id", *res.MatchplayID).
		Msg("provider identity mismatch")
}

func (r *Resolver) discoverMatchplayID(ctx context.Context, ifpaID int) *int {
	profile, err := r.ifpa.FetchProfile(ctx, ifpaID)
	if err != nil {
		r.logger.Debug().Err(err).Int("ifpa_id", ifpaID).Msg("matchplay cross-link lookup failed")
		return nil
	}
	return profile.MatchplayID
}

func (r *Resolver) discoverIFPAID(ctx context.Context, matchplayID int) *int {
	profile, err := r.matchplay.FetchProfile(ctx, matchplayID)
	if err != nil {
		r.logger.Debug().Err(err).Int("matchplay_id", matchplayID).Msg("ifpa cross-link lookup failed")
		return nil
	}
	return profile.IFPAID
}

func parseID(provider, raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return nil, domain.NewValidationError("%s id %q is not a non-negative integer", provider, raw)
	}
	return &id, nil
}
