// Package matchplay adapts the Matchplay tournament API into typed domain
// records: the player's rating snapshot, the IFPA cross-link, and the
// completed-event data the opponent reconstruction walks.
package matchplay

import (
	"context"
	"fmt"
	"strings"

	"github.com/DevNDanger/MyPinballStats/internal/config"
	"github.com/DevNDanger/MyPinballStats/internal/constants"
	"github.com/DevNDanger/MyPinballStats/internal/domain"
	"github.com/DevNDanger/MyPinballStats/internal/transport"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Profile is the slice of the user payload the identity layer needs.
type Profile struct {
	Name     string
	Location string
	IFPAID   *int
}

// EventRef points at one completed tournament in the player's history.
type EventRef struct {
	EventID   int
	Name      string
	StartTime string
}

// upstreamBurst lets one dashboard assembly's fetch batch go out together
// while the sustained rate stays throttled.
const upstreamBurst = 8

type Client struct {
	transport *transport.Client
	baseURL   string
	token     string
	limiter   *rate.Limiter
	logger    zerolog.Logger
}

func NewClient(cfg *config.Config, tc *transport.Client, logger zerolog.Logger) *Client {
	rps := float64(constants.UpstreamRequestsPerMinute) / 60.0
	return &Client{
		transport: tc,
		baseURL:   strings.TrimRight(cfg.MatchplayBase, "/"),
		token:     cfg.MatchplayToken,
		limiter:   rate.NewLimiter(rate.Limit(rps), upstreamBurst),
		logger:    logger,
	}
}

type userResponse struct {
	Data userData `json:"data"`
}

type userData struct {
	UserID   int     `json:"userId"`
	Name     string  `json:"name"`
	Location *string `json:"location"`
	IFPAID   *int    `json:"ifpaId"`
	Rating   *struct {
		Rating *float64 `json:"rating"`
		RD     *float64 `json:"rd"`
	} `json:"rating"`
	Counts *struct {
		Tournaments *int `json:"tournaments"`
		Games       *int `json:"games"`
		Wins        *int `json:"wins"`
	} `json:"counts"`
}

type tournamentsResponse struct {
	Data []tournamentData `json:"data"`
	Meta struct {
		CurrentPage int `json:"current_page"`
		LastPage    int `json:"last_page"`
	} `json:"meta"`
}

type tournamentData struct {
	TournamentID int    `json:"tournamentId"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	StartUTC     string `json:"startUtc"`
}

type playersResponse struct {
	Data []playerData `json:"data"`
}

type playerData struct {
	PlayerID  int    `json:"playerId"`
	Name      string `json:"name"`
	ClaimedBy *int   `json:"claimedBy"`
}

type gamesResponse struct {
	Data []gameData `json:"data"`
}

type gameData struct {
	GameID          int    `json:"gameId"`
	Status          string `json:"status"`
	Bye             bool   `json:"bye"`
	StartedAt       string `json:"startedAt"`
	PlayerIDs       []int  `json:"playerIds"`
	ResultPositions []*int `json:"resultPositions"`
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	headers := map[string]string{"Authorization": "Bearer " + c.token}
	return c.transport.GetJSON(ctx, url, headers, out)
}

func (c *Client) fetchUser(ctx context.Context, id int) (*userData, error) {
	url := fmt.Sprintf("%s/users/%d?includeCounts=1", c.baseURL, id)
	var resp userResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, &domain.UpstreamError{Provider: domain.ProviderMatchplay, Err: err}
	}
	if resp.Data.UserID == 0 {
		return nil, &domain.UpstreamError{
			Provider: domain.ProviderMatchplay,
			Err:      fmt.Errorf("user %d missing from payload", id),
		}
	}
	return &resp.Data, nil
}

// FetchStats returns the user's rating snapshot and aggregate counts.
func (c *Client) FetchStats(ctx context.Context, id int) (*domain.MatchplayStats, error) {
	u, err := c.fetchUser(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := &domain.MatchplayStats{}
	if u.Rating != nil {
		stats.Rating = u.Rating.Rating
		stats.RatingDeviation = u.Rating.RD
	}
	if u.Counts != nil {
		stats.TournamentCount = u.Counts.Tournaments
		stats.GameCount = u.Counts.Games
		stats.WinCount = u.Counts.Wins
	}

	c.logger.Debug().Int("user_id", id).Msg("matchplay stats fetched")
	return stats, nil
}

// FetchProfile returns the user's display data and IFPA cross-link.
func (c *Client) FetchProfile(ctx context.Context, id int) (*Profile, error) {
	u, err := c.fetchUser(ctx, id)
	if err != nil {
		return nil, err
	}

	p := &Profile{Name: u.Name, IFPAID: u.IFPAID}
	if u.Location != nil {
		p.Location = *u.Location
	}
	return p, nil
}

// FetchRecentEvents lists the user's most recent completed tournaments,
// newest first, capped at maxEvents. The upstream paginates newest page
// first.
func (c *Client) FetchRecentEvents(ctx context.Context, userID, maxEvents int) ([]EventRef, error) {
	var refs []EventRef

	for page := 1; page <= constants.MaxEventPages && len(refs) < maxEvents; page++ {
		url := fmt.Sprintf("%s/tournaments?player=%d&status=completed&perPage=%d&page=%d",
			c.baseURL, userID, constants.EventPageSize, page)

		var resp tournamentsResponse
		if err := c.get(ctx, url, &resp); err != nil {
			return nil, &domain.UpstreamError{Provider: domain.ProviderMatchplay, Err: err}
		}

		for _, t := range resp.Data {
			if t.Status != "completed" {
				continue
			}
			refs = append(refs, EventRef{EventID: t.TournamentID, Name: t.Name, StartTime: t.StartUTC})
			if len(refs) == maxEvents {
				break
			}
		}

		if resp.Meta.CurrentPage >= resp.Meta.LastPage {
			break
		}
	}

	c.logger.Debug().Int("user_id", userID).Int("events", len(refs)).Msg("recent events listed")
	return refs, nil
}

// FetchEvent loads one tournament's roster and full game list, joined
// concurrently, and normalizes them into a CompletedEvent.
func (c *Client) FetchEvent(ctx context.Context, ref EventRef) (*domain.CompletedEvent, error) {
	var players playersResponse
	var games gamesResponse

	g := new(errgroup.Group)
	g.Go(func() error {
		return c.get(ctx, fmt.Sprintf("%s/tournaments/%d/players", c.baseURL, ref.EventID), &players)
	})
	g.Go(func() error {
		return c.get(ctx, fmt.Sprintf("%s/tournaments/%d/games", c.baseURL, ref.EventID), &games)
	})
	if err := g.Wait(); err != nil {
		return nil, &domain.UpstreamError{Provider: domain.ProviderMatchplay, Err: err}
	}

	event := &domain.CompletedEvent{
		EventID:   ref.EventID,
		Name:      ref.Name,
		StartTime: ref.StartTime,
	}

	for _, p := range players.Data {
		event.Roster = append(event.Roster, domain.RosterEntry{
			LocalPlayerID:     p.PlayerID,
			DisplayName:       p.Name,
			ClaimedByGlobalID: p.ClaimedBy,
		})
	}

	for _, raw := range games.Data {
		game := domain.CompletedGame{
			GameID:    raw.GameID,
			Status:    raw.Status,
			IsBye:     raw.Bye,
			StartedAt: raw.StartedAt,
		}
		for i, localID := range raw.PlayerIDs {
			participant := domain.GameParticipant{LocalPlayerID: localID}
			if i < len(raw.ResultPositions) {
				participant.FinishPosition = raw.ResultPositions[i]
			}
			game.Participants = append(game.Participants, participant)
		}
		event.Games = append(event.Games, game)
	}

	return event, nil
}
