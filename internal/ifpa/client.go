// Package ifpa adapts the IFPA WPPR ranking API into typed domain records.
// The upstream sends most numeric fields as text; normalization keeps
// unparseable or empty values absent rather than zero.
package ifpa

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/DevNDanger/MyPinballStats/internal/config"
	"github.com/DevNDanger/MyPinballStats/internal/constants"
	"github.com/DevNDanger/MyPinballStats/internal/domain"
	"github.com/DevNDanger/MyPinballStats/internal/transport"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Profile is the slice of the player payload the identity layer needs:
// display data plus the embedded Matchplay cross-link.
type Profile struct {
	Name        string
	Location    string
	MatchplayID *int
}

// upstreamBurst lets one dashboard assembly's fetch batch go out together
// while the sustained rate stays throttled.
const upstreamBurst = 8

type Client struct {
	transport *transport.Client
	baseURL   string
	apiKey    string
	limiter   *rate.Limiter
	logger    zerolog.Logger
}

func NewClient(cfg *config.Config, tc *transport.Client, logger zerolog.Logger) *Client {
	rps := float64(constants.UpstreamRequestsPerMinute) / 60.0
	return &Client{
		transport: tc,
		baseURL:   strings.TrimRight(cfg.IFPABaseURL, "/"),
		apiKey:    cfg.IFPAAPIKey,
		limiter:   rate.NewLimiter(rate.Limit(rps), upstreamBurst),
		logger:    logger,
	}
}

type playerResponse struct {
	Player      []playerRecord `json:"player"`
	PlayerStats playerStats    `json:"player_stats"`
}

type playerRecord struct {
	PlayerID    int    `json:"player_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	City        string `json:"city"`
	StateProv   string `json:"stateprov"`
	CountryName string `json:"country_name"`
	MatchplayID string `json:"matchplay_id"`
}

type playerStats struct {
	CurrentWPPRRank  string `json:"current_wppr_rank"`
	LastMonthRank    string `json:"last_month_rank"`
	LastYearRank     string `json:"last_year_rank"`
	HighestRank      string `json:"highest_rank"`
	CurrentWPPRValue string `json:"current_wppr_value"`
	BestFinish       string `json:"best_finish"`
	TotalEvents      string `json:"total_events_all_time"`
	TotalWins        string `json:"total_wins_all_time"`
}

type resultsResponse struct {
	Results []resultRecord `json:"results"`
}

type resultRecord struct {
	TournamentName string `json:"tournament_name"`
	EventDate      string `json:"event_date"`
	Position       string `json:"position"`
	WPPRPoints     string `json:"wppr_points"`
}

func (c *Client) fetchPlayer(ctx context.Context, id int) (*playerResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &domain.UpstreamError{Provider: domain.ProviderIFPA, Err: err}
	}

	url := fmt.Sprintf("%s/player/%d?api_key=%s", c.baseURL, id, c.apiKey)
	var resp playerResponse
	if err := c.transport.GetJSON(ctx, url, nil, &resp); err != nil {
		return nil, &domain.UpstreamError{Provider: domain.ProviderIFPA, Err: err}
	}
	if len(resp.Player) == 0 {
		return nil, &domain.UpstreamError{
			Provider: domain.ProviderIFPA,
			Err:      fmt.Errorf("player %d missing from payload", id),
		}
	}
	return &resp, nil
}

// FetchStats returns the player's WPPR snapshot.
func (c *Client) FetchStats(ctx context.Context, id int) (*domain.IFPAStats, error) {
	resp, err := c.fetchPlayer(ctx, id)
	if err != nil {
		return nil, err
	}

	s := resp.PlayerStats
	stats := &domain.IFPAStats{
		CurrentRank:   parseInt(s.CurrentWPPRRank),
		LastMonthRank: parseInt(s.LastMonthRank),
		LastYearRank:  parseInt(s.LastYearRank),
		HighestRank:   parseInt(s.HighestRank),
		WPPRValue:     parseFloat(s.CurrentWPPRValue),
		BestFinish:    parseInt(s.BestFinish),
		EventsAllTime: parseInt(s.TotalEvents),
		TotalWins:     parseInt(s.TotalWins),
	}

	c.logger.Debug().Int("player_id", id).Msg("ifpa stats fetched")
	return stats, nil
}

// FetchProfile returns the player's display data and Matchplay cross-link.
func (c *Client) FetchProfile(ctx context.Context, id int) (*Profile, error) {
	resp, err := c.fetchPlayer(ctx, id)
	if err != nil {
		return nil, err
	}

	p := resp.Player[0]
	return &Profile{
		Name:        strings.TrimSpace(p.FirstName + " " + p.LastName),
		Location:    joinLocation(p.City, p.StateProv, p.CountryName),
		MatchplayID: parseInt(p.MatchplayID),
	}, nil
}

// FetchYearSummaries queries the results history twice (active and inactive
// result sets) and buckets the combined results by calendar year, newest
// year first.
func (c *Client) FetchYearSummaries(ctx context.Context, id int) ([]domain.YearSummary, error) {
	var active, inactive resultsResponse

	g := new(errgroup.Group)
	g.Go(func() error { return c.fetchResults(ctx, id, "active", &active) })
	g.Go(func() error { return c.fetchResults(ctx, id, "inactive", &inactive) })
	if err := g.Wait(); err != nil {
		return nil, &domain.UpstreamError{Provider: domain.ProviderIFPA, Err: err}
	}

	byYear := make(map[int]*domain.YearSummary)
	for _, r := range append(active.Results, inactive.Results...) {
		year, ok := parseYear(r.EventDate)
		if !ok {
			continue
		}
		summary, exists := byYear[year]
		if !exists {
			summary = &domain.YearSummary{Year: year}
			byYear[year] = summary
		}
		summary.EventCount++
		if pts := parseFloat(r.WPPRPoints); pts != nil {
			summary.TotalPoints += *pts
		}
		if pos := parseInt(r.Position); pos != nil {
			if summary.BestFinish == nil || *pos < *summary.BestFinish {
				summary.BestFinish = pos
			}
		}
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	summaries := make([]domain.YearSummary, 0, len(years))
	for _, y := range years {
		summaries = append(summaries, *byYear[y])
	}

	c.logger.Debug().Int("player_id", id).Int("years", len(summaries)).Msg("ifpa results bucketed")
	return summaries, nil
}

func (c *Client) fetchResults(ctx context.Context, id int, set string, out *resultsResponse) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	url := fmt.Sprintf("%s/player/%d/results/%s?api_key=%s", c.baseURL, id, set, c.apiKey)
	return c.transport.GetJSON(ctx, url, nil, out)
}

func parseInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseYear(date string) (int, bool) {
	if len(date) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0, false
	}
	return y, true
}

func joinLocation(parts ...string) string {
	var present []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			present = append(present, p)
		}
	}
	return strings.Join(present, ", ")
}
