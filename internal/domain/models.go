package domain

import (
	"time"
)

// PlayerIdentity is derived per request, never persisted.
type PlayerIdentity struct {
	Name        string `json:"name"`
	Location    string `json:"location,omitempty"`
	IFPAID      *int   `json:"ifpaId,omitempty"`
	MatchplayID *int   `json:"matchplayId,omitempty"`
}

// IFPAStats is a point-in-time snapshot of a player's WPPR standing.
// Upstream sends most numbers as text; fields the payload omits or that
// fail to parse stay nil — absent is not zero.
type IFPAStats struct {
	CurrentRank   *int     `json:"currentRank,omitempty"`
	LastMonthRank *int     `json:"lastMonthRank,omitempty"`
	LastYearRank  *int     `json:"lastYearRank,omitempty"`
	HighestRank   *int     `json:"highestRank,omitempty"`
	WPPRValue     *float64 `json:"wpprValue,omitempty"`
	BestFinish    *int     `json:"bestFinish,omitempty"`
	EventsAllTime *int     `json:"eventsAllTime,omitempty"`
	TotalWins     *int     `json:"totalWins,omitempty"`
}

// MatchplayStats is a point-in-time snapshot of a player's Matchplay rating
// and aggregate counts.
type MatchplayStats struct {
	Rating          *float64 `json:"rating,omitempty"`
	RatingDeviation *float64 `json:"ratingDeviation,omitempty"`
	TournamentCount *int     `json:"tournamentCount,omitempty"`
	GameCount       *int     `json:"gameCount,omitempty"`
	WinCount        *int     `json:"winCount,omitempty"`
}

type RosterEntry struct {
	LocalPlayerID     int
	DisplayName       string
	ClaimedByGlobalID *int
}

type GameParticipant struct {
	LocalPlayerID  int
	FinishPosition *int
}

// CompletedGame counts toward opponent history only when Status is
// "completed", it is not a bye, and the subject's own finish position is
// recorded.
type CompletedGame struct {
	GameID       int
	Status       string
	IsBye        bool
	StartedAt    string // ISO-8601, may be empty
	Participants []GameParticipant
}

type CompletedEvent struct {
	EventID   int
	Name      string
	StartTime string // ISO-8601
	Roster    []RosterEntry
	Games     []CompletedGame
}

// OpponentRecord is a head-to-head aggregate keyed by display name; numeric
// opponent IDs are event-local and not stable across events.
type OpponentRecord struct {
	OpponentName string   `json:"opponentName"`
	Wins         int      `json:"wins"`
	Losses       int      `json:"losses"`
	TotalGames   int      `json:"totalGames"`
	WinRate      *float64 `json:"winRate"`
	// LastPlayed keeps the upstream ISO-8601 string; lexicographic order
	// on this format matches chronological order.
	LastPlayed string `json:"lastPlayed"`
}

// YearSummary buckets a player's IFPA results history by calendar year.
type YearSummary struct {
	Year        int     `json:"year"`
	EventCount  int     `json:"eventCount"`
	BestFinish  *int    `json:"bestFinish,omitempty"`
	TotalPoints float64 `json:"totalPoints"`
}

// UnifiedDashboard is the assembled view for one request. A provider block
// is non-nil exactly when that provider's fetch succeeded.
type UnifiedDashboard struct {
	FetchID       string           `json:"fetchId"`
	Identity      PlayerIdentity   `json:"identity"`
	IFPA          *IFPAStats       `json:"ifpa"`
	Matchplay     *MatchplayStats  `json:"matchplay"`
	Opponents     []OpponentRecord `json:"opponents"`
	YearSummaries []YearSummary    `json:"yearSummaries,omitempty"`
	Warnings      []string         `json:"warnings,omitempty"`
	FetchedAt     time.Time        `json:"fetchedAt"`
}
