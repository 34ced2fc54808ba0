package matchplay

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DevNDanger/MyPinballStats/internal/config"
	"github.com/DevNDanger/MyPinballStats/internal/domain"
	"github.com/DevNDanger/MyPinballStats/internal/transport"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := &config.Config{
		MatchplayToken: "token-123",
		MatchplayBase:  srv.URL,
	}
	return NewClient(cfg, transport.NewClient(zerolog.Nop()), zerolog.Nop())
}

const userPayload = `{
	"data": {
		"userId": 77,
		"name": "alice",
		"location": "Portland, OR",
		"ifpaId": 5,
		"rating": {"rating": 1650.4, "rd": 62.1},
		"counts": {"tournaments": 31, "games": 412, "wins": 178}
	}
}`

func TestFetchStats_MapsRatingAndCounts(t *testing.T) {
	t.Parallel()

	var gotAuth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/users/77", r.URL.Path)
		_, _ = w.Write([]byte(userPayload))
	}))

	stats, err := c.FetchStats(context.Background(), 77)
	require.NoError(t, err)
	require.Equal(t, "Bearer token-123", gotAuth)

	require.NotNil(t, stats.Rating)
	require.Equal(t, 1650.4, *stats.Rating)
	require.NotNil(t, stats.RatingDeviation)
	require.Equal(t, 62.1, *stats.RatingDeviation)
	require.NotNil(t, stats.TournamentCount)
	require.Equal(t, 31, *stats.TournamentCount)
	require.NotNil(t, stats.GameCount)
	require.Equal(t, 412, *stats.GameCount)
	require.NotNil(t, stats.WinCount)
	require.Equal(t, 178, *stats.WinCount)
}

func TestFetchStats_MissingRatingBlockStaysAbsent(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"userId":77,"name":"alice"}}`))
	}))

	stats, err := c.FetchStats(context.Background(), 77)
	require.NoError(t, err)
	require.Nil(t, stats.Rating)
	require.Nil(t, stats.TournamentCount)
}

func TestFetchProfile_ExtractsCrossLink(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(userPayload))
	}))

	profile, err := c.FetchProfile(context.Background(), 77)
	require.NoError(t, err)
	require.Equal(t, "alice", profile.Name)
	require.Equal(t, "Portland, OR", profile.Location)
	require.NotNil(t, profile.IFPAID)
	require.Equal(t, 5, *profile.IFPAID)
}

func TestFetchProfile_MissingUserIsUpstreamError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))

	_, err := c.FetchProfile(context.Background(), 77)

	var uerr *domain.UpstreamError
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, domain.ProviderMatchplay, uerr.Provider)
}

func TestFetchRecentEvents_PaginatesNewestFirstAndCaps(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tournaments", r.URL.Path)
		require.Equal(t, "77", r.URL.Query().Get("player"))
		require.Equal(t, "completed", r.URL.Query().Get("status"))

		switch r.URL.Query().Get("page") {
		case "1":
			_, _ = w.Write([]byte(`{
				"data": [
					{"tournamentId": 903, "name": "Weekly 42", "status": "completed", "startUtc": "2025-08-01T18:00:00Z"},
					{"tournamentId": 902, "name": "In Progress", "status": "started", "startUtc": "2025-07-25T18:00:00Z"},
					{"tournamentId": 901, "name": "Weekly 41", "status": "completed", "startUtc": "2025-07-18T18:00:00Z"}
				],
				"meta": {"current_page": 1, "last_page": 2}
			}`))
		case "2":
			_, _ = w.Write([]byte(`{
				"data": [
					{"tournamentId": 900, "name": "Weekly 40", "status": "completed", "startUtc": "2025-07-11T18:00:00Z"}
				],
				"meta": {"current_page": 2, "last_page": 2}
			}`))
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))

	refs, err := c.FetchRecentEvents(context.Background(), 77, 3)
	require.NoError(t, err)
	require.Len(t, refs, 3)
	require.Equal(t, 903, refs[0].EventID)
	require.Equal(t, 901, refs[1].EventID)
	require.Equal(t, 900, refs[2].EventID)
}

func TestFetchRecentEvents_StopsAtCapWithinOnePage(t *testing.T) {
	t.Parallel()

	var pages int
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		_, _ = w.Write([]byte(`{
			"data": [
				{"tournamentId": 903, "name": "A", "status": "completed", "startUtc": "2025-08-01T18:00:00Z"},
				{"tournamentId": 902, "name": "B", "status": "completed", "startUtc": "2025-07-25T18:00:00Z"},
				{"tournamentId": 901, "name": "C", "status": "completed", "startUtc": "2025-07-18T18:00:00Z"}
			],
			"meta": {"current_page": 1, "last_page": 5}
		}`))
	}))

	refs, err := c.FetchRecentEvents(context.Background(), 77, 2)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	require.Equal(t, 1, pages)
}

func TestFetchEvent_NormalizesRosterAndGames(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tournaments/903/players":
			_, _ = w.Write([]byte(`{"data":[
				{"playerId": 1, "name": "alice", "claimedBy": 77},
				{"playerId": 2, "name": "bob", "claimedBy": null}
			]}`))
		case "/tournaments/903/games":
			_, _ = w.Write([]byte(`{"data":[
				{"gameId": 11, "status": "completed", "bye": false, "startedAt": "2025-08-01T19:00:00Z",
				 "playerIds": [1, 2], "resultPositions": [1, null]},
				{"gameId": 12, "status": "completed", "bye": true, "startedAt": "2025-08-01T20:00:00Z",
				 "playerIds": [1], "resultPositions": [1]}
			]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	ref := EventRef{EventID: 903, Name: "Weekly 42", StartTime: "2025-08-01T18:00:00Z"}
	event, err := c.FetchEvent(context.Background(), ref)
	require.NoError(t, err)

	require.Equal(t, 903, event.EventID)
	require.Equal(t, "Weekly 42", event.Name)
	require.Equal(t, "2025-08-01T18:00:00Z", event.StartTime)

	require.Len(t, event.Roster, 2)
	require.NotNil(t, event.Roster[0].ClaimedByGlobalID)
	require.Equal(t, 77, *event.Roster[0].ClaimedByGlobalID)
	require.Nil(t, event.Roster[1].ClaimedByGlobalID)

	require.Len(t, event.Games, 2)
	first := event.Games[0]
	require.False(t, first.IsBye)
	require.Len(t, first.Participants, 2)
	require.NotNil(t, first.Participants[0].FinishPosition)
	require.Equal(t, 1, *first.Participants[0].FinishPosition)
	require.Nil(t, first.Participants[1].FinishPosition, "null position stays absent")
	require.True(t, event.Games[1].IsBye)
}

func TestFetchEvent_EitherFetchFailingFailsTheEvent(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tournaments/903/games" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))

	_, err := c.FetchEvent(context.Background(), EventRef{EventID: 903})

	var uerr *domain.UpstreamError
	require.ErrorAs(t, err, &uerr)
}

func TestFetchRecentEvents_ListingFailure(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"unauthenticated"}`)
	}))

	_, err := c.FetchRecentEvents(context.Background(), 77, 5)

	var uerr *domain.UpstreamError
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, domain.ProviderMatchplay, uerr.Provider)
}
