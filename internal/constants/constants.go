package constants

import "time"

const (
	DashboardCacheTTL = 15 * time.Minute
)

const (
	ExternalAPITimeout = 10 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	// Transport retry policy for server-class upstream failures.
	FetchMaxRetries  = 2
	FetchBackoffBase = 250 * time.Millisecond
)

const (
	// Per-client budget enforced ahead of any fetch.
	RateLimitMaxRequests = 10
	RateLimitWindow      = 1 * time.Minute
)

const (
	// Client-side throttle toward each upstream API.
	UpstreamRequestsPerMinute = 60
)

const (
	MaxHistoryEvents   = 5
	MaxOpponentRecords = 10
	EventPageSize      = 25
	MaxEventPages      = 4
)

const (
	ShutdownTimeout = 5 * time.Second
)
