package constants

import "time"

const (
	// QueueCapacity is the number of players needed to form a 2v2 match.
	QueueCapacity = 4

	QueueActivityTimeout  = 5 * time.Minute
	EvictInterval         = 1 * time.Minute
	TierBroadcastInterval = 10 * time.Minute
	ClaimTTL              = 2 * time.Minute
	VenueTeardownDelay    = 5 * time.Second

	// TierBroadcastPageSize bounds one ranked-player page of the periodic
	// tier reassert; the broadcast pages until the ladder is exhausted.
	TierBroadcastPageSize = 500
)

const (
	DefaultRating      = 1000
	PlacementMatches   = 5
	RankedWinDelta     = 25
	RankedLossDelta    = 20
	PlacementWinDelta  = 10
	PlacementLossDelta = 5
)

const (
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 30 * time.Second
	NotifyTimeout   = 10 * time.Second
)

// SQLite allows a single writer; keep the pool at one connection.
const (
	DBMaxOpenConns    = 1
	DBMaxIdleConns    = 1
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DefaultLeaderboardPageSize = 10
	MaxLeaderboardPageSize     = 50
)
