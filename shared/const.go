package shared

const (
	UserID = "user_id"

	// XP transaction sources
	SourceWatch           = "watch"
	SourceLike            = "like"
	SourceComment         = "comment"
	SourceMilestone       = "watch_milestone"
	SourceCompletionBonus = "completion_bonus"
	SourceCompletion      = "completion"
	SourceViewMilestone   = "view_milestone"
	SourceDailyBonus      = "daily_bonus"

	// Engagement kinds recorded against a (user, video) pair
	EngagementWatch   = "watch"
	EngagementLike    = "like"
	EngagementComment = "comment"

	// Playback event types
	EventProgress = "progress"
	EventPaused   = "paused"
	EventResumed  = "resumed"
	EventEnded    = "ended"

	// Playback session states
	StateNotStarted = "not_started"
	StateWatching   = "watching"
	StatePaused     = "paused"
	StateEnded      = "ended"
)

// XP policy values. The table is fixed regardless of which metadata
// provider (API-backed or local) is active.
const (
	XPWatchEngagement = 10
	XPLike            = 5
	XPComment         = 15
	XPMilestoneTick   = 1
	XPViewThreshold   = 15
	XPShortViewFlat   = 25
	XPDailyBonus      = 50

	DefaultCompletionReward = 25

	WatchEngagementMinSeconds = 30

	// Videos at or under ShortVideoMaxSeconds use the short milestone
	// interval; longer videos use the long one. 60s is short, 61s is long.
	ShortVideoMaxSeconds = 60
	ShortMilestoneStep   = 10
	LongMilestoneStep    = 30

	CompletionBonusPct = 90.0
	ShortViewFlatPct   = 80.0

	XPPerLevel = 1000
)

// ViewThresholds are the completion percentages that grant view-milestone
// XP on the alternate recording path.
var ViewThresholds = []float64{25, 50, 75, 90}
