package tracing

// Root span names. Kept centralized so collectors and tests can filter on
// stable values using a consistent verb-object naming convention.
const (
	SpanReconcilePod         = "reconcile pod"
	SpanAutoscaleIdle        = "autoscale idle"
	SpanAutoscaleWaiting     = "autoscale waiting"
	SpanAutoscaleResolveMove = "autoscale resolve_move"
	SpanPlayerPrelogin       = "player prelogin"
	SpanPlayerProxyLogin     = "player proxy_login"
	SpanPlayerServerLogin    = "player server_login"
	SpanPlayerMove           = "player move"
	SpanPlayerBan            = "player ban"
	SpanPlayerMute           = "player mute"
	SpanPlayerSanction       = "player sanction"
	SpanPlayerDisconnect     = "player disconnect"
	SpanSessionClose         = "session close"
	SpanOnlineCountUpdate    = "online_count update"
	SpanLeaderboardRebuild   = "leaderboard rebuild"
)
