package tracing

// Canonical event names recorded on spans by the reconciler, autoscaler,
// and player lifecycle components.
const (
	EventReconcileAdoptStart   = "reconcile.adopt.start"
	EventReconcileAdoptSuccess = "reconcile.adopt.success"
	EventReconcileReleaseStart = "reconcile.release.start"
	EventReconcileReleaseDone  = "reconcile.release.done"
	EventReconcileNoop         = "reconcile.noop"

	EventAutoscaleIdleDecision      = "autoscale.idle.decision"
	EventAutoscaleWaitingDecision   = "autoscale.waiting.decision"
	EventAutoscaleServerCreated     = "autoscale.server.created"
	EventAutoscaleResolveMoveTarget = "autoscale.resolve_move.target"

	EventPlayerSessionOpened   = "player.session.opened"
	EventPlayerSessionClosed   = "player.session.closed"
	EventPlayerMoveAccepted    = "player.move.accepted"
	EventPlayerMoveRejected    = "player.move.rejected"
	EventPlayerSanctionApplied = "player.sanction.applied"

	EventOnlineCountFlushed   = "online_count.flushed"
	EventLeaderboardPublished = "leaderboard.published"
)
