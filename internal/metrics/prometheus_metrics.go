package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metric names
const (
	MetricOnlinePlayers        = "skynet_online_players"
	MetricServersStateCount    = "skynet_servers_state_count"
	MetricServersTotal         = "skynet_servers_total"
	MetricQueueDepth           = "skynet_autoscale_queue_depth"
	MetricBanCount             = "skynet_bans_total"
	MetricMuteCount            = "skynet_mutes_total"
	MetricBusPublishTotal      = "skynet_bus_publish_total"
	MetricReconcileDuration    = "skynet_reconcile_duration_seconds"
	MetricLeaderboardDuration  = "skynet_leaderboard_rebuild_duration_seconds"
)

// Metric label names
const (
	LabelKind     = "kind"
	LabelState    = "state"
	LabelEvent    = "event"
	LabelOutcome  = "outcome"
	LabelCategory = "category"
)

// Registry is Skynet's dedicated Prometheus registry, separate from any
// shared registry a hosting framework might provide.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(OnlinePlayers)
	Registry.MustRegister(ServersStateCount)
	Registry.MustRegister(ServersTotal)
	Registry.MustRegister(QueueDepth)
	Registry.MustRegister(BanCount)
	Registry.MustRegister(MuteCount)
	Registry.MustRegister(BusPublishTotal)
	Registry.MustRegister(ReconcileDuration)
	Registry.MustRegister(LeaderboardDuration)
}

var (
	// OnlinePlayers reports the current aggregate online player count, refreshed
	// by internal/onlinecount.
	OnlinePlayers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricOnlinePlayers,
		Help: "Current number of online players across all servers",
	})

	// ServersStateCount reports the number of servers per kind and lifecycle state.
	ServersStateCount = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: MetricServersStateCount,
			Help: "The number of servers per kind and state",
		},
		[]string{LabelKind, LabelState},
	)

	// ServersTotal counts servers ever created, per kind.
	ServersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricServersTotal,
			Help: "The total number of servers created, per kind",
		},
		[]string{LabelKind},
	)

	// QueueDepth reports the autoscaler's waiting-player queue depth per kind.
	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: MetricQueueDepth,
			Help: "Number of players waiting for a server slot, per kind",
		},
		[]string{LabelKind},
	)

	// BanCount counts bans applied by moderation, per LabelCategory; mutes are counted by MuteCount.
	BanCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricBanCount,
			Help: "Total bans applied",
		},
		[]string{LabelCategory},
	)

	// MuteCount counts mutes applied.
	MuteCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricMuteCount,
			Help: "Total mutes applied",
		},
		[]string{LabelCategory},
	)

	// BusPublishTotal counts events published to the message bus, per event type and outcome.
	BusPublishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricBusPublishTotal,
			Help: "Total events published to the event bus",
		},
		[]string{LabelEvent, LabelOutcome},
	)

	// ReconcileDuration times reconcile loop passes, per kind.
	ReconcileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricReconcileDuration,
			Help:    "Duration of a reconcile pass over pods of a kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelKind},
	)

	// LeaderboardDuration times scheduled leaderboard rebuilds.
	LeaderboardDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    MetricLeaderboardDuration,
		Help:    "Duration of a leaderboard rebuild pass",
		Buckets: prometheus.DefBuckets,
	})
)
