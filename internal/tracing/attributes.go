package tracing

import (
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

var (
	serverIDKey         = attribute.Key("skynet.server.id")
	serverKindKey        = attribute.Key("skynet.server.kind")
	serverStateKey       = attribute.Key("skynet.server.state")
	playerUUIDKey        = attribute.Key("skynet.player.uuid")
	sessionIDKey         = attribute.Key("skynet.session.id")
	proxyIDKey           = attribute.Key("skynet.proxy.id")
	groupNameKey         = attribute.Key("skynet.group.name")
	componentKey         = attribute.Key("skynet.component")
	errorKindKey         = attribute.Key("skynet.error.kind")
	reconcileActionKey   = attribute.Key("skynet.reconcile.action")
	reconcileRequeueKey  = attribute.Key("skynet.reconcile.requeue")
	sanctionCategoryKey  = attribute.Key("skynet.sanction.category")
	sanctionDurationKey  = attribute.Key("skynet.sanction.duration_seconds")
	k8sPodNameKey        = attribute.Key("k8s.pod.name")
	k8sNamespaceKey      = attribute.Key("k8s.namespace.name")
	leaderboardNameKey   = attribute.Key("skynet.leaderboard.name")
)

// AttrServerID returns a span attribute identifying the game server instance.
func AttrServerID(id string) attribute.KeyValue {
	return serverIDKey.String(id)
}

// AttrServerKind returns a span attribute identifying the server kind (fleet) name.
func AttrServerKind(kind string) attribute.KeyValue {
	return serverKindKey.String(kind)
}

// AttrServerState returns a span attribute representing a server's lifecycle state
// (a model.ServerState such as Starting/Waiting/Idle/Playing/Started),
// lower-cased with inner whitespace replaced by underscores.
func AttrServerState(state string) attribute.KeyValue {
	return serverStateKey.String(normalizeDimensionValue(state))
}

// AttrPlayerUUID returns a span attribute identifying the player.
func AttrPlayerUUID(uuid string) attribute.KeyValue {
	return playerUUIDKey.String(uuid)
}

// AttrSessionID returns a span attribute identifying a player session.
func AttrSessionID(id string) attribute.KeyValue {
	return sessionIDKey.String(id)
}

// AttrProxyID returns a span attribute identifying the proxy that authenticated a login.
func AttrProxyID(id string) attribute.KeyValue {
	return proxyIDKey.String(id)
}

// AttrGroupName returns a span attribute identifying a permission group.
func AttrGroupName(name string) attribute.KeyValue {
	return groupNameKey.String(name)
}

// AttrComponent returns a span attribute representing which Skynet component emits the span.
func AttrComponent(component string) attribute.KeyValue {
	return componentKey.String(component)
}

// AttrErrorKind returns a span attribute representing the apierr.Kind of a failure.
func AttrErrorKind(kind string) attribute.KeyValue {
	return errorKindKey.String(kind)
}

// AttrReconcileAction returns a span attribute representing the reconcile decision
// (adopt/release/noop).
func AttrReconcileAction(action string) attribute.KeyValue {
	return reconcileActionKey.String(action)
}

// AttrReconcileRequeue indicates whether the reconcile loop will requeue the pod.
func AttrReconcileRequeue(requeue bool) attribute.KeyValue {
	return reconcileRequeueKey.Bool(requeue)
}

// AttrSanctionCategory returns a span attribute representing a moderation sanction's category
// (ban/mute).
func AttrSanctionCategory(category string) attribute.KeyValue {
	return sanctionCategoryKey.String(category)
}

// AttrSanctionDuration returns a span attribute representing a sanction's duration in seconds.
// Zero means permanent.
func AttrSanctionDuration(seconds int64) attribute.KeyValue {
	return sanctionDurationKey.Int64(seconds)
}

// AttrK8sPodName returns a span attribute for k8s.pod.name.
func AttrK8sPodName(podName string) attribute.KeyValue {
	return k8sPodNameKey.String(podName)
}

// AttrK8sNamespaceName returns a span attribute for k8s.namespace.name.
func AttrK8sNamespaceName(namespace string) attribute.KeyValue {
	return k8sNamespaceKey.String(namespace)
}

// AttrLeaderboardName returns a span attribute identifying a leaderboard.
func AttrLeaderboardName(name string) attribute.KeyValue {
	return leaderboardNameKey.String(name)
}

// AttrsForServer returns the common attribute set identifying a server and its kind.
func AttrsForServer(kind, serverID string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if kind != "" {
		attrs = append(attrs, AttrServerKind(kind))
	}
	if serverID != "" {
		attrs = append(attrs, AttrServerID(serverID))
	}
	return attrs
}

// AttrsForPlayer returns the common attribute set identifying a player and, if present,
// their active session.
func AttrsForPlayer(playerUUID, sessionID string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if playerUUID != "" {
		attrs = append(attrs, AttrPlayerUUID(playerUUID))
	}
	if sessionID != "" {
		attrs = append(attrs, AttrSessionID(sessionID))
	}
	return attrs
}

// EnsureServerStateAttr appends a default server state attribute when missing, so
// dimensions stay stable for anyone aggregating on skynet.server.state.
func EnsureServerStateAttr(attrs []attribute.KeyValue, defaultState string) []attribute.KeyValue {
	for _, attr := range attrs {
		if attr.Key == serverStateKey {
			return attrs
		}
	}
	if defaultState == "" {
		defaultState = "unknown"
	}
	return append(attrs, AttrServerState(defaultState))
}

// normalizeDimensionValue converts human-friendly values into lower snake/hyphen case
// strings so metric dimensions remain stable.
func normalizeDimensionValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	lower := strings.ToLower(trimmed)
	if strings.ContainsAny(lower, " \t") {
		lower = strings.Join(strings.Fields(lower), "_")
	}
	return lower
}
