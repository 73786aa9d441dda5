// Package permissions resolves a player's effective permission set, power,
// and prefix/suffix from its groups, per-kind overrides, and the calling
// context (proxy login vs. server login), per spec §3 "Group".
package permissions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/menestis/skynet/internal/model"
)

// Context selects how scope-prefixed permissions are filtered: a
// proxy-login strips the "proxy:" prefix and keeps the remainder; any
// other scope-prefixed permission is dropped outright.
type Context int

const (
	ContextProxy Context = iota
	ContextServer
)

const proxyPrefix = "proxy:"

// Resolution is the computed login info handed back to the caller.
type Resolution struct {
	Power       int
	Permissions []string
	Prefix      string
	Suffix      string
}

// Resolve implements the algorithm from spec §3's Group entry: union of
// group permissions, append "power.N", append the player's own
// permissions, append kindOverrides entries for groups the player belongs
// to, then filter by ctx; prefix/suffix default to the highest-power
// group that defines one, overridden by the player's own explicit value.
func Resolve(player model.Player, groups []model.Group, kindOverrides map[string][]string, ctx Context) Resolution {
	sort.Slice(groups, func(i, j int) bool { return groups[i].Power > groups[j].Power })

	maxPower := 0
	var raw []string
	for _, g := range groups {
		if g.Power > maxPower {
			maxPower = g.Power
		}
		raw = append(raw, g.Permissions...)
	}
	raw = append(raw, fmt.Sprintf("power.%d", maxPower))
	raw = append(raw, player.Permissions...)
	for _, g := range groups {
		raw = append(raw, kindOverrides[g.Name]...)
	}

	filtered := make([]string, 0, len(raw))
	for _, perm := range raw {
		switch {
		case strings.HasPrefix(perm, proxyPrefix):
			if ctx == ContextProxy {
				filtered = append(filtered, strings.TrimPrefix(perm, proxyPrefix))
			}
		case strings.Contains(perm, ":"):
			// any other scope-prefixed permission is dropped
		default:
			filtered = append(filtered, perm)
		}
	}

	prefix, suffix := player.Prefix, player.Suffix
	for _, g := range groups {
		if prefix == "" && g.Prefix != "" {
			prefix = g.Prefix
		}
		if suffix == "" && g.Suffix != "" {
			suffix = g.Suffix
		}
	}

	return Resolution{
		Power:       maxPower,
		Permissions: filtered,
		Prefix:      prefix,
		Suffix:      suffix,
	}
}
