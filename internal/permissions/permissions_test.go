package permissions

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/menestis/skynet/internal/model"
)

func TestResolveComposesGroupsOverridesAndFiltersProxyScope(t *testing.T) {
	groups := []model.Group{
		{Name: "G1", Power: 5, Permissions: []string{"a", "proxy:b"}},
		{Name: "G2", Power: 3, Permissions: []string{"c:d"}},
	}
	overrides := map[string][]string{"G1": {"e"}}

	res := Resolve(model.Player{}, groups, overrides, ContextProxy)

	require.Equal(t, 5, res.Power)
	require.ElementsMatch(t, []string{"a", "b", "e", "power.5"}, res.Permissions)
}

func TestResolveServerContextDropsProxyScopedPermission(t *testing.T) {
	groups := []model.Group{{Name: "G1", Power: 1, Permissions: []string{"a", "proxy:b"}}}

	res := Resolve(model.Player{}, groups, nil, ContextServer)

	require.ElementsMatch(t, []string{"a", "power.1"}, res.Permissions)
}

func TestResolvePrefixFallsBackToHighestPowerGroup(t *testing.T) {
	groups := []model.Group{
		{Name: "low", Power: 1, Prefix: "[Low]"},
		{Name: "high", Power: 9, Prefix: "[High]"},
	}

	res := Resolve(model.Player{}, groups, nil, ContextServer)
	require.Equal(t, "[High]", res.Prefix)
}

func TestResolvePlayerExplicitPrefixWins(t *testing.T) {
	groups := []model.Group{{Name: "high", Power: 9, Prefix: "[High]"}}

	res := Resolve(model.Player{Prefix: "[Custom]"}, groups, nil, ContextServer)
	require.Equal(t, "[Custom]", res.Prefix)
}
