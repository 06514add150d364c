package checks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/vitals/internal/application/registry"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
	"github.com/doeshing/vitals/internal/ports/portstest"
)

func TestBuiltin_RegistersCleanly(t *testing.T) {
	all := Builtin(portstest.NewRunner(), &portstest.Prober{}, domain.Config{})

	r := registry.New()
	require.NoError(t, r.RegisterAll(all...))
	assert.Equal(t, len(all), r.Len())

	seen := map[domain.Category]bool{}
	last := -1
	for _, check := range all {
		cat := check.Category()
		assert.True(t, strings.HasPrefix(check.ID(), string(cat)+"."), check.ID())
		seen[cat] = true

		idx := categoryIndex(cat)
		assert.GreaterOrEqual(t, idx, last, "checks are grouped in category order")
		last = idx

		name, _, _ := registry.Describe(check)
		assert.NotEqual(t, check.ID(), name, "built-in checks carry a display name")
	}
	for _, cat := range domain.Categories() {
		assert.True(t, seen[cat], "no check in category %s", cat)
	}
}

func TestBuiltin_HealersMatchTiers(t *testing.T) {
	for _, check := range Builtin(portstest.NewRunner(), &portstest.Prober{}, domain.Config{}) {
		healer := registry.HealerOf(check)
		if check.HealingTier() == 0 {
			assert.Nil(t, healer, "%s has tier 0 but a healer", check.ID())
			continue
		}
		require.NotNil(t, healer, "%s has tier %d but no healer", check.ID(), check.HealingTier())
		assert.NotEmpty(t, healer.Name, check.ID())
		if !healer.Manual() {
			assert.NotEmpty(t, healer.TargetPaths, "%s writes files without declaring them", check.ID())
		}
	}
}

func TestBuiltin_NonCacheableChecks(t *testing.T) {
	volatile := map[string]bool{}
	for _, check := range Builtin(portstest.NewRunner(), &portstest.Prober{}, domain.Config{}) {
		if !check.Cacheable() {
			volatile[check.ID()] = true
		}
		if _, ok := check.(ports.CacheKeyer); !ok && check.Cacheable() {
			t.Logf("%s caches on project root only", check.ID())
		}
	}
	assert.Equal(t, map[string]bool{
		"local.disk-space":       true,
		"repository.git-status":  true,
		"services.api-endpoints": true,
	}, volatile)
}

func categoryIndex(c domain.Category) int {
	for i, known := range domain.Categories() {
		if known == c {
			return i
		}
	}
	return -1
}
