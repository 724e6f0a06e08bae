package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	s, err := OpenStore(path)
	require.NoError(t, err)
	return s, path
}

func TestOpenStoreCreatesDefaults(t *testing.T) {
	t.Parallel()

	s, path := newTestStore(t)

	assert.True(t, s.Eligible())
	assert.Empty(t, s.Snapshot().DatesUnavailableToTrade)

	// The default config is persisted on first open.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var cfg Trading
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.True(t, cfg.EligibleToTrade)
}

func TestSetKillSwitchPersists(t *testing.T) {
	t.Parallel()

	s, path := newTestStore(t)

	require.NoError(t, s.SetKillSwitch(false, "admin"))
	assert.False(t, s.Eligible())

	// A fresh store over the same file sees the change.
	s2, err := OpenStore(path)
	require.NoError(t, err)
	assert.False(t, s2.Eligible())
}

func TestAddBlackoutDate(t *testing.T) {
	t.Parallel()

	s, path := newTestStore(t)

	require.NoError(t, s.AddBlackoutDate("2022-09-03", "admin"))
	assert.True(t, s.IsBlackout("2022-09-03"))
	assert.False(t, s.IsBlackout("2022-09-04"))

	// Duplicate adds do not accumulate.
	require.NoError(t, s.AddBlackoutDate("2022-09-03", "admin"))
	assert.Len(t, s.Snapshot().DatesUnavailableToTrade, 1)

	// Bad format is rejected before any mutation.
	assert.Error(t, s.AddBlackoutDate("03-09-2022", "admin"))

	s2, err := OpenStore(path)
	require.NoError(t, err)
	assert.True(t, s2.IsBlackout("2022-09-03"))
}

func TestMutationsAppendAuditTrail(t *testing.T) {
	t.Parallel()

	s, path := newTestStore(t)

	require.NoError(t, s.SetKillSwitch(false, "ops"))
	require.NoError(t, s.AddBlackoutDate("2022-09-03", "ops"))

	data, err := os.ReadFile(auditPathFor(path))
	require.NoError(t, err)
	assert.Contains(t, string(data), "set_kill_switch")
	assert.Contains(t, string(data), "add_blackout_date")
	assert.Contains(t, string(data), `"actor":"ops"`)
}

func TestReloadPicksUpExternalEdit(t *testing.T) {
	t.Parallel()

	s, path := newTestStore(t)

	edited := Trading{DatesUnavailableToTrade: []string{"2022-12-26"}, EligibleToTrade: false}
	data, err := json.Marshal(edited)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	require.NoError(t, s.Reload())
	assert.False(t, s.Eligible())
	assert.True(t, s.IsBlackout("2022-12-26"))
}

func TestSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	require.NoError(t, s.AddBlackoutDate("2022-09-03", "admin"))

	snap := s.Snapshot()
	snap.DatesUnavailableToTrade[0] = "mutated"
	assert.True(t, s.IsBlackout("2022-09-03"))
}
