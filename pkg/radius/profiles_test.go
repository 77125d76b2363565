package radius

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfileFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nas-profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadProfiles(t *testing.T) {
	path := writeProfileFile(t, `
profiles:
  - vendor: mikrotik
    attribute: Mikrotik-Rate-Limit
    defaults:
      speed_up: 5M
      speed_down: 20M
  - vendor: cisco
    attribute: Cisco-AVPair
`)

	set, err := LoadProfiles(path)
	require.NoError(t, err)
	require.Len(t, set.Profiles, 2)

	profile, err := set.Lookup("MikroTik")
	require.NoError(t, err)
	assert.Equal(t, "Mikrotik-Rate-Limit", profile.Attribute)
	assert.Equal(t, "5M", profile.Defaults.SpeedUp)

	_, err = set.Lookup("juniper")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestLoadProfilesValidation(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadProfiles(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("missing attribute", func(t *testing.T) {
		path := writeProfileFile(t, "profiles:\n  - vendor: mikrotik\n")
		_, err := LoadProfiles(path)
		assert.Error(t, err)
	})

	t.Run("duplicate vendor", func(t *testing.T) {
		path := writeProfileFile(t, `
profiles:
  - vendor: mikrotik
    attribute: Mikrotik-Rate-Limit
  - vendor: Mikrotik
    attribute: Mikrotik-Rate-Limit
`)
		_, err := LoadProfiles(path)
		assert.Error(t, err)
	})

	t.Run("invalid default rate", func(t *testing.T) {
		path := writeProfileFile(t, `
profiles:
  - vendor: mikrotik
    attribute: Mikrotik-Rate-Limit
    defaults:
      speed_up: fast
`)
		_, err := LoadProfiles(path)
		assert.ErrorIs(t, err, ErrInvalidBandwidthToken)
	})
}

func TestProfileEncodeFor(t *testing.T) {
	set := DefaultProfiles()
	profile, err := set.Lookup("mikrotik")
	require.NoError(t, err)

	value, err := profile.EncodeFor(Policy{})
	require.NoError(t, err)
	assert.Equal(t, "5M/20M", value)

	value, err = profile.EncodeFor(Policy{SpeedUp: "1M", SpeedDown: "4M"})
	require.NoError(t, err)
	assert.Equal(t, "1M/4M", value)
}
