package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	info := Get()
	assert.Equal(t, "dev", info.Version)
	assert.Equal(t, "unknown", info.Commit)
	assert.Equal(t, "dev (unknown) built unknown", String())
}

func TestOverride(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = oldVersion, oldCommit })

	Version, Commit = "1.2.0", "abc1234"

	assert.Equal(t, Info{Version: "1.2.0", Commit: "abc1234", BuildTime: "unknown"}, Get())
	assert.Equal(t, []any{"version", "1.2.0", "commit", "abc1234", "build_time", "unknown"}, LogAttrs())
}
