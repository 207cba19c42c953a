package version

import (
	"runtime"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestColoredKeepsText(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	orig := Version
	defer func() { Version = orig }()

	Version = "1.2.3-rc1"
	assert.Equal(t, "1.2.3-rc1", Colored())

	Version = "nightly"
	assert.Equal(t, "nightly", Colored())
}

func TestCurrent(t *testing.T) {
	origCommit := GitCommit
	defer func() { GitCommit = origCommit }()

	GitCommit = "abc123"
	info := Current()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, "abc123", info.GitCommit)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.NotEmpty(t, info.Platform)
}
