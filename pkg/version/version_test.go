package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, GitCommit, info.GitCommit)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.OS)
	assert.NotEmpty(t, info.Arch)
}

func TestInfoString(t *testing.T) {
	info := GetInfo()
	s := info.String()
	assert.True(t, strings.HasPrefix(s, "Pulse "))
	assert.Contains(t, s, info.GitCommit)
	assert.Contains(t, s, info.GoVersion)
}

func TestInfoShort(t *testing.T) {
	info := GetInfo()
	assert.Equal(t, "Pulse "+info.Version, info.Short())
}
