package version

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetInfo_Defaults(t *testing.T) {
	info := GetInfo()

	assert.Equal(t, "dev", info.Version)
	assert.Equal(t, "none", info.GitCommit)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}

func TestInfo_String(t *testing.T) {
	info := GetInfo()

	s := info.String()
	assert.Contains(t, s, "bundlint dev")
	assert.Contains(t, s, "commit: none")
}

func TestInfo_JSON(t *testing.T) {
	j, err := GetInfo().JSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(j), &decoded))
	assert.Equal(t, "dev", decoded["version"])
}

func TestShortCommit(t *testing.T) {
	assert.Equal(t, "abc1234", shortCommit("abc1234def5678"))
	assert.Equal(t, "abc", shortCommit("abc"))
}
