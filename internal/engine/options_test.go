package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cahserver/server/config"
)

func TestDefaultGameOptionsValidates(t *testing.T) {
	require.NoError(t, DefaultGameOptions().Validate())
}

func TestValidateRejectsOutOfRangeThinkTime(t *testing.T) {
	o := DefaultGameOptions()
	o.ThinkTime = config.MaxThinkTime + 1
	require.Error(t, o.Validate())
}

func TestValidateRejectsEmptyGameTitle(t *testing.T) {
	o := DefaultGameOptions()
	o.GameTitle = ""
	require.Error(t, o.Validate())
}

func TestValidateRejectsOverlongPassword(t *testing.T) {
	o := DefaultGameOptions()
	o.Password = strings.Repeat("x", config.MaxPasswordLen+1)
	require.Error(t, o.Validate())
}

func TestIsUpdateableInGame(t *testing.T) {
	assert.True(t, IsUpdateableInGame("game_title"))
	assert.True(t, IsUpdateableInGame("password"))
	assert.False(t, IsUpdateableInGame("point_limit"))
}

func TestValidNameRejectsLeadingTrailingAndDoubleSpaces(t *testing.T) {
	assert.True(t, ValidName("Neat Name"))
	assert.False(t, ValidName(" Neat Name"))
	assert.False(t, ValidName("Neat Name "))
	assert.False(t, ValidName("Neat  Name"))
	assert.False(t, ValidName("ab"))
	assert.False(t, ValidName("name$with#symbols"))
}
