package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnvironmentNormalisesInput(t *testing.T) {
	assert.Equal(t, Production, ParseEnvironment("production"))
	assert.Equal(t, Production, ParseEnvironment("  PRODUCTION "))
	assert.Equal(t, Staging, ParseEnvironment("Staging"))
	assert.Equal(t, Development, ParseEnvironment("qa"))
	assert.Equal(t, Development, ParseEnvironment(""))
}

func TestIsProduction(t *testing.T) {
	assert.True(t, Production.IsProduction())
	assert.False(t, Development.IsProduction())
}
