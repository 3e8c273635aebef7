package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFactory(t *testing.T) {
	f, err := NewFactory("")
	require.NoError(t, err)
	assert.IsType(t, UUIDFactory{}, f)

	f, err = NewFactory("KSUID")
	require.NoError(t, err)
	assert.IsType(t, KSUIDFactory{}, f)

	_, err = NewFactory("serial")
	assert.Error(t, err)
}

func TestFactoriesIssueDistinctIDs(t *testing.T) {
	for _, f := range []Factory{UUIDFactory{}, KSUIDFactory{}} {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			id := f.NewID()
			assert.NotEmpty(t, id)
			assert.NotContains(t, id, "-")
			assert.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
	}
	assert.Len(t, UUIDFactory{}.NewID(), 32)
	assert.Len(t, KSUIDFactory{}.NewID(), 27)
}
