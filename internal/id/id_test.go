package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 500; i++ {
		id, err := Generate("upd")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}
	assert.Len(t, ids, 500)
}

func TestGenerate_Format(t *testing.T) {
	id := MustGenerate("upd")
	assert.True(t, strings.HasPrefix(id, "upd-"))
	assert.Len(t, id, len("upd-")+21)
}
