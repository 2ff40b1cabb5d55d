package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaTableCaseInsensitiveLookup(t *testing.T) {
	table := NewMediaTable([]MediaPair{
		{PayloadType: 0, CodecName: "PCMU"},
		{PayloadType: 111, CodecName: "Opus"},
	})

	pt, ok := table.PTForCodec("opus")
	require.True(t, ok)
	assert.Equal(t, uint8(111), pt)

	name, ok := table.CodecForPT(0)
	require.True(t, ok)
	assert.Equal(t, "pcmu", name)

	_, ok = table.PTForCodec("h264")
	assert.False(t, ok, "PTForCodec(h264) unexpectedly found")
}

func TestMediaTablePairsIsACopy(t *testing.T) {
	table := NewMediaTable([]MediaPair{{PayloadType: 0, CodecName: "pcmu"}})
	pairs := table.Pairs()
	pairs[0].CodecName = "mutated"

	name, _ := table.CodecForPT(0)
	assert.Equal(t, "pcmu", name, "mutating Pairs() result must not leak into the table")
}
