package main

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/FrostlineExpress/internal/domain/vehicle"
	"github.com/MRamiBalles/FrostlineExpress/internal/engine"
	"github.com/MRamiBalles/FrostlineExpress/internal/network"
)

func TestSplitFrames(t *testing.T) {
	frames := splitFrames([]byte("{\"a\":1}\n{\"b\":2}\n\n{\"c\":3}"))
	require.Len(t, frames, 3)
	assert.Equal(t, `{"c":3}`, string(frames[2]))
	assert.Empty(t, splitFrames(nil))
}

func TestNextCommand(t *testing.T) {
	p := &player{inflight: map[string]time.Time{}, rng: rand.New(rand.NewSource(1))}

	_, ok := p.nextCommand()
	assert.False(t, ok, "no snapshot yet")

	p.snapshot = engine.Snapshot{
		Deployed: []engine.MissionView{{ID: "m1", Kind: engine.KindDelivery.String(), Completed: true}},
		Trains:   []vehicle.Train{{Name: "Aurora"}},
	}
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		cmd, ok := p.nextCommand()
		require.True(t, ok)
		seen[cmd.Type] = true
	}
	assert.True(t, seen[network.CmdAcknowledge])
	assert.True(t, seen[network.CmdUpgrade])
	assert.False(t, seen[network.CmdDeploy])
}

func TestInflightLatency(t *testing.T) {
	p := &player{inflight: map[string]time.Time{}}
	p.sent("r1")

	_, ok := p.acked("r1")
	assert.True(t, ok)
	_, ok = p.acked("r1")
	assert.False(t, ok)
}
