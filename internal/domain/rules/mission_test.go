package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MRamiBalles/FrostlineExpress/internal/domain/vehicle"
)

func TestEventProbability(t *testing.T) {
	train := vehicle.Train{WarmthLevel: 5} // 10%
	assert.InDelta(t, 0.3, EventProbability(0.4, train), 1e-9)
	assert.InDelta(t, -0.05, EventProbability(0.05, train), 1e-9, "negative is clamped by the sampler")
}

func TestSkipProbability(t *testing.T) {
	assert.InDelta(t, 0.14, SkipProbability(vehicle.Train{SpeedLevel: 7}), 1e-9)
	assert.Zero(t, SkipProbability(vehicle.Train{}))
}

func TestPassengerIncreaseProbability(t *testing.T) {
	assert.InDelta(t, 0.5, PassengerIncreaseProbability(0.5, 0.05, 0), 1e-9)
	assert.InDelta(t, 0.65, PassengerIncreaseProbability(0.5, 0.05, 3), 1e-9)
	assert.InDelta(t, 0.5, PassengerIncreaseProbability(0.5, 0.05, -1), 1e-9)
}

func TestUpgradeCost(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{0, 100},
		{1, 100},
		{2, 110},
		{3, 121},
		{5, 146},
		{10, 236},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UpgradeCost(100, tt.level), "level %d", tt.level)
	}
}

func TestMissionReward(t *testing.T) {
	assert.Equal(t, 40+75, MissionReward(20, 3, 2, 25))
	assert.Equal(t, 40, MissionReward(20, 0, 2, 25))
}
