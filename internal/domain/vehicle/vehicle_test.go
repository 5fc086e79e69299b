package vehicle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry() *Registry {
	return NewRegistry([]Train{
		{Name: "Aurora", RouteStart: "Harbor", RouteEnd: "Summit", WarmthLevel: 3, SpeedLevel: 5},
		{Name: "Borealis", RouteStart: "Harbor", RouteEnd: "Frostgate", WarmthLevel: 1, SpeedLevel: 1},
	})
}

func TestTrainPercentages(t *testing.T) {
	train, err := newRegistry().Get("Aurora")
	require.NoError(t, err)
	assert.Equal(t, 6, train.WarmthLevelPercent())
	assert.Equal(t, 10, train.SpeedLevelPercent())
}

func TestRegistry_AssignIsExclusive(t *testing.T) {
	r := newRegistry()

	require.NoError(t, r.Assign("Aurora", "M1"))
	assert.True(t, r.InUse("Aurora"))
	require.NoError(t, r.Assign("Aurora", "M1"), "same mission may re-assign")

	err := r.Assign("Aurora", "M2")
	assert.ErrorIs(t, err, ErrVehicleInUse)

	r.Release("Aurora", "M2")
	assert.True(t, r.InUse("Aurora"), "release by a non-owner is ignored")

	r.Release("Aurora", "M1")
	assert.False(t, r.InUse("Aurora"))
	require.NoError(t, r.Assign("Aurora", "M2"))
}

func TestRegistry_AssignUnknown(t *testing.T) {
	err := newRegistry().Assign("Ghost", "M1")
	assert.ErrorIs(t, err, ErrUnknownVehicle)
}

func TestRegistry_Upgrade(t *testing.T) {
	r := NewRegistry([]Train{{Name: "Aurora", WarmthLevel: MaxLevel - 1}})

	level, err := r.Upgrade("Aurora", AttributeWarmth)
	require.NoError(t, err)
	assert.Equal(t, MaxLevel, level)

	_, err = r.Upgrade("Aurora", AttributeWarmth)
	assert.ErrorIs(t, err, ErrMaxLevel)

	_, err = r.Upgrade("Aurora", Attribute("armor"))
	assert.ErrorIs(t, err, ErrUnknownAttr)

	train, _ := r.Get("Aurora")
	assert.Equal(t, MaxLevel, train.WarmthLevel)
}

func TestRegistry_AllSorted(t *testing.T) {
	all := newRegistry().All()
	require.Len(t, all, 2)
	assert.Equal(t, "Aurora", all[0].Name)
	assert.Equal(t, "Borealis", all[1].Name)
}
