package demand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainreact/chainreact-sim/sim"
)

func TestConstant(t *testing.T) {
	c := Constant(20)
	for week := 1; week <= 5; week++ {
		assert.Equal(t, 20, c.Demand(week))
	}
	assert.Equal(t, "constant(20)", c.Name())
}

func TestDefaultStep(t *testing.T) {
	s := DefaultStep()
	assert.Equal(t, 20, s.Demand(1))
	assert.Equal(t, 20, s.Demand(9))
	assert.Equal(t, 25, s.Demand(10))
	assert.Equal(t, 25, s.Demand(50))
}

func TestRandom_Deterministic(t *testing.T) {
	a := NewRandom(99)
	b := NewRandom(99)

	// draw b out of order; cached per week
	assert.Equal(t, b.Demand(30), a.Demand(30))
	for week := 1; week <= 60; week++ {
		assert.Equal(t, a.Demand(week), b.Demand(week), "week %d", week)
	}
}

func TestRandom_Ranges(t *testing.T) {
	r := NewRandom(1)
	spikes := 0
	for week := 1; week <= 2000; week++ {
		d := r.Demand(week)
		inNormal := d >= NormalMin && d <= NormalMax
		inSpike := d >= SpikeMin && d <= SpikeMax
		require.True(t, inNormal || inSpike, "week %d demand %d", week, d)
		if inSpike {
			spikes++
		}
	}
	// 5% of 2000 is 100; allow generous slack
	assert.Greater(t, spikes, 40)
	assert.Less(t, spikes, 200)
	assert.Equal(t, 0, r.Demand(0))
}

func TestFromConfig(t *testing.T) {
	base := 30
	week := 4
	seed := int64(5)
	tests := []struct {
		name string
		cfg  sim.DemandConfig
		want []int // weeks 1..5
	}{
		{"default is step", sim.DemandConfig{}, []int{20, 20, 20, 20, 20}},
		{"constant default", sim.DemandConfig{Kind: "constant"}, []int{20, 20, 20, 20, 20}},
		{"constant base", sim.DemandConfig{Kind: "constant", Base: &base}, []int{30, 30, 30, 30, 30}},
		{"step overrides", sim.DemandConfig{Kind: "step", ShiftWeek: &week}, []int{20, 20, 20, 25, 25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := FromConfig(tt.cfg)
			require.NoError(t, err)
			for i, want := range tt.want {
				assert.Equal(t, want, s.Demand(i+1), "week %d", i+1)
			}
		})
	}

	r, err := FromConfig(sim.DemandConfig{Kind: "random", Seed: &seed})
	require.NoError(t, err)
	assert.Equal(t, NewRandom(5).Demand(3), r.Demand(3))

	_, err = FromConfig(sim.DemandConfig{Kind: "seasonal"})
	assert.Error(t, err)
}
