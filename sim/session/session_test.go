package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainreact/chainreact-sim/sim"
	"github.com/chainreact/chainreact-sim/sim/demand"
	"github.com/chainreact/chainreact-sim/sim/narrate"
)

func TestSession_InjectBindsEventToNextWeek(t *testing.T) {
	// GIVEN a session five weeks in
	s := New("s1", sim.EngineConfig{Narrator: narrate.Template{}})
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.Step(ctx, 20)
	}

	// WHEN a spike is injected and the next week runs
	pending := s.Inject(ctx, sim.Disruption{Type: sim.DisruptionDemandSpike, Value: 60, Duration: 3})
	ws := s.Step(ctx, 20)

	// THEN the disruption event is published with week 6 first
	assert.True(t, pending.Pending())
	require.NotEmpty(t, ws.Events)
	ev := ws.Events[0]
	assert.Equal(t, sim.SeverityCritical, ev.Severity)
	assert.Equal(t, 6, ev.Week)
	assert.Contains(t, ev.Text, "week 6")
	assert.Equal(t, 60, ws.CustomerDemand)

	// AND it is published only once
	next := s.Step(ctx, 20)
	assert.Empty(t, next.Events)
	assert.Len(t, s.Events(), 1)
}

func TestSession_RunStepScenario(t *testing.T) {
	s := New("s2", sim.EngineConfig{})
	var weeks []int

	summary, err := s.Run(context.Background(), RunOptions{
		Weeks:    50,
		Schedule: demand.DefaultStep(),
		Publish: func(ws sim.WeekState) error {
			weeks = append(weeks, ws.Week)
			return nil
		},
	})

	require.NoError(t, err)
	assert.Len(t, weeks, 50)
	assert.Equal(t, 1, weeks[0])
	assert.Equal(t, 50, weeks[49])
	assert.Equal(t, map[string]int{"Factory": 19375, "Distributor": 19545, "Wholesaler": 12665, "Retailer": 4975}, summary.TotalCosts)
}

func TestSession_RunScheduledDisruption(t *testing.T) {
	s := New("s3", sim.EngineConfig{})
	var states []sim.WeekState

	_, err := s.Run(context.Background(), RunOptions{
		Weeks:    9,
		Schedule: demand.Constant(20),
		Disruptions: []sim.ScheduledDisruption{
			{Week: 6, Disruption: sim.Disruption{Type: sim.DisruptionDemandSpike, Value: 60, Duration: 3}},
		},
		Publish: func(ws sim.WeekState) error {
			states = append(states, ws)
			return nil
		},
	})

	require.NoError(t, err)
	require.Len(t, states, 9)
	for _, ws := range states {
		want := 20
		if ws.Week >= 6 && ws.Week <= 8 {
			want = 60
		}
		assert.Equal(t, want, ws.CustomerDemand, "week %d", ws.Week)
	}
	require.NotEmpty(t, states[5].Events)
	assert.Equal(t, sim.KindDisruption, states[5].Events[0].Kind)
	assert.Equal(t, 6, states[5].Events[0].Data["week"])
}

func TestSession_RunStopsAtWeekBoundaryOnCancel(t *testing.T) {
	// GIVEN a run whose client goes away after week 3
	s := New("s4", sim.EngineConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	summary, err := s.Run(ctx, RunOptions{
		Weeks: 50,
		Publish: func(ws sim.WeekState) error {
			if ws.Week == 3 {
				cancel()
			}
			return nil
		},
	})

	// THEN the run ends cleanly with three consistent weeks
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 3, s.Week())
	assert.Equal(t, 3, summary.Weeks)
	for tier, h := range s.History() {
		assert.Len(t, h.Inventory, 4, tier)
		assert.Len(t, h.PlacedOrderAmount, 4, tier)
		assert.Len(t, h.Cost, 4, tier)
	}
}

func TestSession_RunResumes(t *testing.T) {
	s := New("s5", sim.EngineConfig{})
	ctx := context.Background()
	_, err := s.Run(ctx, RunOptions{Weeks: 4})
	require.NoError(t, err)

	summary, err := s.Run(ctx, RunOptions{Weeks: 6})

	require.NoError(t, err)
	assert.Equal(t, 6, summary.Weeks)
}

func TestSession_RunPublishError(t *testing.T) {
	s := New("s6", sim.EngineConfig{})
	boom := errors.New("client gone")

	_, err := s.Run(context.Background(), RunOptions{
		Weeks:   10,
		Publish: func(sim.WeekState) error { return boom },
	})

	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 1, s.Week())
}

func TestSession_ConcurrentInjectAndRun(t *testing.T) {
	s := New("s7", sim.EngineConfig{})
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.Run(ctx, RunOptions{Weeks: 40})
		assert.NoError(t, err)
	}()
	for i := 0; i < 20; i++ {
		s.Inject(ctx, sim.Disruption{Type: sim.DisruptionDemandSpike, Value: 30 + i, Duration: 1})
	}
	wg.Wait()

	assert.Equal(t, 40, s.Week())
	for tier, h := range s.History() {
		assert.Len(t, h.Cost, 41, tier)
	}
}

func TestSession_Archive(t *testing.T) {
	s := New("s8", sim.EngineConfig{})
	summary, err := s.Run(context.Background(), RunOptions{Weeks: 12, Schedule: demand.Constant(20)})
	require.NoError(t, err)

	run := s.Archive(sim.RunConfig{Weeks: 12}, summary)

	assert.Equal(t, "s8", run.ID)
	assert.Equal(t, 12, run.Summary.Weeks)
	assert.Len(t, run.History["Retailer"].Inventory, 13)
	assert.Len(t, run.Events, 1)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	s := r.Create(sim.EngineConfig{})
	assert.Len(t, s.ID, 36)
	assert.Equal(t, 1, r.Len())

	got, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	ev, err := r.Inject(context.Background(), s.ID, sim.Disruption{Type: sim.DisruptionDemandSpike, Value: 60, Duration: 1})
	require.NoError(t, err)
	assert.Equal(t, sim.KindDisruption, ev.Kind)

	_, err = r.Inject(context.Background(), "nope", sim.Disruption{Type: sim.DisruptionDemandSpike})
	assert.True(t, errors.Is(err, ErrNotFound))

	other := r.Create(sim.EngineConfig{})
	r.Remove(s.ID)
	_, err = r.Get(s.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = r.Get(other.ID)
	assert.NoError(t, err, "removing one session leaves others alone")
	r.Remove("unknown")
	assert.Equal(t, 1, r.Len())
}
