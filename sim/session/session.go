// Package session runs simulations on behalf of concurrent clients.
//
// Each Session owns one Engine behind its own mutex, so a disruption injected
// from one goroutine never interleaves with a Step running in another.
// Sessions share nothing with each other.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chainreact/chainreact-sim/sim"
	"github.com/chainreact/chainreact-sim/sim/demand"
	"github.com/chainreact/chainreact-sim/sim/store"
)

// Session is one live simulation.
type Session struct {
	ID      string
	Created time.Time

	mu      sync.Mutex
	engine  *sim.Engine
	week    int
	pending []sim.Event
	events  []sim.Event
}

// New creates a session around a fresh engine.
func New(id string, cfg sim.EngineConfig) *Session {
	return &Session{
		ID:      id,
		Created: time.Now(),
		engine:  sim.NewEngine(cfg),
	}
}

// Week returns the last completed week, 0 before the first.
func (s *Session) Week() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.week
}

// Inject activates a disruption for the following weeks. The returned event
// is still pending; it is published with the next week, resolved to it.
func (s *Session) Inject(ctx context.Context, d sim.Disruption) sim.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := s.engine.InjectDisruptionContext(ctx, d)
	s.pending = append(s.pending, ev)
	return ev
}

// Step advances one week. Pending disruption events are bound to this week
// and published ahead of the engine's own events.
func (s *Session) Step(ctx context.Context, customerDemand int) sim.WeekState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.week++
	ws := s.engine.StepContext(ctx, s.week, customerDemand)
	if len(s.pending) > 0 {
		events := make([]sim.Event, 0, len(s.pending)+len(ws.Events))
		for _, ev := range s.pending {
			events = append(events, ev.ResolveWeek(s.week))
		}
		ws.Events = append(events, ws.Events...)
		s.pending = nil
	}
	s.events = append(s.events, ws.Events...)
	return ws
}

// Summary reports every week completed so far.
func (s *Session) Summary() sim.RunSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Summary()
}

// Events returns every event published so far, in week order.
func (s *Session) Events() []sim.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sim.Event(nil), s.events...)
}

// History returns a copy of every agent's history keyed by tier name.
func (s *Session) History() map[string]sim.History {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]sim.History, len(s.engine.Agents))
	for _, a := range s.engine.Agents {
		out[string(a.Tier)] = sim.History{
			Inventory:         append([]int(nil), a.History.Inventory...),
			PlacedOrderAmount: append([]int(nil), a.History.PlacedOrderAmount...),
			Cost:              append([]int(nil), a.History.Cost...),
		}
	}
	return out
}

// Archive builds the store record of this session.
func (s *Session) Archive(cfg sim.RunConfig, summary sim.RunSummary) store.Run {
	return store.Run{
		ID:        s.ID,
		CreatedAt: s.Created,
		Config:    cfg,
		Summary:   summary,
		History:   s.History(),
		Events:    s.Events(),
	}
}

// RunOptions drives Run.
type RunOptions struct {
	Weeks       int
	Schedule    demand.Schedule
	Disruptions []sim.ScheduledDisruption // injected just before their week
	Interval    time.Duration             // pause between weeks; 0 runs flat out
	Publish     func(sim.WeekState) error // nil discards states
}

// Run steps from the week after the last completed one through opts.Weeks.
// It stops at a week boundary when ctx is cancelled or Publish fails and
// returns the summary of the weeks completed, which stay consistent.
func (s *Session) Run(ctx context.Context, opts RunOptions) (sim.RunSummary, error) {
	if opts.Schedule == nil {
		opts.Schedule = demand.DefaultStep()
	}
	for week := s.Week() + 1; week <= opts.Weeks; week++ {
		if err := ctx.Err(); err != nil {
			logrus.Infof("session %s cancelled before week %d", s.ID, week)
			return s.Summary(), err
		}
		for _, d := range opts.Disruptions {
			if d.Week == week {
				s.Inject(ctx, d.Disruption)
			}
		}
		ws := s.Step(ctx, opts.Schedule.Demand(week))
		if opts.Publish != nil {
			if err := opts.Publish(ws); err != nil {
				return s.Summary(), fmt.Errorf("publishing week %d: %w", week, err)
			}
		}
		if opts.Interval > 0 && week < opts.Weeks {
			select {
			case <-ctx.Done():
				return s.Summary(), ctx.Err()
			case <-time.After(opts.Interval):
			}
		}
	}
	return s.Summary(), nil
}
