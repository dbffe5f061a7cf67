// Package session wires the filter selector, coordinator and view model
// around one backend connection.
package session

import (
	"context"

	"github.com/rs/zerolog"

	"tasksync/internal/coordinator"
	"tasksync/internal/events"
	"tasksync/internal/filter"
	"tasksync/internal/service"
	"tasksync/internal/view"
)

// Options configures a Session.
type Options struct {
	Filter      filter.Filter
	Concurrency int
	Logger      *zerolog.Logger
}

// Session is one client's view of the task list.
type Session struct {
	Bus         *events.Bus
	Selector    *filter.Selector
	Coordinator *coordinator.Coordinator
	Model       *view.Model
}

// New builds a session over svc. Nothing is fetched until Load.
func New(svc service.Service, opts Options) *Session {
	bus := events.NewBus()
	selector := filter.NewSelector(opts.Filter)
	selector.OnChange(func(f filter.Filter) {
		bus.Publish(events.Event{Kind: events.FilterChanged, Filter: f})
	})

	copts := []coordinator.Option{coordinator.WithConcurrency(opts.Concurrency)}
	if opts.Logger != nil {
		copts = append(copts, coordinator.WithLogger(*opts.Logger))
	}
	coord := coordinator.New(svc, selector, bus, copts...)

	return &Session{
		Bus:         bus,
		Selector:    selector,
		Coordinator: coord,
		Model:       view.NewModel(selector, coord.Cache(), coord, bus),
	}
}

// Load fetches the task set for the active filter.
func (s *Session) Load(ctx context.Context) error {
	return s.Coordinator.Refresh(ctx)
}

// Visible returns the tasks currently shown.
func (s *Session) Visible() []service.Task {
	return s.Model.Visible()
}

// Close waits for in-flight mutations and detaches the view model.
func (s *Session) Close() {
	s.Coordinator.Wait()
	s.Model.Close()
}
