package core

import (
	"context"
	"errors"
	"fmt"
	"salonbook/pkg/logger"
	"sort"
)

var (
	ErrUnknownFlow = errors.New("unknown flow")
	// ErrSkip ends a flow early without failing it.
	ErrSkip = errors.New("flow skipped")
)

type Step struct {
	Name    string
	Execute func(ctx context.Context, fc *FlowContext) error
}

func NewStep(name string, execute func(ctx context.Context, fc *FlowContext) error) Step {
	return Step{Name: name, Execute: execute}
}

type Flow struct {
	Name  string
	Steps []Step
}

type Engine struct {
	flows   map[string]Flow
	limiter *Limiter
	log     *logger.Logger
}

func NewEngine(limiter *Limiter, log *logger.Logger, flows ...Flow) *Engine {
	if limiter == nil {
		limiter = NewLimiter(MaxConcurrentCalls)
	}
	m := make(map[string]Flow, len(flows))
	for _, f := range flows {
		m[f.Name] = f
	}
	return &Engine{flows: m, limiter: limiter, log: log}
}

func (e *Engine) Has(name string) bool {
	_, ok := e.flows[name]
	return ok
}

func (e *Engine) Flows() []string {
	names := make([]string, 0, len(e.flows))
	for name := range e.flows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the steps of flow name in order under the engine's limiter.
// A step returning ErrSkip stops the flow and Run returns nil.
func (e *Engine) Run(ctx context.Context, name string, fc *FlowContext) error {
	f, ok := e.flows[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFlow, name)
	}

	return e.limiter.Do(ctx, func() error {
		e.log.Debug("Flow started",
			"flow", name,
			"event_id", fc.Event.ID,
			"in_flight", e.limiter.InFlight(),
		)
		for _, step := range f.Steps {
			err := step.Execute(ctx, fc)
			if errors.Is(err, ErrSkip) {
				e.log.Debug("Flow skipped",
					"flow", name,
					"step", step.Name,
					"event_id", fc.Event.ID,
					"reason", err,
				)
				return nil
			}
			if err != nil {
				return fmt.Errorf("%s step failed: %w", step.Name, err)
			}
		}
		return nil
	})
}
