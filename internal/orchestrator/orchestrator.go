package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/valpere/lequel/internal/detector"
)

type OrchestratorConfig struct {
	Timeout time.Duration
}

// OrchestratorResult holds the successful guesses in service order.
type OrchestratorResult struct {
	Guesses   []detector.Guess
	Errors    []error
	Succeeded int
	Failed    int
}

type Orchestrator struct {
	services []detector.Service
	config   OrchestratorConfig
}

func New(services []detector.Service, config OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		services: services,
		config:   config,
	}
}

// Execute runs every service concurrently, each under its own timeout.
func (o *Orchestrator) Execute(ctx context.Context, text string) *OrchestratorResult {
	result := &OrchestratorResult{
		Guesses: make([]detector.Guess, 0, len(o.services)),
		Errors:  make([]error, 0),
	}

	type outcome struct {
		res *detector.Guess
		err error
	}
	outcomes := make([]outcome, len(o.services))

	var wg sync.WaitGroup
	for i, svc := range o.services {
		wg.Add(1)
		go func(index int, service detector.Service) {
			defer wg.Done()

			serviceCtx := ctx
			if o.config.Timeout > 0 {
				var cancel context.CancelFunc
				serviceCtx, cancel = context.WithTimeout(ctx, o.config.Timeout)
				defer cancel()
			}

			res, err := service.Detect(serviceCtx, text)
			outcomes[index] = outcome{res: res, err: err}
		}(i, svc)
	}
	wg.Wait()

	for i, oc := range outcomes {
		name := o.services[i].Name()
		switch {
		case oc.err != nil:
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", name, oc.err))
			result.Failed++
		case oc.res == nil:
			result.Errors = append(result.Errors, fmt.Errorf("%s: no result", name))
			result.Failed++
		case oc.res.Error != "":
			result.Errors = append(result.Errors, fmt.Errorf("%s: %s", name, oc.res.Error))
			result.Failed++
		default:
			result.Guesses = append(result.Guesses, *oc.res)
			result.Succeeded++
		}
	}

	return result
}

// Agreement returns the services whose guess matches code, in service order.
func (r *OrchestratorResult) Agreement(code string) []string {
	var names []string
	for _, g := range r.Guesses {
		if g.Code == code {
			names = append(names, g.Service)
		}
	}
	return names
}
