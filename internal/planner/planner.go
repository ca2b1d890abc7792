/*
Package planner turns one form submission into a workout plan. It
validates the form, calls the model once, and returns the updated
history together with a Result describing what the page should show.
*/
package planner

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fitplan/fitplan/internal/history"
	"github.com/fitplan/fitplan/internal/llm"
	"github.com/fitplan/fitplan/internal/metrics"
	"github.com/fitplan/fitplan/internal/workout"
)

// Result describes the outcome of one submission.
type Result struct {
	// Request echoes the parsed form so it can be re-rendered.
	Request workout.Request

	// Warning is set when the submission was rejected before any model
	// call because of user input.
	Warning string

	// Err is set when the model call failed. It is always an *llm.Error.
	Err error

	// Plan is set on success.
	Plan *history.Plan
}

// OK reports whether a plan was generated.
func (r Result) OK() bool {
	return r.Plan != nil
}

// Planner generates plans with a Provider.
type Planner struct {
	provider llm.Provider
	metrics  *metrics.Metrics
	now      func() time.Time
}

// New creates a Planner. m may be nil.
func New(provider llm.Provider, m *metrics.Metrics) *Planner {
	return &Planner{
		provider: provider,
		metrics:  m,
		now:      time.Now,
	}
}

// Submit handles one form submission against the caller's history h.
// On success the returned history has the new plan appended; on any
// rejection or failure h is returned unchanged.
func (p *Planner) Submit(ctx context.Context, form url.Values, h history.History) (history.History, Result) {
	logger := log.Ctx(ctx)

	req, err := workout.ParseForm(form)
	res := Result{Request: req}
	if err != nil {
		var verr *workout.ValidationError
		switch {
		case errors.Is(err, workout.ErrNoEquipment):
			res.Warning = workout.NoEquipmentWarning
			p.reject("equipment")
		case errors.As(err, &verr):
			res.Warning = verr.Error()
			p.reject(verr.Field)
		default:
			res.Warning = err.Error()
			p.reject("unknown")
		}
		logger.Info().Err(err).Msg("Submission rejected")
		return h, res
	}

	prompt := workout.BuildPrompt(req)
	logger.Info().
		Str("goal", req.Goal).
		Str("experience", req.Experience).
		Int("frequency", req.Frequency).
		Strs("equipment", req.Equipment).
		Msg("Requesting workout plan")

	start := p.now()
	text, err := p.provider.Complete(ctx, prompt)
	if p.metrics != nil {
		p.metrics.GenerationDuration.Observe(p.now().Sub(start).Seconds())
	}
	if err != nil {
		var lerr *llm.Error
		if !errors.As(err, &lerr) {
			lerr = &llm.Error{Kind: llm.KindProvider, Err: err}
		}
		if p.metrics != nil {
			p.metrics.PlanFailures.WithLabelValues(lerr.Kind.String()).Inc()
		}
		logger.Error().Err(lerr).Str("kind", lerr.Kind.String()).Msg("Plan generation failed")
		res.Err = lerr
		return h, res
	}

	plan := history.Plan{
		Text:      text,
		Request:   req,
		CreatedAt: p.now(),
	}
	if p.metrics != nil {
		p.metrics.PlansGenerated.Inc()
	}
	logger.Info().Int("chars", len(text)).Msg("Generated workout plan")

	res.Plan = &plan
	return h.Append(plan), res
}

func (p *Planner) reject(field string) {
	if p.metrics != nil {
		p.metrics.ValidationRejects.WithLabelValues(field).Inc()
	}
}
