// Package engine sequences the yearly simulation pipeline. Stage order is
// load-bearing: later stages read fields the earlier stages just wrote, so
// every stage commits its mutation before the next one runs.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/Theclimateguy/GIM/internal/actions"
	"github.com/Theclimateguy/GIM/internal/climate"
	"github.com/Theclimateguy/GIM/internal/config"
	"github.com/Theclimateguy/GIM/internal/credit"
	"github.com/Theclimateguy/GIM/internal/economy"
	"github.com/Theclimateguy/GIM/internal/geopolitics"
	"github.com/Theclimateguy/GIM/internal/institutions"
	"github.com/Theclimateguy/GIM/internal/memory"
	"github.com/Theclimateguy/GIM/internal/metrics"
	"github.com/Theclimateguy/GIM/internal/policy"
	"github.com/Theclimateguy/GIM/internal/politics"
	"github.com/Theclimateguy/GIM/internal/resources"
	"github.com/Theclimateguy/GIM/internal/social"
	"github.com/Theclimateguy/GIM/internal/trade"
	"github.com/Theclimateguy/GIM/internal/world"
)

// Recorder receives the per-year record stream. Implementations must not
// mutate the world.
type Recorder interface {
	// RecordActions is called after trade settlement with the filtered
	// actions, the pre-gate security intents, and the realized trades.
	RecordActions(w *world.WorldState, acts map[string]*world.Action,
		intents map[string]world.SecurityAction, realized []trade.Realized) error

	// RecordState is called at the end of every completed year.
	RecordState(w *world.WorldState) error
}

// Options toggles the two diagnostic switches of the pipeline.
type Options struct {
	ExtremeEvents    bool
	PoliticalFilters bool
	Institutions     bool
}

// DefaultOptions enables everything.
func DefaultOptions() Options {
	return Options{ExtremeEvents: true, PoliticalFilters: true, Institutions: true}
}

// Simulation owns the world and advances it one year at a time. A single
// seeded random source drives all stochastic elements, so equal seeds with
// deterministic policies replay bit for bit.
type Simulation struct {
	World *world.WorldState

	params   config.Params
	provider policy.Provider
	rng      *rand.Rand
	events   *climate.Events
	memory   *memory.Store
	recorder Recorder
	logger   *slog.Logger
	opts     Options
}

// New wires a simulation around a loaded world and runs the initial metrics,
// politics, institutions, and credit pass so year zero observations are
// complete. The recorder may be nil.
func New(
	w *world.WorldState,
	params config.Params,
	seed int64,
	provider policy.Provider,
	recorder Recorder,
	logger *slog.Logger,
	opts Options,
) *Simulation {
	rng := rand.New(rand.NewSource(seed))
	s := &Simulation{
		World:    w,
		params:   params,
		provider: provider,
		rng:      rng,
		events:   climate.NewEvents(seed, rng, params.Climate),
		memory:   memory.NewStore(params.MemoryHorizon),
		recorder: recorder,
		logger:   logger,
		opts:     opts,
	}

	metrics.ComputeRelative(w)
	politics.UpdateStates(w, params.Political)
	if opts.Institutions {
		institutions.Update(w)
	}
	credit.UpdateRatings(w, s.memory.Summaries(w), params)
	return s
}

// Step advances the world by one year.
func (s *Simulation) Step(ctx context.Context) error {
	w, p := s.World, s.params

	metrics.ComputeRelative(w)
	politics.UpdateStates(w, p.Political)
	if s.opts.Institutions {
		institutions.Update(w)
	}

	acts := s.decide(ctx)

	intents := make(map[string]world.SecurityAction, len(acts))
	for _, a := range w.Agents {
		act := acts[a.ID]
		actions.Normalize(act)
		if s.opts.PoliticalFilters {
			politics.ApplyConstraints(act, a, p.Political)
		}
		intents[a.ID] = act.Foreign.Security
	}

	politics.ResolveForeignPolicy(w, acts, p)
	geopolitics.ApplySanctionEffects(w)
	geopolitics.ApplySecurityActions(w, acts, p.Security, s.rng)
	geopolitics.UpdateActiveConflicts(w, p.War)
	politics.ApplyBarrierEffects(w)

	for _, a := range w.Agents {
		act := acts[a.ID]
		actions.ApplyDomestic(w, act)
		climate.UpdateEmissions(a, w.Time,
			act.Domestic.ClimatePolicy.ReductionFactor(), act.Domestic.TaxFuelChange, p.Climate)
	}

	realized := trade.Settle(w, acts, p.Trade)
	politics.UpdateRelations(w)

	if s.recorder != nil {
		if err := s.recorder.RecordActions(w, acts, intents, realized); err != nil {
			return fmt.Errorf("record actions: %w", err)
		}
	}

	alloc := resources.AllocateEnergy(w)
	resources.UpdateStocks(w, alloc, p.Resources)
	resources.UpdatePrices(w, p.Resources)

	climate.UpdateGlobal(w, p.Climate)
	climate.UpdateRisks(w, p.Climate)
	if s.opts.ExtremeEvents {
		s.events.Apply(w)
	}

	for _, a := range w.Agents {
		economy.UpdateOutput(a, w, p.Economy)
	}
	for _, a := range w.Agents {
		economy.UpdatePublicFinances(a, w, p.Economy)
		economy.CheckDebtCrisis(a, w, p.Economy)
	}

	social.UpdateMigration(w, p.Social)
	for _, a := range w.Agents {
		social.UpdatePopulation(a, w)
		social.UpdateState(a, acts[a.ID])
		social.CheckRegimeCollapse(a, p.Social)
	}

	metrics.ComputeRelative(w)
	s.memory.Append(w, acts)
	credit.UpdateRatings(w, s.memory.Summaries(w), p)

	w.Time++

	if s.recorder != nil {
		if err := s.recorder.RecordState(w); err != nil {
			return fmt.Errorf("record state: %w", err)
		}
	}
	return nil
}

// decide builds every agent's observation, fans them out to the provider,
// and guarantees an action for every agent.
func (s *Simulation) decide(ctx context.Context) map[string]*world.Action {
	observations := make(map[string]world.Observation, len(s.World.Agents))
	for _, a := range s.World.Agents {
		observations[a.ID] = policy.BuildObservation(s.World, a.ID, s.memory.Summarize(a.ID))
	}

	acts := policy.DecideAll(ctx, s.provider, observations, s.params.LLM.Concurrency, s.logger)
	for _, a := range s.World.Agents {
		if acts[a.ID] == nil {
			acts[a.ID] = world.NoOpAction(a.ID, s.World.Time)
		}
	}
	return acts
}

// Run advances the world by the given number of years, logging a one-line
// summary per year.
func (s *Simulation) Run(ctx context.Context, years int) error {
	for i := 0; i < years; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Step(ctx); err != nil {
			return fmt.Errorf("year %d: %w", s.World.Time, err)
		}
		s.logger.Info("year complete",
			"year", s.World.Time,
			"gdp_total", s.World.TotalGDP(),
			"co2_gt", s.World.Global.CO2,
			"temperature", s.World.Global.TemperatureGlobal,
		)
	}
	return nil
}
