// Package policy turns per-agent observations into yearly actions. Providers
// range from deterministic heuristics to an external language model; every
// provider degrades to the simple heuristic on failure so a run never stalls.
package policy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/Theclimateguy/GIM/internal/config"
	"github.com/Theclimateguy/GIM/internal/world"
)

// APIKeyEnv names the environment variable holding the LLM credential.
const APIKeyEnv = "GIM_LLM_API_KEY"

// Provider decides one agent's action from its observation.
type Provider interface {
	Decide(ctx context.Context, obs world.Observation) (*world.Action, error)
}

// Simple is the baseline do-nothing policy with a small income-dependent
// research nudge.
type Simple struct{}

func (Simple) Decide(_ context.Context, obs world.Observation) (*world.Action, error) {
	rd := 0.001
	switch gdpPC := obs.Economy.GDPPerCapita; {
	case gdpPC > 30000:
		rd = 0.002
	case gdpPC > 10000:
		rd = 0.003
	}
	act := world.NoOpAction(obs.AgentID, obs.Time)
	act.Domestic.RDInvestmentChange = rd
	act.Explanation = "baseline do-nothing policy"
	return act, nil
}

// Growth is a deterministic growth-seeking heuristic: poorer agents invest
// more aggressively in research and social spending.
type Growth struct{}

func (Growth) Decide(_ context.Context, obs world.Observation) (*world.Action, error) {
	rd, social := 0.006, 0.002
	switch gdpPC := obs.Economy.GDPPerCapita; {
	case gdpPC >= 40000:
		rd, social = 0.004, 0.0
	case gdpPC >= 20000:
		rd, social = 0.005, 0.001
	}
	act := world.NoOpAction(obs.AgentID, obs.Time)
	act.Domestic.RDInvestmentChange = rd
	act.Domestic.SocialSpendingChange = social
	act.Explanation = "deterministic growth-seeking policy"
	return act, nil
}

// ForMode resolves a policy mode string to a provider. Mode "auto" selects
// the external model when an API key is present and falls back to the simple
// heuristic otherwise; mode "llm" requires the key.
func ForMode(mode string, p config.LLMParams, logger *slog.Logger) (Provider, error) {
	apiKey := os.Getenv(APIKeyEnv)
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "simple":
		return Simple{}, nil
	case "growth":
		return Growth{}, nil
	case "llm":
		if apiKey == "" {
			return nil, fmt.Errorf("policy mode llm: %s is not set", APIKeyEnv)
		}
		return NewExternal(apiKey, p, logger), nil
	case "", "auto":
		if apiKey == "" {
			logger.Info("policy auto mode: no API key, using simple heuristic")
			return Simple{}, nil
		}
		return NewExternal(apiKey, p, logger), nil
	default:
		return nil, fmt.Errorf("unsupported policy mode: %q", mode)
	}
}

// DecideAll fans observations out to the provider with bounded concurrency
// and merges the results by agent id. A provider failure for one agent
// degrades that agent to the simple heuristic instead of failing the year.
func DecideAll(
	ctx context.Context,
	provider Provider,
	observations map[string]world.Observation,
	concurrency int,
	logger *slog.Logger,
) map[string]*world.Action {
	if concurrency <= 0 {
		concurrency = 1
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		actions = make(map[string]*world.Action, len(observations))
		sem     = make(chan struct{}, concurrency)
	)
	for id, obs := range observations {
		wg.Add(1)
		go func(id string, obs world.Observation) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			act, err := provider.Decide(ctx, obs)
			if err != nil {
				logger.Warn("policy provider failed, using simple heuristic",
					"agent", id, "error", err)
				act, _ = Simple{}.Decide(ctx, obs)
			}
			mu.Lock()
			actions[id] = act
			mu.Unlock()
		}(id, obs)
	}
	wg.Wait()
	return actions
}
