// Package memory keeps a rolling per-agent history of key indicators and
// summarizes it into trends for decision making and credit scoring.
package memory

import (
	"github.com/Theclimateguy/GIM/internal/world"
)

// Store holds the retained snapshots per agent, newest last.
type Store struct {
	horizon int
	history map[string][]world.MemorySnapshot
}

// NewStore returns an empty store keeping at most horizon years per agent.
func NewStore(horizon int) *Store {
	if horizon <= 0 {
		horizon = 10
	}
	return &Store{
		horizon: horizon,
		history: make(map[string][]world.MemorySnapshot),
	}
}

// Append records the current year for every agent, trimming each history
// to the configured horizon. The actions map may be nil on the first year.
func (s *Store) Append(w *world.WorldState, actions map[string]*world.Action) {
	for _, a := range w.Agents {
		snap := world.MemorySnapshot{
			Time:           w.Time,
			GDP:            a.Economy.GDP,
			GDPPerCapita:   a.Economy.GDPPerCapita,
			TrustGov:       a.Society.TrustGov,
			SocialTension:  a.Society.SocialTension,
			SecurityMargin: a.SecurityMargin,
			ClimateRisk:    a.Climate.Risk,
			CO2Emissions:   a.Climate.AnnualEmissions,
		}
		if act, ok := actions[a.ID]; ok && act != nil {
			snap.LastAction = &world.ActionDigest{
				TaxFuelChange:          act.Domestic.TaxFuelChange,
				SocialSpendingChange:   act.Domestic.SocialSpendingChange,
				MilitarySpendingChange: act.Domestic.MilitarySpendingChange,
				RDInvestmentChange:     act.Domestic.RDInvestmentChange,
				ClimatePolicy:          act.Domestic.ClimatePolicy,
			}
		}
		h := append(s.history[a.ID], snap)
		if len(h) > s.horizon {
			h = h[len(h)-s.horizon:]
		}
		s.history[a.ID] = h
	}
}

// History returns the retained snapshots for one agent, oldest first.
func (s *Store) History(agentID string) []world.MemorySnapshot {
	return s.history[agentID]
}

// Summarize condenses an agent's history into first-to-last trends plus
// the most recent decisions. An agent with no history gets a zero summary.
func (s *Store) Summarize(agentID string) world.MemorySummary {
	h := s.history[agentID]
	if len(h) == 0 {
		return world.MemorySummary{}
	}
	first, last := h[0], h[len(h)-1]

	sum := world.MemorySummary{
		Horizon:           last.Time - first.Time,
		GDPTrend:          last.GDP - first.GDP,
		GDPPerCapitaTrend: last.GDPPerCapita - first.GDPPerCapita,
		TrustTrend:        last.TrustGov - first.TrustGov,
		TensionTrend:      last.SocialTension - first.SocialTension,
		SecurityTrend:     last.SecurityMargin - first.SecurityMargin,
		ClimateRiskTrend:  last.ClimateRisk - first.ClimateRisk,
	}
	start := len(h) - 3
	if start < 0 {
		start = 0
	}
	for _, snap := range h[start:] {
		if snap.LastAction == nil {
			continue
		}
		sum.LastActions = append(sum.LastActions, snap)
	}
	return sum
}

// Summaries returns the summary for every agent, keyed by id.
func (s *Store) Summaries(w *world.WorldState) map[string]world.MemorySummary {
	out := make(map[string]world.MemorySummary, len(w.Agents))
	for _, a := range w.Agents {
		out[a.ID] = s.Summarize(a.ID)
	}
	return out
}
