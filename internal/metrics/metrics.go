// Package metrics derives relative-standing figures from raw agent state:
// GDP shares and ranks, influence scores, security margins, and the scalar
// stress indicators exposed to decision makers.
package metrics

import (
	"math"
	"sort"

	"github.com/Theclimateguy/GIM/internal/world"
)

// ReserveYears reports, per resource, how many years of current production
// the agent's own reserve covers.
func ReserveYears(a *world.AgentState) map[string]float64 {
	const eps = 1e-6
	out := make(map[string]float64, len(world.ResourceNames))
	for _, name := range world.ResourceNames {
		r := a.Resource(name)
		out[name] = r.OwnReserve / math.Max(r.Production, eps)
	}
	return out
}

// ComputeRelative refreshes GDP shares, ranks, influence scores, and
// security margins across all agents.
func ComputeRelative(w *world.WorldState) {
	totalGDP := w.TotalGDP()
	if totalGDP <= 0 {
		totalGDP = 1e-6
	}

	ranked := make([]*world.AgentState, len(w.Agents))
	copy(ranked, w.Agents)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Economy.GDP > ranked[j].Economy.GDP
	})
	rank := make(map[string]int, len(ranked))
	for i, a := range ranked {
		rank[a.ID] = i + 1
	}

	for _, a := range w.Agents {
		a.Economy.GDPShare = a.Economy.GDP / totalGDP
		a.Economy.GDPRank = rank[a.ID]

		var degree float64
		for _, other := range w.Agents {
			if other.ID == a.ID {
				continue
			}
			degree += w.Relation(a.ID, other.ID).EffectiveTradeIntensity()
		}

		pop := math.Max(a.Economy.Population, 1.0)
		a.InfluenceScore = math.Log1p(a.Economy.GDP) +
			math.Log1p(pop/1e6) +
			0.5*math.Log1p(degree)

		var milSum float64
		var milN int
		for _, other := range w.Agents {
			if other.ID == a.ID {
				continue
			}
			milSum += other.Technology.MilitaryPower
			milN++
		}
		if milN > 0 {
			avg := milSum / float64(milN)
			a.SecurityMargin = a.Technology.MilitaryPower / math.Max(avg, 1e-3)
		} else {
			a.SecurityMargin = 1.0
		}
	}
}

// DebtStress scales excess debt over 100% of GDP by the agent's structural
// debt-crisis proneness, capped at 3.
func DebtStress(a *world.AgentState) float64 {
	gdp := math.Max(a.Economy.GDP, 1e-6)
	raw := math.Max(0, a.Economy.PublicDebt/gdp-1.0)
	return math.Min(raw*a.Risk.DebtCrisisProne, 3.0)
}

// ProtestRisk combines tension, distrust, and inequality, amplified by
// regime fragility.
func ProtestRisk(a *world.AgentState) float64 {
	base := 0.6*a.Society.SocialTension +
		0.3*(1.0-a.Society.TrustGov) +
		0.1*(a.Society.InequalityGini/100.0)
	fragility := 1.0 - a.Risk.RegimeStability
	return world.Clamp01(base * (0.5 + 0.5*fragility))
}
