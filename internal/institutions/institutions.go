// Package institutions maintains international organizations, their
// legitimacy dynamics, and the yearly measures they apply to members.
package institutions

import (
	"math"
	"sort"

	"github.com/Theclimateguy/GIM/internal/world"
)

// Organization types drive legitimacy targets and which measures apply.
const (
	TradeOrg     = "TradeOrg"
	FinanceOrg   = "FinanceOrg"
	SecurityOrg  = "SecurityOrg"
	ClimateOrg   = "ClimateOrg"
	SocialOrg    = "SocialOrg"
	KnowledgeOrg = "KnowledgeOrg"
)

// BuildDefault seeds the standard catalog of organizations from the loaded
// world. Regional bodies are approximated by region labels and NATO by the
// Western alliance block; Security Council membership is the top five
// economies at start.
func BuildDefault(w *world.WorldState) []*world.InstitutionState {
	all := make([]string, 0, len(w.Agents))
	byRegion := make(map[string][]string)
	var western []string
	for _, a := range w.Agents {
		all = append(all, a.ID)
		byRegion[a.Region] = append(byRegion[a.Region], a.ID)
		if a.AllianceBlock == "Western" {
			western = append(western, a.ID)
		}
	}

	ranked := make([]*world.AgentState, len(w.Agents))
	copy(ranked, w.Agents)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Economy.GDP > ranked[j].Economy.GDP
	})
	var unsc []string
	for i := 0; i < len(ranked) && i < 5; i++ {
		unsc = append(unsc, ranked[i].ID)
	}

	return []*world.InstitutionState{
		{ID: "UN", Name: "United Nations", OrgType: SecurityOrg,
			Mandate: []string{"norms", "mediation"}, Members: all, Legitimacy: 0.72},
		{ID: "UNSC", Name: "UN Security Council", OrgType: SecurityOrg,
			Mandate: []string{"sanctions", "mediation"}, Members: unsc, Legitimacy: 0.68},
		{ID: "IMF", Name: "International Monetary Fund", OrgType: FinanceOrg,
			Mandate: []string{"liquidity", "stability"}, Members: all, Legitimacy: 0.65,
			BaseBudgetShare: 0.0012},
		{ID: "WorldBank", Name: "World Bank", OrgType: FinanceOrg,
			Mandate: []string{"development", "infrastructure"}, Members: all, Legitimacy: 0.62,
			BaseBudgetShare: 0.0008},
		{ID: "FSB", Name: "FSB/Basel", OrgType: FinanceOrg,
			Mandate: []string{"financial_rules"}, Members: all, Legitimacy: 0.6,
			BaseBudgetShare: 0.0003},
		{ID: "WTO", Name: "World Trade Organization", OrgType: TradeOrg,
			Mandate: []string{"trade_rules"}, Members: all, Legitimacy: 0.66},
		{ID: "EU", Name: "EU", OrgType: TradeOrg,
			Mandate: []string{"regional_trade"}, Members: byRegion["Europe"], Legitimacy: 0.7},
		{ID: "USMCA", Name: "USMCA", OrgType: TradeOrg,
			Mandate: []string{"regional_trade"}, Members: byRegion["North America"], Legitimacy: 0.7},
		{ID: "ASEAN", Name: "ASEAN", OrgType: TradeOrg,
			Mandate: []string{"regional_trade"}, Members: byRegion["East Asia"], Legitimacy: 0.62},
		{ID: "UNFCCC", Name: "UNFCCC", OrgType: ClimateOrg,
			Mandate: []string{"climate_rules"}, Members: all, Legitimacy: 0.62},
		{ID: "GCF", Name: "Green Climate Fund", OrgType: ClimateOrg,
			Mandate: []string{"climate_finance"}, Members: all, Legitimacy: 0.6,
			BaseBudgetShare: 0.0006},
		{ID: "IPCC", Name: "IPCC", OrgType: KnowledgeOrg,
			Mandate: []string{"knowledge"}, Members: all, Legitimacy: 0.78},
		{ID: "NATO", Name: "NATO", OrgType: SecurityOrg,
			Mandate: []string{"collective_defense"}, Members: western, Legitimacy: 0.65},
		{ID: "WHO", Name: "WHO", OrgType: SocialOrg,
			Mandate: []string{"health"}, Members: all, Legitimacy: 0.7},
		{ID: "ILO", Name: "ILO", OrgType: SocialOrg,
			Mandate: []string{"labor"}, Members: all, Legitimacy: 0.58},
		{ID: "UNEP_UNESCO", Name: "UNEP/UNESCO", OrgType: SocialOrg,
			Mandate: []string{"social", "education"}, Members: all, Legitimacy: 0.6},
	}
}

type globalMetrics struct {
	totalGDP   float64
	avgTrust   float64
	avgTension float64
	relTrust   float64
}

func computeMetrics(w *world.WorldState) globalMetrics {
	var m globalMetrics
	for _, a := range w.Agents {
		m.totalGDP += a.Economy.GDP
		m.avgTrust += a.Society.TrustGov
		m.avgTension += a.Society.SocialTension
	}
	if n := float64(len(w.Agents)); n > 0 {
		m.avgTrust /= n
		m.avgTension /= n
	}
	var trustSum float64
	var count int
	for _, a := range w.Agents {
		for _, b := range w.Agents {
			if a.ID == b.ID {
				continue
			}
			if rel := w.Relation(a.ID, b.ID); rel != nil {
				trustSum += rel.Trust
				count++
			}
		}
	}
	if count > 0 {
		m.relTrust = trustSum / float64(count)
	}
	return m
}

// Update refreshes legitimacy and budgets for every organization, applies
// its yearly measures, and replaces the world's institution reports. The
// catalog is built on first call.
func Update(w *world.WorldState) {
	if len(w.Institutions) == 0 {
		w.Institutions = BuildDefault(w)
	}

	m := computeMetrics(w)
	w.Reports = w.Reports[:0]

	for _, org := range w.Institutions {
		target := org.Legitimacy
		switch org.OrgType {
		case SecurityOrg, TradeOrg:
			target = world.Clamp01(0.5 + 0.5*m.relTrust)
		case FinanceOrg, SocialOrg:
			target = world.Clamp01(0.4 + 0.6*m.avgTrust)
		case ClimateOrg, KnowledgeOrg:
			target = world.Clamp01(0.45 + 0.55*(1.0-m.avgTension))
		}
		org.Legitimacy = world.Clamp01(0.95*org.Legitimacy + 0.05*target)
		org.Budget = org.BaseBudgetShare * m.totalGDP * org.Legitimacy

		applyMeasures(w, org)
	}
}

func applyMeasures(w *world.WorldState, org *world.InstitutionState) {
	if len(org.Members) == 0 {
		return
	}
	member := make(map[string]bool, len(org.Members))
	for _, id := range org.Members {
		member[id] = true
	}

	switch org.OrgType {
	case TradeOrg:
		delta := 0.01 * org.Legitimacy
		for _, a := range w.Agents {
			if !member[a.ID] {
				continue
			}
			for _, b := range w.Agents {
				if a.ID == b.ID || !member[b.ID] {
					continue
				}
				rel := w.Relation(a.ID, b.ID)
				if rel == nil || rel.TradeBarrier <= 0 {
					continue
				}
				rel.TradeBarrier = math.Max(0, rel.TradeBarrier-delta)
			}
		}
		report(w, org, "reduce_trade_barriers", "", delta)

	case FinanceOrg:
		if org.Budget <= 0 {
			return
		}
		for _, a := range w.Agents {
			if !member[a.ID] {
				continue
			}
			gdp := math.Max(a.Economy.GDP, 1e-6)
			need := math.Max(0, a.Economy.PublicDebt/gdp-1.0) +
				math.Max(0, 0.02-a.Economy.FXReserves/gdp)
			if need <= 0 {
				continue
			}
			grant := math.Min(org.Budget, 0.005*gdp)
			if grant <= 0 {
				continue
			}
			a.Economy.FXReserves += grant
			a.Economy.PublicDebt += grant
			org.Budget -= grant
			report(w, org, "liquidity_support", a.ID, grant)
			if org.Budget <= 0 {
				break
			}
		}

	case SecurityOrg:
		delta := 0.01 * org.Legitimacy
		for _, a := range w.Agents {
			if !member[a.ID] {
				continue
			}
			for _, b := range w.Agents {
				if a.ID == b.ID || !member[b.ID] {
					continue
				}
				rel := w.Relation(a.ID, b.ID)
				if rel == nil || rel.ConflictLevel < 0.25 {
					continue
				}
				rel.ConflictLevel = math.Max(0, rel.ConflictLevel-delta)
			}
		}
		report(w, org, "mediation", "", delta)

	case ClimateOrg:
		delta := 0.002 * org.Legitimacy
		for _, a := range w.Agents {
			if !member[a.ID] || a.Climate.Risk < 0.5 {
				continue
			}
			a.Climate.Risk = math.Max(0, a.Climate.Risk-delta)
		}
		report(w, org, "climate_adaptation", "", delta)

	case SocialOrg:
		delta := 0.003 * org.Legitimacy
		for _, a := range w.Agents {
			if !member[a.ID] {
				continue
			}
			a.Society.SocialTension = math.Max(0, a.Society.SocialTension-0.5*delta)
			a.Society.TrustGov = world.Clamp01(a.Society.TrustGov + 0.3*delta)
		}
		report(w, org, "social_support", "", delta)

	case KnowledgeOrg:
		report(w, org, "risk_signal", "climate", 0)
	}
}

func report(w *world.WorldState, org *world.InstitutionState, measure, target string, magnitude float64) {
	w.Reports = append(w.Reports, world.InstitutionReport{
		Time:        w.Time,
		Institution: org.ID,
		Measure:     measure,
		Target:      target,
		Magnitude:   magnitude,
	})
}
