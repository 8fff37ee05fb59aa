// Package credit scores sovereign risk from five weighted components and
// maps the aggregate to a 26-notch rating with traffic-light zones.
package credit

import (
	"math"

	"github.com/Theclimateguy/GIM/internal/config"
	"github.com/Theclimateguy/GIM/internal/economy"
	"github.com/Theclimateguy/GIM/internal/metrics"
	"github.com/Theclimateguy/GIM/internal/world"
)

// Rating scale and zone boundaries.
const (
	RatingMin = 1
	RatingMax = 26
	GreenMax  = 12
	YellowMax = 20
)

// Zone maps a rating notch to its traffic-light zone.
func Zone(rating int) string {
	switch {
	case rating <= GreenMax:
		return "green"
	case rating <= YellowMax:
		return "yellow"
	default:
		return "red"
	}
}

func normalize(value, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return world.Clamp01((value - lo) / (hi - lo))
}

func safeDiv(num, den float64) float64 {
	if math.Abs(den) <= 1e-9 {
		return 0
	}
	return num / den
}

func inboundSanctionPressure(w *world.WorldState, agentID string) (pressure float64, mild, strong int) {
	for _, actor := range w.Agents {
		switch actor.ActiveSanctions[agentID] {
		case world.SanctionMild:
			mild++
		case world.SanctionStrong:
			strong++
		}
	}
	pressure = world.Clamp01((float64(mild) + 2.0*float64(strong)) / 8.0)
	return pressure, mild, strong
}

func warMetrics(a *world.AgentState, w *world.WorldState) (atWar, nextYearRisk float64, warLinks, highConflictLinks int) {
	var linkRiskMax float64
	for _, target := range w.Agents {
		if target.ID == a.ID {
			continue
		}
		rel := w.Relation(a.ID, target.ID)
		if rel.AtWar {
			warLinks++
		}
		if rel.ConflictLevel >= 0.55 {
			highConflictLinks++
		}

		ownMil := math.Max(a.Technology.MilitaryPower, 1e-6)
		militaryPressure := world.Clamp01((target.Technology.MilitaryPower/ownMil - 1.0) / 1.5)
		linkRisk := 0.55*world.Clamp01(rel.ConflictLevel) +
			0.25*(1.0-world.Clamp01(rel.Trust)) +
			0.20*militaryPressure
		linkRiskMax = math.Max(linkRiskMax, linkRisk)
	}

	if warLinks > 0 {
		atWar = 1.0
	}
	nextYearRisk = world.Clamp01(
		0.65*linkRiskMax +
			0.20*world.Clamp01(a.Risk.ConflictProneness) +
			0.15*world.Clamp01(a.Political.Hawkishness))
	return atWar, nextYearRisk, warLinks, highConflictLinks
}

func sanctionRiskNextYear(a *world.AgentState, w *world.WorldState) float64 {
	var candidate float64
	for _, actor := range w.Agents {
		if actor.ID == a.ID {
			continue
		}
		rel := w.Relation(actor.ID, a.ID)
		hostility := 0.55*world.Clamp01(rel.ConflictLevel) + 0.45*(1.0-world.Clamp01(rel.Trust))
		propensity := world.Clamp01(actor.Political.SanctionPropensity)
		candidate = math.Max(candidate, world.Clamp01(0.6*hostility+0.4*propensity))
	}
	return candidate
}

func socialStructuralRisk(a *world.AgentState) (structural, management float64) {
	gini := normalize(a.Society.InequalityGini, 30.0, 65.0)
	unemployment := normalize(a.Economy.Unemployment, 0.05, 0.25)
	inflation := normalize(a.Economy.Inflation, 0.02, 0.15)
	water := world.Clamp01(a.Risk.WaterStress)

	foodYears := metrics.ReserveYears(a)[world.ResourceFood]
	foodStress := world.Clamp01((2.0 - math.Min(foodYears, 2.0)) / 2.0)

	structural = world.Clamp01(
		0.30*gini + 0.20*unemployment + 0.15*inflation + 0.20*water + 0.15*foodStress)

	socialShare := world.Clamp01(safeDiv(a.Economy.SocialSpending, math.Max(a.Economy.GDP, 1e-6)))
	management = world.Clamp01(
		0.35*world.Clamp01(a.Society.TrustGov) +
			0.25*world.Clamp01(a.Political.PolicySpace) +
			0.20*world.Clamp01(a.Risk.RegimeStability) +
			0.20*normalize(socialShare, 0.04, 0.20))
	return structural, management
}

// Components computes all five risk components and every sub-signal for
// one agent.
func Components(a *world.AgentState, w *world.WorldState, summary world.MemorySummary, p config.Params) map[string]float64 {
	gdp := math.Max(a.Economy.GDP, 1e-6)
	debtGDP := safeDiv(a.Economy.PublicDebt, gdp)
	interestRate := economy.EffectiveInterestRate(a, w, p.Economy)
	debtStress := world.Clamp01(metrics.DebtStress(a) / 3.0)
	var debtCrisisNow float64
	if a.Economy.DebtCrisised {
		debtCrisisNow = 1.0
	}

	gdpTrendRatio := safeDiv(summary.GDPTrend, gdp)
	growthDeterioration := normalize(-gdpTrendRatio, 0.01, 0.20)

	financialNow := world.Clamp01(
		0.35*normalize(debtGDP, 0.6, 1.8) +
			0.25*normalize(interestRate, 0.04, 0.20) +
			0.25*debtStress +
			0.15*debtCrisisNow)
	financialNext := world.Clamp01(0.65*debtStress + 0.35*growthDeterioration)
	financialRisk := world.Clamp01(0.60*financialNow + 0.40*financialNext)

	atWar, nextYearWarRisk, warLinks, highConflictLinks := warMetrics(a, w)
	warRisk := world.Clamp01(0.60*atWar + 0.40*nextYearWarRisk)

	protestRisk := metrics.ProtestRisk(a)
	trust := world.Clamp01(a.Society.TrustGov)
	tension := world.Clamp01(a.Society.SocialTension)
	fragility := 1.0 - world.Clamp01(a.Risk.RegimeStability)
	var collapsedNow float64
	if a.Economy.Collapsed {
		collapsedNow = 1.0
	}

	nextYearRevolutionRisk := world.Clamp01(
		0.30*protestRisk +
			0.25*tension +
			0.20*(1.0-trust) +
			0.15*fragility +
			0.10*normalize(summary.TensionTrend-summary.TrustTrend, 0.0, 0.20))

	structuralRisk, managementStrength := socialStructuralRisk(a)
	socialRisk := world.Clamp01(
		0.55*nextYearRevolutionRisk +
			0.30*structuralRisk +
			0.15*collapsedNow -
			0.20*managementStrength)

	sanctionNow, mildCount, strongCount := inboundSanctionPressure(w, a.ID)
	sanctionNext := sanctionRiskNextYear(a, w)
	sanctionsRisk := world.Clamp01(0.55*sanctionNow + 0.45*sanctionNext)

	fxBuffer := safeDiv(a.Economy.FXReserves, gdp)
	reserves := metrics.ReserveYears(a)
	reserveRisk := world.Clamp01(
		0.5*normalize(3.0-math.Min(reserves[world.ResourceEnergy], 3.0), 0.0, 3.0) +
			0.3*normalize(2.0-math.Min(reserves[world.ResourceFood], 2.0), 0.0, 2.0) +
			0.2*normalize(3.0-math.Min(reserves[world.ResourceMetals], 3.0), 0.0, 3.0))
	macroRisk := world.Clamp01(
		0.35*normalize(-gdpTrendRatio, 0.01, 0.20) +
			0.20*normalize(a.Economy.Unemployment, 0.05, 0.22) +
			0.15*normalize(a.Economy.Inflation, 0.02, 0.12) +
			0.15*normalize(0.20-math.Min(fxBuffer, 0.20), 0.0, 0.20) +
			0.15*reserveRisk)

	totalRisk := world.Clamp01(
		p.Credit.FinancialWeight*financialRisk +
			p.Credit.WarWeight*warRisk +
			p.Credit.SocialWeight*socialRisk +
			p.Credit.SanctionsWeight*sanctionsRisk +
			p.Credit.MacroWeight*macroRisk)

	return map[string]float64{
		"financial_risk":            financialRisk,
		"war_risk":                  warRisk,
		"social_risk":               socialRisk,
		"sanctions_risk":            sanctionsRisk,
		"macro_risk":                macroRisk,
		"total_risk_score":          totalRisk,
		"debt_gdp":                  debtGDP,
		"interest_rate":             interestRate,
		"debt_crisis_now":           debtCrisisNow,
		"at_war_now":                atWar,
		"war_links":                 float64(warLinks),
		"high_conflict_links":       float64(highConflictLinks),
		"protest_risk":              protestRisk,
		"next_year_revolution_risk": nextYearRevolutionRisk,
		"structural_social_risk":    structuralRisk,
		"management_strength":       managementStrength,
		"sanction_now":              sanctionNow,
		"sanction_next":             sanctionNext,
		"inbound_sanctions_mild":    float64(mildCount),
		"inbound_sanctions_strong":  float64(strongCount),
		"macro_reserve_risk":        reserveRisk,
		"gdp_trend_ratio":           gdpTrendRatio,
	}
}

// RiskToRating maps a [0,1] risk score to the notch scale.
func RiskToRating(risk float64) int {
	mapped := int(math.Round(RatingMin + world.Clamp01(risk)*(RatingMax-RatingMin)))
	if mapped < RatingMin {
		return RatingMin
	}
	if mapped > RatingMax {
		return RatingMax
	}
	return mapped
}

// UpdateRatings rescans every agent and refreshes its credit block.
func UpdateRatings(w *world.WorldState, summaries map[string]world.MemorySummary, p config.Params) {
	for _, a := range w.Agents {
		components := Components(a, w, summaries[a.ID], p)
		rating := RiskToRating(components["total_risk_score"])
		a.Credit = world.CreditState{
			Risk:    components["total_risk_score"],
			Rating:  rating,
			Zone:    Zone(rating),
			Details: components,
		}
	}
}
