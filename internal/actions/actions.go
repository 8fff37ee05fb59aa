// Package actions validates raw agent decisions and applies the domestic
// levers to agent state.
package actions

import (
	"math"
	"strings"

	"github.com/Theclimateguy/GIM/internal/world"
)

// Normalize clamps every lever of a raw decision to its hard bounds and
// drops malformed entries. Decisions from any provider pass through here
// before touching the world.
func Normalize(action *world.Action) {
	dom := &action.Domestic
	dom.TaxFuelChange = world.Clamp(dom.TaxFuelChange, -1.5, 1.5)
	dom.SocialSpendingChange = world.Clamp(dom.SocialSpendingChange, -0.015, 0.02)
	dom.MilitarySpendingChange = world.Clamp(dom.MilitarySpendingChange, -0.01, 0.015)
	dom.RDInvestmentChange = world.Clamp(dom.RDInvestmentChange, -0.002, 0.008)
	switch dom.ClimatePolicy {
	case world.ClimateNone, world.ClimateWeak, world.ClimateModerate, world.ClimateStrong:
	default:
		dom.ClimatePolicy = world.ClimateNone
	}

	fp := &action.Foreign
	if len(fp.TradeDeals) > 4 {
		fp.TradeDeals = fp.TradeDeals[:4]
	}
	for i := range fp.TradeDeals {
		deal := &fp.TradeDeals[i]
		deal.VolumeChange = world.Clamp(deal.VolumeChange, 0.0, 50.0)
		switch deal.Resource {
		case world.ResourceEnergy, world.ResourceFood, world.ResourceMetals:
		default:
			deal.Resource = world.ResourceEnergy
		}
		switch deal.Direction {
		case world.DirectionImport, world.DirectionExport:
		default:
			deal.Direction = world.DirectionImport
		}
		switch deal.PricePreference {
		case world.PriceCheap, world.PriceFair, world.PricePremium:
		default:
			deal.PricePreference = world.PriceFair
		}
	}

	if len(fp.Sanctions) > 2 {
		fp.Sanctions = fp.Sanctions[:2]
	}
	kept := fp.Sanctions[:0]
	for _, s := range fp.Sanctions {
		s.Target = strings.TrimSpace(s.Target)
		if s.Target == "" {
			continue
		}
		switch s.Type {
		case world.SanctionNone, world.SanctionMild, world.SanctionStrong:
		default:
			s.Type = world.SanctionNone
		}
		kept = append(kept, s)
	}
	fp.Sanctions = kept

	if len(fp.TradeRestrictions) > 2 {
		fp.TradeRestrictions = fp.TradeRestrictions[:2]
	}
	keptR := fp.TradeRestrictions[:0]
	for _, r := range fp.TradeRestrictions {
		r.Target = strings.TrimSpace(r.Target)
		if r.Target == "" {
			continue
		}
		switch r.Level {
		case world.RestrictionNone, world.RestrictionSoft, world.RestrictionHard:
		default:
			r.Level = world.RestrictionNone
		}
		keptR = append(keptR, r)
	}
	fp.TradeRestrictions = keptR

	switch fp.Security.Type {
	case world.SecurityNone, world.SecurityMilitaryExercise, world.SecurityArmsBuildup,
		world.SecurityBorderIncident, world.SecurityConflict:
	default:
		fp.Security.Type = world.SecurityNone
	}
	fp.Security.Target = strings.TrimSpace(fp.Security.Target)

	// Finance levers are sanitized for the action history only; nothing
	// downstream applies them.
	action.Finance.BorrowFromGlobalMarkets = math.Max(0, action.Finance.BorrowFromGlobalMarkets)
}

// capFiscalExpansion bounds the combined positive spending impulse. Highly
// indebted governments get a tighter cap.
func capFiscalExpansion(dom *world.DomesticPolicy, debtGDP float64) {
	expansion := math.Max(0, dom.SocialSpendingChange) +
		math.Max(0, dom.MilitarySpendingChange) +
		math.Max(0, dom.RDInvestmentChange)
	maxExpansion := 0.03
	if debtGDP > 1.2 {
		maxExpansion = 0.02
	}
	if expansion > maxExpansion && expansion > 0 {
		scale := maxExpansion / expansion
		dom.SocialSpendingChange *= scale
		dom.MilitarySpendingChange *= scale
		dom.RDInvestmentChange *= scale
	}
}

// ApplyDomestic applies one agent's domestic levers: fuel taxation, social,
// military, and R&D spending shifts, and the declared climate policy. The
// social reaction to each lever is shaped by culture and regime type.
func ApplyDomestic(w *world.WorldState, action *world.Action) {
	agent := w.Agent(action.AgentID)
	if agent == nil {
		return
	}
	dom := &action.Domestic
	debtGDP := agent.Economy.PublicDebt / math.Max(agent.Economy.GDP, 1e-6)
	capFiscalExpansion(dom, debtGDP)

	economy := &agent.Economy
	society := &agent.Society
	culture := &agent.Culture
	tech := &agent.Technology

	if math.Abs(dom.TaxFuelChange) > 1e-6 {
		uaiFactor := culture.UAI / 100.0
		pdiFactor := 1.0 - (culture.PDI/100.0)*0.5

		regimeTensionMult := 1.0
		switch culture.RegimeType {
		case "Democracy":
			regimeTensionMult = 1.2
		case "Autocracy":
			regimeTensionMult = 0.8
		}

		sensitivityTax := uaiFactor * (1.0 + math.Max(0, economy.Unemployment-0.05)) * pdiFactor
		sensitivityIneq := (culture.IDV / 100.0) * (society.InequalityGini / 100.0) * regimeTensionMult

		economy.GDP *= math.Max(0, 1.0-0.0012*dom.TaxFuelChange)
		society.TrustGov = world.Clamp01(society.TrustGov - 0.02*dom.TaxFuelChange*sensitivityTax)
		society.SocialTension = world.Clamp01(society.SocialTension + 0.02*dom.TaxFuelChange*sensitivityIneq)
	}

	if math.Abs(dom.SocialSpendingChange) > 1e-6 {
		delta := dom.SocialSpendingChange * economy.GDP
		economy.SocialSpending += delta
		economy.GovSpending += delta
		economy.PublicDebt += delta

		share := delta / math.Max(economy.GDP, 1e-6)
		society.TrustGov = world.Clamp01(society.TrustGov + 0.1*share)
		society.SocialTension = world.Clamp01(society.SocialTension - 0.08*share)
	}

	if math.Abs(dom.MilitarySpendingChange) > 1e-6 {
		delta := dom.MilitarySpendingChange * economy.GDP
		economy.MilitarySpending += delta
		economy.GovSpending += delta
		economy.PublicDebt += delta

		gain := 0.3 * dom.MilitarySpendingChange * (1.0 + 0.5*(tech.TechLevel-1.0))
		tech.MilitaryPower = math.Max(0, tech.MilitaryPower*(1.0+gain))

		masFactor := culture.MAS / 100.0
		selfExpression := culture.SurvivalSelfExpression / 10.0
		regimeMult := 1.0
		switch culture.RegimeType {
		case "Democracy":
			regimeMult = 1.3
		case "Autocracy":
			regimeMult = 0.8
		}

		var trustDelta float64
		if tech.SecurityIndex < 0.4 {
			trustDelta = 0.02 * dom.MilitarySpendingChange * (0.8 + 0.6*masFactor)
		} else {
			trustDelta = -0.03 * dom.MilitarySpendingChange * (0.5 + selfExpression) * (1.0 - masFactor) * regimeMult
		}
		society.TrustGov = world.Clamp01(society.TrustGov + trustDelta)
	}

	if math.Abs(dom.RDInvestmentChange) > 1e-6 {
		delta := dom.RDInvestmentChange * economy.GDP
		economy.RDSpending += delta
		economy.GovSpending += delta
		economy.PublicDebt += delta

		tech.TechLevel = math.Max(0.5, tech.TechLevel*(1.0+0.08*dom.RDInvestmentChange))
		for _, name := range world.ResourceNames {
			agent.Resource(name).Efficiency *= math.Exp(-0.02 * dom.RDInvestmentChange)
		}
	}

	if dom.ClimatePolicy != world.ClimateNone {
		reduction := dom.ClimatePolicy.ReductionFactor()
		agent.Climate.AnnualEmissions *= 1.0 - reduction
		economy.GDP *= math.Max(0, 1.0-0.003*reduction)

		var intensity float64
		switch dom.ClimatePolicy {
		case world.ClimateWeak:
			intensity = 0.01
		case world.ClimateModerate:
			intensity = 0.03
		case world.ClimateStrong:
			intensity = 0.07
		}

		selfExpression := culture.SurvivalSelfExpression / 10.0
		base := intensity * (agent.Climate.Risk - 0.5)
		var trustDelta float64
		if base >= 0 {
			trustDelta = base * (0.5 + selfExpression)
		} else {
			trustDelta = base * (1.5 - selfExpression)
		}
		if culture.RegimeType == "Democracy" {
			trustDelta *= 1.2
		}
		society.TrustGov = world.Clamp01(society.TrustGov + trustDelta)
		if agent.Climate.Risk > 0.5 && selfExpression > 0.5 {
			society.SocialTension = math.Max(0, society.SocialTension-0.01*intensity*selfExpression)
		}
	}
}
