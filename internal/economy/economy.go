// Package economy holds the production, capital, TFP, and public-finance
// engine for one agent-year.
package economy

import (
	"math"

	"github.com/Theclimateguy/GIM/internal/climate"
	"github.com/Theclimateguy/GIM/internal/config"
	"github.com/Theclimateguy/GIM/internal/world"
)

// UpdateTFP initializes total factor productivity from observed GDP on
// first use, then grows it with R&D, trade spillovers, and technology
// diffusion from more advanced partners.
func UpdateTFP(a *world.AgentState, w *world.WorldState, p config.EconomyParams) {
	economy := &a.Economy

	if economy.TFP <= 0 {
		capital := math.Max(economy.Capital, 1e-6)
		labor := math.Max(economy.Population/1e9, 1e-3)
		energyInput := math.Max(a.Resource(world.ResourceEnergy).Consumption/1000.0, 1e-3)
		base := math.Pow(capital, p.Alpha) * math.Pow(labor, p.Beta) * math.Pow(energyInput, p.Gamma)
		if base > 0 {
			economy.TFP = economy.GDP / base
		} else {
			economy.TFP = 1.0
		}
	}

	gdp := math.Max(economy.GDP, 1e-6)
	rdShare := economy.RDSpending / gdp

	var avgTrade float64
	var n int
	for _, other := range w.Agents {
		if other.ID == a.ID {
			continue
		}
		avgTrade += w.Relation(a.ID, other.ID).EffectiveTradeIntensity()
		n++
	}
	if n > 0 {
		avgTrade /= float64(n)
	}
	spillover := 1.0 + p.TFPPsi*avgTrade

	var gapWeighted, gapWeight float64
	for _, other := range w.Agents {
		if other.ID == a.ID {
			continue
		}
		gap := math.Max(0, other.Technology.TechLevel-a.Technology.TechLevel)
		weight := math.Max(0, w.Relation(a.ID, other.ID).EffectiveTradeIntensity())
		gapWeighted += weight * gap
		gapWeight += weight
	}
	var avgGap float64
	if gapWeight > 0 {
		avgGap = gapWeighted / gapWeight
	}

	growth := p.TFPDrift + p.TFPPhi*rdShare*spillover + p.DiffusionEta*avgGap
	growth = world.Clamp(growth, -0.05, 0.05)
	economy.TFP *= 1.0 + growth
}

// UpdateCapital accumulates capital from savings, which rise with regime
// stability and fall with social tension.
func UpdateCapital(a *world.AgentState, p config.EconomyParams) {
	economy := &a.Economy
	gdp := math.Max(economy.GDP, 1e-6)
	capital := math.Max(economy.Capital, 1e-6)

	stability := world.Clamp01(a.Risk.RegimeStability)
	tension := world.Clamp01(a.Society.SocialTension)
	savingsRate := p.BaseSavings * (0.7 + 0.6*stability - 0.4*tension)
	savingsRate = world.Clamp(savingsRate, 0.05, 0.40)

	economy.Capital = math.Max(1e-6, (1.0-p.Depreciation)*capital+savingsRate*gdp)
}

// UpdateOutput moves realized GDP toward damage-adjusted potential output
// with endogenous catch-up. The production function is Cobb-Douglas in
// capital, labor, and effective energy, scaled by TFP and technology.
func UpdateOutput(a *world.AgentState, w *world.WorldState, p config.EconomyParams) {
	economy := &a.Economy
	UpdateTFP(a, w, p)

	capital := math.Max(economy.Capital, 1e-6)
	labor := math.Max(economy.Population/1e9, 1e-3)

	energy := a.Resource(world.ResourceEnergy)
	efficiency := math.Max(0.5, energy.Efficiency)
	energyInput := math.Max(energy.Consumption/1000.0*efficiency, 1e-3)

	techLevel := math.Max(0.5, a.Technology.TechLevel)
	techFactor := 1.0 + 0.6*math.Max(0, techLevel-1.0)
	potential := economy.TFP * techFactor *
		math.Pow(capital, p.Alpha) * math.Pow(labor, p.Beta) * math.Pow(energyInput, p.Gamma)

	if economy.ScaleFactor <= 0 {
		if potential > 0 {
			economy.ScaleFactor = economy.GDP / potential
		} else {
			economy.ScaleFactor = 1.0
		}
	}

	target := potential * economy.ScaleFactor * climate.EffectiveDamageMultiplier(a, w)
	if economy.ClimateShockYears > 0 {
		target *= math.Max(0, 1.0-economy.ClimateShockPenalty)
		economy.ClimateShockYears--
		if economy.ClimateShockYears <= 0 {
			economy.ClimateShockPenalty = 0
		}
	}

	// Catch-up is faster below target than above it; no exogenous growth.
	now := math.Max(economy.GDP, 1e-6)
	gap := (target - now) / now
	adjustSpeed := 0.30 + 0.35*world.Clamp01(math.Max(0, gap))
	economy.GDP = (1.0-adjustSpeed)*economy.GDP + adjustSpeed*target

	UpdateCapital(a, p)

	if economy.Population > 0 {
		economy.GDPPerCapita = economy.GDP * 1e12 / economy.Population
	}
}

// EffectiveInterestRate prices sovereign debt: base rate plus a nonlinear
// spread in excess debt, scaled by crisis proneness and fragility, plus a
// capped trade-weighted contagion term from indebted partners.
func EffectiveInterestRate(a *world.AgentState, w *world.WorldState, p config.EconomyParams) float64 {
	economy := &a.Economy

	gdp := math.Max(economy.GDP, 1e-6)
	debtGDP := economy.PublicDebt / gdp
	excess := math.Max(0, debtGDP-0.6)
	spreadRaw := 0.03*excess + 0.10*excess*excess

	fragility := 1.0 - a.Risk.RegimeStability
	spread := spreadRaw * (0.5 + 0.5*a.Risk.DebtCrisisProne) * (0.7 + 0.6*fragility)

	var contagion float64
	if w != nil {
		var stressSum, weightSum float64
		for _, partner := range w.Agents {
			if partner.ID == a.ID {
				continue
			}
			partnerGDP := math.Max(partner.Economy.GDP, 1e-6)
			partnerExcess := math.Max(0, partner.Economy.PublicDebt/partnerGDP-0.9)
			stress := partnerExcess * partner.Risk.DebtCrisisProne
			weight := math.Max(0, w.Relation(a.ID, partner.ID).EffectiveTradeIntensity())
			stressSum += weight * stress
			weightSum += weight
		}
		if weightSum > 0 {
			contagion = math.Min(0.05, 0.02*stressSum/weightSum)
		}
	}

	rate := p.BaseRate + math.Min(spread, 0.25) + contagion
	return world.Clamp(rate, 0, 0.35)
}

// UpdatePublicFinances runs the fiscal year: baseline plus policy
// spending, flat taxation, interest on debt, and deficit financing capped
// by the borrowing limit. Unspent surpluses retire debt.
func UpdatePublicFinances(a *world.AgentState, w *world.WorldState, p config.EconomyParams) {
	economy := &a.Economy
	gdp := math.Max(economy.GDP, 1e-6)

	adaptationShare := 0.005 + 0.015*math.Max(0, a.Climate.Risk)
	economy.AdaptationSpending = gdp * adaptationShare

	baseline := gdp * (p.BaseSocialShare + p.BaseMilitaryShare + adaptationShare)
	policySpending := economy.SocialSpending + economy.MilitarySpending + economy.RDSpending
	economy.GovSpending = math.Max(0, baseline+policySpending)

	economy.Taxes = p.TaxRate * gdp
	rate := EffectiveInterestRate(a, w, p)
	economy.InterestPayments = rate * economy.PublicDebt

	totalDeficit := economy.GovSpending - economy.Taxes + economy.InterestPayments

	if totalDeficit > 0 {
		economy.PublicDebt += math.Min(totalDeficit, p.MaxNewDebtShare*gdp)
	} else {
		economy.PublicDebt = math.Max(0, economy.PublicDebt+totalDeficit)
	}

	economy.RDSpending *= p.RDSpendingDecay
}

// CheckDebtCrisis fires a discrete restructuring when debt and rates are
// both past their thresholds: haircut, GDP and unemployment shock, and a
// social backlash. Fires at most once until the condition clears.
func CheckDebtCrisis(a *world.AgentState, w *world.WorldState, p config.EconomyParams) {
	economy := &a.Economy
	gdp := math.Max(economy.GDP, 1e-6)
	debtGDP := economy.PublicDebt / gdp
	rate := EffectiveInterestRate(a, w, p)

	if debtGDP > p.DebtCrisisRatio && rate > p.DebtCrisisRate {
		if !economy.DebtCrisised {
			economy.DebtCrisised = true
			economy.PublicDebt *= 0.6
			economy.GDP *= 0.9
			economy.Unemployment = math.Min(0.3, economy.Unemployment+0.05)
			a.Society.TrustGov = math.Max(0, a.Society.TrustGov-0.15)
			a.Society.SocialTension = math.Min(1.0, a.Society.SocialTension+0.15)
			a.Risk.RegimeStability = math.Max(0, a.Risk.RegimeStability-0.15)
		}
	} else {
		economy.DebtCrisised = false
	}
}
