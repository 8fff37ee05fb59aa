// Package social evolves population, migration, trust, tension,
// inequality, and regime collapse.
package social

import (
	"math"

	"github.com/Theclimateguy/GIM/internal/config"
	"github.com/Theclimateguy/GIM/internal/world"
)

// UpdatePopulation sets birth and death rates from income, food scarcity,
// inequality, and relative prosperity, then grows the population.
func UpdatePopulation(a *world.AgentState, w *world.WorldState) {
	gdpPC := a.Economy.GDPPerCapita
	gini := a.Society.InequalityGini / 100.0

	food := a.Resource(world.ResourceFood)
	availability := (food.Production + 0.2*food.OwnReserve) / math.Max(food.Consumption, 1e-6)
	availability = world.Clamp(availability, 0, 2.0)
	scarcity := math.Max(0, 1.0-availability)

	baseline := w.Global.BaselineGDPPC
	if baseline <= 0 {
		baseline = 1.0
	}
	ratio := math.Max(gdpPC/baseline, 1e-6)
	prosperity := 1.0 / (1.0 + math.Exp(-1.2*math.Log(ratio)))

	birthRate := (0.025 - 0.000001*gdpPC) *
		(1.0 - 0.5*prosperity) * (1.0 - 0.6*scarcity) * (1.0 - 0.3*gini)
	a.Economy.BirthRate = world.Clamp(birthRate, 0.006, 0.04)

	deathRate := (0.012 - 0.0000005*gdpPC) *
		(1.0 + 1.0*scarcity + 0.4*gini) * (1.0 - 0.2*prosperity)
	a.Economy.DeathRate = world.Clamp(deathRate, 0.004, 0.03)

	a.Economy.Population *= 1.0 + a.Economy.BirthRate - a.Economy.DeathRate
}

// UpdateMigration moves population from poor or conflict-prone agents
// toward richer partners along trade links. Flows are netted first, so
// total population is conserved exactly.
func UpdateMigration(w *world.WorldState, p config.SocialParams) {
	baseline := w.Global.BaselineGDPPC
	if baseline <= 0 {
		baseline = 1.0
	}

	gdpPC := make(map[string]float64, len(w.Agents))
	for _, a := range w.Agents {
		v := a.Economy.GDPPerCapita
		if v <= 0 {
			v = a.Economy.GDP * 1e12 / math.Max(a.Economy.Population, 1.0)
		}
		gdpPC[a.ID] = v
	}

	netFlows := make(map[string]float64, len(w.Agents))

	for _, origin := range w.Agents {
		incomeGap := math.Max(0, (baseline-gdpPC[origin.ID])/baseline)
		push := 0.6*incomeGap + 0.4*world.Clamp01(origin.Risk.ConflictProneness)
		if push <= 0 {
			continue
		}

		population := origin.Economy.Population
		outflow := math.Min(p.MigrationBaseRate*population*push, p.MigrationMaxShare*population)
		if outflow <= 0 {
			continue
		}

		weights := make(map[string]float64)
		var totalWeight float64
		for _, dest := range w.Agents {
			if dest.ID == origin.ID {
				continue
			}
			gap := math.Max(0, (gdpPC[dest.ID]-gdpPC[origin.ID])/baseline)
			if gap <= 0 {
				continue
			}
			tradeWeight := math.Max(0, w.Relation(origin.ID, dest.ID).EffectiveTradeIntensity())
			weight := tradeWeight * gap * (1.0 - 0.5*world.Clamp01(dest.Risk.ConflictProneness))
			if weight <= 0 {
				continue
			}
			weights[dest.ID] = weight
			totalWeight += weight
		}
		if totalWeight <= 0 {
			continue
		}

		for _, dest := range w.Agents {
			weight, ok := weights[dest.ID]
			if !ok {
				continue
			}
			flow := outflow * weight / totalWeight
			netFlows[origin.ID] -= flow
			netFlows[dest.ID] += flow
		}
	}

	for _, a := range w.Agents {
		if delta := netFlows[a.ID]; delta != 0 {
			a.Economy.Population = math.Max(0, a.Economy.Population+delta)
		}
	}
}

// UpdateState advances trust, tension, and inequality. Trust and tension
// damp each other through anchor terms rather than reinforcing.
func UpdateState(a *world.AgentState, action *world.Action) {
	economy := &a.Economy
	society := &a.Society

	trustChange := 0.00005*(economy.GDPPerCapita/10000.0) -
		0.025*economy.Unemployment -
		0.025*economy.Inflation -
		0.0004*society.InequalityGini -
		0.08*math.Max(0, society.SocialTension-0.3)
	society.TrustGov = world.Clamp01(society.TrustGov + trustChange)

	inequalitySensitivity := 1.0 - a.Culture.IDV/100.0
	tensionChange := 0.0005*society.InequalityGini*inequalitySensitivity +
		0.01*economy.Unemployment +
		0.005*economy.Inflation +
		0.06*(0.5-society.TrustGov)
	society.SocialTension = world.Clamp01(society.SocialTension + tensionChange)

	prevGDP := economy.GDPPrev
	if prevGDP <= 0 {
		prevGDP = economy.GDP
	}
	gdpGrowth := (economy.GDP - prevGDP) / math.Max(prevGDP, 1e-6)
	economy.GDPPrev = economy.GDP

	var socialSpendDelta float64
	if action != nil {
		socialSpendDelta = action.Domestic.SocialSpendingChange
	}
	giniNext := society.InequalityGini +
		6.0*gdpGrowth +
		4.0*math.Abs(math.Min(0, gdpGrowth))*(0.5+society.SocialTension) -
		60.0*socialSpendDelta +
		1.2*(society.SocialTension-0.4)
	society.InequalityGini = world.Clamp(giniNext, 20.0, 70.0)
}

// CheckRegimeCollapse fires a discrete collapse when trust and tension
// cross their thresholds together: capital, GDP, and debt are written
// down, the new regime starts with a trust floor and a tension ceiling.
func CheckRegimeCollapse(a *world.AgentState, p config.SocialParams) {
	if a.Society.TrustGov < p.CollapseTrust && a.Society.SocialTension > p.CollapseTension {
		if !a.Economy.Collapsed {
			a.Economy.Collapsed = true
			a.Economy.Capital *= 0.7
			a.Economy.GDP *= 0.8
			a.Economy.PublicDebt *= 0.7
			a.Society.TrustGov = math.Max(a.Society.TrustGov, 0.25)
			a.Society.SocialTension = math.Min(a.Society.SocialTension, 0.6)
			a.Risk.RegimeStability = math.Max(0, a.Risk.RegimeStability-0.2)
		}
	} else {
		a.Economy.Collapsed = false
	}
}
