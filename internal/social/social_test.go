package social

import (
	"math"
	"testing"

	"github.com/Theclimateguy/GIM/internal/config"
	"github.com/Theclimateguy/GIM/internal/world"
)

func socialAgent(id string, gdp float64, pop float64) *world.AgentState {
	return &world.AgentState{
		ID:   id,
		Name: id,
		Economy: world.EconomyState{
			GDP: gdp, Capital: 3 * gdp, Population: pop,
			GDPPerCapita: gdp * 1e12 / pop,
			Unemployment: 0.06, Inflation: 0.03,
		},
		Society: world.SocietyState{TrustGov: 0.6, SocialTension: 0.3, InequalityGini: 35},
		Culture: world.CulturalState{IDV: 50},
		Risk:    world.RiskState{RegimeStability: 0.7, ConflictProneness: 0.2},
		Resources: map[string]*world.ResourceStock{
			world.ResourceEnergy: {OwnReserve: 20, Production: 100, Consumption: 100, Efficiency: 1},
			world.ResourceFood:   {OwnReserve: 10, Production: 55, Consumption: 50, Efficiency: 1},
			world.ResourceMetals: {OwnReserve: 30, Production: 20, Consumption: 20, Efficiency: 1},
		},
		ActiveSanctions: make(map[string]world.SanctionLevel),
		SanctionYears:   make(map[string]int),
	}
}

func socialWorld() *world.WorldState {
	w := world.NewWorldState(0)
	w.AddAgent(socialAgent("rich", 5.0, 50e6))
	w.AddAgent(socialAgent("mid", 1.0, 50e6))
	w.AddAgent(socialAgent("poor", 0.1, 50e6))
	for _, from := range w.Agents {
		for _, to := range w.Agents {
			if from.ID == to.ID {
				continue
			}
			w.Relations[world.Pair{From: from.ID, To: to.ID}] = &world.RelationState{
				TradeIntensity: 0.5, Trust: 0.6,
			}
		}
	}
	w.Global = world.DefaultGlobalState(config.Default().Climate)
	w.Global.BaselineGDPPC = 20000
	return w
}

func TestUpdatePopulationRatesWithinBounds(t *testing.T) {
	w := socialWorld()
	for _, a := range w.Agents {
		UpdatePopulation(a, w)
		if a.Economy.BirthRate < 0.006 || a.Economy.BirthRate > 0.04 {
			t.Errorf("%s birth rate %v out of bounds", a.ID, a.Economy.BirthRate)
		}
		if a.Economy.DeathRate < 0.004 || a.Economy.DeathRate > 0.03 {
			t.Errorf("%s death rate %v out of bounds", a.ID, a.Economy.DeathRate)
		}
		if a.Economy.Population <= 0 {
			t.Errorf("%s population went nonpositive", a.ID)
		}
	}
}

func TestUpdatePopulationScarcityRaisesDeathRate(t *testing.T) {
	w := socialWorld()
	a := w.Agent("mid")
	b := w.Agent("poor")
	a.Economy.GDPPerCapita = 5000
	b.Economy.GDPPerCapita = 5000
	food := b.Resource(world.ResourceFood)
	food.Production = 20
	food.OwnReserve = 0

	UpdatePopulation(a, w)
	UpdatePopulation(b, w)

	if b.Economy.DeathRate <= a.Economy.DeathRate {
		t.Errorf("scarcity death rate %v should exceed %v", b.Economy.DeathRate, a.Economy.DeathRate)
	}
}

func TestUpdateMigrationConservesPopulation(t *testing.T) {
	w := socialWorld()
	var before float64
	for _, a := range w.Agents {
		before += a.Economy.Population
	}

	UpdateMigration(w, config.Default().Social)

	var after float64
	for _, a := range w.Agents {
		after += a.Economy.Population
	}
	if math.Abs(after-before) > 1e-6 {
		t.Errorf("population not conserved: %v -> %v", before, after)
	}
}

func TestUpdateMigrationFlowsTowardRich(t *testing.T) {
	w := socialWorld()
	richBefore := w.Agent("rich").Economy.Population
	poorBefore := w.Agent("poor").Economy.Population

	UpdateMigration(w, config.Default().Social)

	if w.Agent("rich").Economy.Population <= richBefore {
		t.Errorf("rich agent should gain population")
	}
	if w.Agent("poor").Economy.Population >= poorBefore {
		t.Errorf("poor agent should lose population")
	}
}

func TestUpdateMigrationOutflowCapped(t *testing.T) {
	w := socialWorld()
	p := config.Default().Social
	poorBefore := w.Agent("poor").Economy.Population

	UpdateMigration(w, p)

	lost := poorBefore - w.Agent("poor").Economy.Population
	if lost > p.MigrationMaxShare*poorBefore+1e-6 {
		t.Errorf("outflow %v above cap %v", lost, p.MigrationMaxShare*poorBefore)
	}
}

func TestUpdateStateGiniStaysInRange(t *testing.T) {
	a := socialAgent("A", 1.0, 50e6)
	a.Society.InequalityGini = 69
	a.Society.SocialTension = 1.0
	a.Economy.GDPPrev = 0.5 // strong growth pushes gini up

	UpdateState(a, nil)
	if g := a.Society.InequalityGini; g < 20 || g > 70 {
		t.Errorf("gini out of range: %v", g)
	}

	a.Society.InequalityGini = 21
	act := world.NoOpAction("A", 0)
	act.Domestic.SocialSpendingChange = 0.02
	UpdateState(a, act)
	if g := a.Society.InequalityGini; g < 20 || g > 70 {
		t.Errorf("gini out of range after redistribution: %v", g)
	}
}

func TestUpdateStateSocialSpendingLowersGini(t *testing.T) {
	base := socialAgent("A", 1.0, 50e6)
	spender := socialAgent("B", 1.0, 50e6)

	UpdateState(base, world.NoOpAction("A", 0))
	act := world.NoOpAction("B", 0)
	act.Domestic.SocialSpendingChange = 0.01
	UpdateState(spender, act)

	if spender.Society.InequalityGini >= base.Society.InequalityGini {
		t.Errorf("redistribution should lower gini: %v vs %v",
			spender.Society.InequalityGini, base.Society.InequalityGini)
	}
}

func TestCheckRegimeCollapseFiresOnce(t *testing.T) {
	a := socialAgent("A", 1.0, 50e6)
	p := config.Default().Social
	a.Society.TrustGov = 0.1
	a.Society.SocialTension = 0.9

	CheckRegimeCollapse(a, p)
	if !a.Economy.Collapsed {
		t.Fatalf("collapse should have fired")
	}
	if a.Economy.GDP != 0.8 || a.Economy.Capital != 0.7*3.0 {
		t.Errorf("collapse writedown wrong: gdp=%v capital=%v", a.Economy.GDP, a.Economy.Capital)
	}
	if a.Society.TrustGov < 0.25 {
		t.Errorf("new regime trust floor not applied: %v", a.Society.TrustGov)
	}
	if a.Society.SocialTension > 0.6 {
		t.Errorf("new regime tension ceiling not applied: %v", a.Society.SocialTension)
	}

	// Trust floor lifts the agent out of the collapse region, so the flag
	// clears on the next check instead of compounding.
	CheckRegimeCollapse(a, p)
	if a.Economy.Collapsed {
		t.Errorf("flag should clear once out of the collapse region")
	}
}
