package geopolitics

import (
	"math/rand"
	"testing"

	"github.com/Theclimateguy/GIM/internal/config"
	"github.com/Theclimateguy/GIM/internal/world"
)

func geoAgent(id string) *world.AgentState {
	return &world.AgentState{
		ID:            id,
		Name:          id,
		AllianceBlock: "NonAligned",
		Economy: world.EconomyState{
			GDP: 1.0, Capital: 3.0, Population: 50e6, FXReserves: 0.1,
		},
		Society: world.SocietyState{TrustGov: 0.6, SocialTension: 0.3, InequalityGini: 35},
		Culture: world.CulturalState{PDI: 50, SurvivalSelfExpression: 0, RegimeType: "Democracy"},
		Risk:    world.RiskState{RegimeStability: 0.8, ConflictProneness: 0.3},
		Technology: world.TechnologyState{
			TechLevel: 0.5, MilitaryPower: 0.5, SecurityIndex: 0.5,
		},
		Resources: map[string]*world.ResourceStock{
			world.ResourceEnergy: {OwnReserve: 20, Production: 100, Consumption: 100, Efficiency: 1},
			world.ResourceFood:   {OwnReserve: 10, Production: 50, Consumption: 50, Efficiency: 1},
			world.ResourceMetals: {OwnReserve: 30, Production: 20, Consumption: 20, Efficiency: 1},
		},
		ActiveSanctions: make(map[string]world.SanctionLevel),
		SanctionYears:   make(map[string]int),
	}
}

func geoWorld(ids ...string) *world.WorldState {
	w := world.NewWorldState(0)
	for _, id := range ids {
		w.AddAgent(geoAgent(id))
	}
	for _, from := range w.Agents {
		for _, to := range w.Agents {
			if from.ID == to.ID {
				continue
			}
			w.Relations[world.Pair{From: from.ID, To: to.ID}] = &world.RelationState{
				TradeIntensity: 0.5, Trust: 0.6, ConflictLevel: 0.1,
			}
		}
	}
	return w
}

func TestApplySanctionEffectsDamagesTarget(t *testing.T) {
	w := geoWorld("A", "B")
	w.Agent("A").ActiveSanctions["B"] = world.SanctionStrong
	gdpBefore := w.Agent("B").Economy.GDP
	barrierBefore := w.Relation("A", "B").TradeBarrier

	ApplySanctionEffects(w)

	if got := w.Agent("B").Economy.GDP; got >= gdpBefore {
		t.Errorf("target GDP should fall: %v -> %v", gdpBefore, got)
	}
	if got := w.Relation("A", "B").TradeBarrier; got <= barrierBefore {
		t.Errorf("link barrier should rise: %v -> %v", barrierBefore, got)
	}
	if got := w.Agent("B").Society.SocialTension; got <= 0.3 {
		t.Errorf("target tension should rise, got %v", got)
	}
}

func TestApplySanctionEffectsAutocracyRally(t *testing.T) {
	w := geoWorld("A", "B")
	b := w.Agent("B")
	b.Culture.RegimeType = "Autocracy"
	b.Culture.PDI = 90
	w.Agent("A").ActiveSanctions["B"] = world.SanctionStrong
	trustBefore := b.Society.TrustGov

	ApplySanctionEffects(w)

	// High power distance under autocracy: rally outweighs the bias term.
	if b.Society.TrustGov <= trustBefore {
		t.Errorf("expected rally effect, trust %v -> %v", trustBefore, b.Society.TrustGov)
	}
}

func TestApplySanctionEffectsDemocracyBlame(t *testing.T) {
	w := geoWorld("A", "B")
	b := w.Agent("B")
	b.Culture.PDI = 20
	b.Culture.SurvivalSelfExpression = 8
	w.Agent("A").ActiveSanctions["B"] = world.SanctionStrong
	trustBefore := b.Society.TrustGov

	ApplySanctionEffects(w)

	if b.Society.TrustGov >= trustBefore {
		t.Errorf("expected blame effect, trust %v -> %v", trustBefore, b.Society.TrustGov)
	}
}

func TestGateEscalationDowngradesConflict(t *testing.T) {
	p := config.Default().Security
	relAT := &world.RelationState{ConflictLevel: 0.2, Trust: 0.6}
	relTA := &world.RelationState{ConflictLevel: 0.2, Trust: 0.6}

	got := GateEscalation(world.SecurityConflict, relAT, relTA, p)
	if got != world.SecurityBorderIncident {
		t.Errorf("cold relation conflict should downgrade to border incident, got %v", got)
	}
}

func TestGateEscalationDowngradesIncident(t *testing.T) {
	p := config.Default().Security
	relAT := &world.RelationState{ConflictLevel: 0.1, Trust: 0.6}
	relTA := &world.RelationState{ConflictLevel: 0.1, Trust: 0.6}

	got := GateEscalation(world.SecurityBorderIncident, relAT, relTA, p)
	if got != world.SecurityMilitaryExercise {
		t.Errorf("low-conflict incident should downgrade to exercise, got %v", got)
	}
}

func TestGateEscalationAllowsHotConflict(t *testing.T) {
	p := config.Default().Security
	relAT := &world.RelationState{ConflictLevel: 0.8, Trust: 0.1}
	relTA := &world.RelationState{ConflictLevel: 0.8, Trust: 0.1}

	got := GateEscalation(world.SecurityConflict, relAT, relTA, p)
	if got != world.SecurityConflict {
		t.Errorf("hot relation should pass the gate, got %v", got)
	}
}

func TestApplySecurityActionsConflictStartsWar(t *testing.T) {
	w := geoWorld("A", "B")
	relAT := w.Relation("A", "B")
	relTA := w.Relation("B", "A")
	relAT.ConflictLevel = 0.8
	relTA.ConflictLevel = 0.8
	relAT.Trust = 0.1
	relTA.Trust = 0.1

	act := world.NoOpAction("A", 0)
	act.Foreign.Security = world.SecurityAction{Type: world.SecurityConflict, Target: "B"}
	gdpBefore := w.Agent("A").Economy.GDP

	rng := rand.New(rand.NewSource(1))
	ApplySecurityActions(w, map[string]*world.Action{"A": act}, config.Default().Security, rng)

	if !relAT.AtWar || !relTA.AtWar {
		t.Fatalf("expected war on both directions")
	}
	if relAT.WarStartGDP <= 0 || relAT.WarStartPop <= 0 {
		t.Errorf("war snapshot not armed: %+v", relAT)
	}
	if w.Agent("A").Economy.GDP >= gdpBefore {
		t.Errorf("opening strike should cost GDP")
	}
}

func TestApplySecurityActionsExerciseRaisesConflict(t *testing.T) {
	w := geoWorld("A", "B")
	relAT := w.Relation("A", "B")
	before := relAT.ConflictLevel

	act := world.NoOpAction("A", 0)
	act.Foreign.Security = world.SecurityAction{Type: world.SecurityMilitaryExercise, Target: "B"}
	rng := rand.New(rand.NewSource(1))
	ApplySecurityActions(w, map[string]*world.Action{"A": act}, config.Default().Security, rng)

	if relAT.ConflictLevel <= before {
		t.Errorf("exercise should raise conflict: %v -> %v", before, relAT.ConflictLevel)
	}
	if relAT.AtWar {
		t.Errorf("exercise must not start a war")
	}
}

func TestUpdateActiveConflictsAttritionAndTermination(t *testing.T) {
	w := geoWorld("A", "B")
	p := config.Default().War
	relAT := w.Relation("A", "B")
	relTA := w.Relation("B", "A")
	relAT.AtWar = true
	relTA.AtWar = true

	gdpA := w.Agent("A").Economy.GDP
	UpdateActiveConflicts(w, p)

	if w.Agent("A").Economy.GDP >= gdpA {
		t.Errorf("attrition should cost GDP")
	}
	if relAT.WarYears != 1 {
		t.Errorf("war years = %d, want 1", relAT.WarYears)
	}

	// Push side A under the exhaustion floor; the war must end with A
	// losing and B winning.
	w.Agent("A").Economy.GDP = p.GDPExhaustion * relAT.WarStartGDP * 0.5
	trustB := w.Agent("B").Society.TrustGov
	UpdateActiveConflicts(w, p)

	if relAT.AtWar || relTA.AtWar {
		t.Fatalf("war should have terminated")
	}
	if relAT.WarYears != 0 || relAT.WarStartGDP != 0 {
		t.Errorf("war snapshot should reset, got %+v", relAT)
	}
	if w.Agent("B").Society.TrustGov <= trustB {
		t.Errorf("winner trust should rise")
	}
	if w.Agent("A").Technology.MilitaryPower >= 0.5 {
		t.Errorf("loser military power should shrink, got %v", w.Agent("A").Technology.MilitaryPower)
	}
}

func TestUpdateActiveConflictsMutualExhaustion(t *testing.T) {
	w := geoWorld("A", "B")
	p := config.Default().War
	relAT := w.Relation("A", "B")
	relTA := w.Relation("B", "A")
	relAT.AtWar = true
	relTA.AtWar = true
	UpdateActiveConflicts(w, p)

	w.Agent("A").Economy.GDP = p.GDPExhaustion * relAT.WarStartGDP * 0.5
	w.Agent("B").Economy.GDP = p.GDPExhaustion * relTA.WarStartGDP * 0.5
	UpdateActiveConflicts(w, p)

	if relAT.AtWar {
		t.Fatalf("war should have terminated")
	}
	if relAT.ConflictLevel != 0.45 {
		t.Errorf("mutual exhaustion conflict = %v, want 0.45", relAT.ConflictLevel)
	}
	for _, id := range []string{"A", "B"} {
		if got := w.Agent(id).Technology.MilitaryPower; got >= 0.5 {
			t.Errorf("%s military power should shrink, got %v", id, got)
		}
	}
}
