package climate

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Theclimateguy/GIM/internal/config"
	"github.com/Theclimateguy/GIM/internal/world"
)

func climateAgent(id string) *world.AgentState {
	return &world.AgentState{
		ID:   id,
		Name: id,
		Economy: world.EconomyState{
			GDP: 1.0, Capital: 3.0, Population: 50e6,
		},
		Society:    world.SocietyState{TrustGov: 0.6, SocialTension: 0.3, InequalityGini: 35},
		Risk:       world.RiskState{RegimeStability: 0.7, WaterStress: 0.3},
		Technology: world.TechnologyState{TechLevel: 1.0},
		Climate: world.ClimateLocalState{
			Risk: 0.4, AnnualEmissions: 0.5, BiodiversityLocal: 0.8,
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

func climateWorld() *world.WorldState {
	w := world.NewWorldState(0)
	w.AddAgent(climateAgent("A"))
	w.AddAgent(climateAgent("B"))
	w.Global = world.DefaultGlobalState(config.Default().Climate)
	return w
}

func TestUpdateEmissionsFixesIntensityBaseOnce(t *testing.T) {
	a := climateAgent("A")
	p := config.Default().Climate

	UpdateEmissions(a, 0, 0, 0, p)
	base := a.Climate.IntensityBase
	if base <= 0 {
		t.Fatalf("intensity base not set")
	}

	a.Economy.GDP = 2.0
	UpdateEmissions(a, 1, 0, 0, p)
	if a.Climate.IntensityBase != base {
		t.Errorf("intensity base moved: %v -> %v", base, a.Climate.IntensityBase)
	}
}

func TestUpdateEmissionsPolicyReduces(t *testing.T) {
	a := climateAgent("A")
	b := climateAgent("B")
	p := config.Default().Climate

	UpdateEmissions(a, 0, 0, 0, p)
	UpdateEmissions(b, 0, 0.5, 0, p)

	if b.Climate.AnnualEmissions >= a.Climate.AnnualEmissions {
		t.Errorf("reduction policy should cut emissions: %v vs %v",
			b.Climate.AnnualEmissions, a.Climate.AnnualEmissions)
	}
	ratio := b.Climate.AnnualEmissions / a.Climate.AnnualEmissions
	if math.Abs(ratio-0.5) > 1e-9 {
		t.Errorf("50%% reduction ratio = %v", ratio)
	}
}

func TestUpdateEmissionsFuelTaxDampens(t *testing.T) {
	a := climateAgent("A")
	b := climateAgent("B")
	p := config.Default().Climate

	UpdateEmissions(a, 0, 0, 0, p)
	UpdateEmissions(b, 0, 0, 0.01, p)

	if b.Climate.AnnualEmissions >= a.Climate.AnnualEmissions {
		t.Errorf("fuel tax should cut emissions: %v vs %v",
			b.Climate.AnnualEmissions, a.Climate.AnnualEmissions)
	}
}

func TestUpdateGlobalAccumulatesCarbon(t *testing.T) {
	w := climateWorld()
	p := config.Default().Climate
	co2Before := w.Global.CO2

	for _, a := range w.Agents {
		a.Climate.AnnualEmissions = 20.0
	}
	UpdateGlobal(w, p)

	if w.Global.CO2 <= co2Before {
		t.Errorf("CO2 should rise with emissions: %v -> %v", co2Before, w.Global.CO2)
	}
	if len(w.Global.CarbonPools) != len(p.PoolFractions) {
		t.Errorf("pools not initialized: %d", len(w.Global.CarbonPools))
	}
	if w.Global.CO2 < config.CO2PreindustrialGt {
		t.Errorf("CO2 below preindustrial floor: %v", w.Global.CO2)
	}
}

func TestUpdateGlobalWarmsUnderForcing(t *testing.T) {
	w := climateWorld()
	p := config.Default().Climate
	for _, a := range w.Agents {
		a.Climate.AnnualEmissions = 40.0
	}

	tBefore := w.Global.TemperatureGlobal
	for i := 0; i < 30; i++ {
		UpdateGlobal(w, p)
	}
	if w.Global.TemperatureGlobal <= tBefore {
		t.Errorf("sustained emissions should warm the surface: %v -> %v",
			tBefore, w.Global.TemperatureGlobal)
	}
	if w.Global.TemperatureOcean >= w.Global.TemperatureGlobal {
		t.Errorf("deep ocean should lag the surface: ocean=%v surface=%v",
			w.Global.TemperatureOcean, w.Global.TemperatureGlobal)
	}
}

func TestUpdateRisksRelaxesTowardTarget(t *testing.T) {
	w := climateWorld()
	p := config.Default().Climate
	a := w.Agent("A")
	a.Climate.Risk = 0.0

	UpdateRisks(w, p)
	first := a.Climate.Risk
	if first <= 0 {
		t.Fatalf("risk should move toward its base target, got %v", first)
	}

	// Partial adjustment: one step covers RiskResponseRate of the gap.
	deltaT := math.Max(0, w.Global.TemperatureGlobal-config.TGlobal2023C)
	base := p.RiskBaseConst + p.RiskBaseWater*0.3 + p.RiskBaseGini*0.35
	target := base + (1.0-base)*(1.0-math.Exp(-p.RiskSensitivity*deltaT))
	if want := p.RiskResponseRate * target; math.Abs(first-want) > 1e-9 {
		t.Errorf("first step = %v, want %v", first, want)
	}

	for i := 0; i < 200; i++ {
		UpdateRisks(w, p)
	}
	if diff := math.Abs(a.Climate.Risk - target); diff > 0.01 {
		t.Errorf("risk should converge to %v, got %v", target, a.Climate.Risk)
	}
}

func TestEventsApplyShockArmsRecoveryCounter(t *testing.T) {
	w := climateWorld()
	p := config.Default().Climate
	for _, a := range w.Agents {
		a.Climate.Risk = 1.0
		a.Risk.RegimeStability = 0.0 // resilience low, probability near cap
		a.Society.TrustGov = 0.0
	}
	w.Global.TemperatureGlobal = config.TGlobal2023C + 3.0

	rng := rand.New(rand.NewSource(7))
	events := NewEvents(7, rng, p)

	hit := false
	for year := 0; year < 200 && !hit; year++ {
		w.Time = year
		events.Apply(w)
		for _, a := range w.Agents {
			if a.Economy.ClimateShockYears > 0 {
				hit = true
			}
		}
	}
	if !hit {
		t.Fatalf("no event in 200 high-risk years")
	}
	for _, a := range w.Agents {
		if a.Economy.ClimateShockYears > 0 && a.Economy.ClimateShockPenalty <= 0 {
			t.Errorf("shock armed without penalty: %+v", a.Economy)
		}
		if a.Economy.Capital > 3.0 || a.Economy.Population > 50e6 {
			t.Errorf("event should only destroy, not create: %+v", a.Economy)
		}
	}
}

func TestDamageMultiplierShape(t *testing.T) {
	mild := DamageMultiplier(config.TGlobal2023C + 0.3)
	hot := DamageMultiplier(config.TGlobal2023C + 3.0)

	if hot >= mild {
		t.Errorf("strong warming should cost more output: mild=%v hot=%v", mild, hot)
	}
	if hot < 0 {
		t.Errorf("multiplier went negative: %v", hot)
	}
	if DamageMultiplier(config.TGlobal2023C) <= 0 {
		t.Errorf("present-day multiplier should be positive")
	}
}

func TestResilienceBounds(t *testing.T) {
	a := climateAgent("A")
	if r := Resilience(a); r < 0 || r > 1 {
		t.Errorf("resilience out of range: %v", r)
	}
	a.Risk.RegimeStability = 1.0
	a.Technology.TechLevel = 3.0
	a.Society.TrustGov = 1.0
	a.Economy.AdaptationSpending = 0.1
	if r := Resilience(a); r < 0.99 {
		t.Errorf("fully endowed agent should be near 1, got %v", r)
	}
}
