// Package climate couples the economy to a reduced-form earth system: an
// emissions model, a multi-pool carbon cycle, a two-layer energy balance,
// endogenous climate risk, extreme events, and biodiversity.
package climate

import (
	"math"
	"math/rand"

	"github.com/ojrac/opensimplex-go"

	"github.com/Theclimateguy/GIM/internal/config"
	"github.com/Theclimateguy/GIM/internal/world"
)

// Resilience is an agent's capacity to cope with climate shocks, from
// institutions, technology, trust, and adaptation spending.
func Resilience(a *world.AgentState) float64 {
	techRes := world.Clamp01(a.Technology.TechLevel / 2.0)
	gdp := math.Max(a.Economy.GDP, 1e-6)
	adaptShare := math.Max(0, a.Economy.AdaptationSpending) / gdp
	adaptRes := world.Clamp01(adaptShare / 0.03)
	return world.Clamp01(
		0.40*a.Risk.RegimeStability +
			0.30*techRes +
			0.15*a.Society.TrustGov +
			0.15*adaptRes)
}

// UpdateEmissions recomputes one agent's annual emissions from GDP and an
// intensity that decays with technology, efficiency, time, and fuel taxes.
func UpdateEmissions(a *world.AgentState, t int, policyReduction, fuelTaxChange float64, p config.ClimateParams) {
	gdp := math.Max(a.Economy.GDP, 1e-6)
	if a.Climate.IntensityBase <= 0 {
		base := a.Climate.AnnualEmissions / gdp
		if base <= 0 {
			base = 0.02
		}
		a.Climate.IntensityBase = base
	}

	tech := math.Max(0.5, a.Technology.TechLevel)
	techFactor := math.Exp(-p.TechDecarbK * math.Max(0, tech-1.0))
	efficiency := math.Max(0.5, a.Resource(world.ResourceEnergy).Efficiency)
	timeFactor := math.Exp(-p.TimeDecarbK * math.Max(0, float64(t)))
	taxEffect := world.Clamp(1.0-p.FuelTaxK*fuelTaxChange, p.TaxEffectMin, p.TaxEffectMax)

	intensity := a.Climate.IntensityBase * techFactor / efficiency * timeFactor * taxEffect
	reduction := world.Clamp(policyReduction, 0, 0.9)
	a.Climate.AnnualEmissions = math.Max(0, gdp*intensity*(1.0-reduction)*p.EmissionsScale)
}

func normalizeFractions(fractions []float64) []float64 {
	var total float64
	for _, f := range fractions {
		total += f
	}
	if total <= 0 {
		return []float64{1.0}
	}
	out := make([]float64, len(fractions))
	for i, f := range fractions {
		out[i] = f / total
	}
	return out
}

func initPools(w *world.WorldState, fractions []float64) {
	excess := math.Max(0, w.Global.CO2-config.CO2PreindustrialGt)
	pools := make([]float64, len(fractions))
	for i, f := range fractions {
		pools[i] = excess * f
	}
	w.Global.CarbonPools = pools
}

// UpdateGlobal advances the carbon cycle, radiative forcing, the two-layer
// temperature response, the biodiversity index, and local degradation.
func UpdateGlobal(w *world.WorldState, p config.ClimateParams) {
	var totalEmissions float64
	for _, a := range w.Agents {
		totalEmissions += a.Climate.AnnualEmissions
	}

	fractions := normalizeFractions(p.PoolFractions)
	timescales := make([]float64, len(fractions))
	for i := range timescales {
		if i < len(p.PoolTimescales) {
			timescales[i] = p.PoolTimescales[i]
		} else {
			timescales[i] = math.Inf(1)
		}
	}
	if len(w.Global.CarbonPools) != len(fractions) {
		initPools(w, fractions)
	}

	const dt = 1.0
	pools := w.Global.CarbonPools
	var poolSum float64
	for i := range pools {
		decay := 1.0
		if tau := timescales[i]; !math.IsInf(tau, 0) && tau > 0 {
			decay = math.Exp(-dt / tau)
		}
		pools[i] = pools[i]*decay + fractions[i]*totalEmissions
		poolSum += pools[i]
	}
	w.Global.CO2 = math.Max(config.CO2PreindustrialGt+poolSum, config.CO2PreindustrialGt)

	cPPM := math.Max(1e-6, w.Global.CO2/config.GtCO2PerPpm)
	c0PPM := config.CO2PreindustrialGt / config.GtCO2PerPpm
	fCO2 := 5.35 * math.Log(cPPM/c0PPM)
	fTotal := fCO2 + p.ForcingNonCO2
	w.Global.ForcingTotal = fTotal

	ecs := world.Clamp(p.ECS, p.ECSMin, p.ECSMax)
	feedback := config.F2xCO2WM2 / ecs
	tSurface := w.Global.TemperatureGlobal
	tOcean := w.Global.TemperatureOcean
	dts := (fTotal - feedback*tSurface - p.OceanExchange*(tSurface-tOcean)) * dt / math.Max(p.HeatCapSurface, 1e-6)
	dtd := p.OceanExchange * (tSurface - tOcean) * dt / math.Max(p.HeatCapDeep, 1e-6)
	w.Global.TemperatureGlobal = tSurface + dts
	w.Global.TemperatureOcean = tOcean + dtd

	var weightSum, bioSum float64
	for _, a := range w.Agents {
		weight := math.Pow(a.Economy.Population, 0.3)
		weightSum += weight
		bioSum += a.Climate.BiodiversityLocal * weight
	}
	if weightSum > 0 {
		w.Global.BiodiversityIndex = bioSum / weightSum
	}

	tempIncrease := w.Global.TemperatureGlobal - config.TGlobal2023C
	for _, a := range w.Agents {
		resilience := Resilience(a)
		effectiveRisk := world.Clamp01(a.Climate.Risk) * (1.0 - 0.60*resilience)
		degradation := 0.004 * math.Max(0, tempIncrease) * effectiveRisk
		a.Climate.BiodiversityLocal = math.Max(0, a.Climate.BiodiversityLocal-degradation)
	}
}

// UpdateRisks relaxes every agent's climate risk toward a target built
// from baseline vulnerability and a saturating warming response.
func UpdateRisks(w *world.WorldState, p config.ClimateParams) {
	deltaT := math.Max(0, w.Global.TemperatureGlobal-config.TGlobal2023C)
	for _, a := range w.Agents {
		base := p.RiskBaseConst +
			p.RiskBaseWater*a.Risk.WaterStress +
			p.RiskBaseGini*(a.Society.InequalityGini/100.0)
		base = world.Clamp01(base)
		tempComponent := 1.0 - math.Exp(-p.RiskSensitivity*deltaT)
		target := world.Clamp01(base + (1.0-base)*tempComponent)
		a.Climate.Risk = world.Clamp01(a.Climate.Risk + p.RiskResponseRate*(target-a.Climate.Risk))
	}
}

// Events rolls extreme-event occurrence per agent and applies capital,
// population, fiscal, and social shocks. Severity carries a smooth spatial
// weather anomaly sampled per (agent, year) from a seeded noise field, so
// identical risk profiles still see different storm seasons.
type Events struct {
	noise opensimplex.Noise
	rng   *rand.Rand
	p     config.ClimateParams
}

// NewEvents builds the extreme-event sampler for one run.
func NewEvents(seed int64, rng *rand.Rand, p config.ClimateParams) *Events {
	return &Events{
		noise: opensimplex.NewNormalized(seed),
		rng:   rng,
		p:     p,
	}
}

// Apply rolls events for the current year.
func (e *Events) Apply(w *world.WorldState) {
	temperature := w.Global.TemperatureGlobal

	for i, a := range w.Agents {
		risk := a.Climate.Risk
		if risk <= 0 {
			continue
		}
		resilience := Resilience(a)

		extraWarming := math.Max(0, temperature-config.TGlobal2023C)
		prob := (e.p.EventBaseProb + e.p.EventMaxExtra*risk) * (1.0 + 0.15*extraWarming)
		prob *= 1.0 - 0.40*resilience
		prob = world.Clamp(prob, 0, 0.5)

		if e.rng.Float64() >= prob {
			continue
		}

		// Normalized noise is in [0,1]; recenter to a ±amplitude factor.
		anomaly := 1.0 + e.p.AnomalyAmplitude*(2.0*e.noise.Eval2(float64(i), float64(w.Time))-1.0)

		severity := (0.03 + 0.15*risk) * (1.0 - 0.50*resilience) * anomaly
		severity = math.Max(0, severity)
		a.Economy.Capital *= math.Max(0, 1.0-severity)

		popLoss := (0.004 + 0.015*risk) * (1.0 - 0.35*resilience)
		a.Economy.Population *= math.Max(0, 1.0-popLoss)

		shockPenalty := math.Min(0.10, 0.5*severity)
		if a.Economy.ClimateShockYears < 2 {
			a.Economy.ClimateShockYears = 2
		}
		a.Economy.ClimateShockPenalty = math.Max(a.Economy.ClimateShockPenalty, shockPenalty)

		tensionJump := (0.03 + 0.10*risk) * (1.0 - 0.35*resilience)
		a.Society.SocialTension = math.Min(1.0, a.Society.SocialTension+tensionJump)
		if a.Risk.RegimeStability > 0.6 {
			a.Society.TrustGov = math.Min(1.0, a.Society.TrustGov+0.02+0.02*resilience)
		} else {
			a.Society.TrustGov = math.Max(0, a.Society.TrustGov-(0.02+0.03*risk))
		}
	}
}

// DamageMultiplier maps global temperature to an output factor: a small
// bell-shaped benefit near mild warming, a quadratic loss beyond it.
func DamageMultiplier(temperature float64) float64 {
	deltaT := temperature - config.TGlobal2023C
	benefit := 0.006 * math.Exp(-math.Pow(deltaT-0.3, 2)/(2*0.5*0.5))
	loss := 0.006 * temperature * temperature
	return math.Max(0, 1.0+benefit-loss)
}

// EffectiveDamageMultiplier adjusts the global multiplier by local risk.
func EffectiveDamageMultiplier(a *world.AgentState, w *world.WorldState) float64 {
	base := DamageMultiplier(w.Global.TemperatureGlobal)
	adjustment := 1.0 + 0.005*(1.0-a.Climate.Risk)
	return math.Max(0, base*adjustment)
}
