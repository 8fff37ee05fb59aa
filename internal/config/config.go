// Package config collects every tunable coefficient of the simulation into
// one immutable Params value. Components receive Params at construction and
// never read ambient globals.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Climate baselines (2023) and physical constants.
const (
	CO2PreindustrialGt = 2184.0
	CO2Stock2023Gt     = 3270.0
	TGlobal2023C       = 1.2
	Biodiversity2023   = 0.72
	GtCO2PerPpm        = 7.81
	F2xCO2WM2          = 3.71
)

// Global energy constraints (zettajoules).
const (
	WorldProvenReservesZJ  = 32.5
	WorldAnnualSupplyCapZJ = 0.65
)

// PoliticalParams drives the per-agent political state recompute and the
// political filtering of raw actions.
type PoliticalParams struct {
	EnergyStressHorizon float64 `yaml:"energy_stress_horizon"`
	FoodStressHorizon   float64 `yaml:"food_stress_horizon"`
	MetalsStressHorizon float64 `yaml:"metals_stress_horizon"`
	SanctionZeroBelow   float64 `yaml:"sanction_zero_below"`
	SanctionMildBelow   float64 `yaml:"sanction_mild_below"`
	RestrictZeroBelow   float64 `yaml:"restrict_zero_below"`
	RestrictSoftBelow   float64 `yaml:"restrict_soft_below"`
	CoalitionCooldown   int     `yaml:"coalition_cooldown"`
	CoalitionMargin     float64 `yaml:"coalition_margin"`
}

// SanctionParams governs sanction resolution and effects.
type SanctionParams struct {
	MinDuration    int     `yaml:"min_duration"`
	MildThreshold  float64 `yaml:"mild_threshold"`
	StrongCutoff   float64 `yaml:"strong_cutoff"`
	StrongBonus    float64 `yaml:"strong_bonus"`
	MildBonus      float64 `yaml:"mild_bonus"`
	SameBlockScale float64 `yaml:"same_block_scale"`
	CrossBlockBump float64 `yaml:"cross_block_bump"`
}

// BarrierParams governs trade-barrier targeting and smoothing.
type BarrierParams struct {
	Smoothing   float64 `yaml:"smoothing"`
	SoftBoost   float64 `yaml:"soft_boost"`
	HardBoost   float64 `yaml:"hard_boost"`
	MildFloor   float64 `yaml:"mild_floor"`
	StrongFloor float64 `yaml:"strong_floor"`
}

// SecurityParams governs auto-escalation and the escalation gate.
type SecurityParams struct {
	AutoTrigger          float64 `yaml:"auto_trigger"`
	AutoMinConflict      float64 `yaml:"auto_min_conflict"`
	ConflictGateConflict float64 `yaml:"conflict_gate_conflict"`
	ConflictGateTrust    float64 `yaml:"conflict_gate_trust"`
	IncidentGateConflict float64 `yaml:"incident_gate_conflict"`
}

// WarParams governs the active-war lifecycle.
type WarParams struct {
	AnnualCapitalLoss float64 `yaml:"annual_capital_loss"`
	AnnualGDPLoss     float64 `yaml:"annual_gdp_loss"`
	GDPExhaustion     float64 `yaml:"gdp_exhaustion"`
	PopExhaustion     float64 `yaml:"pop_exhaustion"`
	ResExhaustion     float64 `yaml:"res_exhaustion"`
}

// TradeParams governs trade-deal settlement caps and side effects.
type TradeParams struct {
	MaxDeals          int     `yaml:"max_deals"`
	MaxVolume         float64 `yaml:"max_volume"`
	ReserveBuffer     float64 `yaml:"reserve_buffer"`
	TradeCreditShare  float64 `yaml:"trade_credit_share"`
	MetalsCapitalRate float64 `yaml:"metals_capital_rate"`
	FoodTensionRate   float64 `yaml:"food_tension_rate"`
	FoodTrustRate     float64 `yaml:"food_trust_rate"`
	IntensityRate     float64 `yaml:"intensity_rate"`
	IntensityCap      float64 `yaml:"intensity_cap"`
	BalanceTolerance  float64 `yaml:"balance_tolerance"`
}

// ResourceParams governs stocks and market clearing.
type ResourceParams struct {
	PriceAlpha             float64 `yaml:"price_alpha"`
	PriceMin               float64 `yaml:"price_min"`
	PriceMax               float64 `yaml:"price_max"`
	FoodRegen              float64 `yaml:"food_regen"`
	EnergyTechExpansion    float64 `yaml:"energy_tech_expansion"`
	MetalsTechExpansion    float64 `yaml:"metals_tech_expansion"`
	MetalsRecycling        float64 `yaml:"metals_recycling"`
	MetalsSubstElasticity  float64 `yaml:"metals_subst_elasticity"`
	MetalsRefPrice         float64 `yaml:"metals_ref_price"`
}

// ClimateParams governs emissions, the carbon cycle, temperature, risk, and
// extreme events. Pool fractions follow the FaIR four-box decomposition.
type ClimateParams struct {
	PoolFractions  []float64 `yaml:"pool_fractions"`
	PoolTimescales []float64 `yaml:"pool_timescales"`
	ECS            float64   `yaml:"ecs"`
	ECSMin         float64   `yaml:"ecs_min"`
	ECSMax         float64   `yaml:"ecs_max"`
	ForcingNonCO2  float64   `yaml:"forcing_non_co2"`
	HeatCapSurface float64   `yaml:"heat_cap_surface"`
	HeatCapDeep    float64   `yaml:"heat_cap_deep"`
	OceanExchange  float64   `yaml:"ocean_exchange"`

	EmissionsScale float64 `yaml:"emissions_scale"`
	TechDecarbK    float64 `yaml:"tech_decarb_k"`
	TimeDecarbK    float64 `yaml:"time_decarb_k"`
	FuelTaxK       float64 `yaml:"fuel_tax_k"`
	TaxEffectMin   float64 `yaml:"tax_effect_min"`
	TaxEffectMax   float64 `yaml:"tax_effect_max"`

	RiskResponseRate float64 `yaml:"risk_response_rate"`
	RiskSensitivity  float64 `yaml:"risk_sensitivity"`
	RiskBaseConst    float64 `yaml:"risk_base_const"`
	RiskBaseWater    float64 `yaml:"risk_base_water"`
	RiskBaseGini     float64 `yaml:"risk_base_gini"`

	EventBaseProb    float64 `yaml:"event_base_prob"`
	EventMaxExtra    float64 `yaml:"event_max_extra"`
	AnomalyAmplitude float64 `yaml:"anomaly_amplitude"`
}

// EconomyParams governs output, capital, and public finance.
type EconomyParams struct {
	Alpha        float64 `yaml:"alpha"`
	Beta         float64 `yaml:"beta"`
	Gamma        float64 `yaml:"gamma"`
	Depreciation float64 `yaml:"depreciation"`
	BaseSavings  float64 `yaml:"base_savings"`

	TFPDrift     float64 `yaml:"tfp_drift"`
	TFPPhi       float64 `yaml:"tfp_phi"`
	TFPPsi       float64 `yaml:"tfp_psi"`
	DiffusionEta float64 `yaml:"diffusion_eta"`

	TaxRate             float64 `yaml:"tax_rate"`
	BaseSocialShare     float64 `yaml:"base_social_share"`
	BaseMilitaryShare   float64 `yaml:"base_military_share"`
	BaseRate            float64 `yaml:"base_rate"`
	MaxNewDebtShare     float64 `yaml:"max_new_debt_share"`
	DebtCrisisRatio     float64 `yaml:"debt_crisis_ratio"`
	DebtCrisisRate      float64 `yaml:"debt_crisis_rate"`
	RDSpendingDecay     float64 `yaml:"rd_spending_decay"`
}

// SocialParams governs population, migration, and collapse.
type SocialParams struct {
	MigrationBaseRate float64 `yaml:"migration_base_rate"`
	MigrationMaxShare float64 `yaml:"migration_max_share"`
	CollapseTrust     float64 `yaml:"collapse_trust"`
	CollapseTension   float64 `yaml:"collapse_tension"`
}

// CreditParams holds the component weights of the rating aggregate.
type CreditParams struct {
	FinancialWeight float64 `yaml:"financial_weight"`
	WarWeight       float64 `yaml:"war_weight"`
	SocialWeight    float64 `yaml:"social_weight"`
	SanctionsWeight float64 `yaml:"sanctions_weight"`
	MacroWeight     float64 `yaml:"macro_weight"`
}

// LLMParams configures the external policy provider.
type LLMParams struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	TimeoutSec  float64 `yaml:"timeout_sec"`
	MaxRetries  int     `yaml:"max_retries"`
	Concurrency int     `yaml:"concurrency"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Params is the complete tunable surface of the simulation.
type Params struct {
	Political     PoliticalParams `yaml:"political"`
	Sanctions     SanctionParams  `yaml:"sanctions"`
	Barriers      BarrierParams   `yaml:"barriers"`
	Security      SecurityParams  `yaml:"security"`
	War           WarParams       `yaml:"war"`
	Trade         TradeParams     `yaml:"trade"`
	Resources     ResourceParams  `yaml:"resources"`
	Climate       ClimateParams   `yaml:"climate"`
	Economy       EconomyParams   `yaml:"economy"`
	Social        SocialParams    `yaml:"social"`
	Credit        CreditParams    `yaml:"credit"`
	LLM           LLMParams       `yaml:"llm"`
	MemoryHorizon int             `yaml:"memory_horizon"`
}

// Default returns the reference parameterization.
func Default() Params {
	return Params{
		Political: PoliticalParams{
			EnergyStressHorizon: 5.0,
			FoodStressHorizon:   3.0,
			MetalsStressHorizon: 5.0,
			SanctionZeroBelow:   0.2,
			SanctionMildBelow:   0.4,
			RestrictZeroBelow:   0.2,
			RestrictSoftBelow:   0.4,
			CoalitionCooldown:   3,
			CoalitionMargin:     0.08,
		},
		Sanctions: SanctionParams{
			MinDuration:    2,
			MildThreshold:  0.35,
			StrongCutoff:   0.65,
			StrongBonus:    0.10,
			MildBonus:      0.05,
			SameBlockScale: 0.6,
			CrossBlockBump: 0.05,
		},
		Barriers: BarrierParams{
			Smoothing:   0.3,
			SoftBoost:   0.15,
			HardBoost:   0.35,
			MildFloor:   0.25,
			StrongFloor: 0.5,
		},
		Security: SecurityParams{
			AutoTrigger:          0.45,
			AutoMinConflict:      0.45,
			ConflictGateConflict: 0.55,
			ConflictGateTrust:    0.25,
			IncidentGateConflict: 0.30,
		},
		War: WarParams{
			AnnualCapitalLoss: 0.04,
			AnnualGDPLoss:     0.03,
			GDPExhaustion:     0.7,
			PopExhaustion:     0.9,
			ResExhaustion:     0.5,
		},
		Trade: TradeParams{
			MaxDeals:          4,
			MaxVolume:         50.0,
			ReserveBuffer:     0.10,
			TradeCreditShare:  0.02,
			MetalsCapitalRate: 0.002,
			FoodTensionRate:   0.001,
			FoodTrustRate:     0.0005,
			IntensityRate:     0.002,
			IntensityCap:      0.05,
			BalanceTolerance:  1e-9,
		},
		Resources: ResourceParams{
			PriceAlpha:            0.15,
			PriceMin:              0.3,
			PriceMax:              5.0,
			FoodRegen:             0.02,
			EnergyTechExpansion:   0.01,
			MetalsTechExpansion:   0.005,
			MetalsRecycling:       0.45,
			MetalsSubstElasticity: 0.3,
			MetalsRefPrice:        1.0,
		},
		Climate: ClimateParams{
			PoolFractions:  []float64{0.2173, 0.2240, 0.2824, 0.2763},
			PoolTimescales: []float64{math.Inf(1), 394.4, 36.54, 4.304},
			ECS:            3.0,
			ECSMin:         1.5,
			ECSMax:         4.0,
			ForcingNonCO2:  0.0,
			HeatCapSurface: 20.0,
			HeatCapDeep:    100.0,
			OceanExchange:  0.7,

			EmissionsScale: 1.8,
			TechDecarbK:    0.12,
			TimeDecarbK:    0.049,
			FuelTaxK:       0.12,
			TaxEffectMin:   0.6,
			TaxEffectMax:   1.4,

			RiskResponseRate: 0.06,
			RiskSensitivity:  0.45,
			RiskBaseConst:    0.3,
			RiskBaseWater:    0.45,
			RiskBaseGini:     0.15,

			EventBaseProb:    0.012,
			EventMaxExtra:    0.07,
			AnomalyAmplitude: 0.15,
		},
		Economy: EconomyParams{
			Alpha:        0.30,
			Beta:         0.60,
			Gamma:        0.10,
			Depreciation: 0.05,
			BaseSavings:  0.24,

			TFPDrift:     0.01,
			TFPPhi:       2.0,
			TFPPsi:       0.3,
			DiffusionEta: 0.02,

			TaxRate:           0.22,
			BaseSocialShare:   0.15,
			BaseMilitaryShare: 0.035,
			BaseRate:          0.02,
			MaxNewDebtShare:   0.05,
			DebtCrisisRatio:   1.2,
			DebtCrisisRate:    0.12,
			RDSpendingDecay:   0.85,
		},
		Social: SocialParams{
			MigrationBaseRate: 0.001,
			MigrationMaxShare: 0.003,
			CollapseTrust:     0.2,
			CollapseTension:   0.8,
		},
		Credit: CreditParams{
			FinancialWeight: 0.25,
			WarWeight:       0.20,
			SocialWeight:    0.22,
			SanctionsWeight: 0.13,
			MacroWeight:     0.20,
		},
		LLM: LLMParams{
			BaseURL:     "https://api.deepseek.com/chat/completions",
			Model:       "deepseek-chat",
			TimeoutSec:  120,
			MaxRetries:  2,
			Concurrency: 4,
			Temperature: 0.2,
			MaxTokens:   2048,
		},
		MemoryHorizon: 10,
	}
}

// Load reads a YAML overlay on top of the defaults. Missing keys keep their
// default values.
func Load(path string) (Params, error) {
	p := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read params: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse params: %w", err)
	}
	return p, nil
}
