// Package world defines the simulation state shared by every subsystem:
// agents, bilateral relations, institutions, and the planetary aggregates.
package world

import "github.com/Theclimateguy/GIM/internal/config"

// Resource names, in canonical iteration order.
const (
	ResourceEnergy = "energy"
	ResourceFood   = "food"
	ResourceMetals = "metals"
)

// ResourceNames fixes the iteration order over resource markets.
var ResourceNames = [3]string{ResourceEnergy, ResourceFood, ResourceMetals}

// Clamp01 bounds v to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// EconomyState holds one agent's macroeconomic block. GDP and stocks are in
// billions of dollars, population in persons.
type EconomyState struct {
	GDP        float64
	Capital    float64
	Population float64
	PublicDebt float64
	FXReserves float64

	Taxes              float64
	GovSpending        float64
	SocialSpending     float64
	MilitarySpending   float64
	RDSpending         float64
	AdaptationSpending float64

	ClimateShockYears   int
	ClimateShockPenalty float64
	InterestPayments    float64
	NetExports          float64
	GDPPerCapita        float64
	Unemployment        float64
	Inflation           float64
	BirthRate           float64
	DeathRate           float64

	TFP     float64
	GDPPrev float64

	// ScaleFactor calibrates potential output to observed GDP, fixed on
	// first output update.
	ScaleFactor float64

	DebtCrisised bool
	Collapsed    bool

	GDPShare float64
	GDPRank  int
}

// ResourceStock is one agent's position in a single resource market.
type ResourceStock struct {
	OwnReserve  float64
	Production  float64
	Consumption float64
	Efficiency  float64
}

// CulturalState carries Hofstede dimensions, Inglehart coordinates, and the
// regime label. Dimensions are on the conventional 0..100 scale.
type CulturalState struct {
	PDI float64
	IDV float64
	MAS float64
	UAI float64
	LTO float64
	IND float64

	SurvivalSelfExpression float64
	TraditionalSecular     float64
	RegimeType             string
}

// SocietyState holds the domestic social block. Trust and tension are in
// [0, 1], the Gini index in [20, 70].
type SocietyState struct {
	TrustGov       float64
	SocialTension  float64
	InequalityGini float64
}

// ClimateLocalState is the agent-local climate block. IntensityBase is the
// emissions intensity observed at construction, fixed once on first use.
type ClimateLocalState struct {
	Risk              float64
	AnnualEmissions   float64
	BiodiversityLocal float64
	IntensityBase     float64
}

// RiskState holds slow-moving structural vulnerabilities, fixed at load time.
type RiskState struct {
	WaterStress       float64
	RegimeStability   float64
	DebtCrisisProne   float64
	ConflictProneness float64
}

// TechnologyState holds technology level, military power, and the security
// index.
type TechnologyState struct {
	TechLevel     float64
	MilitaryPower float64
	SecurityIndex float64
}

// PoliticalState is recomputed every step from the rest of the agent state.
type PoliticalState struct {
	Legitimacy         float64
	ProtestPressure    float64
	Hawkishness        float64
	Protectionism      float64
	CoalitionOpenness  float64
	SanctionPropensity float64
	PolicySpace        float64
	LastBlockChange    int
}

// CreditState is the agent's sovereign rating block. Details keeps every
// sub-component of the last scoring pass for auditability.
type CreditState struct {
	Risk    float64
	Rating  int
	Zone    string
	Details map[string]float64
}

// SanctionLevel is the strength of an active sanction regime.
type SanctionLevel string

const (
	SanctionNone   SanctionLevel = "none"
	SanctionMild   SanctionLevel = "mild"
	SanctionStrong SanctionLevel = "strong"
)

// AgentState is the full state of one country agent.
type AgentState struct {
	ID     string
	Type   string
	Name   string
	Region string

	Economy    EconomyState
	Resources  map[string]*ResourceStock
	Society    SocietyState
	Climate    ClimateLocalState
	Culture    CulturalState
	Technology TechnologyState
	Risk       RiskState
	Political  PoliticalState
	Credit     CreditState

	AllianceBlock  string
	InfluenceScore float64
	SecurityMargin float64

	// ActiveSanctions maps target agent id to regime level; SanctionYears
	// counts remaining minimum-duration years per target.
	ActiveSanctions map[string]SanctionLevel
	SanctionYears   map[string]int
}

// Resource returns the agent's stock in the named market.
func (a *AgentState) Resource(name string) *ResourceStock {
	return a.Resources[name]
}

// RelationState is the directed relation from one agent to another.
type RelationState struct {
	TradeIntensity float64
	Trust          float64
	ConflictLevel  float64
	TradeBarrier   float64

	AtWar            bool
	WarYears         int
	WarStartGDP      float64
	WarStartPop      float64
	WarStartResource float64
}

// EffectiveTradeIntensity discounts the raw intensity by the barrier.
func (r *RelationState) EffectiveTradeIntensity() float64 {
	return max(0, r.TradeIntensity*(1-Clamp01(r.TradeBarrier)))
}

// Pair keys a directed relation by agent ids.
type Pair struct {
	From string
	To   string
}

// GlobalState holds planetary aggregates: the carbon cycle, world prices,
// and global resource reserves.
type GlobalState struct {
	CO2               float64
	TemperatureGlobal float64
	TemperatureOcean  float64
	ForcingTotal      float64
	BiodiversityIndex float64
	CarbonPools       []float64
	BaselineGDPPC     float64

	Prices         map[string]float64
	GlobalReserves map[string]float64
}

// Clone returns a copy that shares nothing with the receiver, so a holder
// can never mutate the live global state through it.
func (g GlobalState) Clone() GlobalState {
	out := g
	out.CarbonPools = append([]float64(nil), g.CarbonPools...)
	out.Prices = make(map[string]float64, len(g.Prices))
	for k, v := range g.Prices {
		out.Prices[k] = v
	}
	out.GlobalReserves = make(map[string]float64, len(g.GlobalReserves))
	for k, v := range g.GlobalReserves {
		out.GlobalReserves[k] = v
	}
	return out
}

// InstitutionState is one international organization.
type InstitutionState struct {
	ID              string
	Name            string
	OrgType         string
	Mandate         []string
	Members         []string
	Legitimacy      float64
	Budget          float64
	BaseBudgetShare float64
}

// InstitutionReport records one applied institutional measure.
type InstitutionReport struct {
	Time        int     `json:"time"`
	Institution string  `json:"institution"`
	Measure     string  `json:"measure"`
	Target      string  `json:"target,omitempty"`
	Magnitude   float64 `json:"magnitude"`
}

// WorldState is the root of the simulation state. Agents keeps load order;
// all per-agent iteration must follow it so runs replay bit for bit.
type WorldState struct {
	Time   int
	Agents []*AgentState
	index  map[string]int

	Global       GlobalState
	Relations    map[Pair]*RelationState
	Institutions []*InstitutionState
	Reports      []InstitutionReport
}

// NewWorldState builds an empty world at the given start year offset.
func NewWorldState(t int) *WorldState {
	return &WorldState{
		Time:      t,
		index:     make(map[string]int),
		Relations: make(map[Pair]*RelationState),
	}
}

// AddAgent appends an agent and indexes it by id.
func (w *WorldState) AddAgent(a *AgentState) {
	w.index[a.ID] = len(w.Agents)
	w.Agents = append(w.Agents, a)
}

// Agent returns the agent with the given id, or nil.
func (w *WorldState) Agent(id string) *AgentState {
	i, ok := w.index[id]
	if !ok {
		return nil
	}
	return w.Agents[i]
}

// HasAgent reports whether id names a live agent.
func (w *WorldState) HasAgent(id string) bool {
	_, ok := w.index[id]
	return ok
}

// Relation returns the directed relation from one agent to another, or nil
// for unknown pairs and self-pairs.
func (w *WorldState) Relation(from, to string) *RelationState {
	return w.Relations[Pair{From: from, To: to}]
}

// Neighbors returns every other agent in canonical order.
func (w *WorldState) Neighbors(id string) []*AgentState {
	out := make([]*AgentState, 0, len(w.Agents)-1)
	for _, a := range w.Agents {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

// WarResourceIndex weights an agent's reserves for war-exhaustion tracking.
func WarResourceIndex(a *AgentState) float64 {
	return 1.0*a.Resources[ResourceEnergy].OwnReserve +
		0.6*a.Resources[ResourceFood].OwnReserve +
		0.4*a.Resources[ResourceMetals].OwnReserve
}

// TotalGDP sums GDP over all agents.
func (w *WorldState) TotalGDP() float64 {
	var sum float64
	for _, a := range w.Agents {
		sum += a.Economy.GDP
	}
	return sum
}

// DefaultGlobalState seeds the planetary block at 2023 conditions.
func DefaultGlobalState(p config.ClimateParams) GlobalState {
	excess := config.CO2Stock2023Gt - config.CO2PreindustrialGt
	pools := make([]float64, len(p.PoolFractions))
	for i, f := range p.PoolFractions {
		pools[i] = excess * f
	}
	return GlobalState{
		CO2:               config.CO2Stock2023Gt,
		TemperatureGlobal: config.TGlobal2023C,
		TemperatureOcean:  config.TGlobal2023C - 0.4,
		BiodiversityIndex: config.Biodiversity2023,
		CarbonPools:       pools,
		Prices: map[string]float64{
			ResourceEnergy: 1.0,
			ResourceFood:   1.0,
			ResourceMetals: 1.0,
		},
		GlobalReserves: map[string]float64{
			ResourceEnergy: config.WorldProvenReservesZJ,
			ResourceFood:   100.0,
			ResourceMetals: 100.0,
		},
	}
}
