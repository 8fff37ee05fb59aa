package world

// NeighborView is the slice of another agent visible to a decision maker.
type NeighborView struct {
	AgentID        string        `json:"agent_id"`
	TradeIntensity float64       `json:"trade_intensity"`
	TradeBarrier   float64       `json:"trade_barrier"`
	Trust          float64       `json:"trust"`
	ConflictLevel  float64       `json:"conflict_level"`
	GDP            float64       `json:"gdp"`
	MilitaryPower  float64       `json:"military_power"`
	AllianceBlock  string        `json:"alliance_block"`
	SanctionOnUs   SanctionLevel `json:"sanction_on_us,omitempty"`
}

// InstitutionView summarizes one organization for a decision maker.
type InstitutionView struct {
	ID         string   `json:"id"`
	OrgType    string   `json:"type"`
	Legitimacy float64  `json:"legitimacy"`
	Mandate    []string `json:"mandate"`
	Members    int      `json:"members"`
	Member     bool     `json:"member"`
}

// CompetitiveView holds relative-standing metrics for one agent.
type CompetitiveView struct {
	GDPShare       float64            `json:"gdp_share"`
	GDPRank        int                `json:"gdp_rank"`
	InfluenceScore float64            `json:"influence_score"`
	SecurityMargin float64            `json:"security_margin"`
	ReserveYears   map[string]float64 `json:"reserve_years"`
	DebtStress     float64            `json:"debt_stress"`
	ProtestRisk    float64            `json:"protest_risk"`
}

// Observation is the read-only view one agent receives before deciding.
// It carries copies, never pointers into the live world.
type Observation struct {
	AgentID string `json:"agent_id"`
	Time    int    `json:"time"`

	Economy    EconomyState             `json:"economy"`
	Resources  map[string]ResourceStock `json:"resources"`
	Society    SocietyState             `json:"society"`
	Climate    ClimateLocalState        `json:"climate"`
	Culture    CulturalState            `json:"culture"`
	Technology TechnologyState          `json:"technology"`
	Risk       RiskState                `json:"risk"`
	Political  PoliticalState           `json:"political"`
	Credit     CreditState              `json:"credit"`

	AllianceBlock   string                   `json:"alliance_block"`
	ActiveSanctions map[string]SanctionLevel `json:"active_sanctions"`
	Competitive     CompetitiveView          `json:"competitive"`

	// NetImports per resource, zero when self-sufficient.
	NetImports map[string]float64 `json:"net_imports"`

	Neighbors    []NeighborView      `json:"neighbors"`
	Global       GlobalState         `json:"global"`
	Institutions []InstitutionView   `json:"institutions,omitempty"`
	Reports      []InstitutionReport `json:"institution_reports,omitempty"`

	Memory  MemorySummary `json:"memory"`
	Summary string        `json:"summary"`
}

// MemorySnapshot is one year of an agent's retained history.
type MemorySnapshot struct {
	Time           int     `json:"time"`
	GDP            float64 `json:"gdp"`
	GDPPerCapita   float64 `json:"gdp_per_capita"`
	TrustGov       float64 `json:"trust_gov"`
	SocialTension  float64 `json:"social_tension"`
	SecurityMargin float64 `json:"security_margin"`
	ClimateRisk    float64 `json:"climate_risk"`
	CO2Emissions   float64 `json:"co2_emissions"`

	LastAction *ActionDigest `json:"last_action,omitempty"`
}

// ActionDigest is the compact record of a past domestic decision.
type ActionDigest struct {
	TaxFuelChange          float64       `json:"tax_fuel_change"`
	SocialSpendingChange   float64       `json:"social_spending_change"`
	MilitarySpendingChange float64       `json:"military_spending_change"`
	RDInvestmentChange     float64       `json:"rd_investment_change"`
	ClimatePolicy          ClimatePolicy `json:"climate_policy"`
}

// MemorySummary condenses the retained horizon into trends plus the most
// recent actions.
type MemorySummary struct {
	Horizon           int              `json:"horizon"`
	GDPTrend          float64          `json:"gdp_trend"`
	GDPPerCapitaTrend float64          `json:"gdp_per_capita_trend"`
	TrustTrend        float64          `json:"trust_trend"`
	TensionTrend      float64          `json:"tension_trend"`
	SecurityTrend     float64          `json:"security_trend"`
	ClimateRiskTrend  float64          `json:"climate_risk_trend"`
	LastActions       []MemorySnapshot `json:"last_actions,omitempty"`
}
