package world

// ClimatePolicy is the declared emissions-reduction stance.
type ClimatePolicy string

const (
	ClimateNone     ClimatePolicy = "none"
	ClimateWeak     ClimatePolicy = "weak"
	ClimateModerate ClimatePolicy = "moderate"
	ClimateStrong   ClimatePolicy = "strong"
)

// ReductionFactor maps the stance to the emissions reduction it buys.
func (c ClimatePolicy) ReductionFactor() float64 {
	switch c {
	case ClimateWeak:
		return 0.05
	case ClimateModerate:
		return 0.15
	case ClimateStrong:
		return 0.30
	default:
		return 0.0
	}
}

// TradeDirection is the side of a proposed deal, from the proposer's view.
type TradeDirection string

const (
	DirectionImport TradeDirection = "import"
	DirectionExport TradeDirection = "export"
)

// PricePreference selects the per-deal price band around the world price.
type PricePreference string

const (
	PriceCheap   PricePreference = "cheap"
	PriceFair    PricePreference = "fair"
	PricePremium PricePreference = "premium"
)

// Multiplier returns the band factor applied to the world price.
func (p PricePreference) Multiplier() float64 {
	switch p {
	case PriceCheap:
		return 0.9
	case PricePremium:
		return 1.1
	default:
		return 1.0
	}
}

// RestrictionLevel is the strength of a unilateral trade restriction.
type RestrictionLevel string

const (
	RestrictionNone RestrictionLevel = "none"
	RestrictionSoft RestrictionLevel = "soft"
	RestrictionHard RestrictionLevel = "hard"
)

// SecurityActionType orders escalation steps from benign to open conflict.
type SecurityActionType string

const (
	SecurityNone             SecurityActionType = "none"
	SecurityMilitaryExercise SecurityActionType = "military_exercise"
	SecurityArmsBuildup      SecurityActionType = "arms_buildup"
	SecurityBorderIncident   SecurityActionType = "border_incident"
	SecurityConflict         SecurityActionType = "conflict"
)

// TradeDeal is one proposed bilateral resource exchange.
type TradeDeal struct {
	Partner         string          `json:"partner"`
	Resource        string          `json:"resource"`
	Direction       TradeDirection  `json:"direction"`
	VolumeChange    float64         `json:"volume_change"`
	PricePreference PricePreference `json:"price_preference"`
}

// TradeRestriction is a unilateral barrier intent against one target.
type TradeRestriction struct {
	Target string           `json:"target"`
	Level  RestrictionLevel `json:"level"`
	Reason string           `json:"reason,omitempty"`
}

// SanctionIntent is a declared wish to sanction one target.
type SanctionIntent struct {
	Target string        `json:"target"`
	Type   SanctionLevel `json:"type"`
	Reason string        `json:"reason,omitempty"`
}

// SecurityAction is the single military move an agent may take per year.
type SecurityAction struct {
	Type   SecurityActionType `json:"type"`
	Target string             `json:"target,omitempty"`
}

// DomesticPolicy bundles the fiscal and climate levers.
type DomesticPolicy struct {
	TaxFuelChange          float64       `json:"tax_fuel_change"`
	SocialSpendingChange   float64       `json:"social_spending_change"`
	MilitarySpendingChange float64       `json:"military_spending_change"`
	RDInvestmentChange     float64       `json:"rd_investment_change"`
	ClimatePolicy          ClimatePolicy `json:"climate_policy"`
}

// ForeignPolicy bundles the external levers.
type ForeignPolicy struct {
	TradeDeals        []TradeDeal        `json:"proposed_trade_deals"`
	Sanctions         []SanctionIntent   `json:"sanctions_actions"`
	TradeRestrictions []TradeRestriction `json:"trade_restrictions"`
	Security          SecurityAction     `json:"security_actions"`
}

// FinancePolicy bundles the financing levers. The fields are normalized and
// written to the action history but have no modeled effect on settlement;
// they are reserved as an extension point.
type FinancePolicy struct {
	BorrowFromGlobalMarkets float64 `json:"borrow_from_global_markets"`
	UseFXReservesChange     float64 `json:"use_fx_reserves_change"`
}

// Action is one agent's complete decision for one year.
type Action struct {
	AgentID     string         `json:"agent_id"`
	Time        int            `json:"time"`
	Domestic    DomesticPolicy `json:"domestic_policy"`
	Foreign     ForeignPolicy  `json:"foreign_policy"`
	Finance     FinancePolicy  `json:"finance"`
	Explanation string         `json:"explanation,omitempty"`
}

// NoOpAction returns the all-zeros action for an agent.
func NoOpAction(agentID string, t int) *Action {
	return &Action{
		AgentID: agentID,
		Time:    t,
		Domestic: DomesticPolicy{
			ClimatePolicy: ClimateNone,
		},
		Foreign: ForeignPolicy{
			Security: SecurityAction{Type: SecurityNone},
		},
	}
}
