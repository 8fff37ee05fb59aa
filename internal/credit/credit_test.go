package credit

import (
	"testing"

	"github.com/Theclimateguy/GIM/internal/config"
	"github.com/Theclimateguy/GIM/internal/world"
)

func testAgent(id string) *world.AgentState {
	return &world.AgentState{
		ID:   id,
		Name: id,
		Economy: world.EconomyState{
			GDP:          2.0,
			Capital:      6.0,
			Population:   50e6,
			PublicDebt:   1.0,
			FXReserves:   0.2,
			GDPPerCapita: 40000,
			Unemployment: 0.05,
			Inflation:    0.02,
		},
		Resources: map[string]*world.ResourceStock{
			world.ResourceEnergy: {OwnReserve: 20, Production: 100, Consumption: 100, Efficiency: 1},
			world.ResourceFood:   {OwnReserve: 10, Production: 50, Consumption: 50, Efficiency: 1},
			world.ResourceMetals: {OwnReserve: 30, Production: 20, Consumption: 20, Efficiency: 1},
		},
		Society: world.SocietyState{TrustGov: 0.6, SocialTension: 0.3, InequalityGini: 35},
		Risk: world.RiskState{
			WaterStress: 0.3, RegimeStability: 0.7,
			DebtCrisisProne: 0.4, ConflictProneness: 0.3,
		},
		Technology: world.TechnologyState{TechLevel: 1.0, MilitaryPower: 1.0, SecurityIndex: 0.5},
		Political: world.PoliticalState{
			Legitimacy: 0.6, Hawkishness: 0.4, SanctionPropensity: 0.3,
			PolicySpace: 0.5, CoalitionOpenness: 0.5,
		},
		AllianceBlock:   "NonAligned",
		ActiveSanctions: make(map[string]world.SanctionLevel),
		SanctionYears:   make(map[string]int),
	}
}

func testWorld() *world.WorldState {
	w := world.NewWorldState(0)
	w.AddAgent(testAgent("A"))
	w.AddAgent(testAgent("B"))
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

func TestZoneBoundaries(t *testing.T) {
	cases := []struct {
		rating int
		want   string
	}{
		{1, "green"}, {12, "green"},
		{13, "yellow"}, {20, "yellow"},
		{21, "red"}, {26, "red"},
	}
	for _, c := range cases {
		if got := Zone(c.rating); got != c.want {
			t.Errorf("Zone(%d) = %q, want %q", c.rating, got, c.want)
		}
	}
}

func TestRiskToRatingBounds(t *testing.T) {
	if got := RiskToRating(0); got != RatingMin {
		t.Errorf("RiskToRating(0) = %d, want %d", got, RatingMin)
	}
	if got := RiskToRating(1); got != RatingMax {
		t.Errorf("RiskToRating(1) = %d, want %d", got, RatingMax)
	}
	if got := RiskToRating(-5); got != RatingMin {
		t.Errorf("RiskToRating(-5) = %d, want %d", got, RatingMin)
	}
	if got := RiskToRating(9); got != RatingMax {
		t.Errorf("RiskToRating(9) = %d, want %d", got, RatingMax)
	}
}

func TestUpdateRatingsPopulatesComponents(t *testing.T) {
	w := testWorld()
	summaries := map[string]world.MemorySummary{
		"A": {}, "B": {},
	}
	UpdateRatings(w, summaries, config.Default())

	for _, a := range w.Agents {
		if a.Credit.Rating < RatingMin || a.Credit.Rating > RatingMax {
			t.Errorf("%s rating %d out of bounds", a.ID, a.Credit.Rating)
		}
		if a.Credit.Zone != Zone(a.Credit.Rating) {
			t.Errorf("%s zone %q inconsistent with rating %d", a.ID, a.Credit.Zone, a.Credit.Rating)
		}
		if a.Credit.Risk < 0 || a.Credit.Risk > 1 {
			t.Errorf("%s risk %v out of [0,1]", a.ID, a.Credit.Risk)
		}
		if len(a.Credit.Details) == 0 {
			t.Errorf("%s details not persisted", a.ID)
		}
		for _, key := range []string{"financial_risk", "war_risk", "social_risk", "sanctions_risk", "macro_risk", "total_risk_score"} {
			if _, ok := a.Credit.Details[key]; !ok {
				t.Errorf("%s missing component %q", a.ID, key)
			}
		}
	}
}

func TestStressedAgentRatesWorse(t *testing.T) {
	w := testWorld()
	b := w.Agent("B")
	b.Economy.PublicDebt = 4.0
	b.Economy.Unemployment = 0.20
	b.Economy.Inflation = 0.12
	b.Society.SocialTension = 0.8
	b.Society.TrustGov = 0.2
	w.Relation("A", "B").ConflictLevel = 0.7
	w.Relation("B", "A").ConflictLevel = 0.7
	w.Relation("B", "A").AtWar = true

	summaries := map[string]world.MemorySummary{"A": {}, "B": {}}
	UpdateRatings(w, summaries, config.Default())

	a := w.Agent("A")
	if b.Credit.Risk <= a.Credit.Risk {
		t.Errorf("stressed agent risk %v should exceed calm agent risk %v",
			b.Credit.Risk, a.Credit.Risk)
	}
	if b.Credit.Rating <= a.Credit.Rating {
		t.Errorf("stressed agent rating %d should exceed calm agent rating %d",
			b.Credit.Rating, a.Credit.Rating)
	}
}
