package actions

import (
	"testing"

	"github.com/Theclimateguy/GIM/internal/world"
)

func actionAgent(id string) *world.AgentState {
	return &world.AgentState{
		ID:   id,
		Name: id,
		Economy: world.EconomyState{
			GDP: 1.0, Capital: 3.0, Population: 50e6, FXReserves: 0.1, PublicDebt: 0.5,
		},
		Society: world.SocietyState{TrustGov: 0.6, SocialTension: 0.3, InequalityGini: 35},
		Culture: world.CulturalState{
			PDI: 50, IDV: 50, MAS: 50, UAI: 50, RegimeType: "Democracy",
		},
		Technology: world.TechnologyState{TechLevel: 1.0, MilitaryPower: 0.5, SecurityIndex: 0.5},
		Climate:    world.ClimateLocalState{Risk: 0.4, AnnualEmissions: 0.5},
		Resources: map[string]*world.ResourceStock{
			world.ResourceEnergy: {OwnReserve: 20, Production: 100, Consumption: 100, Efficiency: 1},
			world.ResourceFood:   {OwnReserve: 10, Production: 50, Consumption: 50, Efficiency: 1},
			world.ResourceMetals: {OwnReserve: 30, Production: 20, Consumption: 20, Efficiency: 1},
		},
		ActiveSanctions: make(map[string]world.SanctionLevel),
		SanctionYears:   make(map[string]int),
	}
}

func actionWorld() *world.WorldState {
	w := world.NewWorldState(0)
	w.AddAgent(actionAgent("A"))
	return w
}

func TestNormalizeClampsDomesticLevers(t *testing.T) {
	act := world.NoOpAction("A", 0)
	act.Domestic.TaxFuelChange = 9.0
	act.Domestic.SocialSpendingChange = 1.0
	act.Domestic.MilitarySpendingChange = -1.0
	act.Domestic.RDInvestmentChange = 1.0
	act.Domestic.ClimatePolicy = world.ClimatePolicy("maximal")

	Normalize(act)

	if act.Domestic.TaxFuelChange != 1.5 {
		t.Errorf("fuel tax = %v, want 1.5", act.Domestic.TaxFuelChange)
	}
	if act.Domestic.SocialSpendingChange != 0.02 {
		t.Errorf("social = %v, want 0.02", act.Domestic.SocialSpendingChange)
	}
	if act.Domestic.MilitarySpendingChange != -0.01 {
		t.Errorf("military = %v, want -0.01", act.Domestic.MilitarySpendingChange)
	}
	if act.Domestic.RDInvestmentChange != 0.008 {
		t.Errorf("rd = %v, want 0.008", act.Domestic.RDInvestmentChange)
	}
	if act.Domestic.ClimatePolicy != world.ClimateNone {
		t.Errorf("unknown climate policy should fall back to none, got %v", act.Domestic.ClimatePolicy)
	}
}

func TestNormalizeTruncatesAndRepairsDeals(t *testing.T) {
	act := world.NoOpAction("A", 0)
	for i := 0; i < 6; i++ {
		act.Foreign.TradeDeals = append(act.Foreign.TradeDeals, world.TradeDeal{
			Partner: "B", Resource: "uranium", Direction: "barter",
			VolumeChange: 500, PricePreference: "free",
		})
	}

	Normalize(act)

	if len(act.Foreign.TradeDeals) != 4 {
		t.Fatalf("deals = %d, want 4", len(act.Foreign.TradeDeals))
	}
	for _, deal := range act.Foreign.TradeDeals {
		if deal.VolumeChange != 50 {
			t.Errorf("volume = %v, want 50", deal.VolumeChange)
		}
		if deal.Resource != world.ResourceEnergy {
			t.Errorf("unknown resource should fall back to energy, got %v", deal.Resource)
		}
		if deal.Direction != world.DirectionImport {
			t.Errorf("unknown direction should fall back to import, got %v", deal.Direction)
		}
		if deal.PricePreference != world.PriceFair {
			t.Errorf("unknown preference should fall back to fair, got %v", deal.PricePreference)
		}
	}
}

func TestNormalizeDropsBlankTargets(t *testing.T) {
	act := world.NoOpAction("A", 0)
	act.Foreign.Sanctions = []world.SanctionIntent{
		{Target: "  ", Type: world.SanctionMild},
		{Target: "B", Type: world.SanctionLevel("annihilate")},
	}
	act.Foreign.TradeRestrictions = []world.TradeRestriction{
		{Target: "", Level: world.RestrictionHard},
		{Target: "B", Level: world.RestrictionSoft},
	}
	act.Foreign.Security = world.SecurityAction{Type: "invasion", Target: " B "}

	Normalize(act)

	if len(act.Foreign.Sanctions) != 1 {
		t.Fatalf("sanctions = %v", act.Foreign.Sanctions)
	}
	if act.Foreign.Sanctions[0].Type != world.SanctionNone {
		t.Errorf("unknown sanction type should fall back to none, got %v", act.Foreign.Sanctions[0].Type)
	}
	if len(act.Foreign.TradeRestrictions) != 1 || act.Foreign.TradeRestrictions[0].Target != "B" {
		t.Errorf("restrictions = %v", act.Foreign.TradeRestrictions)
	}
	if act.Foreign.Security.Type != world.SecurityNone || act.Foreign.Security.Target != "B" {
		t.Errorf("security = %+v", act.Foreign.Security)
	}
}

func TestApplyDomesticFiscalExpansionCapped(t *testing.T) {
	w := actionWorld()
	act := world.NoOpAction("A", 0)
	act.Domestic.SocialSpendingChange = 0.02
	act.Domestic.MilitarySpendingChange = 0.015
	act.Domestic.RDInvestmentChange = 0.008

	ApplyDomestic(w, act)

	total := act.Domestic.SocialSpendingChange +
		act.Domestic.MilitarySpendingChange +
		act.Domestic.RDInvestmentChange
	if total > 0.03+1e-9 {
		t.Errorf("combined expansion %v above cap", total)
	}
}

func TestApplyDomesticIndebtedCapTighter(t *testing.T) {
	w := actionWorld()
	w.Agent("A").Economy.PublicDebt = 1.5
	act := world.NoOpAction("A", 0)
	act.Domestic.SocialSpendingChange = 0.02
	act.Domestic.MilitarySpendingChange = 0.015

	ApplyDomestic(w, act)

	total := act.Domestic.SocialSpendingChange + act.Domestic.MilitarySpendingChange
	if total > 0.02+1e-9 {
		t.Errorf("indebted expansion %v above tight cap", total)
	}
}

func TestApplyDomesticSocialSpendingBuildsTrust(t *testing.T) {
	w := actionWorld()
	a := w.Agent("A")
	trustBefore := a.Society.TrustGov
	debtBefore := a.Economy.PublicDebt

	act := world.NoOpAction("A", 0)
	act.Domestic.SocialSpendingChange = 0.01
	ApplyDomestic(w, act)

	if a.Society.TrustGov <= trustBefore {
		t.Errorf("social spending should build trust")
	}
	if a.Economy.PublicDebt <= debtBefore {
		t.Errorf("spending should be debt financed")
	}
}

func TestApplyDomesticClimatePolicyCutsEmissions(t *testing.T) {
	w := actionWorld()
	a := w.Agent("A")
	before := a.Climate.AnnualEmissions

	act := world.NoOpAction("A", 0)
	act.Domestic.ClimatePolicy = world.ClimateStrong
	ApplyDomestic(w, act)

	if a.Climate.AnnualEmissions >= before {
		t.Errorf("strong policy should cut emissions: %v -> %v", before, a.Climate.AnnualEmissions)
	}
}

func TestFinanceIntentsLeaveEconomyUntouched(t *testing.T) {
	w := actionWorld()
	a := w.Agent("A")
	debtBefore := a.Economy.PublicDebt
	fxBefore := a.Economy.FXReserves

	act := world.NoOpAction("A", 0)
	act.Finance.BorrowFromGlobalMarkets = 0.02
	act.Finance.UseFXReservesChange = 0.01
	Normalize(act)
	ApplyDomestic(w, act)

	if a.Economy.PublicDebt != debtBefore {
		t.Errorf("finance intent moved debt: %v -> %v", debtBefore, a.Economy.PublicDebt)
	}
	if a.Economy.FXReserves != fxBefore {
		t.Errorf("finance intent moved reserves: %v -> %v", fxBefore, a.Economy.FXReserves)
	}
	if act.Finance.BorrowFromGlobalMarkets != 0.02 || act.Finance.UseFXReservesChange != 0.01 {
		t.Errorf("finance fields should survive for the action history: %+v", act.Finance)
	}
}

func TestNormalizeClampsNegativeBorrowing(t *testing.T) {
	act := world.NoOpAction("A", 0)
	act.Finance.BorrowFromGlobalMarkets = -3.0

	Normalize(act)

	if act.Finance.BorrowFromGlobalMarkets != 0 {
		t.Errorf("negative borrowing = %v, want 0", act.Finance.BorrowFromGlobalMarkets)
	}
}
