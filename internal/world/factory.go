package world

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/Theclimateguy/GIM/internal/config"
)

// requiredColumns must be present and non-empty on every row.
var requiredColumns = []string{
	"id", "name", "region", "regime_type",
	"gdp", "population", "fx_reserves",
	"trust_gov", "social_tension", "inequality_gini", "climate_risk",
	"pdi", "idv", "mas", "uai", "lto", "ind",
	"survival_self_expression", "traditional_secular",
}

var requiredNumeric = map[string]bool{
	"gdp": true, "population": true, "fx_reserves": true,
	"trust_gov": true, "social_tension": true, "inequality_gini": true,
	"climate_risk": true, "pdi": true, "idv": true, "mas": true,
	"uai": true, "lto": true, "ind": true,
	"survival_self_expression": true, "traditional_secular": true,
}

var optionalNumeric = []string{
	"public_debt",
	"energy_reserve", "energy_production", "energy_consumption",
	"food_reserve", "food_production", "food_consumption",
	"metals_reserve", "metals_production", "metals_consumption",
	"co2_annual_emissions", "biodiversity_local",
	"water_stress", "regime_stability", "debt_crisis_prone", "conflict_proneness",
	"tech_level", "military_power", "security_index",
}

type row struct {
	cols map[string]string
	num  int
	path string
}

func (r row) get(name string) string {
	return strings.TrimSpace(r.cols[name])
}

func (r row) float(name string) (float64, error) {
	raw := r.get(name)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("csv %s row %d: field %q must be numeric, got %q", r.path, r.num, name, raw)
	}
	return v, nil
}

func (r row) floatOr(name string, def float64) (float64, error) {
	raw := r.get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("csv %s row %d: field %q must be numeric when provided, got %q", r.path, r.num, name, raw)
	}
	return v, nil
}

func (r row) validate() error {
	for _, col := range requiredColumns {
		if r.get(col) == "" {
			return fmt.Errorf("csv %s row %d: empty required field %q", r.path, r.num, col)
		}
		if requiredNumeric[col] {
			if _, err := r.float(col); err != nil {
				return err
			}
		}
	}
	for _, col := range optionalNumeric {
		if _, err := r.floatOr(col, 0); err != nil {
			return err
		}
	}
	return nil
}

// LoadWorldCSV builds the initial world from a country table. Agent order
// follows row order. maxAgents <= 0 keeps every row. Validation is
// fail-fast: the first malformed row aborts the load.
func LoadWorldCSV(path string, maxAgents int, p config.Params) (*WorldState, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open world csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("csv %s: missing required columns: %s", path, strings.Join(missing, ", "))
	}

	world := NewWorldState(0)
	for rowNum := 2; ; rowNum++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv %s row %d: %w", path, rowNum, err)
		}
		if maxAgents > 0 && len(world.Agents) >= maxAgents {
			break
		}

		cols := make(map[string]string, len(colIdx))
		for name, i := range colIdx {
			if i < len(record) {
				cols[name] = record[i]
			}
		}
		r := row{cols: cols, num: rowNum, path: path}
		if err := r.validate(); err != nil {
			return nil, err
		}

		id := r.get("id")
		if world.HasAgent(id) {
			// Keep the first occurrence of a duplicated id.
			continue
		}

		agent, err := agentFromRow(r)
		if err != nil {
			return nil, err
		}
		world.AddAgent(agent)
	}

	if len(world.Agents) == 0 {
		return nil, fmt.Errorf("csv %s: no valid country rows found", path)
	}

	for _, a := range world.Agents {
		for _, b := range world.Agents {
			if a.ID == b.ID {
				continue
			}
			world.Relations[Pair{From: a.ID, To: b.ID}] = &RelationState{
				TradeIntensity: 0.5,
				Trust:          0.6,
				ConflictLevel:  0.1,
			}
		}
	}

	world.Global = DefaultGlobalState(p.Climate)
	initGlobalBaselines(world)
	return world, nil
}

func agentFromRow(r row) (*AgentState, error) {
	gdp, _ := r.float("gdp")
	population, _ := r.float("population")
	fx, _ := r.float("fx_reserves")
	debt, err := r.floatOr("public_debt", 0)
	if err != nil {
		return nil, err
	}

	gdpPC := 0.0
	if population > 0 {
		gdpPC = gdp * 1e12 / population
	}
	economy := EconomyState{
		GDP:          gdp,
		Capital:      3.0 * gdp,
		Population:   population,
		PublicDebt:   debt,
		FXReserves:   fx,
		GDPPerCapita: gdpPC,
		Unemployment: 0.04,
		Inflation:    0.02,
		BirthRate:    0.012,
		DeathRate:    0.008,
	}

	resources := make(map[string]*ResourceStock, 3)
	defaults := map[string][3]float64{
		ResourceEnergy: {20.0, 100.0, 100.0},
		ResourceFood:   {10.0, 50.0, 50.0},
		ResourceMetals: {30.0, 20.0, 20.0},
	}
	for _, name := range ResourceNames {
		d := defaults[name]
		reserve, err := r.floatOr(name+"_reserve", d[0])
		if err != nil {
			return nil, err
		}
		production, err := r.floatOr(name+"_production", d[1])
		if err != nil {
			return nil, err
		}
		consumption, err := r.floatOr(name+"_consumption", d[2])
		if err != nil {
			return nil, err
		}
		resources[name] = &ResourceStock{
			OwnReserve:  reserve,
			Production:  production,
			Consumption: consumption,
			Efficiency:  1.0,
		}
	}

	trust, _ := r.float("trust_gov")
	tension, _ := r.float("social_tension")
	gini, _ := r.float("inequality_gini")
	climateRisk, _ := r.float("climate_risk")
	emissions, _ := r.floatOr("co2_annual_emissions", 0)
	bioLocal, _ := r.floatOr("biodiversity_local", 0.8)
	water, _ := r.floatOr("water_stress", 0.5)
	stability, _ := r.floatOr("regime_stability", 0.6)
	debtProne, _ := r.floatOr("debt_crisis_prone", 0.5)
	conflictProne, _ := r.floatOr("conflict_proneness", 0.4)
	techLevel, _ := r.floatOr("tech_level", 1.0)
	military, _ := r.floatOr("military_power", 1.0)
	security, _ := r.floatOr("security_index", 0.5)

	pdi, _ := r.float("pdi")
	idv, _ := r.float("idv")
	mas, _ := r.float("mas")
	uai, _ := r.float("uai")
	lto, _ := r.float("lto")
	ind, _ := r.float("ind")
	survival, _ := r.float("survival_self_expression")
	secular, _ := r.float("traditional_secular")

	block := r.get("alliance_block")
	if block == "" {
		block = "NonAligned"
	}

	return &AgentState{
		ID:        r.get("id"),
		Type:      "country",
		Name:      r.get("name"),
		Region:    r.get("region"),
		Economy:   economy,
		Resources: resources,
		Society: SocietyState{
			TrustGov:       trust,
			SocialTension:  tension,
			InequalityGini: gini,
		},
		Climate: ClimateLocalState{
			Risk:              climateRisk,
			AnnualEmissions:   emissions,
			BiodiversityLocal: bioLocal,
		},
		Culture: CulturalState{
			PDI: pdi, IDV: idv, MAS: mas, UAI: uai, LTO: lto, IND: ind,
			SurvivalSelfExpression: survival,
			TraditionalSecular:     secular,
			RegimeType:             r.get("regime_type"),
		},
		Technology: TechnologyState{
			TechLevel:     techLevel,
			MilitaryPower: military,
			SecurityIndex: security,
		},
		Risk: RiskState{
			WaterStress:       water,
			RegimeStability:   stability,
			DebtCrisisProne:   debtProne,
			ConflictProneness: conflictProne,
		},
		Political: PoliticalState{
			Legitimacy:         0.5,
			Hawkishness:        0.5,
			Protectionism:      0.3,
			CoalitionOpenness:  0.5,
			SanctionPropensity: 0.4,
			PolicySpace:        0.5,
			LastBlockChange:    -999,
		},
		AllianceBlock:   block,
		ActiveSanctions: make(map[string]SanctionLevel),
		SanctionYears:   make(map[string]int),
	}, nil
}

// initGlobalBaselines derives the baseline world GDP per capita and the
// population-weighted biodiversity index from the loaded agents.
func initGlobalBaselines(w *WorldState) {
	var totalPop, totalGDP, weightSum, bioSum float64
	for _, a := range w.Agents {
		totalPop += a.Economy.Population
		totalGDP += a.Economy.GDP
		weight := math.Pow(a.Economy.Population, 0.3)
		weightSum += weight
		bioSum += a.Climate.BiodiversityLocal * weight
	}
	if totalPop > 0 {
		w.Global.BaselineGDPPC = totalGDP * 1e12 / totalPop
	} else {
		w.Global.BaselineGDPPC = 10000.0
	}
	if weightSum > 0 {
		w.Global.BiodiversityIndex = bioSum / weightSum
	}
}
