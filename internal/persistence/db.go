// Package persistence provides SQLite-based run history storage.
package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/Theclimateguy/GIM/internal/trade"
	"github.com/Theclimateguy/GIM/internal/world"
)

// DB wraps a SQLite connection for run history persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		policy_mode TEXT NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agent_snapshots (
		run_id TEXT NOT NULL,
		time INTEGER NOT NULL,
		agent_id TEXT NOT NULL,
		gdp REAL NOT NULL,
		gdp_per_capita REAL NOT NULL,
		capital REAL NOT NULL,
		population REAL NOT NULL,
		public_debt REAL NOT NULL,
		fx_reserves REAL NOT NULL,
		unemployment REAL NOT NULL,
		inflation REAL NOT NULL,
		trust_gov REAL NOT NULL,
		social_tension REAL NOT NULL,
		inequality_gini REAL NOT NULL,
		climate_risk REAL NOT NULL,
		co2_emissions REAL NOT NULL,
		alliance_block TEXT NOT NULL,
		influence_score REAL NOT NULL,
		security_margin REAL NOT NULL,
		credit_rating INTEGER NOT NULL,
		credit_zone TEXT NOT NULL,
		credit_risk REAL NOT NULL,
		PRIMARY KEY (run_id, time, agent_id)
	);

	CREATE TABLE IF NOT EXISTS global_snapshots (
		run_id TEXT NOT NULL,
		time INTEGER NOT NULL,
		co2 REAL NOT NULL,
		temperature REAL NOT NULL,
		temperature_ocean REAL NOT NULL,
		forcing REAL NOT NULL,
		biodiversity REAL NOT NULL,
		price_energy REAL NOT NULL,
		price_food REAL NOT NULL,
		price_metals REAL NOT NULL,
		PRIMARY KEY (run_id, time)
	);

	CREATE TABLE IF NOT EXISTS relation_snapshots (
		run_id TEXT NOT NULL,
		time INTEGER NOT NULL,
		from_id TEXT NOT NULL,
		to_id TEXT NOT NULL,
		trade_intensity REAL NOT NULL,
		trust REAL NOT NULL,
		conflict_level REAL NOT NULL,
		trade_barrier REAL NOT NULL,
		at_war INTEGER NOT NULL,
		PRIMARY KEY (run_id, time, from_id, to_id)
	);

	CREATE TABLE IF NOT EXISTS actions (
		run_id TEXT NOT NULL,
		time INTEGER NOT NULL,
		agent_id TEXT NOT NULL,
		agent_name TEXT NOT NULL,
		alliance_block TEXT NOT NULL,
		gdp REAL NOT NULL,
		trust_gov REAL NOT NULL,
		social_tension REAL NOT NULL,
		dom_tax_fuel_change REAL NOT NULL,
		dom_social_spending_change REAL NOT NULL,
		dom_military_spending_change REAL NOT NULL,
		dom_rd_investment_change REAL NOT NULL,
		dom_climate_policy TEXT NOT NULL,
		trade_deals TEXT NOT NULL,
		sanctions_intent TEXT NOT NULL,
		trade_restrictions_intent TEXT NOT NULL,
		security_intent_type TEXT NOT NULL,
		security_intent_target TEXT,
		security_applied_type TEXT NOT NULL,
		security_applied_target TEXT,
		active_sanctions TEXT NOT NULL,
		explanation TEXT,
		pol_legitimacy REAL NOT NULL,
		pol_protest_pressure REAL NOT NULL,
		pol_hawkishness REAL NOT NULL,
		pol_protectionism REAL NOT NULL,
		pol_coalition_openness REAL NOT NULL,
		pol_sanction_propensity REAL NOT NULL,
		pol_policy_space REAL NOT NULL,
		credit_rating INTEGER NOT NULL,
		credit_zone TEXT NOT NULL,
		credit_risk REAL NOT NULL,
		fin_borrow_from_global_markets REAL NOT NULL,
		fin_use_fx_reserves_change REAL NOT NULL,
		PRIMARY KEY (run_id, time, agent_id)
	);

	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		time INTEGER NOT NULL,
		exporter TEXT NOT NULL,
		importer TEXT NOT NULL,
		resource TEXT NOT NULL,
		volume REAL NOT NULL,
		price REAL NOT NULL,
		value REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS institution_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		time INTEGER NOT NULL,
		institution TEXT NOT NULL,
		measure TEXT NOT NULL,
		target TEXT,
		magnitude REAL NOT NULL,
		legitimacy REAL NOT NULL,
		budget REAL NOT NULL,
		members TEXT NOT NULL,
		world_gdp REAL NOT NULL,
		global_co2 REAL NOT NULL,
		global_temperature REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_agent_snapshots_time ON agent_snapshots(run_id, time);
	CREATE INDEX IF NOT EXISTS idx_trades_time ON trades(run_id, time);
	CREATE INDEX IF NOT EXISTS idx_actions_time ON actions(run_id, time);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run scopes all writes to one simulation run. It satisfies the engine's
// recorder contract.
type Run struct {
	db *DB
	id string
}

// NewRun registers a run and returns its recorder.
func (db *DB) NewRun(seed int64, policyMode string) (*Run, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, seed, policy_mode, started_at) VALUES (?, ?, ?, ?)",
		id, seed, policyMode, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &Run{db: db, id: id}, nil
}

// ID returns the run identifier.
func (r *Run) ID() string {
	return r.id
}

// RecordActions writes the per-agent action records and realized trades for
// the year in progress.
func (r *Run) RecordActions(
	w *world.WorldState,
	acts map[string]*world.Action,
	intents map[string]world.SecurityAction,
	realized []trade.Realized,
) error {
	tx, err := r.db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO actions
		(run_id, time, agent_id, agent_name, alliance_block, gdp, trust_gov, social_tension,
		 dom_tax_fuel_change, dom_social_spending_change, dom_military_spending_change,
		 dom_rd_investment_change, dom_climate_policy,
		 trade_deals, sanctions_intent, trade_restrictions_intent,
		 security_intent_type, security_intent_target,
		 security_applied_type, security_applied_target,
		 active_sanctions, explanation,
		 pol_legitimacy, pol_protest_pressure, pol_hawkishness, pol_protectionism,
		 pol_coalition_openness, pol_sanction_propensity, pol_policy_space,
		 credit_rating, credit_zone, credit_risk,
		 fin_borrow_from_global_markets, fin_use_fx_reserves_change)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
		        ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range w.Agents {
		act := acts[a.ID]
		if act == nil {
			continue
		}
		dealsJSON, _ := json.Marshal(act.Foreign.TradeDeals)
		sanctionsJSON, _ := json.Marshal(act.Foreign.Sanctions)
		restrictionsJSON, _ := json.Marshal(act.Foreign.TradeRestrictions)
		activeJSON, _ := json.Marshal(a.ActiveSanctions)

		intent := intents[a.ID]
		applied := act.Foreign.Security

		// a.Credit still holds the prior scoring pass here; ratings are
		// refreshed after the action log is written.
		_, err := stmt.Exec(
			r.id, w.Time, a.ID, a.Name, a.AllianceBlock,
			a.Economy.GDP, a.Society.TrustGov, a.Society.SocialTension,
			act.Domestic.TaxFuelChange, act.Domestic.SocialSpendingChange,
			act.Domestic.MilitarySpendingChange, act.Domestic.RDInvestmentChange,
			string(act.Domestic.ClimatePolicy),
			string(dealsJSON), string(sanctionsJSON), string(restrictionsJSON),
			string(intent.Type), intent.Target,
			string(applied.Type), applied.Target,
			string(activeJSON), act.Explanation,
			a.Political.Legitimacy, a.Political.ProtestPressure, a.Political.Hawkishness,
			a.Political.Protectionism, a.Political.CoalitionOpenness,
			a.Political.SanctionPropensity, a.Political.PolicySpace,
			a.Credit.Rating, a.Credit.Zone, a.Credit.Risk,
			act.Finance.BorrowFromGlobalMarkets, act.Finance.UseFXReservesChange,
		)
		if err != nil {
			return fmt.Errorf("insert action %s: %w", a.ID, err)
		}
	}

	for _, t := range realized {
		_, err := tx.Exec(
			`INSERT INTO trades (run_id, time, exporter, importer, resource, volume, price, value)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.id, w.Time, t.Exporter, t.Importer, t.Resource, t.Volume, t.Price, t.Value,
		)
		if err != nil {
			return fmt.Errorf("insert trade: %w", err)
		}
	}

	return tx.Commit()
}

// RecordState writes all end-of-year snapshots.
func (r *Run) RecordState(w *world.WorldState) error {
	tx, err := r.db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO agent_snapshots
		(run_id, time, agent_id, gdp, gdp_per_capita, capital, population, public_debt,
		 fx_reserves, unemployment, inflation, trust_gov, social_tension, inequality_gini,
		 climate_risk, co2_emissions, alliance_block, influence_score, security_margin,
		 credit_rating, credit_zone, credit_risk)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range w.Agents {
		_, err := stmt.Exec(
			r.id, w.Time, a.ID,
			a.Economy.GDP, a.Economy.GDPPerCapita, a.Economy.Capital, a.Economy.Population,
			a.Economy.PublicDebt, a.Economy.FXReserves, a.Economy.Unemployment,
			a.Economy.Inflation, a.Society.TrustGov, a.Society.SocialTension,
			a.Society.InequalityGini, a.Climate.Risk, a.Climate.AnnualEmissions,
			a.AllianceBlock, a.InfluenceScore, a.SecurityMargin,
			a.Credit.Rating, a.Credit.Zone, a.Credit.Risk,
		)
		if err != nil {
			return fmt.Errorf("insert snapshot %s: %w", a.ID, err)
		}
	}

	_, err = tx.Exec(
		`INSERT INTO global_snapshots
		 (run_id, time, co2, temperature, temperature_ocean, forcing, biodiversity,
		  price_energy, price_food, price_metals)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.id, w.Time, w.Global.CO2, w.Global.TemperatureGlobal, w.Global.TemperatureOcean,
		w.Global.ForcingTotal, w.Global.BiodiversityIndex,
		w.Global.Prices[world.ResourceEnergy], w.Global.Prices[world.ResourceFood],
		w.Global.Prices[world.ResourceMetals],
	)
	if err != nil {
		return fmt.Errorf("insert global snapshot: %w", err)
	}

	for _, from := range w.Agents {
		for _, to := range w.Agents {
			if from.ID == to.ID {
				continue
			}
			rel := w.Relation(from.ID, to.ID)
			if rel == nil {
				continue
			}
			atWar := 0
			if rel.AtWar {
				atWar = 1
			}
			_, err := tx.Exec(
				`INSERT INTO relation_snapshots
				 (run_id, time, from_id, to_id, trade_intensity, trust, conflict_level,
				  trade_barrier, at_war)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				r.id, w.Time, from.ID, to.ID,
				rel.TradeIntensity, rel.Trust, rel.ConflictLevel, rel.TradeBarrier, atWar,
			)
			if err != nil {
				return fmt.Errorf("insert relation %s->%s: %w", from.ID, to.ID, err)
			}
		}
	}

	orgs := make(map[string]*world.InstitutionState, len(w.Institutions))
	for _, org := range w.Institutions {
		orgs[org.ID] = org
	}
	worldGDP := w.TotalGDP()
	for _, rep := range w.Reports {
		var legitimacy, budget float64
		membersJSON := "[]"
		if org := orgs[rep.Institution]; org != nil {
			legitimacy = org.Legitimacy
			budget = org.Budget
			if raw, err := json.Marshal(org.Members); err == nil {
				membersJSON = string(raw)
			}
		}
		_, err := tx.Exec(
			`INSERT INTO institution_reports
			 (run_id, time, institution, measure, target, magnitude,
			  legitimacy, budget, members, world_gdp, global_co2, global_temperature)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.id, rep.Time, rep.Institution, rep.Measure, rep.Target, rep.Magnitude,
			legitimacy, budget, membersJSON,
			worldGDP, w.Global.CO2, w.Global.TemperatureGlobal,
		)
		if err != nil {
			return fmt.Errorf("insert institution report: %w", err)
		}
	}

	return tx.Commit()
}
