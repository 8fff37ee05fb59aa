// Package politics drives the endogenous political layer: per-agent
// political state, political filtering of raw decisions, sanction
// resolution, trade barriers, relation drift, and coalition membership.
package politics

import (
	"math"

	"github.com/Theclimateguy/GIM/internal/config"
	"github.com/Theclimateguy/GIM/internal/metrics"
	"github.com/Theclimateguy/GIM/internal/world"
)

// UpdateStates recomputes the political block of every agent from its
// current social, fiscal, and resource position.
func UpdateStates(w *world.WorldState, p config.PoliticalParams) {
	for _, a := range w.Agents {
		updateState(a, p)
	}
}

func updateState(a *world.AgentState, p config.PoliticalParams) {
	trust := world.Clamp01(a.Society.TrustGov)
	tension := world.Clamp01(a.Society.SocialTension)
	gini := world.Clamp01(a.Society.InequalityGini / 100.0)

	protestRisk := metrics.ProtestRisk(a)
	debtStress := world.Clamp01(metrics.DebtStress(a) / 3.0)

	legitimacy := world.Clamp01(0.6*trust + 0.4*(1.0-tension))
	protestPressure := world.Clamp01(0.5*protestRisk + 0.5*tension)

	reserves := metrics.ReserveYears(a)
	stress := func(years, threshold float64) float64 {
		return world.Clamp01(1.0 - years/threshold)
	}
	resourceStress := world.Clamp01(
		0.5*stress(reserves[world.ResourceEnergy], p.EnergyStressHorizon) +
			0.3*stress(reserves[world.ResourceFood], p.FoodStressHorizon) +
			0.2*stress(reserves[world.ResourceMetals], p.MetalsStressHorizon))

	hawkishness := world.Clamp01(
		0.3*a.Risk.ConflictProneness +
			0.25*(1.0-trust) +
			0.25*(1.0-a.Risk.RegimeStability) +
			0.20*resourceStress)
	protectionism := world.Clamp01(
		0.4*a.Economy.Unemployment + 0.3*gini + 0.3*(1.0-trust))
	openness := world.Clamp01(0.6*trust + 0.4*(1.0-tension))
	sanctionPropensity := world.Clamp01(0.6*hawkishness + 0.4*(1.0-openness))
	policySpace := world.Clamp01(
		0.5*legitimacy + 0.3*(1.0-protestPressure) + 0.2*(1.0-debtStress))

	a.Political.Legitimacy = legitimacy
	a.Political.ProtestPressure = protestPressure
	a.Political.Hawkishness = hawkishness
	a.Political.Protectionism = protectionism
	a.Political.CoalitionOpenness = openness
	a.Political.SanctionPropensity = sanctionPropensity
	a.Political.PolicySpace = policySpace
}

// ApplyConstraints rewrites an agent's raw decision in place to fit its
// political room for maneuver. Fiscal levers are scaled by policy space,
// unpopular fuel taxes are dampened under protest pressure, and external
// aggression is suppressed for weak governments.
func ApplyConstraints(action *world.Action, a *world.AgentState, p config.PoliticalParams) {
	pol := &a.Political
	dom := &action.Domestic

	scale := 0.4 + 0.6*world.Clamp01(pol.PolicySpace)

	if dom.TaxFuelChange > 0 {
		dom.TaxFuelChange *= math.Max(0.2, 1.0-0.7*pol.ProtestPressure)
	}
	dom.TaxFuelChange *= scale
	dom.SocialSpendingChange *= scale
	dom.MilitarySpendingChange *= scale
	dom.RDInvestmentChange *= scale

	fp := &action.Foreign

	if pol.SanctionPropensity < p.SanctionZeroBelow {
		fp.Sanctions = nil
	} else if pol.SanctionPropensity < p.SanctionMildBelow {
		for i := range fp.Sanctions {
			if fp.Sanctions[i].Type == world.SanctionStrong {
				fp.Sanctions[i].Type = world.SanctionMild
			}
		}
	}

	if pol.Protectionism < p.RestrictZeroBelow {
		fp.TradeRestrictions = nil
	} else if pol.Protectionism < p.RestrictSoftBelow {
		for i := range fp.TradeRestrictions {
			if fp.TradeRestrictions[i].Level == world.RestrictionHard {
				fp.TradeRestrictions[i].Level = world.RestrictionSoft
			}
		}
	}

	if pol.ProtestPressure > 0.7 && pol.Legitimacy < 0.4 {
		fp.Security = world.SecurityAction{Type: world.SecurityNone}
	}
}

func sanctionSeverity(t world.SanctionLevel) int {
	switch t {
	case world.SanctionMild:
		return 1
	case world.SanctionStrong:
		return 2
	default:
		return 0
	}
}

func restrictionSeverity(l world.RestrictionLevel) int {
	switch l {
	case world.RestrictionSoft:
		return 1
	case world.RestrictionHard:
		return 2
	default:
		return 0
	}
}

// sanctionIntents collapses repeated intents against the same target,
// keeping the strongest.
func sanctionIntents(action *world.Action) map[string]world.SanctionLevel {
	intents := make(map[string]world.SanctionLevel)
	if action == nil {
		return intents
	}
	for _, s := range action.Foreign.Sanctions {
		if s.Target == "" {
			continue
		}
		if sanctionSeverity(s.Type) > sanctionSeverity(intents[s.Target]) {
			intents[s.Target] = s.Type
		}
	}
	return intents
}

func restrictionIntents(action *world.Action) map[string]world.RestrictionLevel {
	intents := make(map[string]world.RestrictionLevel)
	if action == nil {
		return intents
	}
	for _, r := range action.Foreign.TradeRestrictions {
		if r.Target == "" {
			continue
		}
		if restrictionSeverity(r.Level) > restrictionSeverity(intents[r.Target]) {
			intents[r.Target] = r.Level
		}
	}
	return intents
}

// SanctionSupport scores how much political backing an actor has for
// sanctioning a target, given its declared intent.
func SanctionSupport(actor, target *world.AgentState, rel *world.RelationState, intent world.SanctionLevel, p config.SanctionParams) float64 {
	base := 0.4*actor.Political.SanctionPropensity +
		0.3*rel.ConflictLevel +
		0.3*(1.0-rel.Trust)
	switch intent {
	case world.SanctionStrong:
		base += p.StrongBonus
	case world.SanctionMild:
		base += p.MildBonus
	}
	if actor.AllianceBlock != "NonAligned" && actor.AllianceBlock == target.AllianceBlock {
		base *= p.SameBlockScale
	} else if actor.AllianceBlock != target.AllianceBlock {
		base += p.CrossBlockBump
	}
	return world.Clamp01(base)
}

func desiredSanction(support float64, p config.SanctionParams) world.SanctionLevel {
	if support < p.MildThreshold {
		return world.SanctionNone
	}
	if support < p.StrongCutoff {
		return world.SanctionMild
	}
	return world.SanctionStrong
}

// ResolveSanctions folds this year's intents into each actor's active
// regimes. New regimes carry a minimum duration; surviving regimes without
// fresh intent decay one year at a time.
func ResolveSanctions(w *world.WorldState, actions map[string]*world.Action, p config.SanctionParams) {
	for _, actor := range w.Agents {
		intents := sanctionIntents(actions[actor.ID])
		newActive := make(map[string]world.SanctionLevel)
		newYears := make(map[string]int)

		// Union of intents and active regimes, in canonical agent order.
		for _, target := range w.Agents {
			targetID := target.ID
			if targetID == actor.ID {
				continue
			}
			intent, hasIntent := intents[targetID]
			existing, hasExisting := actor.ActiveSanctions[targetID]
			if !hasIntent && !hasExisting {
				continue
			}
			existingYears := actor.SanctionYears[targetID]

			if hasIntent && intent != world.SanctionNone {
				rel := w.Relation(actor.ID, targetID)
				support := SanctionSupport(actor, target, rel, intent, p)
				desired := world.SanctionNone
				if support >= p.MildThreshold {
					desired = desiredSanction(support, p)
				}
				if desired != world.SanctionNone {
					if intent != world.SanctionStrong && desired == world.SanctionStrong {
						desired = world.SanctionMild
					}
					if sanctionSeverity(desired) < sanctionSeverity(intent) {
						desired = intent
					}
					newActive[targetID] = desired
					newYears[targetID] = max(existingYears, p.MinDuration)
					continue
				}
			}

			if hasExisting && existingYears > 0 {
				newActive[targetID] = existing
				newYears[targetID] = existingYears - 1
			}
		}

		actor.ActiveSanctions = newActive
		actor.SanctionYears = newYears
	}
}

// UpdateTradeBarriers moves every directed barrier toward its desired level
// with partial adjustment. Active sanctions impose floors; without any
// intent or sanction, only hostile relations sustain a barrier.
func UpdateTradeBarriers(w *world.WorldState, actions map[string]*world.Action, p config.BarrierParams) {
	for _, actor := range w.Agents {
		intents := restrictionIntents(actions[actor.ID])
		for _, target := range w.Agents {
			if target.ID == actor.ID {
				continue
			}
			rel := w.Relation(actor.ID, target.ID)

			intentLevel := intents[target.ID]
			var boost float64
			switch intentLevel {
			case world.RestrictionSoft:
				boost = p.SoftBoost
			case world.RestrictionHard:
				boost = p.HardBoost
			}

			base := 0.15*actor.Political.Protectionism +
				0.25*rel.ConflictLevel +
				0.25*(1.0-rel.Trust)
			if actor.AllianceBlock != "NonAligned" && actor.AllianceBlock == target.AllianceBlock {
				base *= 0.7
			}

			sanction := actor.ActiveSanctions[target.ID]
			hasIntent := intentLevel == world.RestrictionSoft || intentLevel == world.RestrictionHard

			var desired float64
			if hasIntent || sanction == world.SanctionMild || sanction == world.SanctionStrong {
				desired = base + boost
				switch sanction {
				case world.SanctionStrong:
					desired = math.Max(desired, p.StrongFloor)
				case world.SanctionMild:
					desired = math.Max(desired, p.MildFloor)
				}
			} else if rel.Trust < 0.25 || rel.ConflictLevel > 0.6 {
				desired = base * 0.7
			}

			desired = world.Clamp01(desired)
			rel.TradeBarrier = world.Clamp01((1-p.Smoothing)*rel.TradeBarrier + p.Smoothing*desired)
		}
	}
}

// ApplyBarrierEffects decays raw trade intensity under barriers, conflict,
// and social tension.
func ApplyBarrierEffects(w *world.WorldState) {
	for _, actor := range w.Agents {
		for _, target := range w.Agents {
			if target.ID == actor.ID {
				continue
			}
			rel := w.Relation(actor.ID, target.ID)
			avgTension := 0.5 * (world.Clamp01(actor.Society.SocialTension) + world.Clamp01(target.Society.SocialTension))
			friction := 0.04*world.Clamp01(rel.ConflictLevel) + 0.02*avgTension
			decay := 0.05*rel.TradeBarrier + friction
			rel.TradeIntensity = math.Max(0, rel.TradeIntensity*(1.0-decay))
		}
	}
}

// UpdateRelations drifts every directed relation toward its baselines while
// trade gaps, military imbalance, barriers, sanctions, conflict spillover,
// block rivalry, and institutional mediation push it around.
func UpdateRelations(w *world.WorldState) {
	const (
		baselineTrade    = 0.5
		baselineTrust    = 0.6
		baselineConflict = 0.1
	)

	// Trade-weighted average conflict per agent, for spillover.
	tradeConflict := make(map[string]float64, len(w.Agents))
	for _, actor := range w.Agents {
		var weighted, total float64
		for _, target := range w.Agents {
			if target.ID == actor.ID {
				continue
			}
			rel := w.Relation(actor.ID, target.ID)
			weight := math.Max(0, rel.TradeIntensity)
			weighted += weight * rel.ConflictLevel
			total += weight
		}
		if total > 0 {
			tradeConflict[actor.ID] = weighted / total
		}
	}

	type blockKey struct{ a, b string }
	blockSum := make(map[blockKey]float64)
	blockN := make(map[blockKey]int)
	for _, actor := range w.Agents {
		for _, target := range w.Agents {
			if target.ID == actor.ID {
				continue
			}
			key := blockKey{actor.AllianceBlock, target.AllianceBlock}
			blockSum[key] += w.Relation(actor.ID, target.ID).ConflictLevel
			blockN[key]++
		}
	}

	var securityOrgs []*world.InstitutionState
	var securityLegitimacy float64
	for _, org := range w.Institutions {
		if org.OrgType == "SecurityOrg" {
			securityOrgs = append(securityOrgs, org)
			securityLegitimacy += org.Legitimacy
		}
	}
	if len(securityOrgs) > 0 {
		securityLegitimacy /= float64(len(securityOrgs))
	}

	memberOf := func(org *world.InstitutionState, id string) bool {
		for _, m := range org.Members {
			if m == id {
				return true
			}
		}
		return false
	}

	for _, actor := range w.Agents {
		for _, target := range w.Agents {
			if target.ID == actor.ID {
				continue
			}
			rel := w.Relation(actor.ID, target.ID)

			avgTension := 0.5 * (world.Clamp01(actor.Society.SocialTension) + world.Clamp01(target.Society.SocialTension))
			tradeGap := rel.TradeIntensity - baselineTrade
			tradeShort := math.Max(0, baselineTrade-rel.TradeIntensity)

			ownMil := math.Max(actor.Technology.MilitaryPower, 1e-6)
			milGap := math.Max(0, (target.Technology.MilitaryPower-ownMil)/ownMil)

			var sanctionFlag float64
			if _, ok := actor.ActiveSanctions[target.ID]; ok {
				sanctionFlag = 1.0
			}
			barrier := world.Clamp01(rel.TradeBarrier)
			propagation := 0.03 * (tradeConflict[actor.ID] + tradeConflict[target.ID])

			var blockRivalry float64
			if actor.AllianceBlock != "NonAligned" && target.AllianceBlock != "NonAligned" {
				key := blockKey{actor.AllianceBlock, target.AllianceBlock}
				if n := blockN[key]; n > 0 {
					blockRivalry = 0.04 * blockSum[key] / float64(n)
				}
			}

			shared := false
			for _, org := range securityOrgs {
				if memberOf(org, actor.ID) && memberOf(org, target.ID) {
					shared = true
					break
				}
			}
			mediation := 0.03 * securityLegitimacy
			if shared {
				mediation *= 1.6
			}

			conflictDrift := 0.02 * (baselineConflict - rel.ConflictLevel)
			conflictPush := 0.04*tradeShort +
				0.05*avgTension +
				0.06*milGap +
				0.04*barrier +
				0.03*sanctionFlag +
				propagation +
				blockRivalry
			conflictPush = math.Max(0, conflictPush-mediation)
			rel.ConflictLevel = world.Clamp01(rel.ConflictLevel + conflictDrift + conflictPush)

			trustDrift := 0.02 * (baselineTrust - rel.Trust)
			trustPush := 0.04*tradeGap -
				0.05*rel.ConflictLevel -
				0.04*avgTension -
				0.05*barrier -
				0.03*sanctionFlag +
				0.5*mediation
			rel.Trust = world.Clamp01(rel.Trust + trustDrift + trustPush)
		}
	}
}

// blockScore values membership of one block for one agent. NonAligned is a
// small flat option; real blocks average trust, conflict, and trade toward
// current members.
func blockScore(w *world.WorldState, a *world.AgentState, block string, members map[string][]string) float64 {
	if block == "NonAligned" {
		return 0.05 * a.Political.CoalitionOpenness
	}
	var total float64
	var n int
	for _, memberID := range members[block] {
		if memberID == a.ID {
			continue
		}
		rel := w.Relation(a.ID, memberID)
		if rel == nil {
			continue
		}
		total += rel.Trust - 0.6*rel.ConflictLevel + 0.3*rel.EffectiveTradeIntensity()
		n++
	}
	if n == 0 {
		return -1.0
	}
	return a.Political.CoalitionOpenness * total / float64(n)
}

// UpdateCoalitions lets each agent reconsider its alliance block, switching
// only on a clear margin and after a cooldown since the last change.
func UpdateCoalitions(w *world.WorldState, p config.PoliticalParams) {
	members := make(map[string][]string)
	var blockOrder []string
	seen := map[string]bool{}
	for _, a := range w.Agents {
		if !seen[a.AllianceBlock] {
			seen[a.AllianceBlock] = true
			blockOrder = append(blockOrder, a.AllianceBlock)
		}
		members[a.AllianceBlock] = append(members[a.AllianceBlock], a.ID)
	}
	if !seen["NonAligned"] {
		blockOrder = append(blockOrder, "NonAligned")
	}

	for _, a := range w.Agents {
		if w.Time-a.Political.LastBlockChange < p.CoalitionCooldown {
			continue
		}
		current := a.AllianceBlock
		currentScore := blockScore(w, a, current, members)
		bestBlock, bestScore := current, currentScore
		for _, block := range blockOrder {
			if block == current {
				continue
			}
			if score := blockScore(w, a, block, members); score > bestScore {
				bestScore = score
				bestBlock = block
			}
		}
		if bestBlock != current && bestScore-currentScore > p.CoalitionMargin {
			a.AllianceBlock = bestBlock
			a.Political.LastBlockChange = w.Time
		}
	}
}

// ResolveForeignPolicy runs the yearly foreign-policy pipeline: sanctions,
// then barriers, then coalitions.
func ResolveForeignPolicy(w *world.WorldState, actions map[string]*world.Action, p config.Params) {
	ResolveSanctions(w, actions, p.Sanctions)
	UpdateTradeBarriers(w, actions, p.Barriers)
	UpdateCoalitions(w, p.Political)
}
