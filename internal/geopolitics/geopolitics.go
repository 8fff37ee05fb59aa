// Package geopolitics applies sanction damage, resolves security actions
// with an escalation gate, and advances active wars to exhaustion.
package geopolitics

import (
	"math"
	"math/rand"

	"github.com/Theclimateguy/GIM/internal/config"
	"github.com/Theclimateguy/GIM/internal/world"
)

// ApplySanctionEffects damages links and targets under every active regime.
// Per-link effects run first in actor order; then each target absorbs an
// aggregate penalty that grows sublinearly with the number of sanctioners.
func ApplySanctionEffects(w *world.WorldState) {
	type entry struct {
		actor  *world.AgentState
		target *world.AgentState
		level  world.SanctionLevel
	}
	var entries []entry
	mildCount := make(map[string]int)
	strongCount := make(map[string]int)

	for _, actor := range w.Agents {
		for _, target := range w.Agents {
			if target.ID == actor.ID {
				continue
			}
			level, ok := actor.ActiveSanctions[target.ID]
			if !ok || level == world.SanctionNone {
				continue
			}
			entries = append(entries, entry{actor, target, level})
			switch level {
			case world.SanctionMild:
				mildCount[target.ID]++
			case world.SanctionStrong:
				strongCount[target.ID]++
			}
		}
	}

	for _, e := range entries {
		rel := w.Relation(e.actor.ID, e.target.ID)
		switch e.level {
		case world.SanctionMild:
			rel.TradeIntensity *= 0.85
			rel.Trust *= 0.92
			rel.TradeBarrier = math.Min(1.0, rel.TradeBarrier+0.05)
		case world.SanctionStrong:
			rel.TradeIntensity *= 0.65
			rel.Trust *= 0.85
			rel.TradeBarrier = math.Min(1.0, rel.TradeBarrier+0.15)
			e.actor.Economy.GDP *= 0.995
		}
	}

	for _, target := range w.Agents {
		mild := float64(mildCount[target.ID])
		strong := float64(strongCount[target.ID])
		if mild <= 0 && strong <= 0 {
			continue
		}
		mildFactor := math.Sqrt(mild)
		strongFactor := math.Sqrt(strong)

		gdpPenalty := math.Min(0.12, 0.01*mildFactor+0.03*strongFactor)
		target.Economy.GDP *= math.Max(0, 1.0-gdpPenalty)

		scale := math.Min(0.12, 0.02*mildFactor+0.06*strongFactor)
		autocracyBias := math.Min(0.04, 0.01*mildFactor+0.02*strongFactor)
		tensionIncrease := math.Min(0.08, 0.015*mildFactor+0.05*strongFactor)
		applySocialReaction(target, scale, autocracyBias, tensionIncrease)
	}
}

// applySocialReaction models how a sanctioned society reacts. High power
// distance under autocracy produces a rally effect; elsewhere the public
// blames the government, more so with strong self-expression values.
func applySocialReaction(target *world.AgentState, scale, autocracyBias, tensionIncrease float64) {
	pdi := target.Culture.PDI / 100.0
	selfExpression := target.Culture.SurvivalSelfExpression / 10.0

	rally := scale * pdi
	blame := scale * (1.0 - pdi) * (0.5 + selfExpression)

	var trustDelta float64
	if target.Culture.RegimeType == "Autocracy" {
		trustDelta = rally - autocracyBias
	} else {
		trustDelta = -blame
	}
	target.Society.TrustGov = world.Clamp01(target.Society.TrustGov + trustDelta)
	target.Society.SocialTension = world.Clamp01(target.Society.SocialTension + tensionIncrease)
}

func resourceStress(a *world.AgentState) float64 {
	stress := func(years, threshold float64) float64 {
		return world.Clamp01(1.0 - years/threshold)
	}
	years := func(name string) float64 {
		r := a.Resource(name)
		return r.OwnReserve / math.Max(r.Production, 1e-6)
	}
	return world.Clamp01(
		0.5*stress(years(world.ResourceEnergy), 5.0) +
			0.3*stress(years(world.ResourceFood), 3.0) +
			0.2*stress(years(world.ResourceMetals), 5.0))
}

// autoSecurityAction generates a spontaneous escalation for actors that
// declared none, when conflict, resource stress, tension, and fragility
// line up. The rng is consumed only when a candidate trigger exists.
func autoSecurityAction(w *world.WorldState, actor *world.AgentState, rng *rand.Rand) (world.SecurityActionType, string, bool) {
	var bestTarget string
	var bestScore float64
	for _, target := range w.Agents {
		if target.ID == actor.ID {
			continue
		}
		rel := w.Relation(actor.ID, target.ID)
		score := rel.ConflictLevel + 0.5*(1.0-rel.Trust)
		if score > bestScore {
			bestScore = score
			bestTarget = target.ID
		}
	}
	if bestTarget == "" {
		return world.SecurityNone, "", false
	}
	rel := w.Relation(actor.ID, bestTarget)

	stress := resourceStress(actor)
	tension := world.Clamp01(actor.Society.SocialTension)
	fragility := 1.0 - world.Clamp01(actor.Risk.RegimeStability)

	trigger := bestScore * (0.55 + 0.45*stress)
	trigger *= 0.55 + 0.45*tension
	trigger *= 0.6 + 0.4*fragility

	if trigger < 0.45 || rel.ConflictLevel < 0.45 {
		return world.SecurityNone, "", false
	}

	roll := rng.Float64()
	if trigger > 0.8 && roll < 0.2*trigger {
		return world.SecurityBorderIncident, bestTarget, true
	}
	if trigger > 0.65 && roll < 0.12*trigger {
		return world.SecurityArmsBuildup, bestTarget, true
	}
	if roll < 0.05*trigger {
		return world.SecurityMilitaryExercise, bestTarget, true
	}
	return world.SecurityNone, "", false
}

// GateEscalation downgrades a declared action that outruns the bilateral
// relationship: open conflict needs sustained hostility and broken trust,
// border incidents need a minimum of conflict.
func GateEscalation(declared world.SecurityActionType, relAT, relTA *world.RelationState, p config.SecurityParams) world.SecurityActionType {
	avgConflict := 0.5 * (relAT.ConflictLevel + relTA.ConflictLevel)
	if declared == world.SecurityConflict && (avgConflict < p.ConflictGateConflict || relAT.Trust > p.ConflictGateTrust) {
		return world.SecurityBorderIncident
	}
	if declared == world.SecurityBorderIncident && avgConflict < p.IncidentGateConflict {
		return world.SecurityMilitaryExercise
	}
	return declared
}

// ApplySecurityActions resolves every agent's security move for the year,
// in agent order. Actors that declared none may still escalate
// spontaneously.
func ApplySecurityActions(w *world.WorldState, actions map[string]*world.Action, p config.SecurityParams, rng *rand.Rand) {
	for _, actor := range w.Agents {
		action := actions[actor.ID]
		if action == nil {
			continue
		}
		sec := action.Foreign.Security
		if sec.Type == world.SecurityNone {
			t, target, ok := autoSecurityAction(w, actor, rng)
			if !ok {
				continue
			}
			sec.Type, sec.Target = t, target
		}
		if sec.Target == "" || sec.Target == actor.ID || !w.HasAgent(sec.Target) {
			continue
		}
		target := w.Agent(sec.Target)
		relAT := w.Relation(actor.ID, target.ID)
		relTA := w.Relation(target.ID, actor.ID)

		sec.Type = GateEscalation(sec.Type, relAT, relTA, p)
		action.Foreign.Security = sec

		switch sec.Type {
		case world.SecurityMilitaryExercise:
			relAT.ConflictLevel = math.Min(1.0, relAT.ConflictLevel+0.05)
			relTA.ConflictLevel = math.Min(1.0, relTA.ConflictLevel+0.05)
			relAT.Trust *= 0.98
			relTA.Trust *= 0.98

		case world.SecurityArmsBuildup:
			actor.Technology.MilitaryPower *= 1.05
			relAT.ConflictLevel = math.Min(1.0, relAT.ConflictLevel+0.08)
			relTA.ConflictLevel = math.Min(1.0, relTA.ConflictLevel+0.08)

		case world.SecurityBorderIncident:
			relAT.ConflictLevel = math.Min(1.0, relAT.ConflictLevel+0.20)
			relTA.ConflictLevel = math.Min(1.0, relTA.ConflictLevel+0.20)
			for _, side := range []*world.AgentState{actor, target} {
				side.Economy.GDP *= 0.99
				side.Society.SocialTension = math.Min(1.0, side.Society.SocialTension+0.05)
				side.Society.TrustGov = math.Max(0, side.Society.TrustGov-0.03)
			}

		case world.SecurityConflict:
			startWar(actor, target, relAT, relTA)
		}
	}
}

// startWar applies the opening-strike damage and arms both directed
// relations with a war snapshot for later exhaustion checks.
func startWar(actor, target *world.AgentState, relAT, relTA *world.RelationState) {
	total := math.Max(actor.Technology.MilitaryPower+target.Technology.MilitaryPower, 1e-6)
	shareActor := actor.Technology.MilitaryPower / total
	shareTarget := target.Technology.MilitaryPower / total

	const baseCapitalLoss, baseGDPLoss = 0.15, 0.10
	actor.Economy.Capital *= math.Max(0, 1.0-baseCapitalLoss*(0.7+0.6*(1.0-shareActor)))
	target.Economy.Capital *= math.Max(0, 1.0-baseCapitalLoss*(0.7+0.6*(1.0-shareTarget)))
	actor.Economy.GDP *= math.Max(0, 1.0-baseGDPLoss*(0.7+0.6*(1.0-shareActor)))
	target.Economy.GDP *= math.Max(0, 1.0-baseGDPLoss*(0.7+0.6*(1.0-shareTarget)))

	for _, side := range []*world.AgentState{actor, target} {
		side.Society.SocialTension = math.Min(1.0, side.Society.SocialTension+0.15)
		side.Society.TrustGov = math.Max(0, side.Society.TrustGov-0.10)
	}

	relAT.ConflictLevel = math.Min(1.0, relAT.ConflictLevel+0.4)
	relTA.ConflictLevel = math.Min(1.0, relTA.ConflictLevel+0.4)
	relAT.Trust *= 0.8
	relTA.Trust *= 0.8

	relAT.AtWar = true
	relTA.AtWar = true
	ensureWarStart(relAT, actor)
	ensureWarStart(relTA, target)
}

func ensureWarStart(rel *world.RelationState, side *world.AgentState) {
	if rel.WarStartGDP > 0 {
		return
	}
	rel.WarStartGDP = math.Max(side.Economy.GDP, 1e-6)
	rel.WarStartPop = math.Max(side.Economy.Population, 1.0)
	rel.WarStartResource = math.Max(world.WarResourceIndex(side), 1e-6)
}

func exhausted(rel *world.RelationState, side *world.AgentState, p config.WarParams) bool {
	gdpOK := side.Economy.GDP >= p.GDPExhaustion*rel.WarStartGDP
	popOK := side.Economy.Population >= p.PopExhaustion*rel.WarStartPop
	resOK := world.WarResourceIndex(side) >= p.ResExhaustion*rel.WarStartResource
	return !(gdpOK && popOK && resOK)
}

// UpdateActiveConflicts advances every war one year: attrition on both
// sides, trade collapse, and termination once either side is exhausted.
func UpdateActiveConflicts(w *world.WorldState, p config.WarParams) {
	for i, actor := range w.Agents {
		for _, target := range w.Agents[i+1:] {
			relAT := w.Relation(actor.ID, target.ID)
			relTA := w.Relation(target.ID, actor.ID)
			if !(relAT.AtWar || relTA.AtWar) {
				continue
			}

			relAT.AtWar = true
			relTA.AtWar = true
			relAT.WarYears++
			relTA.WarYears++
			ensureWarStart(relAT, actor)
			ensureWarStart(relTA, target)

			milActor := math.Max(actor.Technology.MilitaryPower, 1e-6)
			milTarget := math.Max(target.Technology.MilitaryPower, 1e-6)
			total := milActor + milTarget
			shareActor := milActor / total
			shareTarget := milTarget / total

			actor.Economy.Capital *= math.Max(0, 1.0-p.AnnualCapitalLoss*(0.8+0.4*(1.0-shareActor)))
			target.Economy.Capital *= math.Max(0, 1.0-p.AnnualCapitalLoss*(0.8+0.4*(1.0-shareTarget)))
			actor.Economy.GDP *= math.Max(0, 1.0-p.AnnualGDPLoss*(0.8+0.4*(1.0-shareActor)))
			target.Economy.GDP *= math.Max(0, 1.0-p.AnnualGDPLoss*(0.8+0.4*(1.0-shareTarget)))

			relAT.TradeIntensity *= 0.92
			relTA.TradeIntensity *= 0.92

			actorExhausted := exhausted(relAT, actor, p)
			targetExhausted := exhausted(relTA, target, p)
			if !(actorExhausted || targetExhausted) {
				continue
			}

			for _, rel := range []*world.RelationState{relAT, relTA} {
				rel.AtWar = false
				rel.WarYears = 0
				rel.WarStartGDP = 0
				rel.WarStartPop = 0
				rel.WarStartResource = 0
			}

			if actorExhausted && targetExhausted {
				for _, side := range []*world.AgentState{actor, target} {
					side.Technology.MilitaryPower *= 0.9
					side.Society.SocialTension = math.Min(1.0, side.Society.SocialTension+0.08)
					side.Society.TrustGov = math.Max(0, side.Society.TrustGov-0.05)
				}
				relAT.ConflictLevel = 0.45
				relTA.ConflictLevel = 0.45
				relAT.Trust *= 0.9
				relTA.Trust *= 0.9
				continue
			}

			winner, loser := actor, target
			if actorExhausted {
				winner, loser = target, actor
			}
			winner.Society.TrustGov = world.Clamp01(winner.Society.TrustGov + 0.03)
			winner.Society.SocialTension = math.Max(0, winner.Society.SocialTension-0.03)
			loser.Society.TrustGov = math.Max(0, loser.Society.TrustGov-0.08)
			loser.Society.SocialTension = math.Min(1.0, loser.Society.SocialTension+0.10)
			loser.Technology.MilitaryPower *= 0.85

			relAT.ConflictLevel = 0.5
			relTA.ConflictLevel = 0.5
			relAT.Trust *= 0.85
			relTA.Trust *= 0.85
		}
	}
}
