package policy

import (
	"fmt"
	"math"

	"github.com/Theclimateguy/GIM/internal/metrics"
	"github.com/Theclimateguy/GIM/internal/world"
)

// BuildObservation assembles the read-only view one agent sees before
// deciding. Everything is copied so a provider can never mutate the world.
func BuildObservation(w *world.WorldState, agentID string, mem world.MemorySummary) world.Observation {
	a := w.Agent(agentID)

	resources := make(map[string]world.ResourceStock, len(world.ResourceNames))
	netImports := make(map[string]float64, len(world.ResourceNames))
	for _, name := range world.ResourceNames {
		if res := a.Resource(name); res != nil {
			resources[name] = *res
			netImports[name] = math.Max(0, res.Consumption-res.Production)
		}
	}

	sanctions := make(map[string]world.SanctionLevel, len(a.ActiveSanctions))
	for target, level := range a.ActiveSanctions {
		sanctions[target] = level
	}

	credit := a.Credit
	credit.Details = make(map[string]float64, len(a.Credit.Details))
	for k, v := range a.Credit.Details {
		credit.Details[k] = v
	}

	obs := world.Observation{
		AgentID:    agentID,
		Time:       w.Time,
		Economy:    a.Economy,
		Resources:  resources,
		Society:    a.Society,
		Climate:    a.Climate,
		Culture:    a.Culture,
		Technology: a.Technology,
		Risk:       a.Risk,
		Political:  a.Political,
		Credit:     credit,

		AllianceBlock:   a.AllianceBlock,
		ActiveSanctions: sanctions,
		Competitive: world.CompetitiveView{
			GDPShare:       a.Economy.GDPShare,
			GDPRank:        a.Economy.GDPRank,
			InfluenceScore: a.InfluenceScore,
			SecurityMargin: a.SecurityMargin,
			ReserveYears:   metrics.ReserveYears(a),
			DebtStress:     metrics.DebtStress(a),
			ProtestRisk:    metrics.ProtestRisk(a),
		},
		NetImports: netImports,

		Global: w.Global.Clone(),
		Memory: mem,
		Summary: fmt.Sprintf("Year %d | GDP: %.1fT | Pop: %.0fM",
			w.Time, a.Economy.GDP, a.Economy.Population/1e6),
	}

	for _, other := range w.Agents {
		if other.ID == agentID {
			continue
		}
		rel := w.Relation(agentID, other.ID)
		if rel == nil {
			continue
		}
		obs.Neighbors = append(obs.Neighbors, world.NeighborView{
			AgentID:        other.ID,
			TradeIntensity: rel.TradeIntensity,
			TradeBarrier:   rel.TradeBarrier,
			Trust:          rel.Trust,
			ConflictLevel:  rel.ConflictLevel,
			GDP:            other.Economy.GDP,
			MilitaryPower:  other.Technology.MilitaryPower,
			AllianceBlock:  other.AllianceBlock,
			SanctionOnUs:   other.ActiveSanctions[agentID],
		})
	}

	for _, inst := range w.Institutions {
		member := false
		for _, id := range inst.Members {
			if id == agentID {
				member = true
				break
			}
		}
		obs.Institutions = append(obs.Institutions, world.InstitutionView{
			ID:         inst.ID,
			OrgType:    inst.OrgType,
			Legitimacy: inst.Legitimacy,
			Mandate:    append([]string(nil), inst.Mandate...),
			Members:    len(inst.Members),
			Member:     member,
		})
	}
	obs.Reports = append(obs.Reports, w.Reports...)

	return obs
}
