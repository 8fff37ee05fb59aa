// Package trade settles proposed bilateral deals under capacity, FX, and
// barrier constraints, and enforces the global zero-sum trade balance.
package trade

import (
	"math"

	"github.com/Theclimateguy/GIM/internal/config"
	"github.com/Theclimateguy/GIM/internal/world"
)

// Realized records one settled deal for reporting.
type Realized struct {
	Exporter string
	Importer string
	Resource string
	Volume   float64
	Price    float64
	Value    float64
}

// Settle executes every proposed deal in agent order, then redistributes
// any floating-point residual so net exports sum to zero.
func Settle(w *world.WorldState, acts map[string]*world.Action, p config.TradeParams) []Realized {
	for _, a := range w.Agents {
		a.Economy.NetExports = 0
	}

	var realized []Realized
	for _, initiator := range w.Agents {
		action := acts[initiator.ID]
		if action == nil {
			continue
		}
		for _, deal := range action.Foreign.TradeDeals {
			if r, ok := settleDeal(w, initiator, deal, p); ok {
				realized = append(realized, r)
			}
		}
	}

	enforceBalance(w, p.BalanceTolerance)
	return realized
}

func settleDeal(w *world.WorldState, initiator *world.AgentState, deal world.TradeDeal, p config.TradeParams) (Realized, bool) {
	partner := w.Agent(deal.Partner)
	if partner == nil || partner.ID == initiator.ID {
		return Realized{}, false
	}
	if initiator.Resource(deal.Resource) == nil || partner.Resource(deal.Resource) == nil {
		return Realized{}, false
	}
	desired := math.Max(0, deal.VolumeChange)
	if desired <= 0 {
		return Realized{}, false
	}

	price := w.Global.Prices[deal.Resource] * deal.PricePreference.Multiplier()
	if price <= 0 {
		return Realized{}, false
	}

	var exporter, importer *world.AgentState
	switch deal.Direction {
	case world.DirectionExport:
		exporter, importer = initiator, partner
	case world.DirectionImport:
		exporter, importer = partner, initiator
	default:
		return Realized{}, false
	}

	exp := exporter.Resource(deal.Resource)
	surplus := math.Max(0, exp.Production-exp.Consumption)
	capacity := surplus + p.ReserveBuffer*math.Max(0, exp.OwnReserve)
	if capacity <= 0 {
		return Realized{}, false
	}

	fxCapacity := (math.Max(0, importer.Economy.FXReserves) + p.TradeCreditShare*math.Max(0, importer.Economy.GDP)) / price

	relIE := w.Relation(initiator.ID, partner.ID)
	relEI := w.Relation(partner.ID, initiator.ID)
	barrier := math.Max(world.Clamp01(relIE.TradeBarrier), world.Clamp01(relEI.TradeBarrier))

	volume := math.Min(desired, math.Min(capacity, fxCapacity))
	volume *= 1.0 - barrier
	if volume <= 0 {
		return Realized{}, false
	}

	value := volume * price

	// Any volume beyond the production surplus draws down the exporter's
	// own reserve.
	if drawdown := volume - surplus; drawdown > 0 {
		exp.OwnReserve = math.Max(0, exp.OwnReserve-drawdown)
	}

	importer.Resource(deal.Resource).Consumption += volume
	exporter.Economy.FXReserves += value
	importer.Economy.FXReserves -= value
	exporter.Economy.NetExports += value
	importer.Economy.NetExports -= value

	switch deal.Resource {
	case world.ResourceMetals:
		importer.Economy.Capital += p.MetalsCapitalRate * volume
	case world.ResourceFood:
		importer.Society.SocialTension = world.Clamp01(
			importer.Society.SocialTension - math.Min(0.02, p.FoodTensionRate*volume))
		importer.Society.TrustGov = world.Clamp01(
			importer.Society.TrustGov + math.Min(0.01, p.FoodTrustRate*volume))
	}

	boost := math.Min(p.IntensityCap, p.IntensityRate*volume)
	relIE.TradeIntensity += boost
	relEI.TradeIntensity += boost

	return Realized{
		Exporter: exporter.ID,
		Importer: importer.ID,
		Resource: deal.Resource,
		Volume:   volume,
		Price:    price,
		Value:    value,
	}, true
}

// enforceBalance redistributes the net-export residual. Weights fall back
// from absolute net exports to GDP to an equal split, so the correction is
// deterministic regardless of how degenerate the year was.
func enforceBalance(w *world.WorldState, tolerance float64) {
	var residual float64
	for _, a := range w.Agents {
		residual -= a.Economy.NetExports
	}
	if math.Abs(residual) <= tolerance {
		return
	}

	weights := make([]float64, len(w.Agents))
	var total float64
	for i, a := range w.Agents {
		weights[i] = math.Abs(a.Economy.NetExports)
		total += weights[i]
	}
	if total <= 0 {
		for i, a := range w.Agents {
			weights[i] = math.Max(0, a.Economy.GDP)
			total += weights[i]
		}
	}
	if total <= 0 {
		for i := range weights {
			weights[i] = 1
		}
		total = float64(len(weights))
	}
	for i, a := range w.Agents {
		a.Economy.NetExports += residual * weights[i] / total
	}
}
