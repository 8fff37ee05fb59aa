// Package resources runs the three global resource markets: energy under a
// finite world reserve with an annual supply cap, food as a renewable
// stock, and metals with price substitution and recycling.
package resources

import (
	"math"

	"github.com/Theclimateguy/GIM/internal/config"
	"github.com/Theclimateguy/GIM/internal/world"
)

// EnergyAllocation is one agent's slice of the world energy budget.
type EnergyAllocation struct {
	ReserveZJ float64
	ProdCapZJ float64
}

// AllocateEnergy splits the remaining world energy reserve and the annual
// supply cap proportional to each agent's own reserve. With no reserves
// anywhere, the budget is split equally.
func AllocateEnergy(w *world.WorldState) map[string]EnergyAllocation {
	globalReserve := w.Global.GlobalReserves[world.ResourceEnergy]

	keys := make(map[string]float64, len(w.Agents))
	var totalKey float64
	for _, a := range w.Agents {
		key := math.Max(a.Resource(world.ResourceEnergy).OwnReserve, 0)
		keys[a.ID] = key
		totalKey += key
	}

	alloc := make(map[string]EnergyAllocation, len(w.Agents))
	if totalKey <= 0 {
		n := float64(max(len(w.Agents), 1))
		for _, a := range w.Agents {
			alloc[a.ID] = EnergyAllocation{
				ReserveZJ: globalReserve / n,
				ProdCapZJ: config.WorldAnnualSupplyCapZJ / n,
			}
		}
		return alloc
	}
	for _, a := range w.Agents {
		share := keys[a.ID] / totalKey
		alloc[a.ID] = EnergyAllocation{
			ReserveZJ: share * globalReserve,
			ProdCapZJ: share * config.WorldAnnualSupplyCapZJ,
		}
	}
	return alloc
}

// UpdateStocks advances every agent's resource position one year and
// depletes the global reserves by realized primary production.
func UpdateStocks(w *world.WorldState, alloc map[string]EnergyAllocation, p config.ResourceParams) {
	regen := map[string]float64{
		world.ResourceEnergy: 0.0,
		world.ResourceFood:   p.FoodRegen,
		world.ResourceMetals: 0.0,
	}
	techExpansion := map[string]float64{
		world.ResourceEnergy: p.EnergyTechExpansion,
		world.ResourceFood:   0.0,
		world.ResourceMetals: p.MetalsTechExpansion,
	}

	totalPrimary := map[string]float64{}

	for _, a := range w.Agents {
		for _, name := range world.ResourceNames {
			res := a.Resource(name)

			if name == world.ResourceMetals {
				price := w.Global.Prices[world.ResourceMetals]
				if p.MetalsSubstElasticity > 0 && price > 0 {
					// Substitution away from metals as they get pricier.
					adjust := math.Pow(price/p.MetalsRefPrice, -p.MetalsSubstElasticity)
					res.Consumption = math.Max(0, res.Consumption*adjust)
				}
			}

			var production float64
			if name == world.ResourceEnergy {
				caps := alloc[a.ID]
				production = math.Min(math.Max(0, res.Production),
					math.Min(caps.ProdCapZJ, math.Max(0, res.OwnReserve)))
			} else {
				production = math.Max(0, res.Production)
			}

			primary := production
			if name == world.ResourceMetals {
				recycleRate := world.Clamp(p.MetalsRecycling, 0, 0.9)
				production += recycleRate * math.Max(0, res.Consumption)
			}

			regenAmount := regen[name] * math.Max(res.OwnReserve, 0)
			expansion := techExpansion[name] * math.Max(res.OwnReserve, 0)

			var newReserve float64
			if name == world.ResourceFood {
				// Food stock regenerates and is not drawn down by harvest.
				newReserve = res.OwnReserve + regenAmount + expansion
			} else {
				newReserve = res.OwnReserve - primary + regenAmount + expansion
			}

			res.OwnReserve = math.Max(0, newReserve)
			res.Production = production
			totalPrimary[name] += primary
		}
	}

	for _, name := range world.ResourceNames {
		reserve := w.Global.GlobalReserves[name]
		regenGlobal := regen[name] * math.Max(reserve, 0)
		techGlobal := techExpansion[name] * math.Max(reserve, 0)
		w.Global.GlobalReserves[name] = math.Max(0, reserve-totalPrimary[name]+regenGlobal+techGlobal)
	}
}

// UpdatePrices moves every world price with the demand-supply imbalance,
// clamped to a fixed band.
func UpdatePrices(w *world.WorldState, p config.ResourceParams) {
	const epsilon = 1e-6

	for _, name := range world.ResourceNames {
		var supply, demand float64
		for _, a := range w.Agents {
			res := a.Resource(name)
			supply += math.Max(0, res.Production)
			demand += math.Max(0, res.Consumption)
		}
		imbalance := (demand - supply) / (supply + epsilon)
		next := w.Global.Prices[name] * (1.0 + p.PriceAlpha*imbalance)
		w.Global.Prices[name] = world.Clamp(next, p.PriceMin, p.PriceMax)
	}
}
