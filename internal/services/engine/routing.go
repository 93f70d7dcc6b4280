package engine

import (
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/hxuan190/split-swapper/internal/domain"
)

// Route is where one leg executes.
type Route struct {
	Venue   domain.VenueSelector
	PoolRef solana.PublicKey
	MinOut  *uint256.Int
}

// RoutingLogic maps a validated plan to per-leg routes. Implementations are
// pure: they see the plan and the engine's default venue, nothing else.
type RoutingLogic interface {
	Version() domain.EngineVersion
	Route(plan *domain.DistributionPlan, defaultVenue domain.VenueSelector) []Route
}

// fixedVenueLogic sends every leg through the default venue and lets the venue
// pick the pool.
type fixedVenueLogic struct{}

func (fixedVenueLogic) Version() domain.EngineVersion { return domain.EngineV1 }

func (fixedVenueLogic) Route(plan *domain.DistributionPlan, defaultVenue domain.VenueSelector) []Route {
	routes := make([]Route, plan.Len())
	for i := range routes {
		routes[i] = Route{Venue: defaultVenue}
	}
	return routes
}

// perLegLogic honours each leg's venue selector, pool reference and minimum output.
type perLegLogic struct{}

func (perLegLogic) Version() domain.EngineVersion { return domain.EngineV2 }

func (perLegLogic) Route(plan *domain.DistributionPlan, defaultVenue domain.VenueSelector) []Route {
	routes := make([]Route, plan.Len())
	for i, leg := range plan.Legs() {
		sel := leg.Venue
		if sel == domain.VenueAuto {
			sel = defaultVenue
		}
		routes[i] = Route{Venue: sel, PoolRef: leg.PoolRef, MinOut: leg.MinOut}
	}
	return routes
}

func defaultLogics() map[domain.EngineVersion]RoutingLogic {
	logics := make(map[domain.EngineVersion]RoutingLogic)
	for _, l := range []RoutingLogic{fixedVenueLogic{}, perLegLogic{}} {
		logics[l.Version()] = l
	}
	return logics
}
