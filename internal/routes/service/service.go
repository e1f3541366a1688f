// Package service plans advisor field visits over geocoded members. The
// planner (AI gateway) proposes the visiting order; when it degrades, a
// nearest-neighbour walk over haversine distances stands in.
package service

import (
	"context"

	"github.com/google/uuid"

	"finroots_crm_backend/internal/crm/domain"
	"finroots_crm_backend/internal/routes/transport"
	"finroots_crm_backend/internal/visibility"
	"finroots_crm_backend/platform/apperr"
	"finroots_crm_backend/platform/geo"
)

// Collections is the store surface route planning reads.
type Collections interface {
	GetMember(id uuid.UUID) (domain.Member, error)
}

// Planner proposes a visiting order. Implemented by the AI gateway adapter;
// fallback=true means no plan was produced.
type Planner interface {
	PlanRoute(ctx context.Context, stops []transport.Stop) (transport.Plan, bool)
}

type Service struct {
	data    Collections
	planner Planner
}

func New(data Collections, planner Planner) *Service {
	return &Service{data: data, planner: planner}
}

// Plan geocodes the requested members and returns them in visiting order.
// Members without coordinates (no lat/lng and no decodable digipin) are
// reported as skipped rather than failing the whole route.
func (s *Service) Plan(ctx context.Context, scope visibility.Scope, memberIDs []uuid.UUID) (transport.PlanResponse, error) {
	var stops []transport.Stop
	skipped := []uuid.UUID{}

	for _, id := range memberIDs {
		m, err := s.data.GetMember(id)
		if err != nil {
			return transport.PlanResponse{}, apperr.NotFound("Member not found")
		}
		if !scope.CanSeeMember(m) {
			return transport.PlanResponse{}, apperr.Forbidden("Member is outside your book")
		}

		lat, lng, ok := coordinates(m)
		if !ok {
			skipped = append(skipped, m.ID)
			continue
		}
		stops = append(stops, transport.Stop{
			MemberID: m.ID,
			Name:     m.Name,
			City:     m.City,
			Lat:      lat,
			Lng:      lng,
		})
	}

	if len(stops) == 0 {
		return transport.PlanResponse{Stops: []transport.Stop{}, Skipped: skipped, Fallback: true}, nil
	}

	ordered := nearestNeighbour(stops)

	plan, fallback := s.planner.PlanRoute(ctx, ordered)
	if fallback {
		return transport.PlanResponse{
			Stops:    ordered,
			Summary:  "Visit stops in listed order.",
			Skipped:  skipped,
			TotalKm:  pathLength(ordered),
			Fallback: true,
		}, nil
	}

	final := reorder(ordered, plan.OrderedIDs)
	return transport.PlanResponse{
		Stops:     final,
		Summary:   plan.Summary,
		Landmarks: plan.Landmarks,
		Skipped:   skipped,
		TotalKm:   pathLength(final),
		Fallback:  false,
	}, nil
}

// coordinates resolves a member's position from explicit lat/lng first, then
// from the digipin code.
func coordinates(m domain.Member) (lat, lng float64, ok bool) {
	if m.Lat != nil && m.Lng != nil {
		return *m.Lat, *m.Lng, true
	}
	if m.Digipin != "" {
		lat, lng, err := geo.DecodeDigipin(m.Digipin)
		if err == nil {
			return lat, lng, true
		}
	}
	return 0, 0, false
}

// nearestNeighbour orders stops greedily from the first stop, always moving
// to the closest unvisited one.
func nearestNeighbour(stops []transport.Stop) []transport.Stop {
	remaining := append([]transport.Stop(nil), stops...)
	ordered := make([]transport.Stop, 0, len(remaining))

	current := remaining[0]
	ordered = append(ordered, current)
	remaining = remaining[1:]

	for len(remaining) > 0 {
		best := 0
		bestDist := geo.Haversine(current.Lat, current.Lng, remaining[0].Lat, remaining[0].Lng)
		for i := 1; i < len(remaining); i++ {
			d := geo.Haversine(current.Lat, current.Lng, remaining[i].Lat, remaining[i].Lng)
			if d < bestDist {
				best, bestDist = i, d
			}
		}
		current = remaining[best]
		ordered = append(ordered, current)
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return ordered
}

// reorder applies the planner's id order, ignoring ids it does not know and
// appending any stops the planner left out.
func reorder(stops []transport.Stop, orderedIDs []uuid.UUID) []transport.Stop {
	byID := make(map[uuid.UUID]transport.Stop, len(stops))
	for _, s := range stops {
		byID[s.MemberID] = s
	}

	final := make([]transport.Stop, 0, len(stops))
	seen := make(map[uuid.UUID]bool, len(stops))
	for _, id := range orderedIDs {
		if s, ok := byID[id]; ok && !seen[id] {
			final = append(final, s)
			seen[id] = true
		}
	}
	for _, s := range stops {
		if !seen[s.MemberID] {
			final = append(final, s)
		}
	}
	return final
}

func pathLength(stops []transport.Stop) float64 {
	var total float64
	for i := 1; i < len(stops); i++ {
		total += geo.Haversine(stops[i-1].Lat, stops[i-1].Lng, stops[i].Lat, stops[i].Lng)
	}
	return total
}
