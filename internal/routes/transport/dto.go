// Package transport defines the route-planning request/response shapes.
package transport

import "github.com/google/uuid"

// PlanRequest asks for a visiting order over the given members.
type PlanRequest struct {
	MemberIDs []uuid.UUID `json:"memberIds" binding:"required,min=1"`
}

// Stop is one geocoded visit in the planned order.
type Stop struct {
	MemberID uuid.UUID `json:"memberId"`
	Name     string    `json:"name"`
	City     string    `json:"city"`
	Lat      float64   `json:"lat"`
	Lng      float64   `json:"lng"`
}

// Plan is the planner's structured answer over a set of stops.
type Plan struct {
	Summary    string      `json:"summary"`
	Landmarks  []string    `json:"landmarks"`
	OrderedIDs []uuid.UUID `json:"orderedIds"`
}

// PlanResponse is the final route. Skipped lists members without resolvable
// coordinates; Fallback means the order came from the nearest-neighbour
// heuristic rather than the planner.
type PlanResponse struct {
	Stops     []Stop      `json:"stops"`
	Summary   string      `json:"summary"`
	Landmarks []string    `json:"landmarks"`
	Skipped   []uuid.UUID `json:"skipped"`
	TotalKm   float64     `json:"totalKm"`
	Fallback  bool        `json:"fallback"`
}
