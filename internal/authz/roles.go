package authz

import (
	"sort"

	"salescrm/internal/models"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleCEO    Role = "ceo"
	RoleLeader Role = "leader"
	RoleSale   Role = "sale"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCEO, RoleLeader, RoleSale:
		return true
	}
	return false
}

// IsUnrestricted reports whether the role sees every lead.
func IsUnrestricted(r Role) bool {
	return r == RoleAdmin || r == RoleCEO
}

// Roster is the set of user ids a leader may act on.
type Roster map[int]struct{}

func NewRoster(ids ...int) Roster {
	r := make(Roster, len(ids))
	for _, id := range ids {
		r[id] = struct{}{}
	}
	return r
}

func (r Roster) Contains(id int) bool {
	_, ok := r[id]
	return ok
}

// IDs returns the members in ascending order.
func (r Roster) IDs() []int {
	out := make([]int, 0, len(r))
	for id := range r {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Viewer is the caller on whose behalf a lead is read or moved.
// It is built per request and passed explicitly; nothing in the core reads it from ambient state.
type Viewer struct {
	ID     int    `json:"id"`
	Role   Role   `json:"role"`
	Roster Roster `json:"-"`
}

func (v Viewer) canSee(l models.Lead) bool {
	switch {
	case IsUnrestricted(v.Role):
		return true
	case v.Role == RoleLeader:
		return l.AssignedTo != nil && v.Roster.Contains(*l.AssignedTo)
	case v.Role == RoleSale:
		return l.OwnedBy(v.ID)
	}
	return false
}

// VisibleLeads filters leads down to what viewer may see, keeping input order.
// Pass id-ordered input (LeadCache.Snapshot is) to get an id-ordered result.
func VisibleLeads(leads []models.Lead, viewer Viewer) []models.Lead {
	out := make([]models.Lead, 0, len(leads))
	for _, l := range leads {
		if viewer.canSee(l) {
			out = append(out, l)
		}
	}
	return out
}

// CanMutateStage: seeing a lead and moving it are the same permission.
func CanMutateStage(lead models.Lead, viewer Viewer) bool {
	return len(VisibleLeads([]models.Lead{lead}, viewer)) > 0
}
