package services

import (
	"time"

	"salescrm/internal/models"
)

// The board is a Kanban, not a gate: any column may be dropped onto any other column.
// Only a drop onto the column the card already sits in is refused.
// NB: moving out of "closed" is allowed as well (reopen); there is no terminal lock upstream.
func CanTransition(from, to models.Stage) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	return from != to
}

// ApplyTransition returns a moved copy of lead; lead itself is left untouched so it can serve
// as the rollback snapshot.
func ApplyTransition(lead models.Lead, to models.Stage, at time.Time) models.Lead {
	if !at.After(lead.UpdatedAt) {
		at = lead.UpdatedAt.Add(time.Nanosecond)
	}
	next := lead.Clone()
	next.Stage = to
	next.UpdatedAt = at
	// entering active engagement counts as a contact
	if to.Rank() >= models.StageConsulting.Rank() {
		contacted := at
		next.LastContactedAt = &contacted
	}
	return next
}
