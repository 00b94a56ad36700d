package services

import (
	"salescrm/internal/authz"
	"salescrm/internal/models"
)

// Board maps every stage to the leads in that column.
type Board map[models.Stage][]models.Lead

type PipelineColumn struct {
	StageKey   models.Stage  `json:"stage_key"`
	Label      string        `json:"label"`
	Leads      []models.Lead `json:"leads"`
	Count      int           `json:"count"`
	TotalValue float64       `json:"total_value"`
}

// Project groups the leads viewer may see into the five stage columns.
// Columns are always present, possibly empty, and keep the relative order of the input.
func Project(leads []models.Lead, viewer authz.Viewer) Board {
	board := make(Board, len(models.Stages))
	for _, st := range models.Stages {
		board[st] = []models.Lead{}
	}
	for _, l := range authz.VisibleLeads(leads, viewer) {
		if _, ok := board[l.Stage]; !ok {
			continue
		}
		board[l.Stage] = append(board[l.Stage], l)
	}
	return board
}

// Columns returns the board in display order.
func (b Board) Columns() []PipelineColumn {
	cols := make([]PipelineColumn, 0, len(models.Stages))
	for _, st := range models.Stages {
		leads := b[st]
		if leads == nil {
			leads = []models.Lead{}
		}
		var total float64
		for _, l := range leads {
			if l.Value != nil {
				total += *l.Value
			}
		}
		cols = append(cols, PipelineColumn{
			StageKey:   st,
			Label:      st.Label(),
			Leads:      leads,
			Count:      len(leads),
			TotalValue: total,
		})
	}
	return cols
}

// IDs is a compact view of the board, handy for logs and assertions.
func (b Board) IDs() map[models.Stage][]int {
	out := make(map[models.Stage][]int, len(b))
	for st, leads := range b {
		ids := make([]int, 0, len(leads))
		for _, l := range leads {
			ids = append(ids, l.ID)
		}
		out[st] = ids
	}
	return out
}
