package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salescrm/internal/authz"
	"salescrm/internal/models"
	"salescrm/internal/testdata"
)

func TestProject_LeaderScenario(t *testing.T) {
	leads := []models.Lead{
		testdata.Lead(1, models.StageReception, testdata.Owner(1)),
		testdata.Lead(2, models.StageConsulting, testdata.Owner(2)),
		testdata.Lead(3, models.StageClosed, testdata.Owner(3)),
	}
	viewer := authz.Viewer{ID: 1, Role: authz.RoleLeader, Roster: authz.NewRoster(1, 2)}

	board := Project(leads, viewer)

	assert.Equal(t, map[models.Stage][]int{
		models.StageReception:   {1},
		models.StageConsulting:  {2},
		models.StageQuoted:      {},
		models.StageNegotiating: {},
		models.StageClosed:      {},
	}, board.IDs())
}

func TestProject_AlwaysFiveColumns(t *testing.T) {
	board := Project(nil, authz.Viewer{ID: 1, Role: authz.RoleAdmin})

	require.Len(t, board, 5)
	cols := board.Columns()
	require.Len(t, cols, 5)
	for i, col := range cols {
		assert.Equal(t, models.Stages[i], col.StageKey)
		assert.Equal(t, models.Stages[i].Label(), col.Label)
		assert.NotNil(t, col.Leads)
		assert.Zero(t, col.Count)
	}
}

func TestProject_KeepsInputOrder(t *testing.T) {
	leads := []models.Lead{
		testdata.Lead(9, models.StageQuoted, nil),
		testdata.Lead(2, models.StageQuoted, nil),
		testdata.Lead(5, models.StageQuoted, nil),
	}
	board := Project(leads, authz.Viewer{ID: 1, Role: authz.RoleCEO})
	assert.Equal(t, []int{9, 2, 5}, board.IDs()[models.StageQuoted])
}

func TestProject_Idempotent(t *testing.T) {
	leads := testdata.GenerateLeads(testdata.LeadGeneratorConfig{
		Count: 80, Seed: 11, Owners: []int{4, 5, 6}, ValueChance: 0.5,
	})
	viewer := authz.Viewer{ID: 4, Role: authz.RoleLeader, Roster: authz.NewRoster(4, 6)}

	first := Project(leads, viewer)
	second := Project(leads, viewer)
	assert.Equal(t, first, second)
	assert.Equal(t, first.Columns(), second.Columns())
}

func TestBoard_ColumnTotals(t *testing.T) {
	a, b := 100.0, 250.5
	l1 := testdata.Lead(1, models.StageNegotiating, nil)
	l1.Value = &a
	l2 := testdata.Lead(2, models.StageNegotiating, nil)
	l2.Value = &b
	l3 := testdata.Lead(3, models.StageNegotiating, nil)

	cols := Project([]models.Lead{l1, l2, l3}, authz.Viewer{ID: 1, Role: authz.RoleAdmin}).Columns()

	neg := cols[models.StageNegotiating.Rank()]
	assert.Equal(t, 3, neg.Count)
	assert.InDelta(t, 350.5, neg.TotalValue, 1e-9)
}
