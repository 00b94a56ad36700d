package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salescrm/internal/models"
	"salescrm/internal/testdata"
)

func TestCanTransition(t *testing.T) {
	for _, from := range models.Stages {
		for _, to := range models.Stages {
			if from == to {
				assert.False(t, CanTransition(from, to), "%s -> %s must be a no-op", from, to)
				continue
			}
			assert.True(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	t.Run("reopen from closed", func(t *testing.T) {
		assert.True(t, CanTransition(models.StageClosed, models.StageReception))
	})
	t.Run("unknown stages", func(t *testing.T) {
		assert.False(t, CanTransition(models.StageReception, "won"))
		assert.False(t, CanTransition("", models.StageQuoted))
	})
}

func TestApplyTransition(t *testing.T) {
	base := testdata.Lead(1, models.StageReception, testdata.Owner(3))
	v := 1200.0
	base.Value = &v
	at := base.UpdatedAt.Add(time.Hour)

	t.Run("sets stage and updatedAt", func(t *testing.T) {
		next := ApplyTransition(base, models.StageQuoted, at)

		assert.Equal(t, models.StageQuoted, next.Stage)
		assert.Equal(t, at, next.UpdatedAt)
		assert.True(t, next.UpdatedAt.After(base.UpdatedAt))
		require.NotNil(t, next.LastContactedAt)
		assert.Equal(t, at, *next.LastContactedAt)
	})

	t.Run("does not mutate input", func(t *testing.T) {
		before := base.Clone()
		next := ApplyTransition(base, models.StageNegotiating, at)
		*next.Value = 1

		assert.Equal(t, before, base)
		assert.Equal(t, 1200.0, *base.Value)
	})

	t.Run("reception does not count as contact", func(t *testing.T) {
		l := testdata.Lead(2, models.StageQuoted, nil)
		next := ApplyTransition(l, models.StageReception, at)
		assert.Nil(t, next.LastContactedAt)
	})

	t.Run("updatedAt strictly increases with a stale clock", func(t *testing.T) {
		stale := base.UpdatedAt.Add(-time.Minute)
		next := ApplyTransition(base, models.StageConsulting, stale)
		assert.True(t, next.UpdatedAt.After(base.UpdatedAt))

		again := ApplyTransition(next, models.StageQuoted, next.UpdatedAt)
		assert.True(t, again.UpdatedAt.After(next.UpdatedAt))
	})

	t.Run("round trip over every target", func(t *testing.T) {
		for _, to := range models.Stages {
			if to == base.Stage {
				continue
			}
			next := ApplyTransition(base, to, at)
			assert.Equal(t, to, next.Stage)
			assert.True(t, next.UpdatedAt.After(base.UpdatedAt))
		}
	})
}
