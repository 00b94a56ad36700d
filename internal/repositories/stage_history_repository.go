package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"salescrm/internal/models"
)

const stageHistorySchema = `
	CREATE TABLE IF NOT EXISTS lead_stage_history (
		id          BIGSERIAL PRIMARY KEY,
		lead_id     INTEGER     NOT NULL,
		actor_id    INTEGER     NOT NULL,
		mutation_id TEXT        NOT NULL UNIQUE,
		from_stage  TEXT        NOT NULL,
		to_stage    TEXT        NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS lead_stage_history_lead_idx ON lead_stage_history (lead_id, created_at);
`

// StageHistoryRepository stores confirmed stage changes in Postgres.
type StageHistoryRepository struct {
	db *sql.DB
}

func NewStageHistoryRepository(db *sql.DB) (*StageHistoryRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("received nil database connection")
	}
	return &StageHistoryRepository{db: db}, nil
}

// Migrate creates the history table when it does not exist yet.
func (r *StageHistoryRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, stageHistorySchema); err != nil {
		return fmt.Errorf("migrate stage history: %w", err)
	}
	return nil
}

// Record is idempotent per mutation id.
func (r *StageHistoryRepository) Record(ctx context.Context, c models.StageChange) error {
	const query = `
		INSERT INTO lead_stage_history (lead_id, actor_id, mutation_id, from_stage, to_stage, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (mutation_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, c.LeadID, c.ActorID, c.MutationID, c.FromStage, c.ToStage, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("record stage change of lead %d: %w", c.LeadID, err)
	}
	return nil
}

func (r *StageHistoryRepository) ListByLead(ctx context.Context, leadID, limit int) ([]models.StageChange, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT id, lead_id, actor_id, mutation_id, from_stage, to_stage, created_at
		FROM lead_stage_history
		WHERE lead_id = $1
		ORDER BY created_at, id
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, leadID, limit)
	if err != nil {
		return nil, fmt.Errorf("list stage history of lead %d: %w", leadID, err)
	}
	defer rows.Close()

	out := []models.StageChange{}
	for rows.Next() {
		var c models.StageChange
		if err := rows.Scan(&c.ID, &c.LeadID, &c.ActorID, &c.MutationID, &c.FromStage, &c.ToStage, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MemoryStageHistory keeps the history in process; used when no database is configured.
type MemoryStageHistory struct {
	mu      sync.RWMutex
	nextID  int64
	changes map[int][]models.StageChange
	seen    map[string]struct{}
}

func NewMemoryStageHistory() *MemoryStageHistory {
	return &MemoryStageHistory{
		changes: make(map[int][]models.StageChange),
		seen:    make(map[string]struct{}),
	}
}

func (m *MemoryStageHistory) Record(_ context.Context, c models.StageChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.seen[c.MutationID]; dup {
		return nil
	}
	m.seen[c.MutationID] = struct{}{}
	m.nextID++
	c.ID = m.nextID
	m.changes[c.LeadID] = append(m.changes[c.LeadID], c)
	return nil
}

func (m *MemoryStageHistory) ListByLead(_ context.Context, leadID, limit int) ([]models.StageChange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]models.StageChange{}, m.changes[leadID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
