package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Flowsheet/internal/domain"
)

// FlowRepo — репозиторий для работы с flows.
type FlowRepo struct {
	pool *pgxpool.Pool
}

// NewFlowRepo создаёт новый FlowRepo.
func NewFlowRepo(pool *pgxpool.Pool) *FlowRepo {
	return &FlowRepo{pool: pool}
}

// Create создаёт новый flow и проставляет ID и метки времени.
func (r *FlowRepo) Create(ctx context.Context, flow *domain.Flow) error {
	doc, err := json.Marshal(flow.Document)
	if err != nil {
		return fmt.Errorf("marshal flow document: %w", err)
	}

	query := `
		INSERT INTO flows (user_id, name, description, flow_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err = r.pool.QueryRow(ctx, query,
		flow.UserID,
		flow.Name,
		flow.Description,
		doc,
	).Scan(&flow.ID, &flow.CreatedAt, &flow.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert flow: %w", err)
	}
	return nil
}

// GetByID возвращает flow пользователя по ID.
func (r *FlowRepo) GetByID(ctx context.Context, userID, id int64) (*domain.Flow, error) {
	query := `
		SELECT id, user_id, name, description, flow_data, created_at, updated_at
		FROM flows
		WHERE id = $1 AND user_id = $2
	`
	flow, err := r.scanFlow(r.pool.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get flow by id: %w", err)
	}
	return flow, nil
}

// ListByUser возвращает все flows пользователя.
func (r *FlowRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Flow, error) {
	query := `
		SELECT id, user_id, name, description, flow_data, created_at, updated_at
		FROM flows
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}
	defer rows.Close()

	var flows []domain.Flow
	for rows.Next() {
		flow, err := r.scanFlow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flow: %w", err)
		}
		flows = append(flows, *flow)
	}
	return flows, rows.Err()
}

// Update обновляет имя, описание и документ flow.
func (r *FlowRepo) Update(ctx context.Context, flow *domain.Flow) error {
	doc, err := json.Marshal(flow.Document)
	if err != nil {
		return fmt.Errorf("marshal flow document: %w", err)
	}

	query := `
		UPDATE flows
		SET name = $3, description = $4, flow_data = $5, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.pool.Exec(ctx, query,
		flow.ID,
		flow.UserID,
		flow.Name,
		flow.Description,
		doc,
	)
	if err != nil {
		return fmt.Errorf("update flow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDocument перезаписывает только документ flow.
// Используется сборщиком ссылок при вычищении удалённых файлов.
func (r *FlowRepo) UpdateDocument(ctx context.Context, userID, id int64, document map[string]any) error {
	doc, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("marshal flow document: %w", err)
	}

	result, err := r.pool.Exec(ctx, `
		UPDATE flows
		SET flow_data = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, id, userID, doc)
	if err != nil {
		return fmt.Errorf("update flow document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет flow.
func (r *FlowRepo) Delete(ctx context.Context, userID, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM flows WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete flow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *FlowRepo) scanFlow(row pgx.Row) (*domain.Flow, error) {
	var flow domain.Flow
	var doc []byte
	err := row.Scan(
		&flow.ID,
		&flow.UserID,
		&flow.Name,
		&flow.Description,
		&doc,
		&flow.CreatedAt,
		&flow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(doc, &flow.Document); err != nil {
		return nil, fmt.Errorf("unmarshal flow document: %w", err)
	}
	return &flow, nil
}
