package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Flowsheet/internal/domain"
)

// BatchRepo — репозиторий для работы с file_batches.
type BatchRepo struct {
	pool *pgxpool.Pool
}

// NewBatchRepo создаёт новый BatchRepo.
func NewBatchRepo(pool *pgxpool.Pool) *BatchRepo {
	return &BatchRepo{pool: pool}
}

// Create создаёт batch и проставляет ID и CreatedAt.
func (r *BatchRepo) Create(ctx context.Context, b *domain.FileBatch) error {
	query := `
		INSERT INTO file_batches (user_id, name, description, flow_id, created_at)
		VALUES ($1, $2, $3, NULLIF($4, 0), NOW())
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		b.UserID,
		b.Name,
		b.Description,
		b.FlowID,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// GetByID возвращает batch пользователя по ID.
func (r *BatchRepo) GetByID(ctx context.Context, userID, id int64) (*domain.FileBatch, error) {
	query := `
		SELECT id, user_id, name, description, COALESCE(flow_id, 0), created_at
		FROM file_batches
		WHERE id = $1 AND user_id = $2
	`
	b, err := r.scanBatch(r.pool.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get batch by id: %w", err)
	}
	return b, nil
}

// ListByUser возвращает все batches пользователя.
func (r *BatchRepo) ListByUser(ctx context.Context, userID int64) ([]domain.FileBatch, error) {
	query := `
		SELECT id, user_id, name, description, COALESCE(flow_id, 0), created_at
		FROM file_batches
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID)
}

// ListByFlow возвращает batches, привязанные к flow.
func (r *BatchRepo) ListByFlow(ctx context.Context, userID, flowID int64) ([]domain.FileBatch, error) {
	query := `
		SELECT id, user_id, name, description, COALESCE(flow_id, 0), created_at
		FROM file_batches
		WHERE user_id = $1 AND flow_id = $2
		ORDER BY created_at
	`
	return r.list(ctx, query, userID, flowID)
}

// Delete удаляет batch. Файлы batch не трогаются: batch_id у них
// обнуляется внешним ключом ON DELETE SET NULL.
func (r *BatchRepo) Delete(ctx context.Context, userID, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM file_batches WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BatchRepo) scanBatch(row pgx.Row) (*domain.FileBatch, error) {
	var b domain.FileBatch
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.Name,
		&b.Description,
		&b.FlowID,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BatchRepo) list(ctx context.Context, query string, args ...any) ([]domain.FileBatch, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var batches []domain.FileBatch
	for rows.Next() {
		b, err := r.scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		batches = append(batches, *b)
	}
	return batches, rows.Err()
}
