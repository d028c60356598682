package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Flowsheet/internal/domain"
)

// FileRepo — репозиторий для работы с files.
type FileRepo struct {
	pool *pgxpool.Pool
}

// NewFileRepo создаёт новый FileRepo.
func NewFileRepo(pool *pgxpool.Pool) *FileRepo {
	return &FileRepo{pool: pool}
}

const fileColumns = `id, user_id, filename, original_filename, file_path, file_size, mime_type, COALESCE(batch_id, 0), created_at`

func scanFile(row pgx.Row) (*domain.File, error) {
	var f domain.File
	err := row.Scan(
		&f.ID,
		&f.UserID,
		&f.Filename,
		&f.OriginalFilename,
		&f.Path,
		&f.Size,
		&f.MimeType,
		&f.BatchID,
		&f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Create создаёт запись о файле и проставляет ID и CreatedAt.
func (r *FileRepo) Create(ctx context.Context, f *domain.File) error {
	query := `
		INSERT INTO files (user_id, filename, original_filename, file_path, file_size, mime_type, batch_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, 0), NOW())
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		f.UserID,
		f.Filename,
		f.OriginalFilename,
		f.Path,
		f.Size,
		f.MimeType,
		f.BatchID,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

// GetByID возвращает файл пользователя по ID.
func (r *FileRepo) GetByID(ctx context.Context, userID, id int64) (*domain.File, error) {
	query := `
		SELECT ` + fileColumns + `
		FROM files
		WHERE id = $1 AND user_id = $2
	`
	f, err := scanFile(r.pool.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get file by id: %w", err)
	}
	return f, nil
}

// ListByUser возвращает все файлы пользователя.
func (r *FileRepo) ListByUser(ctx context.Context, userID int64) ([]domain.File, error) {
	query := `
		SELECT ` + fileColumns + `
		FROM files
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID)
}

// ListByBatch возвращает файлы batch.
func (r *FileRepo) ListByBatch(ctx context.Context, userID, batchID int64) ([]domain.File, error) {
	query := `
		SELECT ` + fileColumns + `
		FROM files
		WHERE user_id = $1 AND batch_id = $2
		ORDER BY created_at
	`
	return r.list(ctx, query, userID, batchID)
}

// ListUsers возвращает пользователей, у которых есть файлы.
// Нужен фоновому сборщику: он обходит пользователей по одному.
func (r *FileRepo) ListUsers(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT user_id FROM files ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list file users: %w", err)
	}
	defer rows.Close()

	var users []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

// Delete удаляет запись о файле.
func (r *FileRepo) Delete(ctx context.Context, userID, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *FileRepo) list(ctx context.Context, query string, args ...any) ([]domain.File, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []domain.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}
