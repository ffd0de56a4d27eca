package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"feedback-backend/internal/apperrors"
	"feedback-backend/internal/models"
)

const adminTable = "admins"

type PostgresAdminRepo struct {
	db *sql.DB
	qb *goqu.Database
}

func NewPostgresAdminRepo(db *sql.DB) *PostgresAdminRepo {
	return &PostgresAdminRepo{
		db: db,
		qb: goqu.New("postgres", db),
	}
}

func (r *PostgresAdminRepo) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	query, args, err := r.qb.Select("username", "password_hash", "created_at", "updated_at").
		From(adminTable).
		Where(goqu.Ex{"username": username}).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build admin query: %w", err)
	}

	var admin models.Admin
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&admin.Username,
		&admin.PasswordHash,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find admin: %w", err)
	}
	return &admin, nil
}

func (r *PostgresAdminRepo) Create(ctx context.Context, admin *models.Admin) error {
	now := time.Now()
	admin.CreatedAt = now
	admin.UpdatedAt = now

	query, args, err := r.qb.Insert(adminTable).Rows(goqu.Record{
		"username":      admin.Username,
		"password_hash": admin.PasswordHash,
		"created_at":    admin.CreatedAt,
		"updated_at":    admin.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return fmt.Errorf("build admin insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

func (r *PostgresAdminRepo) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	query, args, err := r.qb.Update(adminTable).
		Set(goqu.Record{
			"password_hash": passwordHash,
			"updated_at":    time.Now(),
		}).
		Where(goqu.Ex{"username": username}).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build admin update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update admin rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("admin %s not found", username))
	}
	return nil
}
