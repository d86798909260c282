package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
)

func (r *Repository) CreateWard(ward *domain.Ward) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO wards (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at, version
	`

	if err := r.dbpool.QueryRowContext(ctx, query, ward.Name, ward.Description).Scan(&ward.ID, &ward.CreatedAt, &ward.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetWardByID(id int64) (*domain.Ward, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT name, description, created_at, version
		FROM wards WHERE id = $1
	`

	ward := &domain.Ward{
		ID: id,
	}

	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&ward.Name, &ward.Description, &ward.CreatedAt, &ward.Version); err != nil {
		return nil, err
	}

	return ward, nil
}
