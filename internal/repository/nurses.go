package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
)

// GetActiveNursesByWardID 返回参与排班的护士，按 id 排序
func (r *Repository) GetActiveNursesByWardID(wardID int64) ([]*domain.Nurse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, full_name, capability, intensity, created_at, version
		FROM nurses
		WHERE ward_id = $1 AND is_active = TRUE
		ORDER BY id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, wardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nurses := make([]*domain.Nurse, 0)
	for rows.Next() {
		nurse := &domain.Nurse{
			WardID:   wardID,
			IsActive: true,
		}
		var capability int16
		dst := []any{&nurse.ID, &nurse.FullName, &capability, &nurse.Intensity, &nurse.CreatedAt, &nurse.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		nurse.Capability = domain.ShiftCapability(capability)
		nurses = append(nurses, nurse)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return nurses, nil
}

func (r *Repository) CreateNurse(nurse *domain.Nurse) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO nurses (ward_id, full_name, capability, intensity)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_active, created_at, version
	`

	args := []any{nurse.WardID, nurse.FullName, int16(nurse.Capability), string(nurse.Intensity)}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&nurse.ID, &nurse.IsActive, &nurse.CreatedAt, &nurse.Version); err != nil {
		return err
	}

	return nil
}
