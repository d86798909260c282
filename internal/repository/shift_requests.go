package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
)

// GetAcceptedShiftRequests 返回某病区某月已通过的排班申请
func (r *Repository) GetAcceptedShiftRequests(wardID int64, year, month int) ([]*domain.ShiftRequest, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, nurse_id, day, requested_shift, reinforced, created_at
		FROM shift_requests
		WHERE ward_id = $1 AND year = $2 AND month = $3 AND status = $4
		ORDER BY id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, wardID, year, month, string(domain.RequestAccepted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]*domain.ShiftRequest, 0)
	for rows.Next() {
		req := &domain.ShiftRequest{
			WardID: wardID,
			Year:   year,
			Month:  month,
			Status: domain.RequestAccepted,
		}
		var shift string
		dst := []any{&req.ID, &req.NurseID, &req.Day, &shift, &req.Reinforced, &req.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if err := req.RequestedShift.UnmarshalText([]byte(shift)); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *Repository) CreateShiftRequest(req *domain.ShiftRequest) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO shift_requests (ward_id, nurse_id, year, month, day, requested_shift, reinforced, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	args := []any{req.WardID, req.NurseID, req.Year, req.Month, req.Day, req.RequestedShift.String(), req.Reinforced, string(req.Status)}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&req.ID, &req.CreatedAt); err != nil {
		return err
	}

	return nil
}
