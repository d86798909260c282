package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
)

// GetLatestScheduleSnapshot 返回某病区某月版本号最大的排班，不存在时返回 sql.ErrNoRows
func (r *Repository) GetLatestScheduleSnapshot(wardID int64, year, month int) (*domain.ScheduleSnapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			ss.id,
			ss.version,
			ss.history_tag,
			ss.created_by,
			ss.created_at,
			ssr.nurse_id,
			ssr.shifts
		FROM schedule_snapshots ss
		LEFT JOIN schedule_snapshot_rows ssr ON ss.id = ssr.snapshot_id
		WHERE ss.id = (
			SELECT id FROM schedule_snapshots
			WHERE ward_id = $1 AND year = $2 AND month = $3
			ORDER BY version DESC
			LIMIT 1
		)
		ORDER BY ssr.position
	`

	rows, err := r.dbpool.QueryContext(ctx, query, wardID, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshot := &domain.ScheduleSnapshot{
		WardID: wardID,
		Year:   year,
		Month:  month,
		Rows:   make([]domain.ScheduleSnapshotRow, 0),
	}

	for rows.Next() {
		var row struct {
			createdBy sql.NullInt64
			nurseID   sql.NullInt64
			shifts    sql.NullString
		}

		dst := []any{
			&snapshot.ID,
			&snapshot.Version,
			&snapshot.HistoryTag,
			&row.createdBy,
			&snapshot.CreatedAt,
			&row.nurseID,
			&row.shifts,
		}

		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if row.createdBy.Valid {
			snapshot.CreatedBy = &row.createdBy.Int64
		}

		if !row.nurseID.Valid {
			// 这个版本没有任何护士
			continue
		}

		snapshot.Rows = append(snapshot.Rows, domain.ScheduleSnapshotRow{
			NurseID: row.nurseID.Int64,
			Shifts:  row.shifts.String,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if snapshot.ID == 0 {
		return nil, sql.ErrNoRows
	}

	return snapshot, nil
}

// InsertScheduleSnapshot 保存一个新版本，(ward_id, year, month, version) 唯一，
// 并发保存同一个版本时后提交的一方会违反唯一约束
func (r *Repository) InsertScheduleSnapshot(snapshot *domain.ScheduleSnapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO schedule_snapshots (ward_id, year, month, version, history_tag, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	args := []any{snapshot.WardID, snapshot.Year, snapshot.Month, snapshot.Version, snapshot.HistoryTag, snapshot.CreatedBy}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&snapshot.ID, &snapshot.CreatedAt); err != nil {
		return err
	}

	for i, row := range snapshot.Rows {
		query := `
			INSERT INTO schedule_snapshot_rows (snapshot_id, position, nurse_id, shifts)
			VALUES ($1, $2, $3, $4)
		`

		if _, err := tx.ExecContext(ctx, query, snapshot.ID, i, row.NurseID, row.Shifts); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}
