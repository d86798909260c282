package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
)

func (r *Repository) GetRuleByWardID(wardID int64) (*domain.Rule, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			weekday_day, weekday_evening, weekday_night,
			weekend_day, weekend_evening, weekend_night,
			max_consecutive_shift, max_night_run, min_night_run,
			off_days_after_night_run, off_days_after_max_shift,
			updated_at, version
		FROM rules WHERE ward_id = $1
	`

	rule := &domain.Rule{
		WardID: wardID,
	}

	dst := []any{
		&rule.WeekdayDay, &rule.WeekdayEvening, &rule.WeekdayNight,
		&rule.WeekendDay, &rule.WeekendEvening, &rule.WeekendNight,
		&rule.MaxConsecutiveShift, &rule.MaxNightRun, &rule.MinNightRun,
		&rule.OffDaysAfterNightRun, &rule.OffDaysAfterMaxShift,
		&rule.UpdatedAt, &rule.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, wardID).Scan(dst...); err != nil {
		return nil, err
	}

	return rule, nil
}

// UpsertRule 每个病区只有一条排班规则，已存在时直接覆盖
func (r *Repository) UpsertRule(rule *domain.Rule) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO rules (
			ward_id,
			weekday_day, weekday_evening, weekday_night,
			weekend_day, weekend_evening, weekend_night,
			max_consecutive_shift, max_night_run, min_night_run,
			off_days_after_night_run, off_days_after_max_shift
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (ward_id) DO UPDATE SET
			weekday_day = EXCLUDED.weekday_day,
			weekday_evening = EXCLUDED.weekday_evening,
			weekday_night = EXCLUDED.weekday_night,
			weekend_day = EXCLUDED.weekend_day,
			weekend_evening = EXCLUDED.weekend_evening,
			weekend_night = EXCLUDED.weekend_night,
			max_consecutive_shift = EXCLUDED.max_consecutive_shift,
			max_night_run = EXCLUDED.max_night_run,
			min_night_run = EXCLUDED.min_night_run,
			off_days_after_night_run = EXCLUDED.off_days_after_night_run,
			off_days_after_max_shift = EXCLUDED.off_days_after_max_shift,
			updated_at = NOW(),
			version = rules.version + 1
		RETURNING updated_at, version
	`

	args := []any{
		rule.WardID,
		rule.WeekdayDay, rule.WeekdayEvening, rule.WeekdayNight,
		rule.WeekendDay, rule.WeekendEvening, rule.WeekendNight,
		rule.MaxConsecutiveShift, rule.MaxNightRun, rule.MinNightRun,
		rule.OffDaysAfterNightRun, rule.OffDaysAfterMaxShift,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&rule.UpdatedAt, &rule.Version); err != nil {
		return err
	}

	return nil
}
