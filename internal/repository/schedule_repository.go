package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edutools/timetable-optimizer/internal/models"
)

// ScheduleRepository persists schedules together with their slot arenas.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

type scheduleSlotRow struct {
	ScheduleID   string        `db:"schedule_id"`
	SlotIndex    int           `db:"slot_index"`
	CourseID     string        `db:"course_id"`
	TeacherID    string        `db:"teacher_id"`
	RoomID       string        `db:"room_id"`
	Day          sql.NullInt64 `db:"day"`
	StartMinutes sql.NullInt64 `db:"start_minutes"`
	EndMinutes   sql.NullInt64 `db:"end_minutes"`
	Period       sql.NullInt64 `db:"period"`
	Status       string        `db:"status"`
	ConflictNote string        `db:"conflict_note"`
}

func slotToRow(scheduleID string, slot models.ScheduleSlot) scheduleSlotRow {
	row := scheduleSlotRow{
		ScheduleID:   scheduleID,
		SlotIndex:    slot.ID,
		CourseID:     slot.CourseID,
		TeacherID:    slot.TeacherID,
		RoomID:       slot.RoomID,
		Status:       slot.Status,
		ConflictNote: slot.ConflictNote,
	}
	if slot.Time != nil {
		row.Day = sql.NullInt64{Int64: int64(slot.Time.Day), Valid: true}
		row.StartMinutes = sql.NullInt64{Int64: int64(slot.Time.Start), Valid: true}
		row.EndMinutes = sql.NullInt64{Int64: int64(slot.Time.End), Valid: true}
		row.Period = sql.NullInt64{Int64: int64(slot.Time.Period), Valid: true}
	}
	return row
}

func rowToSlot(row scheduleSlotRow) models.ScheduleSlot {
	slot := models.ScheduleSlot{
		ID:           row.SlotIndex,
		CourseID:     row.CourseID,
		TeacherID:    row.TeacherID,
		RoomID:       row.RoomID,
		Status:       row.Status,
		ConflictNote: row.ConflictNote,
	}
	if row.Day.Valid && row.StartMinutes.Valid && row.EndMinutes.Valid {
		slot.Time = &models.TimeSlot{
			Day:    time.Weekday(row.Day.Int64),
			Start:  int(row.StartMinutes.Int64),
			End:    int(row.EndMinutes.Int64),
			Period: int(row.Period.Int64),
		}
	}
	return slot
}

// Save upserts the schedule and rewrites its slot arena in one
// transaction. A missing ID is assigned before the insert.
func (r *ScheduleRepository) Save(ctx context.Context, schedule *models.Schedule) (*models.Schedule, error) {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin save schedule: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsert = `INSERT INTO schedules (id, name, status, start_date, end_date, created_at, updated_at)
		VALUES (:id, :name, :status, :start_date, :end_date, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET name = :name, status = :status, start_date = :start_date, end_date = :end_date, updated_at = :updated_at`
	if _, err := tx.NamedExecContext(ctx, upsert, schedule); err != nil {
		return nil, fmt.Errorf("save schedule: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_slots WHERE schedule_id = $1`, schedule.ID); err != nil {
		return nil, fmt.Errorf("clear schedule slots: %w", err)
	}

	const insertSlot = `INSERT INTO schedule_slots (schedule_id, slot_index, course_id, teacher_id, room_id, day, start_minutes, end_minutes, period, status, conflict_note)
		VALUES (:schedule_id, :slot_index, :course_id, :teacher_id, :room_id, :day, :start_minutes, :end_minutes, :period, :status, :conflict_note)`
	for _, slot := range schedule.Slots {
		if _, err := tx.NamedExecContext(ctx, insertSlot, slotToRow(schedule.ID, slot)); err != nil {
			return nil, fmt.Errorf("save schedule slot %d: %w", slot.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit save schedule: %w", err)
	}
	return schedule, nil
}

// FindByID fetches a schedule and rebuilds its slot arena in stored order.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	const query = `SELECT id, name, status, start_date, end_date, created_at, updated_at FROM schedules WHERE id = $1`
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}

	const slotQuery = `SELECT schedule_id, slot_index, course_id, teacher_id, room_id, day, start_minutes, end_minutes, period, status, conflict_note FROM schedule_slots WHERE schedule_id = $1 ORDER BY slot_index`
	var rows []scheduleSlotRow
	if err := r.db.SelectContext(ctx, &rows, slotQuery, id); err != nil {
		return nil, fmt.Errorf("load schedule slots: %w", err)
	}

	schedule.Slots = make([]models.ScheduleSlot, 0, len(rows))
	for _, row := range rows {
		schedule.Slots = append(schedule.Slots, rowToSlot(row))
	}
	return &schedule, nil
}

// SaveSlot rewrites one slot row and touches the owning schedule.
func (r *ScheduleRepository) SaveSlot(ctx context.Context, scheduleID string, slot models.ScheduleSlot) (*models.ScheduleSlot, error) {
	const query = `INSERT INTO schedule_slots (schedule_id, slot_index, course_id, teacher_id, room_id, day, start_minutes, end_minutes, period, status, conflict_note)
		VALUES (:schedule_id, :slot_index, :course_id, :teacher_id, :room_id, :day, :start_minutes, :end_minutes, :period, :status, :conflict_note)
		ON CONFLICT (schedule_id, slot_index) DO UPDATE SET course_id = :course_id, teacher_id = :teacher_id, room_id = :room_id, day = :day, start_minutes = :start_minutes, end_minutes = :end_minutes, period = :period, status = :status, conflict_note = :conflict_note`
	if _, err := r.db.NamedExecContext(ctx, query, slotToRow(scheduleID, slot)); err != nil {
		return nil, fmt.Errorf("save schedule slot: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `UPDATE schedules SET updated_at = $2 WHERE id = $1`, scheduleID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("touch schedule: %w", err)
	}
	return &slot, nil
}
