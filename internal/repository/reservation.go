package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// ReservationRepository は予約台帳です
// 予約ワークフローからは追記のみが行われ、削除はされません
type ReservationRepository interface {
	Save(ctx context.Context, record *model.ReservationRecord) error
	FindByID(ctx context.Context, id string) (*model.ReservationRecord, error)
	FindAll(ctx context.Context) ([]model.ReservationRecord, error)
	FindByState(ctx context.Context, state model.ReservationState) ([]model.ReservationRecord, error)
	// UpdateState は現在のステータスが from の場合にのみ to へ更新します
	// 更新できなかった場合は false を返します
	UpdateState(ctx context.Context, id string, from, to model.ReservationState) (bool, error)
	Count(ctx context.Context) (int, error)
}

const reservationColumns = `
	id,
	room_type,
	customer_type,
	payment_method,
	guest_name,
	room_number,
	amount_charged,
	confirmation_id,
	state,
	created_at,
	updated_at`

// ReservationRepositoryImpl はPostgreSQLに永続化する予約台帳です
type ReservationRepositoryImpl struct {
	db *DB
}

func NewReservationRepository(db *DB) *ReservationRepositoryImpl {
	return &ReservationRepositoryImpl{db: db}
}

// Save は予約を台帳に追記します
func (r *ReservationRepositoryImpl) Save(ctx context.Context, record *model.ReservationRecord) error {
	ctx, seg := xray.BeginSubsegment(ctx, "ReservationRepository.Save")
	defer seg.Close(nil)

	query := `
		INSERT INTO reservations (
			id,
			room_type,
			customer_type,
			payment_method,
			guest_name,
			room_number,
			amount_charged,
			confirmation_id,
			state,
			created_at,
			updated_at
		) VALUES (
			:id,
			:room_type,
			:customer_type,
			:payment_method,
			:guest_name,
			:room_number,
			:amount_charged,
			:confirmation_id,
			:state,
			:created_at,
			:updated_at
		)
	`

	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		seg.Close(err)
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	return nil
}

// FindByID は予約IDから予約を取得します
func (r *ReservationRepositoryImpl) FindByID(ctx context.Context, id string) (*model.ReservationRecord, error) {
	ctx, seg := xray.BeginSubsegment(ctx, "ReservationRepository.FindByID")
	defer seg.Close(nil)

	query := `SELECT` + reservationColumns + `
		FROM reservations
		WHERE id = $1`

	var record model.ReservationRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", model.ErrReservationNotFound, id)
		}
		seg.Close(err)
		return nil, fmt.Errorf("failed to get reservation %s: %w", id, err)
	}

	return &record, nil
}

// FindAll は台帳のすべての予約を記録順に取得します
func (r *ReservationRepositoryImpl) FindAll(ctx context.Context) ([]model.ReservationRecord, error) {
	ctx, seg := xray.BeginSubsegment(ctx, "ReservationRepository.FindAll")
	defer seg.Close(nil)

	query := `SELECT` + reservationColumns + `
		FROM reservations
		ORDER BY seq ASC`

	return r.selectRecords(ctx, seg, query)
}

// FindByState は指定されたステータスの予約を取得します
func (r *ReservationRepositoryImpl) FindByState(ctx context.Context, state model.ReservationState) ([]model.ReservationRecord, error) {
	ctx, seg := xray.BeginSubsegment(ctx, "ReservationRepository.FindByState")
	defer seg.Close(nil)

	query := `SELECT` + reservationColumns + `
		FROM reservations
		WHERE state = $1
		ORDER BY seq ASC`

	return r.selectRecords(ctx, seg, query, state)
}

func (r *ReservationRepositoryImpl) selectRecords(ctx context.Context, seg *xray.Segment, query string, args ...interface{}) ([]model.ReservationRecord, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		seg.Close(err)
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	records := make([]model.ReservationRecord, 0)
	for rows.Next() {
		var record model.ReservationRecord
		if err := rows.StructScan(&record); err != nil {
			seg.Close(err)
			return nil, fmt.Errorf("failed to scan reservation row: %w", err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		seg.Close(err)
		return nil, fmt.Errorf("error iterating reservation rows: %w", err)
	}

	return records, nil
}

// UpdateState は予約のステータスを更新します
func (r *ReservationRepositoryImpl) UpdateState(ctx context.Context, id string, from, to model.ReservationState) (bool, error) {
	ctx, seg := xray.BeginSubsegment(ctx, "ReservationRepository.UpdateState")
	defer seg.Close(nil)

	query := `
		UPDATE reservations
		SET state = $1,
			updated_at = $2
		WHERE id = $3
		AND state = $4
	`

	result, err := r.db.ExecContext(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		seg.Close(err)
		return false, fmt.Errorf("failed to update reservation state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		seg.Close(err)
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// 予約が存在しないのか、ステータスが変わっていたのかを区別する
		if _, err := r.FindByID(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}

	return true, nil
}

// Count は台帳の予約件数を返します
func (r *ReservationRepositoryImpl) Count(ctx context.Context) (int, error) {
	ctx, seg := xray.BeginSubsegment(ctx, "ReservationRepository.Count")
	defer seg.Close(nil)

	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM reservations`); err != nil {
		seg.Close(err)
		return 0, fmt.Errorf("failed to count reservations: %w", err)
	}

	return count, nil
}
