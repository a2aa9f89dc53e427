package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/lib/pq"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// RoomRepository は客室在庫の永続化を担当するインターフェースです
type RoomRepository interface {
	Save(ctx context.Context, room *model.Room) error
	FindByID(ctx context.Context, id int64) (*model.Room, error)
	FindAll(ctx context.Context) ([]model.Room, error)
	// Claim は部屋が予約可能な場合にのみ予約不可に更新します
	Claim(ctx context.Context, id int64) (bool, error)
	// Release は部屋を予約可能に戻します
	Release(ctx context.Context, id int64) error
}

const uniqueViolation = "23505"

// RoomRepositoryImpl はRoomRepositoryのPostgreSQL実装です
type RoomRepositoryImpl struct {
	db *DB
}

// NewRoomRepository は新しいRoomRepositoryを作成します
func NewRoomRepository(db *DB) *RoomRepositoryImpl {
	return &RoomRepositoryImpl{db: db}
}

// Save は部屋を登録し、採番されたIDを設定します
func (r *RoomRepositoryImpl) Save(ctx context.Context, room *model.Room) error {
	ctx, seg := xray.BeginSubsegment(ctx, "RoomRepository.Save")
	defer seg.Close(nil)

	query := `
		INSERT INTO rooms (
			room_number, room_type, available, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5
		)
		RETURNING id`

	err := r.db.QueryRowContext(ctx,
		query,
		room.RoomNumber,
		room.RoomType,
		room.Available,
		room.CreatedAt,
		room.UpdatedAt,
	).Scan(&room.ID)
	if err != nil {
		seg.Close(err)
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: room number %d already exists", model.ErrInvalidArgument, room.RoomNumber)
		}
		return fmt.Errorf("failed to create room: %w", err)
	}

	return nil
}

// FindByID は指定されたIDの部屋を取得します
func (r *RoomRepositoryImpl) FindByID(ctx context.Context, id int64) (*model.Room, error) {
	ctx, seg := xray.BeginSubsegment(ctx, "RoomRepository.FindByID")
	defer seg.Close(nil)

	query := `
		SELECT id, room_number, room_type, available, created_at, updated_at
		FROM rooms
		WHERE id = $1`

	var room model.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", model.ErrRoomNotFound, id)
		}
		seg.Close(err)
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return &room, nil
}

// FindAll はすべての部屋を部屋番号順に取得します
func (r *RoomRepositoryImpl) FindAll(ctx context.Context) ([]model.Room, error) {
	ctx, seg := xray.BeginSubsegment(ctx, "RoomRepository.FindAll")
	defer seg.Close(nil)

	query := `
		SELECT id, room_number, room_type, available, created_at, updated_at
		FROM rooms
		ORDER BY room_number ASC`

	rooms := make([]model.Room, 0)
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		seg.Close(err)
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}

	return rooms, nil
}

func (r *RoomRepositoryImpl) Claim(ctx context.Context, id int64) (bool, error) {
	ctx, seg := xray.BeginSubsegment(ctx, "RoomRepository.Claim")
	defer seg.Close(nil)

	query := `
		UPDATE rooms
		SET available = FALSE,
			updated_at = $1
		WHERE id = $2
		AND available = TRUE
	`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		seg.Close(err)
		return false, fmt.Errorf("failed to claim room: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		seg.Close(err)
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

func (r *RoomRepositoryImpl) Release(ctx context.Context, id int64) error {
	ctx, seg := xray.BeginSubsegment(ctx, "RoomRepository.Release")
	defer seg.Close(nil)

	query := `
		UPDATE rooms
		SET available = TRUE,
			updated_at = $1
		WHERE id = $2
	`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		seg.Close(err)
		return fmt.Errorf("failed to release room: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		seg.Close(err)
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		err := fmt.Errorf("%w: %d", model.ErrRoomNotFound, id)
		seg.Close(err)
		return err
	}

	return nil
}
