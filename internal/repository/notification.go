package repository

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/jmoiron/sqlx"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// NotificationRepository は通知の永続化を担当するインターフェースです
type NotificationRepository interface {
	CreateNotifications(ctx context.Context, records []model.NotificationRecord) error
}

// NotificationRepositoryImpl は通知の永続化を担当します
type NotificationRepositoryImpl struct {
	db *DB
}

// NewNotificationRepository は新しいNotificationRepositoryを作成します
func NewNotificationRepository(db *DB) *NotificationRepositoryImpl {
	return &NotificationRepositoryImpl{
		db: db,
	}
}

// CreateNotifications は複数の通知レコードを1つのトランザクションで作成します
func (r *NotificationRepositoryImpl) CreateNotifications(ctx context.Context, records []model.NotificationRecord) error {
	ctx, seg := xray.BeginSubsegment(ctx, "NotificationRepository.CreateNotifications")
	defer seg.Close(nil)

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		seg.Close(err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for i := range records {
		if err := r.create(ctx, tx, &records[i]); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Printf("rollback failed: %v, original error: %v", rbErr, err)
			}
			seg.Close(err)
			return fmt.Errorf("failed to create notification: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		seg.Close(err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// create は単一の通知レコードを作成します
func (r *NotificationRepositoryImpl) create(ctx context.Context, tx *sqlx.Tx, record *model.NotificationRecord) error {
	ctx, seg := xray.BeginSubsegment(ctx, "NotificationRepository.Create")
	defer seg.Close(nil)

	query := `
		INSERT INTO notifications (
			reservation_id, guest_name, title, message, is_read, type, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		RETURNING id`

	err := tx.QueryRowContext(ctx,
		query,
		record.ReservationID,
		record.GuestName,
		record.Title,
		record.Message,
		record.IsRead,
		record.Type,
		record.CreatedAt,
		record.UpdatedAt,
	).Scan(&record.ID)

	if err != nil {
		seg.Close(err)
		return err
	}

	return nil
}
