package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/uma-arai/sbcntr-hotel/internal/common/config"
	"github.com/uma-arai/sbcntr-hotel/internal/common/database"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/repository"
)

// NotificationBatchService は通知バッチ処理を担当します
type NotificationBatchService struct {
	args             []model.Notification
	db               *database.DB
	notificationRepo repository.NotificationRepository
	reservationRepo  repository.ReservationRepository
	cfg              *config.Config
}

// NewNotificationBatchService は新しいNotificationBatchServiceを作成します
func NewNotificationBatchService(ctx context.Context, cfg *config.Config) (*NotificationBatchService, error) {
	db, err := database.NewDB(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	repoDB := repository.NewDB(db.DB)

	return &NotificationBatchService{
		db:               db,
		notificationRepo: repository.NewNotificationRepository(repoDB),
		reservationRepo:  repository.NewReservationRepository(repoDB),
		cfg:              cfg,
	}, nil
}

// Close は終了処理を行います
func (s *NotificationBatchService) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SetArgs は通知バッチ処理の引数を設定します
func (s *NotificationBatchService) SetArgs(args []model.Notification) {
	s.args = args
}

// Run は通知バッチ処理を実行します
func (s *NotificationBatchService) Run(ctx context.Context) error {
	// X-Rayセグメントの作成
	ctx, seg := xray.BeginSubsegment(ctx, "NotificationBatchService.Run")
	defer seg.Close(nil)

	notifications := s.args
	log.Printf("Starting notification batch process for %d notifications...", len(notifications))

	// セグメントにメタデータを追加
	utils.AddMetadata(seg, "notification_count", len(notifications))

	// 処理開始時刻を記録
	startTime := time.Now()

	// 予約を取得
	reservationMap, err := s.getReservationMap(ctx, notifications)
	if err != nil {
		seg.Close(err)
		return err
	}

	// 通知をレコードに変換
	records := make([]model.NotificationRecord, len(notifications))
	for i, notification := range notifications {
		record, err := notification.ToNotificationRecord(reservationMap)
		if err != nil {
			seg.Close(err)
			return err
		}
		records[i] = *record
	}

	// 通知レコードを作成
	if err := s.notificationRepo.CreateNotifications(ctx, records); err != nil {
		seg.Close(err)
		return fmt.Errorf("failed to create notifications: %w", err)
	}

	// 処理終了時刻を記録し、実行時間を計算
	endTime := time.Now()
	duration := endTime.Sub(startTime)

	// セグメントにメタデータを追加
	utils.AddMetadata(seg, "duration", duration.String())
	utils.AddMetadata(seg, "reservation_count", len(reservationMap))

	log.Printf("Notification batch process completed successfully. Duration: %v", duration)
	return nil
}

// 通知データに含まれる予約IDから台帳の予約を取得する
// N+1とならないように先に重複がない予約IDを取得をしておく
// 1. 重複がない予約IDを取得
// 2. 予約IDから予約を取得してMapとして保持する
func (s *NotificationBatchService) getReservationMap(ctx context.Context, notifications []model.Notification) (map[string]model.ReservationRecord, error) {
	// X-Rayセグメントの作成
	ctx, seg := xray.BeginSubsegment(ctx, "NotificationBatchService.getReservationMap")
	defer seg.Close(nil)

	reservationIDs := make([]string, 0)
	reservationMap := make(map[string]model.ReservationRecord)
	for _, notification := range notifications {
		reservationID, err := notification.ReservationID()
		if err != nil {
			seg.Close(err)
			return nil, err
		}

		// 予約IDが重複している場合はスキップ
		if slices.Contains(reservationIDs, reservationID) {
			continue
		}

		reservationIDs = append(reservationIDs, reservationID)
	}

	// セグメントにメタデータを追加
	utils.AddMetadata(seg, "unique_reservation_count", len(reservationIDs))

	for _, reservationID := range reservationIDs {
		reservation, err := s.reservationRepo.FindByID(ctx, reservationID)
		if err != nil {
			seg.Close(err)
			return nil, err
		}
		reservationMap[reservationID] = *reservation
	}

	return reservationMap, nil
}

// ParseNotifications はタスクトークンとして渡されたJSONから通知データを生成します
// 予約バッチが SendTaskSuccess に渡す形式と同じです
func ParseNotifications(payload string) ([]model.Notification, error) {
	var input struct {
		Notifications []model.Notification `json:"notifications"`
	}

	if err := json.Unmarshal([]byte(payload), &input); err != nil {
		return nil, fmt.Errorf("failed to parse task token: %w", err)
	}

	for i, notification := range input.Notifications {
		if _, err := notification.ReservationID(); err != nil {
			return nil, fmt.Errorf("notification %d: %w", i, err)
		}
	}

	return input.Notifications, nil
}
