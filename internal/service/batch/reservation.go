package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/uma-arai/sbcntr-hotel/internal/common/config"
	"github.com/uma-arai/sbcntr-hotel/internal/common/database"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/repository"
)

// taskSender はStep Functionsへのタスク成功通知です
type taskSender interface {
	SendTaskSuccess(ctx context.Context, params *sfn.SendTaskSuccessInput, optFns ...func(*sfn.Options)) (*sfn.SendTaskSuccessOutput, error)
}

// ReservationBatchService は予約台帳の集計バッチ処理を担当します
// 指定された状態の予約を通知としてStep Functionsに引き渡します
type ReservationBatchService struct {
	state           model.ReservationState
	db              *database.DB
	reservationRepo repository.ReservationRepository
	sfnClient       taskSender
	cfg             *config.Config
}

// NewReservationBatchService は新しいReservationBatchServiceを作成します
func NewReservationBatchService(ctx context.Context, cfg *config.Config, sfnClient *sfn.Client) (*ReservationBatchService, error) {
	db, err := database.NewDB(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	s := &ReservationBatchService{
		state:           model.StateReserved,
		db:              db,
		reservationRepo: repository.NewReservationRepository(repository.NewDB(db.DB)),
		cfg:             cfg,
	}
	// nilの*sfn.Clientをインターフェースに入れない
	if sfnClient != nil {
		s.sfnClient = sfnClient
	}
	return s, nil
}

// Close は終了処理を行います
func (s *ReservationBatchService) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SetState は集計対象の予約の状態を設定します
func (s *ReservationBatchService) SetState(state model.ReservationState) error {
	if !state.Valid() {
		return fmt.Errorf("%w: invalid reservation state: %q", model.ErrInvalidArgument, state)
	}
	s.state = state
	return nil
}

// Run は予約バッチ処理を実行します
func (s *ReservationBatchService) Run(ctx context.Context) error {
	// X-Rayセグメントの作成
	ctx, seg := xray.BeginSubsegment(ctx, "ReservationBatchService.Run")
	defer seg.Close(nil)

	startTime := time.Now()

	// バッチ処理を実行
	events, err := s.collectEventsByState(ctx, s.state)
	if err != nil {
		seg.Close(err)
		return utils.GetStackWithError(fmt.Errorf("failed to collect %s reservations: %w", s.state, err))
	}

	// イベントを発行
	if err := s.sendTaskSuccess(ctx, events); err != nil {
		seg.Close(err)
		return utils.GetStackWithError(fmt.Errorf("failed to send task success: %w", err))
	}

	endTime := time.Now()
	duration := endTime.Sub(startTime)

	// セグメントにメタデータを追加
	utils.AddMetadata(seg, "duration", duration.String())
	utils.AddMetadata(seg, "reservation_count", len(events))

	log.Printf("Reservation batch process completed successfully. Duration: %v", duration)
	return nil
}

// collectEventsByState は、指定された状態の予約をイベントに変換します
// 台帳は変更しません
func (s *ReservationBatchService) collectEventsByState(ctx context.Context, state model.ReservationState) ([]model.ReservationEvent, error) {
	reservations, err := s.reservationRepo.FindByState(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservations with state %s: %w", state, err)
	}

	log.Printf("Found %d reservations with state %s", len(reservations), state)

	eventType := model.EventTypeStateChanged
	if state == model.StateReserved {
		eventType = model.EventTypeBooked
	}

	events := make([]model.ReservationEvent, 0, len(reservations))
	for i := range reservations {
		events = append(events, model.NewReservationEvent(eventType, &reservations[i]))
	}

	return events, nil
}

// sendTaskSuccess は、Step Functionsのタスク成功を通知し、イベントを返却します
func (s *ReservationBatchService) sendTaskSuccess(ctx context.Context, events []model.ReservationEvent) error {
	// ローカルの場合はStep Functionsの処理をスキップ
	if s.cfg.Local || s.sfnClient == nil {
		log.Printf("Local environment detected. Skipping Step Functions task success notification")
		return nil
	}

	// イベントを通知形式に変換
	notifications := make([]model.Notification, len(events))
	for i, event := range events {
		notifications[i] = model.NewReservationNotification(event)
	}

	// 通知をJSONに変換
	output, err := json.Marshal(map[string]any{
		"notifications": notifications,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notifications: %w", err)
	}

	// タスクトークンを設定から取得
	taskToken := s.cfg.SFN.TaskToken
	if taskToken == "" {
		return fmt.Errorf("SFN_TASK_TOKEN is not set in config")
	}

	// SendTaskSuccess APIを呼び出す
	input := &sfn.SendTaskSuccessInput{
		TaskToken: aws.String(taskToken),
		Output:    aws.String(string(output)),
	}

	_, err = s.sfnClient.SendTaskSuccess(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send task success: %w", err)
	}

	log.Printf("Successfully sent task success with %d notifications", len(notifications))
	return nil
}
