package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/uma-arai/sbcntr-hotel/internal/common/config"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/repository"
)

// MockTaskSender はテスト用のStep Functionsクライアントです
type MockTaskSender struct {
	inputs  []*sfn.SendTaskSuccessInput
	sendErr error
}

func (m *MockTaskSender) SendTaskSuccess(ctx context.Context, params *sfn.SendTaskSuccessInput, optFns ...func(*sfn.Options)) (*sfn.SendTaskSuccessOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	return &sfn.SendTaskSuccessOutput{}, nil
}

func newTestReservationBatchService(repo repository.ReservationRepository, sender *MockTaskSender, local bool) *ReservationBatchService {
	cfg := &config.Config{Local: local}
	cfg.SFN.TaskToken = "test-token"
	return &ReservationBatchService{
		state:           model.StateReserved,
		reservationRepo: repo,
		sfnClient:       sender,
		cfg:             cfg,
	}
}

func TestReservationBatchService_Run(t *testing.T) {
	// X-Rayのセグメントを設定
	ctx, seg := xray.BeginSegment(context.Background(), "TestReservationBatchService_Run")
	defer seg.Close(nil)

	t.Run("指定した状態の予約を通知として引き渡す", func(t *testing.T) {
		repo := repository.NewMemoryReservationRepository()
		records := seedReservations(t, repo, 3)
		if _, err := repo.UpdateState(ctx, records[0].ID, model.StateReserved, model.StateCheckedIn); err != nil {
			t.Fatalf("UpdateState() error = %v", err)
		}

		sender := &MockTaskSender{}
		service := newTestReservationBatchService(repo, sender, false)
		if err := service.Run(ctx); err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if len(sender.inputs) != 1 {
			t.Fatalf("SendTaskSuccess called %d times, want 1", len(sender.inputs))
		}
		if *sender.inputs[0].TaskToken != "test-token" {
			t.Errorf("TaskToken = %q", *sender.inputs[0].TaskToken)
		}

		// 出力は通知バッチでそのまま読み込める
		notifications, err := ParseNotifications(*sender.inputs[0].Output)
		if err != nil {
			t.Fatalf("ParseNotifications() error = %v", err)
		}
		if len(notifications) != 2 {
			t.Errorf("notifications = %d, want 2", len(notifications))
		}
		for _, n := range notifications {
			if n.Type != model.NotificationTypeReservation {
				t.Errorf("Type = %v, want %v", n.Type, model.NotificationTypeReservation)
			}
		}

		// 台帳は変更しない
		count, _ := repo.Count(ctx)
		reserved, _ := repo.FindByState(ctx, model.StateReserved)
		if count != 3 || len(reserved) != 2 {
			t.Errorf("ledger changed: count = %d, reserved = %d", count, len(reserved))
		}
	})

	t.Run("チェックイン済みの予約は宿泊通知になる", func(t *testing.T) {
		repo := repository.NewMemoryReservationRepository()
		records := seedReservations(t, repo, 1)
		_, _ = repo.UpdateState(ctx, records[0].ID, model.StateReserved, model.StateCheckedIn)

		sender := &MockTaskSender{}
		service := newTestReservationBatchService(repo, sender, false)
		if err := service.SetState(model.StateCheckedIn); err != nil {
			t.Fatalf("SetState() error = %v", err)
		}
		if err := service.Run(ctx); err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		notifications, _ := ParseNotifications(*sender.inputs[0].Output)
		if len(notifications) != 1 || notifications[0].Type != model.NotificationTypeStay {
			t.Errorf("notifications = %+v", notifications)
		}
	})

	t.Run("LOCAL環境ではStep Functionsに通知しない", func(t *testing.T) {
		repo := repository.NewMemoryReservationRepository()
		seedReservations(t, repo, 1)

		sender := &MockTaskSender{}
		service := newTestReservationBatchService(repo, sender, true)
		if err := service.Run(ctx); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(sender.inputs) != 0 {
			t.Errorf("SendTaskSuccess called %d times, want 0", len(sender.inputs))
		}
	})

	t.Run("通知に失敗した場合はエラー", func(t *testing.T) {
		repo := repository.NewMemoryReservationRepository()
		sender := &MockTaskSender{sendErr: errors.New("throttled")}
		service := newTestReservationBatchService(repo, sender, false)

		if err := service.Run(ctx); err == nil {
			t.Error("Run() should fail when SendTaskSuccess fails")
		}
	})
}

func TestReservationBatchService_SetState(t *testing.T) {
	service := newTestReservationBatchService(repository.NewMemoryReservationRepository(), nil, true)

	if err := service.SetState("Cancelled"); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("SetState(Cancelled) error = %v, want ErrInvalidArgument", err)
	}
	if err := service.SetState(model.StateCheckedOut); err != nil || service.state != model.StateCheckedOut {
		t.Errorf("SetState(Checked-Out) = %v, state = %v", err, service.state)
	}
}
