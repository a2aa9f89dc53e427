package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/uma-arai/sbcntr-hotel/internal/common/config"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/repository"
)

// MockNotificationRepository はテスト用のモックリポジトリです
type MockNotificationRepository struct {
	createNotificationsCalled bool
	createNotificationsError  error
	notifications             []model.NotificationRecord
}

func (m *MockNotificationRepository) CreateNotifications(ctx context.Context, records []model.NotificationRecord) error {
	m.createNotificationsCalled = true
	m.notifications = records
	return m.createNotificationsError
}

// countingReservationRepository は FindByID の呼び出し回数を数えます
type countingReservationRepository struct {
	*repository.MemoryReservationRepository
	findByIDCalls int
}

func (r *countingReservationRepository) FindByID(ctx context.Context, id string) (*model.ReservationRecord, error) {
	r.findByIDCalls++
	return r.MemoryReservationRepository.FindByID(ctx, id)
}

// newTestNotificationBatchService はテスト用のNotificationBatchServiceを作成します
func newTestNotificationBatchService(mockNotificationRepo *MockNotificationRepository, reservationRepo repository.ReservationRepository) *NotificationBatchService {
	return &NotificationBatchService{
		notificationRepo: mockNotificationRepo,
		reservationRepo:  reservationRepo,
		cfg:              &config.Config{},
	}
}

func seedReservations(t *testing.T, repo repository.ReservationRepository, n int) []*model.ReservationRecord {
	t.Helper()
	records := make([]*model.ReservationRecord, n)
	for i := range records {
		records[i] = model.NewReservationRecord(model.RoomTypeDeluxe, model.CustomerTypeVIP, model.PaymentMethodCreditCard, "山田太郎", 200.0, "conf")
		if err := repo.Save(context.Background(), records[i]); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	return records
}

func TestNotificationBatchService_Run(t *testing.T) {
	// X-Rayのセグメントを設定
	ctx, seg := xray.BeginSegment(context.Background(), "TestNotificationBatchService_Run")
	defer seg.Close(nil)

	now := time.Now().UTC()
	notificationFor := func(id string) model.Notification {
		return model.Notification{
			Type:      model.NotificationTypeReservation,
			Data:      map[string]interface{}{"reservation_id": id},
			CreatedAt: now,
		}
	}

	tests := []struct {
		name            string
		build           func(records []*model.ReservationRecord) []model.Notification
		mockError       error
		wantErr         bool
		wantRecords     int
		wantLookupCalls int
	}{
		{
			name:            "0件の通知を正常に処理",
			build:           func([]*model.ReservationRecord) []model.Notification { return []model.Notification{} },
			wantRecords:     0,
			wantLookupCalls: 0,
		},
		{
			name: "1件の通知を正常に処理",
			build: func(records []*model.ReservationRecord) []model.Notification {
				return []model.Notification{notificationFor(records[0].ID)}
			},
			wantRecords:     1,
			wantLookupCalls: 1,
		},
		{
			name: "同じ予約の通知は1回だけ取得する",
			build: func(records []*model.ReservationRecord) []model.Notification {
				return []model.Notification{
					notificationFor(records[0].ID),
					notificationFor(records[1].ID),
					notificationFor(records[0].ID),
				}
			},
			wantRecords:     3,
			wantLookupCalls: 2,
		},
		{
			name: "台帳にない予約はエラー",
			build: func([]*model.ReservationRecord) []model.Notification {
				return []model.Notification{notificationFor("missing")}
			},
			wantErr:         true,
			wantLookupCalls: 1,
		},
		{
			name: "保存に失敗した場合はエラー",
			build: func(records []*model.ReservationRecord) []model.Notification {
				return []model.Notification{notificationFor(records[0].ID)}
			},
			mockError:       errors.New("db down"),
			wantErr:         true,
			wantRecords:     1,
			wantLookupCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockNotificationRepo := &MockNotificationRepository{
				createNotificationsError: tt.mockError,
			}
			reservationRepo := &countingReservationRepository{MemoryReservationRepository: repository.NewMemoryReservationRepository()}
			records := seedReservations(t, reservationRepo, 2)

			service := newTestNotificationBatchService(mockNotificationRepo, reservationRepo)
			service.SetArgs(tt.build(records))
			err := service.Run(ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}

			if reservationRepo.findByIDCalls != tt.wantLookupCalls {
				t.Errorf("FindByID called %d times, want %d", reservationRepo.findByIDCalls, tt.wantLookupCalls)
			}
			if len(mockNotificationRepo.notifications) != tt.wantRecords {
				t.Errorf("Expected %d notifications, got %d", tt.wantRecords, len(mockNotificationRepo.notifications))
			}
			for _, record := range mockNotificationRepo.notifications {
				if record.GuestName != "山田太郎" || record.Title != "予約が完了しました" {
					t.Errorf("record = %+v", record)
				}
			}
		})
	}
}

func TestParseNotifications(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
		wantErr bool
	}{
		{
			name:    "予約バッチの出力を読み込む",
			payload: `{"notifications":[{"type":"reservation","created_at":"2024-01-01T00:00:00Z","data":{"reservation_id":"r1","guest_name":"a","state":"Reserved"}},{"type":"stay","created_at":"2024-01-01T00:00:00Z","data":{"reservation_id":"r2"}}]}`,
			want:    2,
		},
		{
			name:    "通知が空",
			payload: `{"notifications":[]}`,
			want:    0,
		},
		{
			name:    "JSONではない",
			payload: "DUMMY_TASK_TOKEN",
			wantErr: true,
		},
		{
			name:    "予約IDがない",
			payload: `{"notifications":[{"type":"reservation","data":{"guest_name":"a"}}]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifications, err := ParseNotifications(tt.payload)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseNotifications() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(notifications) != tt.want {
				t.Errorf("ParseNotifications() = %d notifications, want %d", len(notifications), tt.want)
			}
		})
	}
}
