package model

import (
	"fmt"
	"time"
)

// NotificationType は通知の種類を表します
type NotificationType string

const (
	// NotificationTypeReservation は予約完了の通知を表します
	NotificationTypeReservation NotificationType = "reservation"
	// NotificationTypeStay はチェックイン・チェックアウトの通知を表します
	NotificationTypeStay NotificationType = "stay"
	// NotificationTypeCommon は共通の通知を表します
	NotificationTypeCommon NotificationType = "common"
)

// Notification はイベントIFを受け取るための定義です
// アプリケーションサービス層で利用されます
type Notification struct {
	Type      NotificationType `json:"type"`
	CreatedAt time.Time        `json:"created_at"`
	Data      interface{}      `json:"data"`
}

// NotificationRecord は通知のドメインモデルです
// データベースに永続化される通知レコードと今回は一致しています
type NotificationRecord struct {
	ID            int              `db:"id"`
	ReservationID string           `db:"reservation_id"`
	GuestName     string           `db:"guest_name"`
	Title         string           `db:"title"`
	Message       string           `db:"message"`
	IsRead        bool             `db:"is_read"`
	Type          NotificationType `db:"type"`
	CreatedAt     time.Time        `db:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at"`
}

// ReservationID は通知データに含まれる予約IDを取得します
func (n Notification) ReservationID() (string, error) {
	data, ok := n.Data.(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("invalid notification data format")
	}
	id, ok := data["reservation_id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("reservation_id is not a string")
	}
	return id, nil
}

// ToNotificationRecord は通知を通知レコードに変換します
// 予約内容は台帳から取得済みの reservations を参照します
func (n Notification) ToNotificationRecord(reservations map[string]ReservationRecord) (*NotificationRecord, error) {
	reservationID, err := n.ReservationID()
	if err != nil {
		return nil, err
	}

	reservation, ok := reservations[reservationID]
	if !ok {
		return nil, fmt.Errorf("reservation_id not found in reservations")
	}

	record := &NotificationRecord{
		ReservationID: reservation.ID,
		GuestName:     reservation.GuestName,
		IsRead:        false,
		Type:          n.Type,
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.CreatedAt,
	}

	switch n.Type {
	case NotificationTypeReservation:
		record.Title = "予約が完了しました"
		record.Message = fmt.Sprintf(`予約が完了しました。ご宿泊をお楽しみください。
部屋タイプ: %s
お支払い金額: $%.2f`, reservation.RoomType.Label(), reservation.AmountCharged)
	case NotificationTypeStay:
		record.Title = "ご宿泊状況が更新されました"
		record.Message = fmt.Sprintf(`予約のステータスが更新されました。
部屋タイプ: %s
ステータス: %s`, reservation.RoomType.Label(), reservation.State)
	default:
		record.Title = "新しい通知が届きました。"
		record.Message = "新しい通知です。"
		record.Type = NotificationTypeCommon
	}

	return record, nil
}

// NewReservationNotification は予約イベントから通知を作成します
func NewReservationNotification(event ReservationEvent) Notification {
	notificationType := NotificationTypeReservation
	if event.Type == EventTypeStateChanged {
		notificationType = NotificationTypeStay
	}

	return Notification{
		Type:      notificationType,
		CreatedAt: event.CreatedAt,
		Data: map[string]interface{}{
			"reservation_id": event.ReservationID,
			"guest_name":     event.GuestName,
			"state":          string(event.State),
		},
	}
}
