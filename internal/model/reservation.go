package model

import (
	"time"

	"github.com/google/uuid"
)

// BookingRequest は予約ワークフローへの入力です
// 金額は部屋の種類から決まるため受け付けません
type BookingRequest struct {
	RoomType      string `json:"roomType"`
	CustomerType  string `json:"customerType"`
	PaymentMethod string `json:"paymentMethod"`
	GuestName     string `json:"guestName"`
}

// ReservationRecord は台帳に記録される予約です
// 作成後に変更されるのは State のみです
type ReservationRecord struct {
	ID             string           `json:"id" db:"id"`
	RoomType       RoomType         `json:"roomType" db:"room_type"`
	CustomerType   CustomerType     `json:"customerType" db:"customer_type"`
	PaymentMethod  PaymentMethod    `json:"paymentMethod" db:"payment_method"`
	GuestName      string           `json:"guestName,omitempty" db:"guest_name"`
	RoomNumber     *int             `json:"roomNumber,omitempty" db:"room_number"`
	AmountCharged  float64          `json:"amountCharged" db:"amount_charged"`
	ConfirmationID string           `json:"confirmationId" db:"confirmation_id"`
	State          ReservationState `json:"state" db:"state"`
	CreatedAt      time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time        `json:"updatedAt" db:"updated_at"`
}

// NewReservationRecord は決済済みの予約レコードを Reserved 状態で作成します
func NewReservationRecord(roomType RoomType, customerType CustomerType, method PaymentMethod, guestName string, amount float64, confirmationID string) *ReservationRecord {
	now := time.Now().UTC()
	return &ReservationRecord{
		ID:             uuid.NewString(),
		RoomType:       roomType,
		CustomerType:   customerType,
		PaymentMethod:  method,
		GuestName:      guestName,
		AmountCharged:  amount,
		ConfirmationID: confirmationID,
		State:          StateReserved,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Apply はステータス操作をレコードに適用します
// 遷移できない場合はレコードを変更しません
func (r *ReservationRecord) Apply(t Transition) TransitionResult {
	next, changed := t.Apply(r.State)
	result := TransitionResult{
		ReservationID: r.ID,
		Transition:    t,
		PreviousState: r.State,
		State:         next,
		Changed:       changed,
	}
	if changed {
		r.State = next
		r.UpdatedAt = time.Now().UTC()
	}
	return result
}

func (r *ReservationRecord) CheckIn() TransitionResult {
	return r.Apply(TransitionCheckIn)
}

func (r *ReservationRecord) CheckOut() TransitionResult {
	return r.Apply(TransitionCheckOut)
}

// Summary は予約内容を1行で表します
func (r *ReservationRecord) Summary() string {
	return "Reserved: " + r.RoomType.Label() + " for " + r.CustomerType.Label()
}

// BookingResult は表示層(HTTPハンドラなど)に返す予約結果です
type BookingResult struct {
	Success   bool               `json:"success"`
	Record    *ReservationRecord `json:"record,omitempty"`
	ErrorKind string             `json:"errorKind,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// NewBookingResult はワークフローの戻り値から BookingResult を作成します
func NewBookingResult(record *ReservationRecord, err error) BookingResult {
	if err != nil {
		return BookingResult{
			Success:   false,
			ErrorKind: ErrorKind(err),
			Error:     err.Error(),
		}
	}
	return BookingResult{Success: true, Record: record}
}

// EventType は予約イベントの種類です
type EventType string

const (
	EventTypeBooked       EventType = "reservation.booked"
	EventTypeStateChanged EventType = "reservation.state_changed"
)

// ReservationEvent は予約処理完了時やステータス変更時に発行されるイベントの構造体
type ReservationEvent struct {
	Type          EventType        `json:"type"`
	ReservationID string           `json:"reservation_id"`
	GuestName     string           `json:"guest_name"`
	RoomType      RoomType         `json:"room_type"`
	State         ReservationState `json:"state"`
	Amount        float64          `json:"amount"`
	CreatedAt     time.Time        `json:"created_at"`
}

// NewReservationEvent はレコードの現在の内容からイベントを作成します
func NewReservationEvent(eventType EventType, record *ReservationRecord) ReservationEvent {
	return ReservationEvent{
		Type:          eventType,
		ReservationID: record.ID,
		GuestName:     record.GuestName,
		RoomType:      record.RoomType,
		State:         record.State,
		Amount:        record.AmountCharged,
		CreatedAt:     time.Now().UTC(),
	}
}
