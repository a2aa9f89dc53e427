package model

import "fmt"

// ReservationState は予約のステータスです
// Reserved -> Checked-In -> Checked-Out の順にのみ遷移します
type ReservationState string

const (
	StateReserved   ReservationState = "Reserved"
	StateCheckedIn  ReservationState = "Checked-In"
	StateCheckedOut ReservationState = "Checked-Out"
)

func (s ReservationState) Valid() bool {
	switch s {
	case StateReserved, StateCheckedIn, StateCheckedOut:
		return true
	default:
		return false
	}
}

// IsTerminal はこれ以上遷移できないステータスかどうかを返します
func (s ReservationState) IsTerminal() bool {
	return s == StateCheckedOut
}

// Transition は予約ステータスに対する操作です
type Transition string

const (
	TransitionCheckIn  Transition = "check-in"
	TransitionCheckOut Transition = "check-out"
)

// Apply は現在のステータスに操作を適用した結果を返します
// 遷移できない場合は現在のステータスをそのまま返し、changed は false になります
func (t Transition) Apply(current ReservationState) (next ReservationState, changed bool) {
	switch {
	case t == TransitionCheckIn && current == StateReserved:
		return StateCheckedIn, true
	case t == TransitionCheckOut && current == StateCheckedIn:
		return StateCheckedOut, true
	default:
		return current, false
	}
}

// TransitionResult はステータス遷移の結果です
type TransitionResult struct {
	ReservationID string           `json:"reservationId"`
	Transition    Transition       `json:"transition"`
	PreviousState ReservationState `json:"previousState"`
	State         ReservationState `json:"state"`
	Changed       bool             `json:"changed"`
}

// Message は遷移結果を利用者向けの文言にします
func (r TransitionResult) Message() string {
	if r.Changed {
		return fmt.Sprintf("Reservation state changed to %s.", r.State)
	}
	return fmt.Sprintf("Cannot %s, reservation is in state: %s", r.Transition, r.State)
}
