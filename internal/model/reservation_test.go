package model

import (
	"errors"
	"testing"
)

func TestReservationRecord_StateTransitions(t *testing.T) {
	tests := []struct {
		name        string
		transitions []Transition
		wantState   ReservationState
		wantChanged []bool
	}{
		{
			name:        "チェックインしてからチェックアウト",
			transitions: []Transition{TransitionCheckIn, TransitionCheckOut},
			wantState:   StateCheckedOut,
			wantChanged: []bool{true, true},
		},
		{
			name:        "二重チェックインは何もしない",
			transitions: []Transition{TransitionCheckIn, TransitionCheckIn},
			wantState:   StateCheckedIn,
			wantChanged: []bool{true, false},
		},
		{
			name:        "チェックインせずにチェックアウト",
			transitions: []Transition{TransitionCheckOut},
			wantState:   StateReserved,
			wantChanged: []bool{false},
		},
		{
			name:        "チェックアウト後は遷移しない",
			transitions: []Transition{TransitionCheckIn, TransitionCheckOut, TransitionCheckIn, TransitionCheckOut},
			wantState:   StateCheckedOut,
			wantChanged: []bool{true, true, false, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := NewReservationRecord(RoomTypeStandard, CustomerTypeRegular, PaymentMethodPayPal, "guest", 100.0, "conf")
			before := *record

			for i, tr := range tt.transitions {
				result := record.Apply(tr)
				if result.Changed != tt.wantChanged[i] {
					t.Errorf("step %d: Apply(%s) changed = %v, want %v", i, tr, result.Changed, tt.wantChanged[i])
				}
				if result.State != record.State {
					t.Errorf("step %d: result state = %v, record state = %v", i, result.State, record.State)
				}
			}

			if record.State != tt.wantState {
				t.Errorf("State = %v, want %v", record.State, tt.wantState)
			}

			// ステータス以外の項目は変わらない
			if record.ID != before.ID || record.RoomType != before.RoomType || record.AmountCharged != before.AmountCharged ||
				record.CustomerType != before.CustomerType || record.GuestName != before.GuestName {
				t.Errorf("fields other than state changed: before %+v, after %+v", before, *record)
			}
		})
	}
}

func TestTransitionResult_Message(t *testing.T) {
	record := NewReservationRecord(RoomTypeSuite, CustomerTypeCorporate, PaymentMethodCreditCard, "", 300.0, "conf")

	if got := record.CheckOut().Message(); got != "Cannot check-out, reservation is in state: Reserved" {
		t.Errorf("CheckOut().Message() = %q", got)
	}
	if got := record.CheckIn().Message(); got != "Reservation state changed to Checked-In." {
		t.Errorf("CheckIn().Message() = %q", got)
	}
}

func TestNewReservationRecord(t *testing.T) {
	record := NewReservationRecord(RoomTypeDeluxe, CustomerTypeVIP, PaymentMethodCreditCard, "guest", 200.0, "conf-1")

	if record.ID == "" {
		t.Error("ID should be generated")
	}
	if record.State != StateReserved || !record.State.Valid() {
		t.Errorf("State = %v, want %v", record.State, StateReserved)
	}
	if record.Summary() != "Reserved: Deluxe Room for VIP Customer" {
		t.Errorf("Summary() = %q", record.Summary())
	}
	if ReservationState("").Valid() {
		t.Error("empty state should not be valid")
	}
	if !StateCheckedOut.IsTerminal() || StateCheckedIn.IsTerminal() {
		t.Error("only Checked-Out is terminal")
	}
}

func TestNewBookingResult(t *testing.T) {
	record := NewReservationRecord(RoomTypeDeluxe, CustomerTypeVIP, PaymentMethodCreditCard, "", 200.0, "conf")

	ok := NewBookingResult(record, nil)
	if !ok.Success || ok.Record != record || ok.ErrorKind != "" {
		t.Errorf("NewBookingResult(success) = %+v", ok)
	}

	failed := NewBookingResult(nil, errors.Join(ErrPaymentDeclined))
	if failed.Success || failed.Record != nil || failed.ErrorKind != ErrorKindPaymentDeclined {
		t.Errorf("NewBookingResult(failure) = %+v", failed)
	}
}
