package model

import (
	"errors"
	"fmt"
)

// 予約処理で発生するエラーの種類です
// 呼び出し側は errors.Is で判定します
var (
	ErrInvalidArgument          = errors.New("invalid argument")
	ErrPaymentDeclined          = errors.New("payment declined")
	ErrReservationNotFound      = errors.New("reservation not found")
	ErrRoomNotFound             = errors.New("room not found")
	ErrRoomUnavailable          = errors.New("room is not available")
	ErrIdempotencyKeyInProgress = errors.New("idempotency key is already being processed")
)

// エラー種別の名前です。BookingResult.ErrorKind に格納されます
const (
	ErrorKindInvalidArgument = "InvalidArgument"
	ErrorKindPaymentDeclined = "PaymentDeclined"
	ErrorKindNotFound        = "NotFound"
	ErrorKindConflict        = "Conflict"
	ErrorKindInternal        = "Internal"
)

// ChargedError は決済が完了した後に予約の記録が失敗したことを表します
// 請求は取り消されないため、同じリクエストで再度請求してはいけません
type ChargedError struct {
	ConfirmationID string
	Err            error
}

func (e *ChargedError) Error() string {
	msg := fmt.Sprintf("payment %s was charged but the reservation was not recorded", e.ConfirmationID)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ChargedError) Unwrap() error {
	return e.Err
}

// ErrorKind はエラーを表示層向けの種別名に変換します
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidArgument):
		return ErrorKindInvalidArgument
	case errors.Is(err, ErrPaymentDeclined):
		return ErrorKindPaymentDeclined
	case errors.Is(err, ErrReservationNotFound), errors.Is(err, ErrRoomNotFound):
		return ErrorKindNotFound
	case errors.Is(err, ErrRoomUnavailable), errors.Is(err, ErrIdempotencyKeyInProgress):
		return ErrorKindConflict
	default:
		return ErrorKindInternal
	}
}
