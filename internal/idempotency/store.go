package idempotency

import (
	"context"
	"time"
)

const (
	statusProcessing = "processing"
	statusSuccess    = "success"
	statusCharged    = "charged"

	// TTL は冪等キーを保持する期間です
	TTL = 24 * time.Hour
)

// Result は完了済みの冪等キーに紐づく結果です
// 請求後に記録が失敗したキーは ReservationID が空で ConfirmationID のみを持ちます
type Result struct {
	ReservationID  string `json:"reservationId,omitempty"`
	ConfirmationID string `json:"confirmationId,omitempty"`
}

// Store は予約リクエストの冪等キーを管理します
//
// Reserve はキーを処理中として確保します。未使用のキーなら (nil, nil) を返し、
// 成功済みまたは請求済みのキーなら記録済みの Result を返します。
// 処理中のキーには model.ErrIdempotencyKeyInProgress を返します。
//
// MarkFailure はキーを解放し、同じキーでの再試行を許可します。
// 請求後に失敗したキーは解放せず MarkCharged で確認番号とともに残します。
type Store interface {
	Reserve(ctx context.Context, key string) (*Result, error)
	MarkSuccess(ctx context.Context, key string, reservationID string) error
	MarkCharged(ctx context.Context, key string, confirmationID string) error
	MarkFailure(ctx context.Context, key string) error
}
