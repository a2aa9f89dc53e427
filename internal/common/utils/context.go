package utils

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RunWithTimeout は fn をタイムアウト付きで実行します
// タイムアウトまたは親コンテキストのキャンセル時は fn の終了を待たずにエラーを返します
func RunWithTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errChan := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errChan <- GetStackWithError(fmt.Errorf("batch process panicked: %v", r))
			}
		}()
		errChan <- fn(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("batch process canceled: %w", ctx.Err())
		}
		return fmt.Errorf("batch process timed out after %v: %w", timeout, ctx.Err())
	}
}
