package payment

import (
	"context"
	"log"

	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// Gateway は実際の決済を行う外部サービスとの接続点です
// エラーを返した場合、決済は拒否されたものとして扱われます
type Gateway interface {
	Charge(ctx context.Context, method model.PaymentMethod, amount float64) error
}

// LogGateway は請求内容をログに出力するだけのGatewayです
// 常に成功します
type LogGateway struct{}

func NewLogGateway() *LogGateway {
	return &LogGateway{}
}

func (g *LogGateway) Charge(ctx context.Context, method model.PaymentMethod, amount float64) error {
	log.Printf("Processing %s payment of $%.2f", method.Label(), amount)
	return nil
}
