package payment

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/google/uuid"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// Receipt は決済成功時の控えです
type Receipt struct {
	ConfirmationID string              `json:"confirmationId"`
	Method         model.PaymentMethod `json:"method"`
	Amount         float64             `json:"amount"`
	ChargedAt      time.Time           `json:"chargedAt"`
}

// Handler は支払い方法ごとの決済処理です
type Handler interface {
	Method() model.PaymentMethod
	Charge(ctx context.Context, amount float64) (*Receipt, error)
}

// steps は支払い方法ごとに異なる決済手順です
// 確認の送信はすべての支払い方法で共通です
type steps struct {
	collect  string
	validate string
	charge   string
}

var stepsByMethod = map[model.PaymentMethod]steps{
	model.PaymentMethodCreditCard: {
		collect:  "Collecting credit card details...",
		validate: "Validating credit card...",
		charge:   "Charging $%.2f to credit card...",
	},
	model.PaymentMethodPayPal: {
		collect:  "Collecting PayPal details...",
		validate: "Validating PayPal account...",
		charge:   "Charging $%.2f via PayPal...",
	},
}

type processor struct {
	method  model.PaymentMethod
	steps   steps
	gateway Gateway
}

func (p *processor) Method() model.PaymentMethod {
	return p.method
}

// Charge は 詳細の取得、検証、請求、確認の送信 の順に決済を行います
func (p *processor) Charge(ctx context.Context, amount float64) (*Receipt, error) {
	ctx, seg := xray.BeginSubsegment(ctx, "PaymentHandler.Charge")
	defer seg.Close(nil)

	utils.AddMetadata(seg, "payment_method", string(p.method))

	if amount <= 0 {
		err := fmt.Errorf("%w: amount must be positive: %v", model.ErrInvalidArgument, amount)
		seg.Close(err)
		return nil, err
	}

	log.Print(p.steps.collect)
	log.Print(p.steps.validate)
	log.Printf(p.steps.charge, amount)
	if err := p.gateway.Charge(ctx, p.method, amount); err != nil {
		err = fmt.Errorf("%w: %s: %v", model.ErrPaymentDeclined, p.method.Label(), err)
		seg.Close(err)
		return nil, err
	}
	log.Print("Sending confirmation...")

	return &Receipt{
		ConfirmationID: uuid.NewString(),
		Method:         p.method,
		Amount:         amount,
		ChargedAt:      time.Now().UTC(),
	}, nil
}
