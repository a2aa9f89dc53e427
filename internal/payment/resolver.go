package payment

import (
	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// Resolver は支払い方法の識別子から決済処理を選択します
type Resolver struct {
	gateway Gateway
}

// NewResolver は新しいResolverを作成します
// gateway が nil の場合は LogGateway を使用します
func NewResolver(gateway Gateway) *Resolver {
	if gateway == nil {
		gateway = NewLogGateway()
	}
	return &Resolver{gateway: gateway}
}

// Resolve は識別子に対応する決済処理を返します
// 未対応の識別子の場合は model.ErrInvalidArgument を返します
func (r *Resolver) Resolve(id string) (Handler, error) {
	method, err := model.LookupPaymentMethod(id)
	if err != nil {
		return nil, err
	}
	return &processor{
		method:  method,
		steps:   stepsByMethod[method],
		gateway: r.gateway,
	}, nil
}
