package model

import (
	"fmt"
	"strings"
)

// CustomerType は顧客区分を表します
type CustomerType string

const (
	CustomerTypeRegular   CustomerType = "regular"
	CustomerTypeVIP       CustomerType = "vip"
	CustomerTypeCorporate CustomerType = "corporate"
)

// LookupCustomerType は識別子から顧客区分を取得します
// 大文字小文字は区別しません
func LookupCustomerType(id string) (CustomerType, error) {
	switch CustomerType(strings.ToLower(id)) {
	case CustomerTypeRegular:
		return CustomerTypeRegular, nil
	case CustomerTypeVIP:
		return CustomerTypeVIP, nil
	case CustomerTypeCorporate:
		return CustomerTypeCorporate, nil
	default:
		return "", fmt.Errorf("%w: invalid customer type: %q", ErrInvalidArgument, id)
	}
}

func (t CustomerType) Label() string {
	switch t {
	case CustomerTypeRegular:
		return "Regular Customer"
	case CustomerTypeVIP:
		return "VIP Customer"
	case CustomerTypeCorporate:
		return "Corporate Customer"
	default:
		return ""
	}
}

func (t CustomerType) Valid() bool {
	return t.Label() != ""
}
