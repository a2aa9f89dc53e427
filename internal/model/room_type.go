package model

import (
	"fmt"
	"strings"
)

// RoomType は部屋の種類を表します
type RoomType string

const (
	RoomTypeStandard RoomType = "standard"
	RoomTypeDeluxe   RoomType = "deluxe"
	RoomTypeSuite    RoomType = "suite"
)

// RoomTypes は選択可能な部屋の種類の一覧です
var RoomTypes = []RoomType{RoomTypeStandard, RoomTypeDeluxe, RoomTypeSuite}

// LookupRoomType は識別子から部屋の種類を取得します
// 大文字小文字は区別しません
func LookupRoomType(id string) (RoomType, error) {
	switch RoomType(strings.ToLower(id)) {
	case RoomTypeStandard:
		return RoomTypeStandard, nil
	case RoomTypeDeluxe:
		return RoomTypeDeluxe, nil
	case RoomTypeSuite:
		return RoomTypeSuite, nil
	default:
		return "", fmt.Errorf("%w: invalid room type: %q", ErrInvalidArgument, id)
	}
}

// Label は表示用の名称を返します
func (t RoomType) Label() string {
	switch t {
	case RoomTypeStandard:
		return "Standard Room"
	case RoomTypeDeluxe:
		return "Deluxe Room"
	case RoomTypeSuite:
		return "Suite"
	default:
		return ""
	}
}

// NightlyRate は1泊あたりの料金を返します
func (t RoomType) NightlyRate() float64 {
	switch t {
	case RoomTypeStandard:
		return 100.0
	case RoomTypeDeluxe:
		return 200.0
	case RoomTypeSuite:
		return 300.0
	default:
		return 0
	}
}

func (t RoomType) Valid() bool {
	return t.Label() != ""
}
