package model

import (
	"fmt"
	"time"
)

// Room は客室在庫の1部屋です
type Room struct {
	ID         int64     `json:"id" db:"id"`
	RoomNumber int       `json:"roomNumber" db:"room_number"`
	RoomType   RoomType  `json:"roomType" db:"room_type"`
	Available  bool      `json:"available" db:"available"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// NewRoom は予約可能な状態の部屋を作成します
func NewRoom(roomNumber int, roomTypeID string) (*Room, error) {
	if roomNumber <= 0 {
		return nil, fmt.Errorf("%w: room number must be positive: %d", ErrInvalidArgument, roomNumber)
	}
	roomType, err := LookupRoomType(roomTypeID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Room{
		RoomNumber: roomNumber,
		RoomType:   roomType,
		Available:  true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
