package booking

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/uma-arai/sbcntr-hotel/internal/metrics"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/payment"
)

// AddRoom は客室在庫に部屋を追加します
func (s *Service) AddRoom(ctx context.Context, roomNumber int, roomTypeID string) (*model.Room, error) {
	ctx, seg := xray.BeginSubsegment(ctx, "BookingService.AddRoom")
	defer seg.Close(nil)

	room, err := model.NewRoom(roomNumber, roomTypeID)
	if err != nil {
		seg.Close(err)
		return nil, err
	}
	if err := s.rooms.Save(ctx, room); err != nil {
		seg.Close(err)
		return nil, err
	}

	log.Printf("Added room %d (%s)", room.RoomNumber, room.RoomType.Label())
	return room, nil
}

// ListRooms は客室在庫を部屋番号順に返します
func (s *Service) ListRooms(ctx context.Context) ([]model.Room, error) {
	return s.rooms.FindAll(ctx)
}

// BookRoom は在庫の部屋を指定して予約します
//
// 料金は部屋の種類で決まり、リクエストの RoomType は使用しません。
// 部屋は決済の前に確保され、決済に失敗した場合は予約可能に戻されます。
// 請求後に記録が失敗した場合は部屋を確保したまま *model.ChargedError を返します。
func (s *Service) BookRoom(ctx context.Context, roomID int64, req model.BookingRequest) (record *model.ReservationRecord, err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "BookingService.BookRoom")
	defer seg.Close(nil)

	var roomType model.RoomType
	var handler payment.Handler
	defer func() {
		metrics.RecordBooking(string(roomType), methodLabel(handler), err)
		if err != nil {
			seg.Close(err)
		}
	}()

	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	roomType = room.RoomType

	customerType, err := model.LookupCustomerType(req.CustomerType)
	if err != nil {
		return nil, err
	}
	handler, err = s.payments.Resolve(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	claimed, err := s.rooms.Claim(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, fmt.Errorf("%w: room %d", model.ErrRoomUnavailable, room.RoomNumber)
	}

	roomNumber := room.RoomNumber
	record, err = s.chargeAndRecord(ctx, roomType, customerType, handler, req.GuestName, &roomNumber)
	if err != nil {
		var charged *model.ChargedError
		if errors.As(err, &charged) {
			// 請求済みの部屋は照合が済むまで確保したままにする
			log.Printf("Keeping room %d claimed for payment %s", room.RoomNumber, charged.ConfirmationID)
			return nil, err
		}
		if releaseErr := s.rooms.Release(context.WithoutCancel(ctx), roomID); releaseErr != nil {
			log.Printf("Failed to release room %d: %v", room.RoomNumber, releaseErr)
		}
		return nil, err
	}

	return record, nil
}
