package booking

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/events"
	"github.com/uma-arai/sbcntr-hotel/internal/metrics"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/payment"
	"github.com/uma-arai/sbcntr-hotel/internal/repository"
)

// recordTimeout は請求後に台帳への記録と通知に使える時間です
const recordTimeout = 10 * time.Second

// Service は予約ワークフローを担当します
type Service struct {
	reservations repository.ReservationRepository
	rooms        repository.RoomRepository
	payments     *payment.Resolver
	publisher    events.Publisher
}

// NewService は新しいServiceを作成します
// payments が nil の場合は常に成功する決済を、publisher が nil の場合はログ出力のみを使用します
func NewService(
	reservations repository.ReservationRepository,
	rooms repository.RoomRepository,
	payments *payment.Resolver,
	publisher events.Publisher,
) *Service {
	if payments == nil {
		payments = payment.NewResolver(nil)
	}
	if publisher == nil {
		publisher = events.NewLogPublisher()
	}
	return &Service{
		reservations: reservations,
		rooms:        rooms,
		payments:     payments,
		publisher:    publisher,
	}
}

// Book は部屋の種類、顧客の種類、支払い方法から予約を作成します
//
// 識別子の解決はすべて決済の前に行われ、失敗した場合は model.ErrInvalidArgument を返します。
// 決済が拒否された場合は model.ErrPaymentDeclined を返し、台帳には何も記録しません。
// 成功した場合のみ Reserved 状態のレコードを1件台帳に追加します。
func (s *Service) Book(ctx context.Context, req model.BookingRequest) (record *model.ReservationRecord, err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "BookingService.Book")
	defer seg.Close(nil)

	var roomType model.RoomType
	var handler payment.Handler
	defer func() {
		metrics.RecordBooking(string(roomType), methodLabel(handler), err)
		if err != nil {
			seg.Close(err)
		}
	}()

	roomType, err = model.LookupRoomType(req.RoomType)
	if err != nil {
		return nil, err
	}
	customerType, err := model.LookupCustomerType(req.CustomerType)
	if err != nil {
		return nil, err
	}
	handler, err = s.payments.Resolve(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	return s.chargeAndRecord(ctx, roomType, customerType, handler, req.GuestName, nil)
}

// chargeAndRecord は部屋の種類の料金を請求し、成功した場合に台帳へ記録します
// 請求後に記録が失敗した場合は *model.ChargedError を返します
func (s *Service) chargeAndRecord(
	ctx context.Context,
	roomType model.RoomType,
	customerType model.CustomerType,
	handler payment.Handler,
	guestName string,
	roomNumber *int,
) (*model.ReservationRecord, error) {
	amount := roomType.NightlyRate()
	utils.AddMetadata(xray.GetSegment(ctx), "amount", amount)

	receipt, err := handler.Charge(ctx, amount)
	if err != nil {
		log.Printf("Payment failed for %s: %v", roomType.Label(), err)
		return nil, err
	}

	// 請求後はリクエストが中断されても台帳への記録を完了させる
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	record := model.NewReservationRecord(
		roomType,
		customerType,
		handler.Method(),
		strings.TrimSpace(guestName),
		receipt.Amount,
		receipt.ConfirmationID,
	)
	record.RoomNumber = roomNumber

	if err := s.reservations.Save(ctx, record); err != nil {
		// 請求済みのため、照合用に確認番号を残す
		log.Printf("Failed to save reservation after payment %s: %v", receipt.ConfirmationID, err)
		return nil, &model.ChargedError{
			ConfirmationID: receipt.ConfirmationID,
			Err:            fmt.Errorf("failed to save reservation: %w", err),
		}
	}

	log.Printf("%s (reservation %s)", record.Summary(), record.ID)
	s.publish(ctx, model.EventTypeBooked, record)
	return record, nil
}

// CheckIn は予約をチェックイン済みにします
// Reserved 以外の状態では何も変更せず、現在の状態を返します
func (s *Service) CheckIn(ctx context.Context, id string) (*model.TransitionResult, error) {
	return s.transition(ctx, id, model.TransitionCheckIn)
}

// CheckOut は予約をチェックアウト済みにします
// Checked-In 以外の状態では何も変更せず、現在の状態を返します
func (s *Service) CheckOut(ctx context.Context, id string) (*model.TransitionResult, error) {
	return s.transition(ctx, id, model.TransitionCheckOut)
}

func (s *Service) transition(ctx context.Context, id string, t model.Transition) (*model.TransitionResult, error) {
	ctx, seg := xray.BeginSubsegment(ctx, "BookingService.Transition")
	defer seg.Close(nil)

	utils.AddMetadata(seg, "transition", string(t))

	// 状態は前方にしか進まないため、競合しても再試行は有限回で終わる
	for {
		if err := ctx.Err(); err != nil {
			seg.Close(err)
			return nil, err
		}

		record, err := s.reservations.FindByID(ctx, id)
		if err != nil {
			seg.Close(err)
			return nil, err
		}

		result := record.Apply(t)
		if !result.Changed {
			log.Print(result.Message())
			metrics.RecordTransition(result)
			return &result, nil
		}

		updated, err := s.reservations.UpdateState(ctx, id, result.PreviousState, result.State)
		if err != nil {
			seg.Close(err)
			return nil, fmt.Errorf("failed to update reservation state: %w", err)
		}
		if !updated {
			log.Printf("Reservation %s was modified concurrently, retrying %s", id, t)
			continue
		}

		log.Print(result.Message())
		metrics.RecordTransition(result)
		s.publish(ctx, model.EventTypeStateChanged, record)
		return &result, nil
	}
}

// Get は予約を1件取得します
func (s *Service) Get(ctx context.Context, id string) (*model.ReservationRecord, error) {
	return s.reservations.FindByID(ctx, id)
}

// List は台帳のすべての予約を記録順に返します
func (s *Service) List(ctx context.Context) ([]model.ReservationRecord, error) {
	return s.reservations.FindAll(ctx)
}

func (s *Service) publish(ctx context.Context, eventType model.EventType, record *model.ReservationRecord) {
	if err := s.publisher.Publish(ctx, model.NewReservationEvent(eventType, record)); err != nil {
		log.Printf("Failed to publish %s event for reservation %s: %v", eventType, record.ID, err)
	}
}

func methodLabel(handler payment.Handler) string {
	if handler == nil {
		return ""
	}
	return string(handler.Method())
}
