package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uma-arai/sbcntr-hotel/internal/idempotency"
	"github.com/uma-arai/sbcntr-hotel/internal/metrics"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
	bookingTimeout       = 30 * time.Second
)

// BookingService はハンドラから利用する予約ワークフローです
type BookingService interface {
	Book(ctx context.Context, req model.BookingRequest) (*model.ReservationRecord, error)
	BookRoom(ctx context.Context, roomID int64, req model.BookingRequest) (*model.ReservationRecord, error)
	CheckIn(ctx context.Context, id string) (*model.TransitionResult, error)
	CheckOut(ctx context.Context, id string) (*model.TransitionResult, error)
	Get(ctx context.Context, id string) (*model.ReservationRecord, error)
	List(ctx context.Context) ([]model.ReservationRecord, error)
	AddRoom(ctx context.Context, roomNumber int, roomTypeID string) (*model.Room, error)
	ListRooms(ctx context.Context) ([]model.Room, error)
}

// HealthCheck は依存先の状態を返します。nil を返せば正常です
type HealthCheck func(ctx context.Context) error

type Handler struct {
	service     BookingService
	idempotency idempotency.Store
	checks      map[string]HealthCheck
}

// New は新しいHandlerを作成します
// store が nil の場合はプロセス内で冪等キーを管理します
func New(service BookingService, store idempotency.Store, checks map[string]HealthCheck) *Handler {
	if store == nil {
		store = idempotency.NewMemoryStore()
	}
	return &Handler{
		service:     service,
		idempotency: store,
		checks:      checks,
	}
}

type bookingRequest struct {
	RoomType      string `json:"roomType"`
	CustomerType  string `json:"customerType"`
	PaymentMethod string `json:"paymentMethod"`
	GuestName     string `json:"guestName" binding:"required"`
}

type addRoomRequest struct {
	RoomNumber int    `json:"roomNumber" binding:"required"`
	RoomType   string `json:"roomType" binding:"required"`
}

type transitionResponse struct {
	ReservationID string                 `json:"reservationId"`
	Transition    model.Transition       `json:"transition"`
	PreviousState model.ReservationState `json:"previousState"`
	State         model.ReservationState `json:"state"`
	Changed       bool                   `json:"changed"`
	Message       string                 `json:"message"`
}

type errorResponse struct {
	ErrorKind string `json:"errorKind"`
	Error     string `json:"error"`
}

// Router はルーティングを設定したginのエンジンを返します
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), metrics.Middleware)

	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	reservations := r.Group("/reservations")
	reservations.POST("", h.book)
	reservations.GET("", h.listReservations)
	reservations.GET("/:id", h.getReservation)
	reservations.POST("/:id/check-in", h.checkIn)
	reservations.POST("/:id/check-out", h.checkOut)

	rooms := r.Group("/rooms")
	rooms.GET("", h.listRooms)
	rooms.POST("", h.addRoom)
	rooms.POST("/:id/book", h.bookRoom)

	return r
}

// HTTPHandler はリクエストごとにX-Rayのセグメントを作成するハンドラを返します
func (h *Handler) HTTPHandler(name string) http.Handler {
	return xray.Handler(xray.NewFixedSegmentNamer(name), h.Router())
}

func (h *Handler) health(c *gin.Context) {
	status := "healthy"
	checks := gin.H{}
	for name, check := range h.checks {
		if err := check(c.Request.Context()); err != nil {
			log.Printf("Health check %s failed: %v", name, err)
			status = "degraded"
			checks[name] = "down"
			continue
		}
		checks[name] = "up"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "checks": checks})
}

func (h *Handler) book(c *gin.Context) {
	req, ok := bindBookingRequest(c)
	if !ok {
		return
	}
	h.bookIdempotent(c, func(ctx context.Context) (*model.ReservationRecord, error) {
		return h.service.Book(ctx, req)
	})
}

func (h *Handler) bookRoom(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, model.ErrInvalidArgument)
		return
	}
	req, ok := bindBookingRequest(c)
	if !ok {
		return
	}
	h.bookIdempotent(c, func(ctx context.Context) (*model.ReservationRecord, error) {
		return h.service.BookRoom(ctx, roomID, req)
	})
}

func bindBookingRequest(c *gin.Context) (model.BookingRequest, bool) {
	var body bookingRequest
	err := c.ShouldBindJSON(&body)
	if err == nil && strings.TrimSpace(body.GuestName) == "" {
		err = errors.New("guestName must not be blank")
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, model.BookingResult{
			Success:   false,
			ErrorKind: model.ErrorKindInvalidArgument,
			Error:     err.Error(),
		})
		return model.BookingRequest{}, false
	}
	return model.BookingRequest{
		RoomType:      body.RoomType,
		CustomerType:  body.CustomerType,
		PaymentMethod: body.PaymentMethod,
		GuestName:     body.GuestName,
	}, true
}

// bookIdempotent は Idempotency-Key ヘッダがある場合、同じキーでの再送に対して
// 二重に請求せず最初の予約を返します
func (h *Handler) bookIdempotent(c *gin.Context, book func(ctx context.Context) (*model.ReservationRecord, error)) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), bookingTimeout)
	defer cancel()

	key := c.GetHeader(idempotencyKeyHeader)
	if key == "" {
		record, err := book(ctx)
		writeBookingResult(c, record, err)
		return
	}

	replay, err := h.idempotency.Reserve(ctx, key)
	if err != nil {
		writeBookingResult(c, nil, err)
		return
	}
	if replay != nil {
		h.replay(ctx, c, replay)
		return
	}

	// キーの状態はリクエストが中断されても更新する
	markCtx := context.WithoutCancel(ctx)
	settled := false
	defer func() {
		if !settled {
			h.releaseKey(markCtx, key)
		}
	}()

	record, err := book(ctx)
	settled = true
	h.settleKey(markCtx, key, record, err)
	writeBookingResult(c, record, err)
}

func (h *Handler) replay(ctx context.Context, c *gin.Context, replay *idempotency.Result) {
	if replay.ReservationID == "" {
		c.Header(replayedHeader, "true")
		writeBookingResult(c, nil, &model.ChargedError{ConfirmationID: replay.ConfirmationID})
		return
	}
	record, err := h.service.Get(ctx, replay.ReservationID)
	if err == nil {
		c.Header(replayedHeader, "true")
	}
	writeBookingResult(c, record, err)
}

// settleKey は予約の結果をキーに記録します
// 請求済みのキーは解放しません
func (h *Handler) settleKey(ctx context.Context, key string, record *model.ReservationRecord, err error) {
	var charged *model.ChargedError
	switch {
	case err == nil:
		if markErr := h.idempotency.MarkSuccess(ctx, key, record.ID); markErr != nil {
			log.Printf("Failed to mark idempotency key %s as succeeded: %v", key, markErr)
		}
	case errors.As(err, &charged):
		if markErr := h.idempotency.MarkCharged(ctx, key, charged.ConfirmationID); markErr != nil {
			log.Printf("Failed to mark idempotency key %s as charged by payment %s: %v", key, charged.ConfirmationID, markErr)
		}
	default:
		h.releaseKey(ctx, key)
	}
}

func (h *Handler) releaseKey(ctx context.Context, key string) {
	if err := h.idempotency.MarkFailure(ctx, key); err != nil {
		log.Printf("Failed to release idempotency key %s: %v", key, err)
	}
}

func writeBookingResult(c *gin.Context, record *model.ReservationRecord, err error) {
	result := model.NewBookingResult(record, err)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			log.Printf("Booking failed: %v", err)
		}
		c.JSON(statusFor(err), result)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) listReservations(c *gin.Context) {
	records, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": records, "count": len(records)})
}

func (h *Handler) getReservation(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) checkIn(c *gin.Context) {
	h.transition(c, h.service.CheckIn)
}

func (h *Handler) checkOut(c *gin.Context) {
	h.transition(c, h.service.CheckOut)
}

func (h *Handler) transition(c *gin.Context, op func(context.Context, string) (*model.TransitionResult, error)) {
	result, err := op(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, transitionResponse{
		ReservationID: result.ReservationID,
		Transition:    result.Transition,
		PreviousState: result.PreviousState,
		State:         result.State,
		Changed:       result.Changed,
		Message:       result.Message(),
	})
}

func (h *Handler) listRooms(c *gin.Context) {
	rooms, err := h.service.ListRooms(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (h *Handler) addRoom(c *gin.Context) {
	var body addRoomRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{
			ErrorKind: model.ErrorKindInvalidArgument,
			Error:     err.Error(),
		})
		return
	}
	room, err := h.service.AddRoom(c.Request.Context(), body.RoomNumber, body.RoomType)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, errorResponse{ErrorKind: model.ErrorKind(err), Error: err.Error()})
}

func statusFor(err error) int {
	switch model.ErrorKind(err) {
	case model.ErrorKindInvalidArgument:
		return http.StatusBadRequest
	case model.ErrorKindPaymentDeclined:
		return http.StatusPaymentRequired
	case model.ErrorKindNotFound:
		return http.StatusNotFound
	case model.ErrorKindConflict:
		return http.StatusConflict
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
