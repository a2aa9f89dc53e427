package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "root"},
		{"", "root"},
		{"/reservations", "reservations"},
		{"/reservations/abc/check-in", "reservations"},
		{"/unknown/path", "unknown"},
	}

	for _, tt := range tests {
		if got := NormalizePath(tt.path); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware)
	router.GET("/reservations/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	before := testutil.ToFloat64(RequestTotal.WithLabelValues(http.MethodGet, "/reservations/:id", "404"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/reservations/abc", nil)
	router.ServeHTTP(w, req)

	after := testutil.ToFloat64(RequestTotal.WithLabelValues(http.MethodGet, "/reservations/:id", "404"))
	if after-before != 1 {
		t.Errorf("http_requests_total increased by %v, want 1", after-before)
	}
}

func TestRecordBooking(t *testing.T) {
	success := BookingTotal.WithLabelValues("deluxe", "creditcard", "success")
	declined := BookingTotal.WithLabelValues("deluxe", "creditcard", model.ErrorKindPaymentDeclined)
	invalid := BookingTotal.WithLabelValues("unknown", "unknown", model.ErrorKindInvalidArgument)

	beforeSuccess := testutil.ToFloat64(success)
	beforeDeclined := testutil.ToFloat64(declined)
	beforeInvalid := testutil.ToFloat64(invalid)

	RecordBooking("deluxe", "creditcard", nil)
	RecordBooking("deluxe", "creditcard", model.ErrPaymentDeclined)
	RecordBooking("", "", errors.Join(model.ErrInvalidArgument))

	if got := testutil.ToFloat64(success) - beforeSuccess; got != 1 {
		t.Errorf("success count increased by %v, want 1", got)
	}
	if got := testutil.ToFloat64(declined) - beforeDeclined; got != 1 {
		t.Errorf("declined count increased by %v, want 1", got)
	}
	if got := testutil.ToFloat64(invalid) - beforeInvalid; got != 1 {
		t.Errorf("invalid count increased by %v, want 1", got)
	}
}

func TestRecordTransition(t *testing.T) {
	counter := TransitionTotal.WithLabelValues("check-in", "false")
	before := testutil.ToFloat64(counter)

	RecordTransition(model.TransitionResult{Transition: model.TransitionCheckIn, Changed: false})

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("transition count increased by %v, want 1", got)
	}
}
