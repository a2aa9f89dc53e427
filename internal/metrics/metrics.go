package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

var (
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	BookingTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotel_bookings_total",
			Help: "Total number of booking attempts by outcome",
		},
		[]string{"room_type", "payment_method", "result"},
	)
	TransitionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotel_state_transitions_total",
			Help: "Total number of reservation state transition requests",
		},
		[]string{"transition", "changed"},
	)
)

// NormalizePath はルートに一致しなかったリクエストのパスを先頭のセグメントにまとめます
func NormalizePath(p string) string {
	p = strings.TrimPrefix(p, "/")
	if idx := strings.Index(p, "/"); idx >= 0 {
		p = p[:idx]
	}
	if p == "" {
		return "root"
	}
	return p
}

func Middleware(c *gin.Context) {
	if c.Request.URL.Path == "/metrics" {
		c.Next()
		return
	}
	start := time.Now()
	c.Next()
	duration := time.Since(start).Seconds()
	path := c.FullPath()
	if path == "" {
		path = NormalizePath(c.Request.URL.Path)
	}
	status := strconv.Itoa(c.Writer.Status())
	RequestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	RequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
}

// RecordBooking は予約の結果を記録します
// 識別子が解決できなかった場合はラベルを "unknown" にします
func RecordBooking(roomType, paymentMethod string, err error) {
	result := "success"
	if err != nil {
		result = model.ErrorKind(err)
	}
	BookingTotal.WithLabelValues(labelOrUnknown(roomType), labelOrUnknown(paymentMethod), result).Inc()
}

// RecordTransition はステータス操作の結果を記録します
func RecordTransition(result model.TransitionResult) {
	TransitionTotal.WithLabelValues(string(result.Transition), strconv.FormatBool(result.Changed)).Inc()
}

func labelOrUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
