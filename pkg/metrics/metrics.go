package metrics

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
	"go.uber.org/zap"
)

// Metric names written by the application.
const (
	BookingCreated   = "booking_created"
	BookingConflict  = "booking_conflict"
	BookingCancelled = "booking_cancelled"
	CheckoutSettled  = "checkout_settled"
	CheckoutFailed   = "checkout_failed"
	MailSent         = "mail_sent"
	WebhookSent      = "webhook_sent"
)

var (
	storage tstorage.Storage
	mu      sync.RWMutex
)

// InitMetrics opens the embedded time series store under workdir.
func InitMetrics(workdir string) error {
	mu.Lock()
	defer mu.Unlock()
	s, err := tstorage.NewStorage(
		tstorage.WithDataPath(filepath.Join(workdir, "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithRetention(30*24*time.Hour),
	)
	if err != nil {
		return err
	}
	storage = s
	return nil
}

// Close flushes and closes the metrics store.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return nil
	}
	err := storage.Close()
	storage = nil
	return err
}

func insert(name string, value float64) {
	mu.RLock()
	defer mu.RUnlock()
	if storage == nil {
		return
	}
	err := storage.InsertRows([]tstorage.Row{
		{
			Metric:    name,
			DataPoint: tstorage.DataPoint{Timestamp: time.Now().Unix(), Value: value},
		},
	})
	if err != nil {
		zap.L().Debug("metrics insert failed", zap.String("metric", name), zap.Error(err))
	}
}

// SetGauge records the current value of a gauge metric.
func SetGauge(name string, value int64) {
	insert(name, float64(value))
}

// IncrCounter records a counter increment. Counter totals are recovered by
// summing the points of a range.
func IncrCounter(name string, delta int64) {
	insert(name, float64(delta))
}

// RangePoints returns the raw points of a metric between start and end (unix
// seconds). A missing metric yields an empty slice.
func RangePoints(name string, start, end int64) []*tstorage.DataPoint {
	mu.RLock()
	defer mu.RUnlock()
	if storage == nil {
		return nil
	}
	points, err := storage.Select(name, nil, start, end)
	if err != nil {
		return nil
	}
	return points
}

// RangeSum sums the points of a metric between start and end, which for
// counters is the number of events in the window.
func RangeSum(name string, start, end int64) float64 {
	var sum float64
	for _, p := range RangePoints(name, start, end) {
		sum += p.Value
	}
	return sum
}
