package observability

import (
	"cmp"
	"slices"
	"strings"
	"sync"
	"time"
)

// Metrics records counters, gauges and timings.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
	Gauge(name string, value float64, tags ...Tag)
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag labels a metric series.
type Tag struct {
	Key   string
	Value string
}

// T is shorthand for Tag{key, value}.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag)        {}
func (NoopMetrics) Gauge(string, float64, ...Tag)        {}
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// InMemoryMetrics keeps every series in memory. Series are identified by
// name and tag set; tag order does not matter.
type InMemoryMetrics struct {
	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string][]time.Duration
}

func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters: map[string]int64{},
		gauges:   map[string]float64{},
		timings:  map[string][]time.Duration{},
	}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	key := series(name, tags)
	m.mu.Lock()
	m.counters[key] += value
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	key := series(name, tags)
	m.mu.Lock()
	m.gauges[key] = value
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	key := series(name, tags)
	m.mu.Lock()
	m.timings[key] = append(m.timings[key], duration)
	m.mu.Unlock()
}

func (m *InMemoryMetrics) CounterValue(name string, tags ...Tag) int64 {
	key := series(name, tags)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[key]
}

func (m *InMemoryMetrics) GaugeValue(name string, tags ...Tag) float64 {
	key := series(name, tags)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gauges[key]
}

func (m *InMemoryMetrics) Timings(name string, tags ...Tag) []time.Duration {
	key := series(name, tags)
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.timings[key])
}

// series renders name{k1=v1,k2=v2} with tags sorted by key.
func series(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	sorted := slices.SortedFunc(slices.Values(tags), func(a, b Tag) int { return cmp.Compare(a.Key, b.Key) })

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, tag := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(tag.Key)
		b.WriteByte('=')
		b.WriteString(tag.Value)
	}
	b.WriteByte('}')
	return b.String()
}

// Track starts timing operation. Calling the returned func records the
// duration and counts the call under an ok or error outcome.
func Track(m Metrics, operation string, tags ...Tag) func(err error) time.Duration {
	start := time.Now()
	return func(err error) time.Duration {
		elapsed := time.Since(start)
		tagged := append(slices.Clone(tags), T(OperationKey, operation))
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		m.Timing(MetricOperationDuration, elapsed, tagged...)
		m.Counter(MetricOperationTotal, 1, append(tagged, T("outcome", outcome))...)
		return elapsed
	}
}

// Metric names.
const (
	MetricOperationTotal    = "reserva.operation.total"
	MetricOperationDuration = "reserva.operation.duration"

	MetricReservationsCreated   = "reserva.reservations.created"
	MetricReservationsRejected  = "reserva.reservations.rejected"
	MetricReservationsConfirmed = "reserva.reservations.confirmed"
	MetricReservationsCancelled = "reserva.reservations.cancelled"

	MetricNotificationsDelivered = "reserva.notifications.delivered"
	MetricNotificationsFailed    = "reserva.notifications.failed"

	MetricTelegramRequests  = "reserva.telegram.requests"
	MetricTelegramBreaker   = "reserva.telegram.breaker_state"
	MetricConversationSteps = "reserva.conversation.steps"
)
