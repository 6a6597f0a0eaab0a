package pushport

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/travigo/pushport/pkg/pushport/failure"
	"golang.org/x/exp/maps"
)

// Stats counts processed messages for Prometheus and for the status API.
// A nil *Stats ignores every call.
type Stats struct {
	messages *prometheus.CounterVec
	failures *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	emitted  *prometheus.CounterVec

	started time.Time

	mu     sync.Mutex
	counts map[string]map[string]uint64
}

type Snapshot struct {
	Started  time.Time         `json:"started" groups:"basic,detailed"`
	Uptime   string            `json:"uptime" groups:"basic,detailed"`
	Messages map[string]uint64 `json:"messages" groups:"basic,detailed"`
	Emitted  map[string]uint64 `json:"emitted" groups:"basic,detailed"`
	Failures map[string]uint64 `json:"failures" groups:"detailed"`
	Skipped  map[string]uint64 `json:"skipped" groups:"detailed"`
}

func NewStats(registerer prometheus.Registerer) *Stats {
	factory := promauto.With(registerer)

	return &Stats{
		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pushport",
			Name:      "messages_total",
			Help:      "Messages received, by message kind.",
		}, []string{"kind"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pushport",
			Name:      "message_failures_total",
			Help:      "Messages dropped, by reason.",
		}, []string{"reason"}),
		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pushport",
			Name:      "entries_skipped_total",
			Help:      "Schedule entries and locations skipped, by reason.",
		}, []string{"reason"}),
		emitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pushport",
			Name:      "records_emitted_total",
			Help:      "Records handed to sinks, by stream.",
		}, []string{"stream"}),
		started: time.Now(),
		counts:  map[string]map[string]uint64{},
	}
}

func (s *Stats) add(group string, vec *prometheus.CounterVec, label string, n int) {
	if n <= 0 {
		return
	}

	vec.WithLabelValues(label).Add(float64(n))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.counts[group] == nil {
		s.counts[group] = map[string]uint64{}
	}
	s.counts[group][label] += uint64(n)
}

func (s *Stats) Message(kind string) {
	if s == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}

	s.add("messages", s.messages, kind, 1)
}

func (s *Stats) Failure(err error) {
	if s == nil {
		return
	}

	s.add("failures", s.failures, failure.Reason(err), 1)
}

func (s *Stats) Skipped(err error) {
	if s == nil {
		return
	}

	s.add("skipped", s.skipped, failure.Reason(err), 1)
}

func (s *Stats) Emitted(stream string, records int) {
	if s == nil {
		return
	}

	s.add("emitted", s.emitted, stream, records)
}

// Snapshot copies the current counters.
func (s *Stats) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copyGroup := func(group string) map[string]uint64 {
		counts := map[string]uint64{}
		maps.Copy(counts, s.counts[group])
		return counts
	}

	return Snapshot{
		Started:  s.started,
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Messages: copyGroup("messages"),
		Emitted:  copyGroup("emitted"),
		Failures: copyGroup("failures"),
		Skipped:  copyGroup("skipped"),
	}
}
