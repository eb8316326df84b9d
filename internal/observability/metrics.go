package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every nativectl collector. It is separate from the default
// registerer so a textfile export carries only discovery metrics.
var Registry = prometheus.NewRegistry()

var (
	registerOnce sync.Once

	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nativectl",
			Subsystem: "transport",
			Name:      "frames_total",
			Help:      "Encrypted frames sealed or opened.",
		},
		[]string{"direction"},
	)
	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nativectl",
			Subsystem: "session",
			Name:      "messages_total",
			Help:      "Plaintext messages by direction and type id.",
		},
		[]string{"direction", "type"},
	)
	handshakesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nativectl",
			Subsystem: "transport",
			Name:      "handshakes_total",
			Help:      "Noise handshakes by outcome class.",
		},
		[]string{"result"},
	)
	discoveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nativectl",
			Subsystem: "session",
			Name:      "discovery_duration_seconds",
			Help:      "Duration of one discovery attempt in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"result"},
	)
	entitiesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nativectl",
			Subsystem: "catalog",
			Name:      "entities_total",
			Help:      "Entities collected by kind.",
		},
		[]string{"kind"},
	)
	probeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nativectl",
			Subsystem: "probe",
			Name:      "requests_total",
			Help:      "REST endpoint probes by outcome.",
		},
		[]string{"outcome", "status"},
	)
	probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nativectl",
			Subsystem: "probe",
			Name:      "request_duration_seconds",
			Help:      "REST endpoint probe duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		Registry.MustRegister(
			framesTotal,
			messagesTotal,
			handshakesTotal,
			discoveryDuration,
			entitiesTotal,
			probeRequests,
			probeDuration,
		)
	})
}

// RecordFrame counts one frame; direction is "in" or "out".
func RecordFrame(direction string) {
	RegisterMetrics()
	framesTotal.WithLabelValues(direction).Inc()
}

func RecordMessage(direction string, msgType uint16) {
	RegisterMetrics()
	messagesTotal.WithLabelValues(direction, strconv.Itoa(int(msgType))).Inc()
}

func RecordHandshake(result string) {
	RegisterMetrics()
	handshakesTotal.WithLabelValues(result).Inc()
}

func RecordDiscovery(result string, duration time.Duration) {
	RegisterMetrics()
	discoveryDuration.WithLabelValues(result).Observe(duration.Seconds())
}

func RecordEntity(kind string) {
	RegisterMetrics()
	entitiesTotal.WithLabelValues(kind).Inc()
}

// RecordProbe counts one HTTP probe. status is 0 when no response arrived.
func RecordProbe(outcome string, status int, duration time.Duration) {
	RegisterMetrics()
	probeRequests.WithLabelValues(outcome, strconv.Itoa(status)).Inc()
	probeDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// WriteTextfile writes the registry in the Prometheus text format, suitable
// for the node exporter textfile collector.
func WriteTextfile(path string) error {
	RegisterMetrics()
	return prometheus.WriteToTextfile(path, Registry)
}
