package session

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains cumulative atomic metrics for a session. Unlike SessionStats they are never
// reset on reconnect.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc, see RegisterMetrics.
type Metrics struct {
	// OpenCount indicates the number of successful opens.
	OpenCount atomic.Uint64
	// OpenErrCount indicates the number of failed opens.
	OpenErrCount atomic.Uint64

	// RxBytes indicates the number of bytes received.
	RxBytes atomic.Uint64
	// RxChunkCount indicates the number of inbound chunks.
	RxChunkCount atomic.Uint64
	// RxLineCount indicates the number of rx lines emitted.
	RxLineCount atomic.Uint64

	// TxBytes indicates the number of bytes written.
	TxBytes atomic.Uint64
	// TxCount indicates the number of successful sends.
	TxCount atomic.Uint64
	// SendErrCount indicates the number of failed sends, of any kind.
	SendErrCount atomic.Uint64

	// TransportErrCount indicates the number of asynchronous transport errors.
	TransportErrCount atomic.Uint64
	// UnexpectedCloseCount indicates the number of closes initiated by the device or OS.
	UnexpectedCloseCount atomic.Uint64
	// DroppedEventCount indicates the number of transport events dropped for a stale connection.
	DroppedEventCount atomic.Uint64
}

func (m *Metrics) incOpenCount()    { m.OpenCount.Add(1) }
func (m *Metrics) incOpenErrCount() { m.OpenErrCount.Add(1) }

func (m *Metrics) addRx(n int) {
	m.RxBytes.Add(uint64(n))
	m.RxChunkCount.Add(1)
}

func (m *Metrics) addRxLines(n int) { m.RxLineCount.Add(uint64(n)) }

func (m *Metrics) addTx(n int) {
	m.TxBytes.Add(uint64(n))
	m.TxCount.Add(1)
}

func (m *Metrics) incSendErrCount()         { m.SendErrCount.Add(1) }
func (m *Metrics) incTransportErrCount()    { m.TransportErrCount.Add(1) }
func (m *Metrics) incUnexpectedCloseCount() { m.UnexpectedCloseCount.Add(1) }
func (m *Metrics) incDroppedEventCount()    { m.DroppedEventCount.Add(1) }

const metricNamespace = "serialterm"

// RegisterMetrics registers the metrics of s with reg.
//
// constLabels are attached to every metric, e.g. to tell several sessions apart.
func RegisterMetrics(reg prometheus.Registerer, s *Session, constLabels prometheus.Labels) error {
	m := s.Metrics()

	counter := func(name, help string, v *atomic.Uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   metricNamespace,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		}, func() float64 { return float64(v.Load()) })
	}

	collectors := []prometheus.Collector{
		counter("opens_total", "Number of successful port opens.", &m.OpenCount),
		counter("open_errors_total", "Number of failed port opens.", &m.OpenErrCount),
		counter("rx_bytes_total", "Number of bytes received.", &m.RxBytes),
		counter("rx_chunks_total", "Number of inbound chunks received.", &m.RxChunkCount),
		counter("rx_lines_total", "Number of received lines emitted.", &m.RxLineCount),
		counter("tx_bytes_total", "Number of bytes written.", &m.TxBytes),
		counter("tx_total", "Number of successful sends.", &m.TxCount),
		counter("send_errors_total", "Number of failed sends.", &m.SendErrCount),
		counter("transport_errors_total", "Number of asynchronous transport errors.", &m.TransportErrCount),
		counter("unexpected_closes_total", "Number of port closes not requested by the user.", &m.UnexpectedCloseCount),
		counter("dropped_events_total", "Number of transport events dropped for a stale connection.", &m.DroppedEventCount),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   metricNamespace,
			Name:        "connected",
			Help:        "Whether a port is currently connected.",
			ConstLabels: constLabels,
		}, func() float64 {
			if s.IsConnected() {
				return 1
			}
			return 0
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   metricNamespace,
			Name:        "uptime_seconds",
			Help:        "Uptime of the current or last connection.",
			ConstLabels: constLabels,
		}, func() float64 { return s.Uptime().Seconds() }),
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	return nil
}
