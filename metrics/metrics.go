// Package metrics exposes per-call jitter-buffer and router diagnostics as
// Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"ampnode/router"
	"ampnode/seqbuf"
)

// Metrics holds every counter/gauge the /metrics HTTP surface serves.
type Metrics struct {
	LateVoiceFrames  *prometheus.GaugeVec
	Overflows        *prometheus.GaugeVec
	Interpolated     *prometheus.GaugeVec
	TalkspurtCount   *prometheus.GaugeVec
	MaxBufferDepth   *prometheus.GaugeVec
	WorstMarginMs    *prometheus.GaugeVec
	DroppedUndeliverable prometheus.Gauge
}

// New constructs and registers the Metrics instruments against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LateVoiceFrames: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ampnode_seqbuf_late_voice_frames_total",
			Help: "Voice frames discarded as late or dead-late duplicates, by call.",
		}, []string{"call_id"}),
		Overflows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ampnode_seqbuf_overflow_total",
			Help: "Insertions rejected because the sequencing buffer was at capacity, by call.",
		}, []string{"call_id"}),
		Interpolated: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ampnode_seqbuf_interpolated_voice_total",
			Help: "Lost-frame interpolations requested, by call.",
		}, []string{"call_id"}),
		TalkspurtCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ampnode_seqbuf_talkspurt_total",
			Help: "Completed talkspurts observed, by call.",
		}, []string{"call_id"}),
		MaxBufferDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ampnode_seqbuf_max_buffer_depth",
			Help: "High-water mark of slots occupied in the sequencing buffer, by call.",
		}, []string{"call_id"}),
		WorstMarginMs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ampnode_seqbuf_worst_margin_ms",
			Help: "Worst observed margin between local arrival and scheduled play time within the current talkspurt, by call.",
		}, []string{"call_id"}),
		DroppedUndeliverable: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ampnode_router_dropped_undeliverable_total",
			Help: "Messages dropped by the Router for lacking a matching route.",
		}),
	}
	reg.MustRegister(m.LateVoiceFrames, m.Overflows, m.Interpolated, m.TalkspurtCount, m.MaxBufferDepth, m.WorstMarginMs, m.DroppedUndeliverable)
	return m
}

// ObserveSeqBuf copies a call's current SequencingBuffer.Diagnostics into
// the per-call gauge set.
func (m *Metrics) ObserveSeqBuf(callID string, d seqbuf.Diagnostics) {
	m.LateVoiceFrames.WithLabelValues(callID).Set(float64(d.LateVoiceFrameCount))
	m.Overflows.WithLabelValues(callID).Set(float64(d.OverflowCount))
	m.Interpolated.WithLabelValues(callID).Set(float64(d.InterpolatedVoiceCount))
	m.TalkspurtCount.WithLabelValues(callID).Set(float64(d.TalkSpurtCount))
	m.MaxBufferDepth.WithLabelValues(callID).Set(float64(d.MaxBufferDepth))
	m.WorstMarginMs.WithLabelValues(callID).Set(float64(d.WorstMargin))
}

// ObserveRouter copies the Router's undeliverable-message drop count.
func (m *Metrics) ObserveRouter(r *router.Router) {
	m.DroppedUndeliverable.Set(float64(r.DroppedCount()))
}
