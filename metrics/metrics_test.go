package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ampnode/message"
	"ampnode/router"
	"ampnode/seqbuf"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestObserveSeqBufPublishesCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	d := seqbuf.Diagnostics{
		LateVoiceFrameCount:    3,
		OverflowCount:          1,
		InterpolatedVoiceCount: 2,
		TalkSpurtCount:         5,
		MaxBufferDepth:         40,
		WorstMargin:            17,
	}
	m.ObserveSeqBuf("call-1", d)

	assert.Equal(t, float64(3), gaugeValue(t, m.LateVoiceFrames.WithLabelValues("call-1")))
	assert.Equal(t, float64(1), gaugeValue(t, m.Overflows.WithLabelValues("call-1")))
	assert.Equal(t, float64(2), gaugeValue(t, m.Interpolated.WithLabelValues("call-1")))
	assert.Equal(t, float64(5), gaugeValue(t, m.TalkspurtCount.WithLabelValues("call-1")))
	assert.Equal(t, float64(40), gaugeValue(t, m.MaxBufferDepth.WithLabelValues("call-1")))
	assert.Equal(t, float64(17), gaugeValue(t, m.WorstMarginMs.WithLabelValues("call-1")))
}

func TestObserveRouterPublishesDroppedCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	r := router.New()
	r.Send(message.NewAudioMessage(0, 999, 0, 0, message.CodecPCM16, nil))

	m.ObserveRouter(r)
	assert.Equal(t, float64(1), gaugeValue(t, m.DroppedUndeliverable))
}
