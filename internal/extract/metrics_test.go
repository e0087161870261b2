package extract

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/kdfx/pkg/kdf"
)

func TestMetricsRecordRun(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	input := writeKDF(t, "m.kdf", kdf.TagJSON, []kdf.ChannelPayload{
		{Label: "A", Encoding: scalarEnc('B'), SampleRate: 1, TotalValues: 2, Data: []byte{1, 2}},
		{Label: "B", Encoding: scalarEnc('h'), SampleRate: 1, TotalValues: 1, Data: []byte{1}},
	})
	runExtract(t, input, 2, m)

	require.InDelta(t, 1, testutil.ToFloat64(m.Channels.WithLabelValues("ok")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.Channels.WithLabelValues("failed")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.Files.WithLabelValues("csv", "ok")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.Files.WithLabelValues("txt", "ok")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.Files.WithLabelValues("merged", "ok")), 0)
	require.InDelta(t, 3, testutil.ToFloat64(m.DecodedBytes), 0)
	require.Equal(t, 1, testutil.CollectAndCount(m.RunDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	require.NotPanics(t, func() {
		m.channelDone(errors.New("x"))
		m.fileWritten("csv", nil)
		m.decoded(10)
		m.observeRun(time.Now())
	})
}

func TestStatusLabel(t *testing.T) {
	t.Parallel()
	require.Equal(t, "ok", statusLabel(nil))
	require.Equal(t, "failed", statusLabel(errors.New("x")))
}
