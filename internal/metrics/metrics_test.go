package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := NewPrometheusObserver("test", reg)
	require.NoError(t, err)

	obs.RecordStage("analyze", 20*time.Millisecond, nil)
	obs.RecordStage("analyze", 10*time.Millisecond, errors.New("boom"))
	assert.Equal(t, 1, testutil.CollectAndCount(obs.stageDuration))
	assert.InDelta(t, 1, testutil.ToFloat64(obs.stageErrors.WithLabelValues("analyze")), 0)

	obs.RecordPatterns(map[model.Frequency]int{model.FrequencyMonthly: 3, model.FrequencyYearly: 1})
	assert.InDelta(t, 3, testutil.ToFloat64(obs.patterns.WithLabelValues("monthly")), 0)
	obs.RecordPatterns(map[model.Frequency]int{model.FrequencyQuarterly: 2})
	assert.Equal(t, 1, testutil.CollectAndCount(obs.patterns), "stale frequencies are cleared")

	obs.RecordMissing(4, 1)
	assert.InDelta(t, 4, testutil.ToFloat64(obs.missingDetected), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(obs.missingOverdue), 0)

	obs.RecordRemindersGenerated(map[model.ReminderType]int{model.ReminderOverdue: 2})
	obs.RecordRemindersGenerated(map[model.ReminderType]int{model.ReminderOverdue: 1})
	assert.InDelta(t, 3, testutil.ToFloat64(obs.remindersGenerated.WithLabelValues("overdue")), 0)

	obs.RecordDispatch(
		map[model.Channel]int{model.ChannelEmail: 2},
		map[model.Channel]int{model.ChannelPush: 1},
	)
	assert.InDelta(t, 2, testutil.ToFloat64(obs.remindersSent.WithLabelValues("email")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(obs.remindersFailed.WithLabelValues("push")), 0)
}

func TestNewPrometheusObserver_ReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPrometheusObserver("", reg)
	require.NoError(t, err)
	second, err := NewPrometheusObserver("", reg)
	require.NoError(t, err)

	second.RecordMissing(7, 0)
	assert.InDelta(t, 7, testutil.ToFloat64(first.missingDetected), 0)
}

func TestNilAndNopObservers(t *testing.T) {
	var obs *PrometheusObserver
	assert.NotPanics(t, func() {
		obs.RecordStage("x", time.Second, nil)
		obs.RecordMissing(1, 1)
	})

	var o Observer = Nop{}
	assert.NotPanics(t, func() {
		o.RecordDispatch(nil, nil)
	})
}
