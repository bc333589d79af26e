package metrics

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/actionweave"
	"github.com/hupe1980/actionweave/action"
	"github.com/hupe1980/actionweave/core"
	"github.com/hupe1980/actionweave/logging"
	"github.com/hupe1980/actionweave/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counter returns the value of the counter family name with the given labels.
func counter(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, f := range families {
		if f.GetName() != name {
			continue
		}

		for _, m := range f.GetMetric() {
			match := true
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					match = false
				}
			}

			if match {
				return m.GetCounter().GetValue()
			}
		}
	}

	return 0
}

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()

	var buf bytes.Buffer
	cfg := logging.DefaultLoggerConfig()
	cfg.Output = &buf

	rec := New(reg, func(o *Options) { o.Logger = logging.NewLogger(cfg) })

	rec.LogActionCall("lookup", 10*time.Millisecond, nil)
	rec.LogActionCall("lookup", time.Millisecond, errors.New("boom"))
	rec.LogModelCall("gpt", 3, 20*time.Millisecond, nil)
	rec.Info("plain.entry")

	assert.Equal(t, 1.0, counter(t, reg, "actionweave_action_calls_total", map[string]string{"action": "lookup", "status": "ok"}))
	assert.Equal(t, 1.0, counter(t, reg, "actionweave_action_calls_total", map[string]string{"action": "lookup", "status": "error"}))
	assert.Equal(t, 1.0, counter(t, reg, "actionweave_model_calls_total", map[string]string{"model": "gpt", "status": "ok"}))

	assert.Contains(t, buf.String(), "action.call.failed")
	assert.Contains(t, buf.String(), "model.call.completed")
	assert.Contains(t, buf.String(), "plain.entry")
}

func TestRecorder_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) })
	assert.NotPanics(t, func() { New(reg, func(o *Options) { o.Namespace = "other" }) })
}

func TestRecorder_WithWeaver(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(reg)

	registry := action.FromActions(
		action.MustNew("lookup", "lookup", nil, func(*core.CallContext, map[string]any) (any, error) {
			return "found", nil
		}, func(o *action.Options) { o.Terminal = true }),
	)

	llm := model.NewMockModel("scripted", "test").
		Enqueue(model.ToolCallResponse(core.FunctionCall{ID: "1", Name: "lookup"}))

	w, err := actionweave.New(llm, registry, func(o *actionweave.Options) { o.Logger = rec })
	require.NoError(t, err)

	_, err = w.Run(context.Background(), []core.Content{core.NewTextContent(core.RoleUser, "find it")})
	require.NoError(t, err)

	assert.Equal(t, 1.0, counter(t, reg, "actionweave_model_calls_total", map[string]string{"model": "scripted", "status": "ok"}))
	assert.Equal(t, 1.0, counter(t, reg, "actionweave_action_calls_total", map[string]string{"action": "lookup", "status": "ok"}))
}
