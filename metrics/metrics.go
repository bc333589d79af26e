// Package metrics records action and model call metrics with Prometheus.
//
// A Recorder is a logging.Logger that also implements logging.CallRecorder,
// so it can be passed wherever a logger is accepted:
//
//	rec := metrics.New(prometheus.DefaultRegisterer, func(o *metrics.Options) { o.Logger = logger })
//	w, err := actionweave.New(llm, registry, func(o *actionweave.Options) { o.Logger = rec })
package metrics

import (
	"time"

	"github.com/hupe1980/actionweave/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// Options configures a Recorder.
type Options struct {
	// Namespace prefixes every metric name. Defaults to "actionweave".
	Namespace string
	// Logger receives all log entries and call records. Defaults to NoOpLogger.
	Logger logging.Logger
	// Buckets are the duration histogram buckets in seconds.
	Buckets []float64
}

// Recorder forwards logging to an inner logger and records call metrics.
type Recorder struct {
	logging.Logger

	actionCalls    *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	modelCalls     *prometheus.CounterVec
	modelDuration  *prometheus.HistogramVec
	toolsOffered   *prometheus.HistogramVec
}

// New creates a Recorder and registers its collectors with reg. It panics if
// the collectors are already registered, like prometheus.MustRegister.
func New(reg prometheus.Registerer, optFns ...func(o *Options)) *Recorder {
	opts := Options{
		Namespace: "actionweave",
		Logger:    logging.NoOpLogger{},
		Buckets:   prometheus.DefBuckets,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	r := &Recorder{
		Logger: opts.Logger,
		actionCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "action_calls_total",
			Help:      "Total number of action invocations",
		}, []string{"action", "status"}),
		actionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "action_duration_seconds",
			Help:      "Duration of action invocations",
			Buckets:   opts.Buckets,
		}, []string{"action"}),
		modelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "model_calls_total",
			Help:      "Total number of model round-trips",
		}, []string{"model", "status"}),
		modelDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "model_duration_seconds",
			Help:      "Duration of model round-trips",
			Buckets:   opts.Buckets,
		}, []string{"model"}),
		toolsOffered: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "tools_offered",
			Help:      "Number of tools offered per model call",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32},
		}, []string{"model"}),
	}

	reg.MustRegister(r.actionCalls, r.actionDuration, r.modelCalls, r.modelDuration, r.toolsOffered)

	return r
}

// LogActionCall implements logging.CallRecorder.
func (r *Recorder) LogActionCall(action string, dur time.Duration, err error) {
	r.actionCalls.WithLabelValues(action, status(err)).Inc()
	r.actionDuration.WithLabelValues(action).Observe(dur.Seconds())

	if rec, ok := r.Logger.(logging.CallRecorder); ok {
		rec.LogActionCall(action, dur, err)
	}
}

// LogModelCall implements logging.CallRecorder.
func (r *Recorder) LogModelCall(model string, tools int, dur time.Duration, err error) {
	r.modelCalls.WithLabelValues(model, status(err)).Inc()
	r.modelDuration.WithLabelValues(model).Observe(dur.Seconds())
	r.toolsOffered.WithLabelValues(model).Observe(float64(tools))

	if rec, ok := r.Logger.(logging.CallRecorder); ok {
		rec.LogModelCall(model, tools, dur, err)
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}

	return "ok"
}
