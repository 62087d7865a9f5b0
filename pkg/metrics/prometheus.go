// Package metrics exports manager activity as Prometheus metrics.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/petrijr/rewind/pkg/api"
)

const namespace = "rewind"

// Result label values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Action label values.
const (
	ActionRecord = "record"
	ActionUndo   = "undo"
	ActionRedo   = "redo"
)

// PrometheusObserver is an api.Observer that records manager activity in
// Prometheus collectors.
type PrometheusObserver struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	ConflictsTotal    *prometheus.CounterVec
	PrunedEntries     *prometheus.CounterVec
	FoldedEntries     prometheus.Counter
	CanUndo           prometheus.Gauge
	CanRedo           prometheus.Gauge
}

var _ api.Observer = (*PrometheusObserver)(nil)

// NewPrometheusObserver creates the collectors and registers them on reg.
// A nil reg uses prometheus.DefaultRegisterer. Registering twice on the
// same registry fails with prometheus.AlreadyRegisteredError.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &PrometheusObserver{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Record, undo and redo operations by action and result",
			},
			[]string{"action", "result"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Time spent running command operations on the queue",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"action"},
		),
		ConflictsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conflicts_total",
				Help:      "Conflicting stack tops by direction",
			},
			[]string{"direction"},
		),
		PrunedEntries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pruned_entries_total",
				Help:      "Entries removed by conflict pruning by direction",
			},
			[]string{"direction"},
		),
		FoldedEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "folded_entries_total",
			Help:      "Entries appended to the past stack by history mode",
		}),
		CanUndo: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "can_undo",
			Help:      "1 when the last published status allows undo",
		}),
		CanRedo: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "can_redo",
			Help:      "1 when the last published status allows redo",
		}),
	}

	collectors := []prometheus.Collector{
		o.OperationsTotal,
		o.OperationDuration,
		o.ConflictsTotal,
		o.PrunedEntries,
		o.FoldedEntries,
		o.CanUndo,
		o.CanRedo,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *PrometheusObserver) OnRecord(ctx context.Context, entry api.EntryInfo, err error, d time.Duration) {
	o.observe(ActionRecord, err, d)
}

func (o *PrometheusObserver) OnUndo(ctx context.Context, entry api.EntryInfo, err error, d time.Duration) {
	o.observe(ActionUndo, err, d)
}

func (o *PrometheusObserver) OnRedo(ctx context.Context, entry api.EntryInfo, err error, d time.Duration) {
	o.observe(ActionRedo, err, d)
}

func (o *PrometheusObserver) observe(action string, err error, d time.Duration) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	o.OperationsTotal.WithLabelValues(action, result).Inc()
	o.OperationDuration.WithLabelValues(action).Observe(d.Seconds())
}

func (o *PrometheusObserver) OnConflict(ctx context.Context, dir api.Direction, entry api.EntryInfo, pruned int, err error) {
	o.ConflictsTotal.WithLabelValues(string(dir)).Inc()
	o.PrunedEntries.WithLabelValues(string(dir)).Add(float64(pruned))
}

func (o *PrometheusObserver) OnHistoryFold(ctx context.Context, added int) {
	o.FoldedEntries.Add(float64(added))
}

func (o *PrometheusObserver) OnStatusChange(ctx context.Context, status api.Status) {
	o.CanUndo.Set(boolGauge(status.CanUndo))
	o.CanRedo.Set(boolGauge(status.CanRedo))
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
