package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Training holds the metrics updated by a training loop.
type Training struct {
	Loss     prometheus.Gauge
	Accuracy prometheus.Gauge
	Epochs   prometheus.Counter
	Backward prometheus.Histogram
}

// NewTraining creates the training metrics and registers them, together
// with graphs, on reg.
func NewTraining(reg prometheus.Registerer, graphs *GraphCollector) (*Training, error) {
	t := &Training{
		Loss: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "train",
			Name:      "loss",
			Help:      "Loss of the most recent epoch.",
		}),
		Accuracy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "train",
			Name:      "accuracy",
			Help:      "Training accuracy of the most recent epoch (classification only).",
		}),
		Epochs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "train",
			Name:      "epochs_total",
			Help:      "Completed training epochs.",
		}),
		Backward: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "train",
			Name:      "backward_duration_seconds",
			Help:      "Duration of backward passes.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}),
	}

	collectors := []prometheus.Collector{t.Loss, t.Accuracy, t.Epochs, t.Backward}
	if graphs != nil {
		collectors = append(collectors, graphs)
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// ObserveBackward records the duration of one backward pass.
func (t *Training) ObserveBackward(d time.Duration) {
	t.Backward.Observe(d.Seconds())
}
