// Package metrics counts workbook activity with Prometheus collectors kept on a private
// registry.
package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"mindnoscape/workbook/internal/event"
)

// Collector holds the application metrics.
type Collector struct {
	registry *prometheus.Registry

	EventsDispatched *prometheus.CounterVec
	WorkbooksSaved   prometheus.Counter
	JournalEntries   prometheus.Counter
	SaveDuration     prometheus.Histogram
}

// NewCollector creates a collector whose metric names start with namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	eventsDispatched := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dispatched_total",
			Help:      "Total number of workbook events dispatched",
		},
		[]string{"type", "kind"},
	)

	workbooksSaved := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workbooks_saved_total",
			Help:      "Total number of workbook saves",
		},
	)

	journalEntries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_entries_total",
			Help:      "Total number of journal entries written",
		},
	)

	saveDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workbook_save_duration_seconds",
			Help:      "Workbook save duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	registry.MustRegister(eventsDispatched, workbooksSaved, journalEntries, saveDuration)

	return &Collector{
		registry:         registry,
		EventsDispatched: eventsDispatched,
		WorkbooksSaved:   workbooksSaved,
		JournalEntries:   journalEntries,
		SaveDuration:     saveDuration,
	}
}

// Registry returns the private registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Observe counts every event dispatched through support. The returned registration
// stops counting when unregistered.
func (c *Collector) Observe(support *event.Support) *event.Registration {
	return support.RegisterGlobal(event.All, event.ListenerFunc(func(e event.Event) {
		c.EventsDispatched.WithLabelValues(string(e.Type), e.Kind.String()).Inc()
	}))
}

// Snapshot returns the current counter values keyed by name and labels, for display.
func (c *Collector) Snapshot() (map[string]float64, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}
	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			sort.Strings(labels)
			key := mf.GetName()
			if len(labels) > 0 {
				key += "{" + strings.Join(labels, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				out[key+"_count"] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out, nil
}
