package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maildesk_messages_processed_total",
		Help: "Inbound messages handled by the sync pipeline, by outcome.",
	}, []string{"outcome"})

	ticketsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maildesk_tickets_created_total",
		Help: "Tickets opened from inbound mail.",
	})

	attachmentsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maildesk_attachments_stored_total",
		Help: "Attachment objects written to blob storage.",
	})

	acknowledgementsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maildesk_acknowledgements_sent_total",
		Help: "Auto-acknowledgement emails dispatched for new tickets.",
	})

	syncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maildesk_sync_runs_total",
		Help: "Per-account sync attempts, by result.",
	}, []string{"result"})

	syncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "maildesk_sync_duration_seconds",
		Help:    "Wall time of one account sync.",
		Buckets: prometheus.DefBuckets,
	})
)
