// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry exposes Prometheus counters for the assistant core.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActionExecutions counts execution attempts by action type and outcome
	// (completed, failed, cancelled).
	ActionExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "draftsmith",
		Name:      "action_executions_total",
		Help:      "Action execution attempts by type and outcome.",
	}, []string{"type", "outcome"})

	// GateDecisions counts confirmation gate verdicts by decision.
	GateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "draftsmith",
		Name:      "gate_decisions_total",
		Help:      "Confirmation gate verdicts.",
	}, []string{"decision"})

	// EnrichmentFetches counts document context enrichment fetches by outcome
	// (hit, fetched, failed, stale).
	EnrichmentFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "draftsmith",
		Name:      "enrichment_fetches_total",
		Help:      "Document context enrichment fetches by outcome.",
	}, []string{"outcome"})
)
