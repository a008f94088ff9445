/*
 * metrics.go, part of janus.
 *
 * Copyright 2024 The janus authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// Package metrics defines the Prometheus collectors for the adaptive QM/MM
// steps and exposes an HTTP handler for scraping.
package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	StepsTotal        *prometheus.CounterVec
	StepDuration      prometheus.Histogram
	PartitionsTotal   *prometheus.CounterVec
	PartitionDuration prometheus.Histogram
	BufferGroups      prometheus.Gauge
	Partitions        prometheus.Gauge
	Energy            prometheus.Gauge
}

// New creates the collectors and registers them with reg, or with the default
// registerer if reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		StepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "janus_steps_total",
				Help: "Total adaptive QM/MM steps by scheme and status.",
			},
			[]string{"scheme", "status"},
		),
		StepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "janus_step_duration_seconds",
				Help:    "Wall time of a full step in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 9),
			},
		),
		PartitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "janus_partitions_total",
				Help: "Total partition evaluations by status.",
			},
			[]string{"status"},
		),
		PartitionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "janus_partition_duration_seconds",
				Help:    "Wall time of one QM/MM partition evaluation in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 9),
			},
		),
		BufferGroups: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "janus_buffer_groups",
				Help: "Number of buffer groups in the last step.",
			},
		),
		Partitions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "janus_partitions",
				Help: "Number of partitions, QM core included, in the last step.",
			},
		),
		Energy: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "janus_energy_kcal_per_mol",
				Help: "Interpolated energy of the last step.",
			},
		),
	}
	reg.MustRegister(
		m.StepsTotal,
		m.StepDuration,
		m.PartitionsTotal,
		m.PartitionDuration,
		m.BufferGroups,
		m.Partitions,
		m.Energy,
	)
	return m
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveStep records a finished step.
func (m *Metrics) ObserveStep(scheme string, elapsed time.Duration, buffer, partitions int, energy float64, err error) {
	if m == nil {
		return
	}
	m.StepsTotal.WithLabelValues(scheme, status(err)).Inc()
	if err != nil {
		return
	}
	m.StepDuration.Observe(elapsed.Seconds())
	m.BufferGroups.Set(float64(buffer))
	m.Partitions.Set(float64(partitions))
	m.Energy.Set(energy)
}

// ObservePartition records a finished partition evaluation.
func (m *Metrics) ObservePartition(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.PartitionsTotal.WithLabelValues(status(err)).Inc()
	if err == nil {
		m.PartitionDuration.Observe(elapsed.Seconds())
	}
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartServer serves the metrics on addr until the returned function is called.
func StartServer(addr string) (shutdown func(context.Context) error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()
	return server.Shutdown
}
