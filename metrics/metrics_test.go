/*
 * metrics_test.go, part of janus.
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

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(Te *testing.T, m prometheus.Metric) float64 {
	var d dto.Metric
	require.NoError(Te, m.Write(&d))
	if d.Counter != nil {
		return d.GetCounter().GetValue()
	}
	return d.GetGauge().GetValue()
}

func TestObserve(Te *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveStep("PAP", time.Second, 3, 8, -12.5, nil)
	m.ObserveStep("PAP", time.Second, 0, 0, 0, errors.New("boom"))
	m.ObservePartition(time.Millisecond, nil)
	m.ObservePartition(time.Millisecond, nil)
	m.ObservePartition(time.Millisecond, errors.New("boom"))

	assert.Equal(Te, 1.0, value(Te, m.StepsTotal.WithLabelValues("PAP", "ok")))
	assert.Equal(Te, 1.0, value(Te, m.StepsTotal.WithLabelValues("PAP", "error")))
	assert.Equal(Te, 2.0, value(Te, m.PartitionsTotal.WithLabelValues("ok")))
	assert.Equal(Te, 3.0, value(Te, m.BufferGroups))
	assert.Equal(Te, 8.0, value(Te, m.Partitions))
	assert.Equal(Te, -12.5, value(Te, m.Energy))
	families, err := reg.Gather()
	require.NoError(Te, err)
	for _, f := range families {
		if f.GetName() == "janus_partitions_total" {
			assert.Len(Te, f.GetMetric(), 2)
		}
	}
}

func TestNilMetrics(Te *testing.T) {
	var m *Metrics
	assert.NotPanics(Te, func() {
		m.ObserveStep("SAP", time.Second, 1, 2, 0, nil)
		m.ObservePartition(time.Second, nil)
	})
}
