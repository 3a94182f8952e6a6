// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2024 Canonical Ltd.

/*
 *  Metrics package exposes the state recorded by the last AMF operator dispatch.
 */

package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/canonical/sdcore-amf-k8s-operator/backend/logger"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/report"
	"github.com/canonical/sdcore-amf-k8s-operator/configmodels"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "amf_operator"

var statusKinds = []configmodels.StatusKind{
	configmodels.StatusActive,
	configmodels.StatusBlocked,
	configmodels.StatusMaintenance,
	configmodels.StatusWaiting,
}

// Loader returns the current report.
type Loader func() (*report.Report, error)

// ReportCollector turns the operator report into metrics at scrape time.
type ReportCollector struct {
	load Loader

	status        *prometheus.Desc
	leader        *prometheus.Desc
	dispatches    *prometheus.Desc
	restarts      *prometheus.Desc
	configWrites  *prometheus.Desc
	lastReconcile *prometheus.Desc
	n2Published   *prometheus.Desc
}

func NewReportCollector(load Loader) *ReportCollector {
	return &ReportCollector{
		load: load,
		status: prometheus.NewDesc(namespace+"_unit_status",
			"Current unit status, 1 for the active kind.", []string{"unit", "status"}, nil),
		leader: prometheus.NewDesc(namespace+"_leader",
			"Whether the unit is the leader.", []string{"unit"}, nil),
		dispatches: prometheus.NewDesc(namespace+"_dispatches_total",
			"Hooks dispatched to the operator.", []string{"unit"}, nil),
		restarts: prometheus.NewDesc(namespace+"_workload_restarts_total",
			"AMF service restarts requested by the operator.", []string{"unit"}, nil),
		configWrites: prometheus.NewDesc(namespace+"_config_writes_total",
			"Writes of the AMF configuration file.", []string{"unit"}, nil),
		lastReconcile: prometheus.NewDesc(namespace+"_last_dispatch_timestamp_seconds",
			"Time of the last dispatch.", []string{"unit"}, nil),
		n2Published: prometheus.NewDesc(namespace+"_n2_published",
			"Whether N2 information is published.", []string{"unit"}, nil),
	}
}

func (c *ReportCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.status
	ch <- c.leader
	ch <- c.dispatches
	ch <- c.restarts
	ch <- c.configWrites
	ch <- c.lastReconcile
	ch <- c.n2Published
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (c *ReportCollector) Collect(ch chan<- prometheus.Metric) {
	r, err := c.load()
	if err != nil {
		logger.AppLog.Errorf("could not load operator report: %v", err)
		return
	}
	unit := r.Unit
	for _, kind := range statusKinds {
		ch <- prometheus.MustNewConstMetric(c.status, prometheus.GaugeValue,
			boolValue(r.Status.Kind == kind), unit, string(kind))
	}
	ch <- prometheus.MustNewConstMetric(c.leader, prometheus.GaugeValue, boolValue(r.Leader), unit)
	ch <- prometheus.MustNewConstMetric(c.dispatches, prometheus.CounterValue, float64(r.Dispatches), unit)
	ch <- prometheus.MustNewConstMetric(c.restarts, prometheus.CounterValue, float64(r.Restarts), unit)
	ch <- prometheus.MustNewConstMetric(c.configWrites, prometheus.CounterValue, float64(r.ConfigWrites), unit)
	if !r.LastReconcile.IsZero() {
		ch <- prometheus.MustNewConstMetric(c.lastReconcile, prometheus.GaugeValue,
			float64(r.LastReconcile.Unix()), unit)
	}
	ch <- prometheus.MustNewConstMetric(c.n2Published, prometheus.GaugeValue, boolValue(r.N2 != nil), unit)
}

// NewRegistry registers the report collector next to the Go runtime collectors.
func NewRegistry(load Loader) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		NewReportCollector(load),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// InitMetrics serves /metrics on addr until ctx is done.
func InitMetrics(ctx context.Context, addr string, registry *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.InitLog.Warnf("could not shut down metrics server: %v", err)
		}
	}()

	logger.InitLog.Infoln("metrics server listening on", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.InitLog.Errorf("could not open metrics port: %v", err)
		return err
	}
	return nil
}
