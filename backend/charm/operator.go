// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

// Package charm reacts to Juju hooks: it reconciles the AMF workload, its
// certificates and its external Service, and reports the unit status.
package charm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/canonical/sdcore-amf-k8s-operator/backend/amfconfig"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/factory"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/interfaces"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/juju"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/logger"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/n2"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/report"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/status"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/tls"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/workload"
	"github.com/canonical/sdcore-amf-k8s-operator/configmodels"
)

const (
	FivegNRFRelation     = "fiveg_nrf"
	SdcoreConfigRelation = "sdcore_config"
	CertificatesRelation = "certificates"
	DatabaseRelation     = "database"
	ReplicasRelation     = "replicas"
	MetricsRelation      = "metrics-endpoint"
	LoggingRelation      = "logging"

	CharmName      = "sdcore-amf-k8s"
	PrometheusPort = 9089
)

// ErrDefer asks for the event to be run again at the next dispatch.
var ErrDefer = errors.New("event deferred")

// ServiceManager manages the external LoadBalancer Service.
type ServiceManager interface {
	IsCreated(ctx context.Context) (bool, error)
	Create(ctx context.Context) error
	RequiresPatch(ctx context.Context) (bool, error)
	Patch(ctx context.Context) error
	Remove(ctx context.Context) error
	GetIP(ctx context.Context) (string, error)
	GetHostname(ctx context.Context) (string, error)
}

// Options are the operator settings that do not come from Juju.
type Options struct {
	ServiceName     string
	DatabaseEnabled bool
	DatabaseName    string
	N2RelationName  string
	Replicas        bool
	StateDir        string
}

func OptionsFromFactory(cfg *factory.Configuration) Options {
	opts := Options{
		ServiceName: cfg.ContainerName,
		Replicas:    cfg.Replicas,
		StateDir:    cfg.StateDir,
	}
	if cfg.N2 != nil {
		opts.N2RelationName = cfg.N2.RelationName
	}
	if cfg.Database != nil {
		opts.DatabaseEnabled = cfg.Database.Enabled
		opts.DatabaseName = cfg.Database.Name
	}
	return opts
}

type Deps struct {
	Model     juju.Model
	Container workload.Container
	Services  ServiceManager
	Clock     func() time.Time
	Options   Options
}

type handler func(ctx context.Context, event juju.Event) error

type Operator struct {
	model     juju.Model
	container workload.Container
	services  ServiceManager
	now       func() time.Time
	opts      Options

	nrf      *interfaces.NRFRequirer
	webui    *interfaces.SdcoreConfigRequirer
	database *interfaces.DatabaseRequirer
	replicas *interfaces.ReplicasPeer
	metrics  *interfaces.MetricsEndpointProvider
	logging  *interfaces.LoggingRequirer
	n2       *n2.Provider
	certs    *tls.Manager

	handlers map[juju.EventKind]handler

	restarts     int
	configWrites int
}

func New(deps Deps) *Operator {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Options.ServiceName == "" {
		deps.Options.ServiceName = factory.DEFAULT_CONTAINER_NAME
	}
	if deps.Options.N2RelationName == "" {
		deps.Options.N2RelationName = factory.DEFAULT_N2_RELATION_NAME
	}
	if deps.Options.DatabaseName == "" {
		deps.Options.DatabaseName = amfconfig.DefaultDatabaseName
	}
	o := &Operator{
		model:     deps.Model,
		container: deps.Container,
		services:  deps.Services,
		now:       deps.Clock,
		opts:      deps.Options,
		nrf:       interfaces.NewNRFRequirer(deps.Model, FivegNRFRelation),
		webui:     interfaces.NewSdcoreConfigRequirer(deps.Model, SdcoreConfigRelation),
		database:  interfaces.NewDatabaseRequirer(deps.Model, DatabaseRelation, deps.Options.DatabaseName),
		replicas:  interfaces.NewReplicasPeer(deps.Model, ReplicasRelation),
		metrics: interfaces.NewMetricsEndpointProvider(deps.Model, MetricsRelation, CharmName,
			interfaces.WildcardJob(PrometheusPort)),
		logging: interfaces.NewLoggingRequirer(deps.Model, LoggingRelation),
		n2:      n2.NewProvider(deps.Model, deps.Options.N2RelationName),
		certs:   tls.NewManager(deps.Container, tls.NewRequirer(deps.Model, CertificatesRelation)),
	}
	o.handlers = map[juju.EventKind]handler{
		juju.Install:         o.configure,
		juju.Start:           o.configure,
		juju.UpgradeCharm:    o.configure,
		juju.ConfigChanged:   o.configure,
		juju.PebbleReady:     o.configure,
		juju.UpdateStatus:    o.onUpdateStatus,
		juju.LeaderElected:   o.onLeaderElected,
		juju.Remove:          o.onRemove,
		juju.RelationJoined:  o.onRelationJoined,
		juju.RelationChanged: o.onRelationChanged,
		juju.RelationBroken:  o.onRelationBroken,
		juju.StorageAttached: o.configure,
	}
	return o
}

const deferredStateKey = "deferred"

// Dispatch runs the deferred events, then event, then refreshes the unit
// status, ports, workload version and report.
func (o *Operator) Dispatch(ctx context.Context, event juju.Event) error {
	logger.CharmLog.Infof("dispatching %s", event)
	deferred, err := o.loadDeferred()
	if err != nil {
		return err
	}
	var pending []juju.Event
	for _, ev := range deferred {
		if ev.Encode() == event.Encode() {
			continue
		}
		logger.CharmLog.Infof("re-emitting deferred %s", ev)
		if err := o.handle(ctx, ev); err != nil {
			if !errors.Is(err, ErrDefer) {
				return fmt.Errorf("%s: %w", ev, err)
			}
			pending = append(pending, ev)
		}
	}
	if err := o.handle(ctx, event); err != nil {
		if !errors.Is(err, ErrDefer) {
			return fmt.Errorf("%s: %w", event, err)
		}
		logger.CharmLog.Infof("deferring %s", event)
		pending = append(pending, event)
	}
	if err := o.storeDeferred(deferred, pending); err != nil {
		return err
	}
	return o.collectStatus(ctx, event)
}

func (o *Operator) handle(ctx context.Context, event juju.Event) error {
	leader, err := o.model.IsLeader()
	if err != nil {
		return err
	}
	if !leader {
		return o.handleStandby(event)
	}
	h := o.handlers[event.Kind]
	if h == nil {
		logger.CharmLog.Debugf("no handler for %s", event)
		return nil
	}
	return h(ctx, event)
}

func (o *Operator) loadDeferred() ([]juju.Event, error) {
	raw, err := o.model.StateGet(deferredStateKey)
	if err != nil {
		return nil, fmt.Errorf("could not read deferred events: %w", err)
	}
	var events []juju.Event
	for _, line := range strings.Split(raw, "\n") {
		if line == "" {
			continue
		}
		ev, err := juju.DecodeEvent(line)
		if err != nil {
			logger.CharmLog.Warnf("dropping deferred event: %v", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func encodeEvents(events []juju.Event) string {
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, ev.Encode())
	}
	return strings.Join(lines, "\n")
}

func (o *Operator) storeDeferred(previous, pending []juju.Event) error {
	encoded := encodeEvents(pending)
	if encoded == encodeEvents(previous) {
		return nil
	}
	return o.model.StateSet(deferredStateKey, encoded)
}

// collectStatus publishes what the unit looks like after the event.
func (o *Operator) collectStatus(ctx context.Context, event juju.Event) error {
	snap, in, err := o.gather(ctx)
	if err != nil {
		return err
	}
	st := status.Evaluate(snap)
	logger.StatusLog.Infof("unit status: %s", st)
	if err := o.model.SetStatus(st); err != nil {
		return err
	}
	version, err := o.workloadVersion()
	if err != nil {
		return err
	}
	if version != "" {
		if err := o.model.SetWorkloadVersion(version); err != nil {
			return err
		}
	}
	if err := o.model.SetPorts(
		juju.Port{Number: PrometheusPort, Protocol: "tcp"},
		juju.Port{Number: amfconfig.SBIPort, Protocol: "tcp"},
		juju.Port{Number: amfconfig.SCTPGRPCPort, Protocol: "tcp"},
	); err != nil {
		return err
	}
	return o.writeReport(event, snap, in, st, version)
}

func (o *Operator) workloadVersion() (string, error) {
	if !o.container.CanConnect() {
		return "", nil
	}
	version, err := workload.PullIfExists(o.container, amfconfig.WorkloadVersionFilePath)
	if err != nil {
		return "", fmt.Errorf("could not read workload version: %w", err)
	}
	return strings.TrimSpace(version), nil
}

func (o *Operator) writeReport(event juju.Event, snap status.Snapshot, in inputs, st configmodels.UnitStatus, version string) error {
	if o.opts.StateDir == "" {
		return nil
	}
	r, err := report.Load(o.opts.StateDir)
	if err != nil {
		logger.CharmLog.Warnf("starting a new report: %v", err)
		r = &report.Report{}
	}
	r.Unit = o.model.UnitName()
	r.Leader = snap.Leader
	r.Status = st
	r.LastEvent = event.String()
	r.LastReconcile = o.now().UTC()
	r.Dispatches++
	r.Restarts += o.restarts
	r.ConfigWrites += o.configWrites
	if version != "" {
		r.WorkloadVersion = version
	}
	r.N2 = nil
	if snap.N2RelationCreated && snap.N2Address != "" {
		r.N2 = &configmodels.N2Information{
			IpAddress: snap.N2Address,
			Hostname:  in.n2Hostname,
			Port:      amfconfig.NGAPPort,
		}
	}
	r.CertificateState = ""
	if snap.Leader && snap.CanConnect {
		state, err := o.certs.State()
		if err != nil {
			return err
		}
		r.CertificateState = state.String()
	}
	o.restarts, o.configWrites = 0, 0
	return report.Write(o.opts.StateDir, r)
}
