// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package charm

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/canonical/sdcore-amf-k8s-operator/backend/amfconfig"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/juju"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/logger"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/n2"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/status"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/tls"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/workload"
)

const (
	amfBinary       = "/bin/amf"
	layerLabel      = "amf"
	logLayerLabel   = "amf-log-forwarding"
	serviceClass    = "svc.cluster.local"
	lokiTargetType  = "loki"
	allServices     = "all"
	disableServices = "-all"
)

// inputs are the values gathered from the model that feed the config file,
// the Pebble layer and the N2 record.
type inputs struct {
	config      Config
	nrfURL      string
	webuiURL    string
	databaseURL string
	podIP       string
	n2IP        string
	n2Hostname  string
	// serviceRunning gates the N2 record.
	serviceRunning bool
}

// requiredRelations lists the endpoints that must be related, in the order
// they are reported.
func (o *Operator) requiredRelations() []string {
	required := []string{FivegNRFRelation}
	if o.opts.DatabaseEnabled {
		required = append(required, DatabaseRelation)
	}
	return append(required, CertificatesRelation, SdcoreConfigRelation)
}

func (o *Operator) missingRelations() ([]string, error) {
	var missing []string
	for _, endpoint := range o.requiredRelations() {
		created, err := juju.HasRelation(o.model, endpoint)
		if err != nil {
			return nil, err
		}
		if !created {
			missing = append(missing, endpoint)
		}
	}
	return missing, nil
}

// gather takes the snapshot every decision of one event is based on.
func (o *Operator) gather(ctx context.Context) (status.Snapshot, inputs, error) {
	var in inputs
	snap := status.Snapshot{
		Replicas:        o.opts.Replicas,
		DatabaseEnabled: o.opts.DatabaseEnabled,
	}
	leader, err := o.model.IsLeader()
	if err != nil {
		return snap, in, err
	}
	snap.Leader = leader
	if !leader {
		return snap, in, nil
	}
	snap.CanConnect = o.container.CanConnect()

	raw, err := o.model.Config()
	if err != nil {
		return snap, in, err
	}
	if in.config, err = DecodeConfig(raw); err != nil {
		return snap, in, err
	}
	snap.InvalidConfigs = in.config.InvalidConfigs()
	if snap.MissingRelations, err = o.missingRelations(); err != nil {
		return snap, in, err
	}

	if o.opts.DatabaseEnabled {
		info, err := o.database.Info()
		if err != nil {
			return snap, in, err
		}
		snap.DatabaseCreated = info.IsCreated()
		if snap.DatabaseCreated {
			url, err := info.URL()
			if err != nil {
				logger.DbLog.Warnf("database URI is not usable: %v", err)
			}
			in.databaseURL = url
			snap.DatabaseURL = url
		}
	}
	if in.nrfURL, err = o.nrf.NRFURL(); err != nil {
		return snap, in, err
	}
	snap.NRFURL = in.nrfURL
	if in.webuiURL, err = o.webui.WebuiURL(); err != nil {
		return snap, in, err
	}
	snap.WebuiURL = in.webuiURL

	if snap.CanConnect {
		if snap.StorageAttached, err = o.storageAttached(); err != nil {
			return snap, in, err
		}
		cert, err := o.certs.CurrentProviderCertificate()
		if err != nil {
			return snap, in, err
		}
		snap.CertificateAvailable = cert != ""
		if snap.ServiceRunning, err = o.container.ServiceIsRunning(o.opts.ServiceName); err != nil {
			return snap, in, err
		}
		in.serviceRunning = snap.ServiceRunning
	}
	if in.podIP, err = o.podIP(); err != nil {
		return snap, in, err
	}
	snap.PodIP = in.podIP

	if snap.N2RelationCreated, err = juju.HasRelation(o.model, o.opts.N2RelationName); err != nil {
		return snap, in, err
	}
	if snap.N2RelationCreated {
		if in.n2IP, in.n2Hostname, err = o.n2Endpoint(ctx, in.config); err != nil {
			return snap, in, err
		}
		snap.N2Address = in.n2IP
	}
	return snap, in, nil
}

func (o *Operator) storageAttached() (bool, error) {
	for _, dir := range []string{amfconfig.ConfigDirPath, tls.CertsDirPath} {
		exists, err := o.container.Exists(dir)
		if err != nil || !exists {
			return false, err
		}
	}
	return true, nil
}

// podIP returns the unit address when it is an IPv4 address.
func (o *Operator) podIP() (string, error) {
	address, err := o.model.PrivateAddress()
	if err != nil {
		return "", err
	}
	ip := net.ParseIP(address)
	if ip == nil || ip.To4() == nil {
		logger.CharmLog.Debugf("pod address %q is not an IPv4 address", address)
		return "", nil
	}
	return ip.String(), nil
}

// n2Endpoint prefers the configured overrides over the load balancer.
func (o *Operator) n2Endpoint(ctx context.Context, cfg Config) (string, string, error) {
	ip := cfg.ExternalAMFIP
	if ip == "" {
		lbIP, err := o.services.GetIP(ctx)
		if err != nil {
			return "", "", err
		}
		ip = lbIP
	}
	hostname := cfg.ExternalAMFHostname
	if hostname == "" {
		lbHostname, err := o.services.GetHostname(ctx)
		if err != nil {
			return "", "", err
		}
		hostname = lbHostname
	}
	if hostname == "" {
		hostname = fmt.Sprintf("%s-external.%s.%s", o.model.AppName(), o.model.ModelName(), serviceClass)
	}
	return ip, hostname, nil
}

// configure brings the workload to the state the model asks for. Running it
// again without new input has no side effect.
func (o *Operator) configure(ctx context.Context, _ juju.Event) error {
	if err := o.ensureService(ctx); err != nil {
		return err
	}
	if err := o.publishMetricsEndpoint(); err != nil {
		return err
	}
	if err := o.configureLogForwarding(); err != nil {
		return err
	}
	snap, in, err := o.gather(ctx)
	if err != nil {
		return err
	}
	if !status.ReadyToConfigure(snap) {
		logger.CharmLog.Infof("not ready to configure: %s", status.Evaluate(snap))
		return nil
	}
	if err := o.ensureCertificateRequested(); err != nil {
		return err
	}
	cert, err := o.certs.CurrentProviderCertificate()
	if err != nil {
		return err
	}
	if cert == "" {
		logger.CharmLog.Infoln("certificate is not available yet")
		return nil
	}
	restart := false
	update, err := o.certs.CertificateUpdateRequired(cert)
	if err != nil {
		return err
	}
	if update {
		if err := o.certs.StoreCertificate(cert); err != nil {
			return err
		}
		restart = true
	}
	written, err := o.writeConfig(in)
	if err != nil {
		return err
	}
	if err := o.configurePebble(in.podIP, restart || written); err != nil {
		return err
	}
	if in.serviceRunning, err = o.container.ServiceIsRunning(o.opts.ServiceName); err != nil {
		return err
	}
	return o.publishN2(in)
}

// ensureService creates the external Service and, with replicas, points it
// at this unit.
func (o *Operator) ensureService(ctx context.Context) error {
	created, err := o.services.IsCreated(ctx)
	if err != nil {
		return err
	}
	if !created {
		if err := o.services.Create(ctx); err != nil {
			return fmt.Errorf("could not create external service: %w", err)
		}
	}
	if !o.opts.Replicas {
		return nil
	}
	patch, err := o.services.RequiresPatch(ctx)
	if err != nil || !patch {
		return err
	}
	return o.services.Patch(ctx)
}

func (o *Operator) ensureCertificateRequested() error {
	hasKey, err := o.certs.PrivateKeyIsStored()
	if err != nil {
		return err
	}
	if !hasKey {
		if err := o.certs.GeneratePrivateKey(); err != nil {
			return err
		}
	}
	hasCSR, err := o.certs.CSRIsStored()
	if err != nil || hasCSR {
		return err
	}
	return o.certs.RequestNewCertificate()
}

func (o *Operator) configContext(in inputs) amfconfig.Context {
	ctx := amfconfig.NewContext()
	ctx.NRFURL = in.nrfURL
	ctx.AMFIP = in.podIP
	ctx.DNN = in.config.DNN
	ctx.WebuiURI = in.webuiURL
	ctx.LogLevel = in.config.LogLevel
	ctx.TLSKeyPath = tls.PrivateKeyPath
	ctx.TLSPemPath = tls.CertificatePath
	if o.opts.DatabaseEnabled {
		ctx.DatabaseName = o.opts.DatabaseName
		ctx.DatabaseURL = in.databaseURL
	}
	return ctx
}

// writeConfig pushes the rendered config when it differs from the stored
// file and reports whether it did.
func (o *Operator) writeConfig(in inputs) (bool, error) {
	content, err := amfconfig.Render(o.configContext(in))
	if err != nil {
		return false, err
	}
	current, err := workload.PullIfExists(o.container, amfconfig.ConfigFilePath)
	if err != nil {
		return false, err
	}
	if current == content {
		return false, nil
	}
	if err := o.container.Push(amfconfig.ConfigFilePath, content); err != nil {
		return false, fmt.Errorf("could not push config file: %w", err)
	}
	o.configWrites++
	logger.CharmLog.Infof("pushed %s", amfconfig.ConfigFilePath)
	return true, nil
}

func (o *Operator) desiredLayer(podIP string) *workload.Layer {
	return &workload.Layer{
		Summary:     "amf layer",
		Description: "pebble config layer for amf",
		Services: map[string]*workload.Service{
			o.opts.ServiceName: {
				Override: "replace",
				Startup:  "enabled",
				Command:  fmt.Sprintf("%s --cfg %s", amfBinary, amfconfig.ConfigFilePath),
				Environment: map[string]string{
					"GOTRACEBACK":           "crash",
					"POD_IP":                podIP,
					"MANAGED_BY_CONFIG_POD": "true",
				},
			},
		},
	}
}

// configurePebble updates the layer when it differs from the plan, then
// restarts the service if needed or replans.
func (o *Operator) configurePebble(podIP string, restart bool) error {
	layer := o.desiredLayer(podIP)
	plan, err := o.container.Plan()
	if err != nil {
		return err
	}
	if !layer.ServicesEqual(plan) {
		if err := o.container.AddLayer(layerLabel, layer); err != nil {
			return fmt.Errorf("could not add pebble layer: %w", err)
		}
		restart = true
	}
	if !restart {
		return o.container.Replan()
	}
	if err := o.container.Restart(o.opts.ServiceName); err != nil {
		return fmt.Errorf("could not restart %s: %w", o.opts.ServiceName, err)
	}
	o.restarts++
	logger.CharmLog.Infof("restarted %s service", o.opts.ServiceName)
	return nil
}

// publishN2 writes the N2 record. Conditions that a later event resolves are
// not errors.
func (o *Operator) publishN2(in inputs) error {
	if !in.serviceRunning {
		logger.N2Log.Debugf("%s service is not running, N2 information not published", o.opts.ServiceName)
		return nil
	}
	if in.n2IP == "" {
		logger.N2Log.Debugln("N2 address is not available yet")
		return nil
	}
	err := o.n2.SetN2Information(in.n2IP, in.n2Hostname, amfconfig.NGAPPort)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, n2.ErrRelationNotCreated), errors.Is(err, n2.ErrNotLeader), errors.Is(err, n2.ErrInvalidData):
		logger.N2Log.Infof("N2 information not published: %v", err)
		return nil
	}
	return err
}

func (o *Operator) publishMetricsEndpoint() error {
	address, err := o.model.PrivateAddress()
	if err != nil {
		return err
	}
	_, err = o.metrics.Publish(address)
	return err
}

// logForwardingLayer forwards the logs of every service to each Loki unit and
// disables the Loki targets of the plan that are no longer related.
func (o *Operator) logForwardingLayer(endpoints map[string]string, plan *workload.Layer) *workload.Layer {
	labels := map[string]string{
		"product":          "Juju",
		"charm":            CharmName,
		"juju_model":       o.model.ModelName(),
		"juju_model_uuid":  o.model.ModelUUID(),
		"juju_application": o.model.AppName(),
		"juju_unit":        o.model.UnitName(),
	}
	target := func(location, services string) *workload.LogTarget {
		return &workload.LogTarget{
			Override: "replace",
			Type:     lokiTargetType,
			Location: location,
			Services: []string{services},
			Labels:   labels,
		}
	}
	layer := &workload.Layer{
		Summary:    "amf log forwarding",
		LogTargets: map[string]*workload.LogTarget{},
	}
	for unit, url := range endpoints {
		layer.LogTargets[unit] = target(url, allServices)
	}
	if plan != nil {
		for name, current := range plan.LogTargets {
			if _, ok := layer.LogTargets[name]; ok || current.Type != lokiTargetType {
				continue
			}
			layer.LogTargets[name] = target(current.Location, disableServices)
		}
	}
	return layer
}

func (o *Operator) configureLogForwarding() error {
	if !o.container.CanConnect() {
		return nil
	}
	endpoints, err := o.logging.Endpoints()
	if err != nil {
		return err
	}
	plan, err := o.container.Plan()
	if err != nil {
		return err
	}
	layer := o.logForwardingLayer(endpoints, plan)
	if len(layer.LogTargets) == 0 || layer.LogTargetsIncluded(plan) {
		return nil
	}
	if err := o.container.AddLayer(logLayerLabel, layer); err != nil {
		return fmt.Errorf("could not add log forwarding layer: %w", err)
	}
	logger.CharmLog.Infof("forwarding logs to %d Loki unit(s)", len(endpoints))
	return nil
}
