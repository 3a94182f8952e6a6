// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package charm

import (
	"context"
	"fmt"

	"github.com/canonical/sdcore-amf-k8s-operator/backend/juju"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/logger"
)

func (o *Operator) onUpdateStatus(ctx context.Context, event juju.Event) error {
	if o.container.CanConnect() {
		renewed, err := o.certs.RenewExpiring(o.now())
		if err != nil {
			return err
		}
		if renewed {
			logger.TlsLog.Infoln("requested renewal of the expiring certificate")
		}
	}
	return o.configure(ctx, event)
}

func (o *Operator) onLeaderElected(ctx context.Context, event juju.Event) error {
	if err := o.replicas.RecordLeader(o.model.UnitName(), o.now()); err != nil {
		return err
	}
	return o.configure(ctx, event)
}

func (o *Operator) onRemove(ctx context.Context, _ juju.Event) error {
	created, err := o.services.IsCreated(ctx)
	if err != nil || !created {
		return err
	}
	return o.services.Remove(ctx)
}

func (o *Operator) onRelationJoined(ctx context.Context, event juju.Event) error {
	switch event.Endpoint {
	case DatabaseRelation:
		rel, ok := event.Relation()
		if !ok {
			return fmt.Errorf("%s event carries no relation", event)
		}
		if err := o.database.RequestDatabase(rel); err != nil {
			return err
		}
		return o.configure(ctx, event)
	case o.opts.N2RelationName:
		_, in, err := o.gather(ctx)
		if err != nil {
			return err
		}
		return o.publishN2(in)
	case FivegNRFRelation, SdcoreConfigRelation, CertificatesRelation, MetricsRelation, LoggingRelation:
		return o.configure(ctx, event)
	}
	return nil
}

func (o *Operator) onRelationChanged(ctx context.Context, event juju.Event) error {
	switch event.Endpoint {
	case DatabaseRelation, FivegNRFRelation, SdcoreConfigRelation, CertificatesRelation, LoggingRelation:
		return o.configure(ctx, event)
	}
	return nil
}

// onRelationBroken drops the TLS material once the CA is gone. The files live
// in the workload, so the event waits for the container.
func (o *Operator) onRelationBroken(ctx context.Context, event juju.Event) error {
	if event.Endpoint == LoggingRelation {
		return o.configure(ctx, event)
	}
	if event.Endpoint != CertificatesRelation {
		return nil
	}
	if !o.container.CanConnect() {
		return ErrDefer
	}
	return o.certs.DeleteAll()
}

// handleStandby keeps the workload of a non-leader unit stopped.
func (o *Operator) handleStandby(event juju.Event) error {
	switch {
	case event.Kind == juju.PebbleReady:
	case event.Kind == juju.RelationChanged && event.Endpoint == ReplicasRelation:
	default:
		return nil
	}
	if !o.container.CanConnect() {
		return nil
	}
	running, err := o.container.ServiceIsRunning(o.opts.ServiceName)
	if err != nil || !running {
		return err
	}
	logger.CharmLog.Infof("stopping %s on non-leader unit", o.opts.ServiceName)
	return o.container.Stop(o.opts.ServiceName)
}
