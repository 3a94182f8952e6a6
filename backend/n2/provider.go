// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package n2

import (
	"fmt"

	"github.com/canonical/sdcore-amf-k8s-operator/backend/juju"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/logger"
	"github.com/canonical/sdcore-amf-k8s-operator/configmodels"
)

type Provider struct {
	model        juju.Model
	relationName string
}

func NewProvider(model juju.Model, relationName string) *Provider {
	return &Provider{model: model, relationName: relationName}
}

// SetN2Information publishes the AMF endpoint to every relation of the
// endpoint. Nothing is written when the data does not validate.
func (p *Provider) SetN2Information(ipAddress, hostname string, port int) error {
	leader, err := p.model.IsLeader()
	if err != nil {
		return err
	}
	if !leader {
		return ErrNotLeader
	}
	relations, err := p.model.Relations(p.relationName)
	if err != nil {
		return err
	}
	if len(relations) == 0 {
		return fmt.Errorf("%s: %w", p.relationName, ErrRelationNotCreated)
	}
	data := map[string]any{
		configmodels.N2AmfHostnameKey: hostname,
		configmodels.N2AmfPortKey:     port,
	}
	if ipAddress != "" {
		data[configmodels.N2AmfIpAddressKey] = ipAddress
	}
	if err := Validate(data); err != nil {
		return err
	}
	info := configmodels.N2Information{IpAddress: ipAddress, Hostname: hostname, Port: port}
	desired := info.ToDatabag()
	if ipAddress == "" {
		desired[configmodels.N2AmfIpAddressKey] = ""
	}
	written := 0
	for _, rel := range relations {
		current, err := p.model.AppData(rel, p.model.AppName())
		if err != nil {
			return err
		}
		if databagContains(current, desired) {
			continue
		}
		if err := p.model.SetAppData(rel, desired); err != nil {
			return fmt.Errorf("could not set N2 information on %s: %w", rel.Key(), err)
		}
		written++
	}
	if written > 0 {
		logger.N2Log.Infof("published N2 information %s:%d to %d relation(s)", hostname, port, written)
	}
	return nil
}

// databagContains reports whether current already holds desired. Empty
// desired values mean the key must be absent.
func databagContains(current, desired map[string]string) bool {
	for k, v := range desired {
		if current[k] != v {
			return false
		}
	}
	return true
}
