// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package n2

import (
	"github.com/canonical/sdcore-amf-k8s-operator/backend/juju"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/logger"
	"github.com/canonical/sdcore-amf-k8s-operator/configmodels"
)

// Requirer is the side of fiveg_n2 used by RAN charms to find the AMF.
type Requirer struct {
	model        juju.Model
	relationName string

	// OnN2InformationAvailable is called from HandleRelationChanged when the
	// provider has published valid data.
	OnN2InformationAvailable func(configmodels.N2Information)
}

func NewRequirer(model juju.Model, relationName string) *Requirer {
	return &Requirer{model: model, relationName: relationName}
}

func (r *Requirer) HandleRelationChanged(rel juju.Relation) {
	info, ok := r.information(&rel)
	if !ok || r.OnN2InformationAvailable == nil {
		return
	}
	r.OnN2InformationAvailable(info)
}

func (r *Requirer) AMFIPAddress() string {
	info, _ := r.information(nil)
	return info.IpAddress
}

func (r *Requirer) AMFHostname() string {
	info, _ := r.information(nil)
	return info.Hostname
}

func (r *Requirer) AMFPort() int {
	info, _ := r.information(nil)
	return info.Port
}

func (r *Requirer) information(rel *juju.Relation) (configmodels.N2Information, bool) {
	if rel == nil {
		first, err := juju.FirstRelation(r.model, r.relationName)
		if err != nil {
			logger.N2Log.Debugf("no relation: %s", r.relationName)
			return configmodels.N2Information{}, false
		}
		rel = &first
	}
	app, err := r.model.RemoteApp(*rel)
	if err != nil || app == "" {
		logger.N2Log.Warnf("no remote application in relation: %s", r.relationName)
		return configmodels.N2Information{}, false
	}
	data, err := r.model.AppData(*rel, app)
	if err != nil {
		logger.N2Log.Errorf("could not read relation data: %v", err)
		return configmodels.N2Information{}, false
	}
	info, err := decode(data)
	if err != nil {
		logger.N2Log.Errorf("invalid relation data: %v", err)
		return configmodels.N2Information{}, false
	}
	return info, true
}
