// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

// Package interfaces holds the requirer sides of the relations the AMF
// consumes, plus its peer relation.
package interfaces

import (
	"errors"

	"github.com/canonical/sdcore-amf-k8s-operator/backend/juju"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/logger"
)

const (
	NRFURLKey   = "url"
	WebuiURLKey = "webui_url"
)

// remoteValue reads one key of the remote application databag; a missing
// relation reads as "".
func remoteValue(model juju.Model, endpoint, key string) (string, error) {
	data, err := juju.RemoteAppData(model, endpoint)
	if err != nil {
		return "", ignoreNoRelation(err)
	}
	return data[key], nil
}

// NRFRequirer reads the NRF URL published on fiveg_nrf.
type NRFRequirer struct {
	model        juju.Model
	relationName string
}

func NewNRFRequirer(model juju.Model, relationName string) *NRFRequirer {
	return &NRFRequirer{model: model, relationName: relationName}
}

func (r *NRFRequirer) NRFURL() (string, error) {
	url, err := remoteValue(r.model, r.relationName, NRFURLKey)
	if err == nil && url == "" {
		logger.JujuLog.Debugf("NRF url not available on %s", r.relationName)
	}
	return url, err
}

// SdcoreConfigRequirer reads the webui address published on sdcore_config.
type SdcoreConfigRequirer struct {
	model        juju.Model
	relationName string
}

func NewSdcoreConfigRequirer(model juju.Model, relationName string) *SdcoreConfigRequirer {
	return &SdcoreConfigRequirer{model: model, relationName: relationName}
}

func (r *SdcoreConfigRequirer) WebuiURL() (string, error) {
	return remoteValue(r.model, r.relationName, WebuiURLKey)
}

func ignoreNoRelation(err error) error {
	if errors.Is(err, juju.ErrNoRelation) {
		return nil
	}
	return err
}
