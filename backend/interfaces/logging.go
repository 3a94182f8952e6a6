// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package interfaces

import (
	"encoding/json"

	"github.com/canonical/sdcore-amf-k8s-operator/backend/juju"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/logger"
)

const LokiEndpointKey = "endpoint"

type LokiEndpoint struct {
	URL string `json:"url"`
}

// LoggingRequirer reads the Loki push endpoints published on the
// loki_push_api interface.
type LoggingRequirer struct {
	model        juju.Model
	relationName string
}

func NewLoggingRequirer(model juju.Model, relationName string) *LoggingRequirer {
	return &LoggingRequirer{model: model, relationName: relationName}
}

// Endpoints returns the push URL of every remote Loki unit, keyed by unit
// name. Units with no or malformed data are skipped.
func (r *LoggingRequirer) Endpoints() (map[string]string, error) {
	rels, err := r.model.Relations(r.relationName)
	if err != nil {
		return nil, err
	}
	endpoints := map[string]string{}
	for _, rel := range rels {
		units, err := r.model.RemoteUnits(rel)
		if err != nil {
			return nil, err
		}
		for _, unit := range units {
			data, err := r.model.UnitData(rel, unit)
			if err != nil {
				return nil, err
			}
			raw := data[LokiEndpointKey]
			if raw == "" {
				continue
			}
			var endpoint LokiEndpoint
			if err := json.Unmarshal([]byte(raw), &endpoint); err != nil || endpoint.URL == "" {
				logger.JujuLog.Warnf("ignoring invalid Loki endpoint of %s: %q", unit, raw)
				continue
			}
			endpoints[unit] = endpoint.URL
		}
	}
	return endpoints, nil
}
