// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package interfaces

import (
	"encoding/json"
	"fmt"

	"github.com/canonical/sdcore-amf-k8s-operator/backend/juju"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/logger"
)

const (
	ScrapeJobsKey     = "scrape_jobs"
	ScrapeMetadataKey = "scrape_metadata"
	UnitAddressKey    = "prometheus_scrape_unit_address"
	UnitNameKey       = "prometheus_scrape_unit_name"
)

type StaticConfig struct {
	Targets []string          `json:"targets"`
	Labels  map[string]string `json:"labels,omitempty"`
}

type ScrapeJob struct {
	MetricsPath   string         `json:"metrics_path,omitempty"`
	StaticConfigs []StaticConfig `json:"static_configs"`
}

// ScrapeMetadata identifies the scraped application to Prometheus.
type ScrapeMetadata struct {
	Model       string `json:"model"`
	ModelUUID   string `json:"model_uuid"`
	Application string `json:"application"`
	Unit        string `json:"unit"`
	CharmName   string `json:"charm_name"`
}

// WildcardJob scrapes port on every unit of the application.
func WildcardJob(port int) ScrapeJob {
	return ScrapeJob{
		StaticConfigs: []StaticConfig{{Targets: []string{fmt.Sprintf("*:%d", port)}}},
	}
}

// MetricsEndpointProvider advertises the workload metrics on the
// prometheus_scrape interface.
type MetricsEndpointProvider struct {
	model        juju.Model
	relationName string
	charmName    string
	jobs         []ScrapeJob
}

func NewMetricsEndpointProvider(model juju.Model, relationName, charmName string, jobs ...ScrapeJob) *MetricsEndpointProvider {
	return &MetricsEndpointProvider{
		model:        model,
		relationName: relationName,
		charmName:    charmName,
		jobs:         jobs,
	}
}

func (p *MetricsEndpointProvider) appData() (map[string]string, error) {
	jobs, err := json.Marshal(p.jobs)
	if err != nil {
		return nil, err
	}
	metadata, err := json.Marshal(ScrapeMetadata{
		Model:       p.model.ModelName(),
		ModelUUID:   p.model.ModelUUID(),
		Application: p.model.AppName(),
		Unit:        p.model.UnitName(),
		CharmName:   p.charmName,
	})
	if err != nil {
		return nil, err
	}
	return map[string]string{
		ScrapeJobsKey:     string(jobs),
		ScrapeMetadataKey: string(metadata),
	}, nil
}

// Publish writes the unit address to every relation and, on the leader, the
// scrape jobs. Databags already holding the same values are left alone.
func (p *MetricsEndpointProvider) Publish(address string) (int, error) {
	rels, err := p.model.Relations(p.relationName)
	if err != nil || len(rels) == 0 {
		return 0, err
	}
	leader, err := p.model.IsLeader()
	if err != nil {
		return 0, err
	}
	var appData map[string]string
	if leader {
		if appData, err = p.appData(); err != nil {
			return 0, err
		}
	}
	unitData := map[string]string{UnitNameKey: p.model.UnitName(), UnitAddressKey: address}

	written := 0
	for _, rel := range rels {
		if appData != nil {
			current, err := p.model.AppData(rel, p.model.AppName())
			if err != nil {
				return written, err
			}
			if !sameValues(current, appData) {
				if err := p.model.SetAppData(rel, appData); err != nil {
					return written, err
				}
				written++
			}
		}
		if address == "" {
			continue
		}
		current, err := p.model.UnitData(rel, p.model.UnitName())
		if err != nil {
			return written, err
		}
		if !sameValues(current, unitData) {
			if err := p.model.SetUnitData(rel, unitData); err != nil {
				return written, err
			}
			written++
		}
	}
	if written > 0 {
		logger.JujuLog.Infof("published scrape jobs on %d %s databag(s)", written, p.relationName)
	}
	return written, nil
}

// sameValues reports whether current already holds every key of desired.
func sameValues(current, desired map[string]string) bool {
	for k, v := range desired {
		if current[k] != v {
			return false
		}
	}
	return true
}
