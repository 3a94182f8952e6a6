// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package interfaces

import (
	"time"

	"github.com/canonical/sdcore-amf-k8s-operator/backend/juju"
)

const (
	LeaderKey    = "leader"
	ElectedAtKey = "elected-at"
)

// ReplicasPeer is the peer relation shared by the units of the application.
type ReplicasPeer struct {
	model        juju.Model
	relationName string
}

func NewReplicasPeer(model juju.Model, relationName string) *ReplicasPeer {
	return &ReplicasPeer{model: model, relationName: relationName}
}

// RecordLeader stores the elected unit in the peer application databag. A
// missing peer relation is not an error.
func (p *ReplicasPeer) RecordLeader(unit string, now time.Time) error {
	rel, err := juju.FirstRelation(p.model, p.relationName)
	if err != nil {
		return ignoreNoRelation(err)
	}
	return p.model.SetAppData(rel, map[string]string{
		LeaderKey:    unit,
		ElectedAtKey: now.UTC().Format(time.RFC3339),
	})
}

// Leader returns the unit recorded by the last RecordLeader.
func (p *ReplicasPeer) Leader() (string, error) {
	rel, err := juju.FirstRelation(p.model, p.relationName)
	if err != nil {
		return "", ignoreNoRelation(err)
	}
	data, err := p.model.AppData(rel, p.model.AppName())
	if err != nil {
		return "", err
	}
	return data[LeaderKey], nil
}
