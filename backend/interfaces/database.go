// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package interfaces

import (
	"github.com/canonical/sdcore-amf-k8s-operator/backend/juju"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/logger"
	"github.com/canonical/sdcore-amf-k8s-operator/dbadapter"
)

// DatabaseRequirer is the requirer side of the mongodb_client interface.
type DatabaseRequirer struct {
	model        juju.Model
	relationName string
	databaseName string
}

func NewDatabaseRequirer(model juju.Model, relationName, databaseName string) *DatabaseRequirer {
	return &DatabaseRequirer{model: model, relationName: relationName, databaseName: databaseName}
}

// RequestDatabase asks the provider for the database. Only the leader writes
// application data; other units return without error.
func (r *DatabaseRequirer) RequestDatabase(rel juju.Relation) error {
	leader, err := r.model.IsLeader()
	if err != nil || !leader {
		return err
	}
	current, err := r.model.AppData(rel, r.model.AppName())
	if err != nil {
		return err
	}
	if current[dbadapter.DatabaseKey] == r.databaseName {
		return nil
	}
	logger.DbLog.Infof("requesting database %s on %s", r.databaseName, rel.Key())
	return r.model.SetAppData(rel, map[string]string{dbadapter.DatabaseKey: r.databaseName})
}

func (r *DatabaseRequirer) Info() (dbadapter.DatabaseInfo, error) {
	data, err := juju.RemoteAppData(r.model, r.relationName)
	if err != nil {
		return dbadapter.DatabaseInfo{}, ignoreNoRelation(err)
	}
	return dbadapter.DatabaseInfoFromDatabag(data), nil
}

func (r *DatabaseRequirer) IsResourceCreated() (bool, error) {
	info, err := r.Info()
	if err != nil {
		return false, err
	}
	return info.IsCreated(), nil
}

func (r *DatabaseRequirer) URIs() (string, error) {
	info, err := r.Info()
	return info.Uris, err
}
