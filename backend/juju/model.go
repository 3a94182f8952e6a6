// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package juju

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/canonical/sdcore-amf-k8s-operator/configmodels"
)

var (
	ErrNoRelation = errors.New("relation not found")
	ErrNotLeader  = errors.New("unit is not the leader")
)

// Relation identifies one relation of an endpoint.
type Relation struct {
	ID       int
	Endpoint string
}

// Key is the relation identifier understood by the hook tools, e.g. "fiveg-n2:3".
func (r Relation) Key() string {
	return fmt.Sprintf("%s:%d", r.Endpoint, r.ID)
}

func ParseRelationKey(key string) (Relation, error) {
	endpoint, id, found := strings.Cut(key, ":")
	if !found {
		return Relation{}, fmt.Errorf("invalid relation id %q", key)
	}
	n, err := strconv.Atoi(id)
	if err != nil {
		return Relation{}, fmt.Errorf("invalid relation id %q: %w", key, err)
	}
	return Relation{ID: n, Endpoint: endpoint}, nil
}

type Port struct {
	Number   int
	Protocol string
}

func (p Port) String() string {
	return fmt.Sprintf("%d/%s", p.Number, p.Protocol)
}

func ParsePort(s string) (Port, error) {
	number, protocol, found := strings.Cut(s, "/")
	if !found {
		protocol = "tcp"
	}
	n, err := strconv.Atoi(number)
	if err != nil {
		return Port{}, fmt.Errorf("invalid port %q: %w", s, err)
	}
	return Port{Number: n, Protocol: protocol}, nil
}

func SortPorts(ports []Port) {
	sort.Slice(ports, func(i, j int) bool {
		if ports[i].Number != ports[j].Number {
			return ports[i].Number < ports[j].Number
		}
		return ports[i].Protocol < ports[j].Protocol
	})
}

// Model is the view of the Juju model the operator works against.
type Model interface {
	AppName() string
	UnitName() string
	ModelName() string
	ModelUUID() string
	IsLeader() (bool, error)
	Config() (map[string]any, error)

	Relations(endpoint string) ([]Relation, error)
	RemoteApp(rel Relation) (string, error)
	RemoteUnits(rel Relation) ([]string, error)
	AppData(rel Relation, app string) (map[string]string, error)
	UnitData(rel Relation, unit string) (map[string]string, error)
	SetAppData(rel Relation, data map[string]string) error
	SetUnitData(rel Relation, data map[string]string) error

	SetStatus(status configmodels.UnitStatus) error
	SetWorkloadVersion(version string) error
	PrivateAddress() (string, error)
	SetPorts(ports ...Port) error

	StateGet(key string) (string, error)
	StateSet(key, value string) error
}

// HasRelation reports whether at least one relation exists on endpoint.
func HasRelation(m Model, endpoint string) (bool, error) {
	rels, err := m.Relations(endpoint)
	if err != nil {
		return false, err
	}
	return len(rels) > 0, nil
}

// FirstRelation returns the first relation of endpoint or ErrNoRelation.
func FirstRelation(m Model, endpoint string) (Relation, error) {
	rels, err := m.Relations(endpoint)
	if err != nil {
		return Relation{}, err
	}
	if len(rels) == 0 {
		return Relation{}, fmt.Errorf("%s: %w", endpoint, ErrNoRelation)
	}
	return rels[0], nil
}

// RemoteAppData reads the application databag of the remote side of the
// first relation on endpoint.
func RemoteAppData(m Model, endpoint string) (map[string]string, error) {
	rel, err := FirstRelation(m, endpoint)
	if err != nil {
		return nil, err
	}
	app, err := m.RemoteApp(rel)
	if err != nil {
		return nil, err
	}
	if app == "" {
		return map[string]string{}, nil
	}
	return m.AppData(rel, app)
}

// UnitIndex returns the ordinal of a unit name such as "amf/2".
func UnitIndex(unit string) (int, error) {
	_, n, found := strings.Cut(unit, "/")
	if !found {
		return 0, fmt.Errorf("invalid unit name %q", unit)
	}
	return strconv.Atoi(n)
}
