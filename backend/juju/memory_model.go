// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package juju

import (
	"sort"
	"strings"
	"sync"

	"github.com/canonical/sdcore-amf-k8s-operator/configmodels"
)

// MemoryModel is an in-process Model. It backs the unit tests and the
// offline "render" command.
type MemoryModel struct {
	mu sync.Mutex

	App    string
	Unit   string
	Name   string
	UUID   string
	Leader bool

	Configuration   map[string]any
	Address         string
	WorkloadVersion string
	Statuses        []configmodels.UnitStatus
	Ports           []Port

	nextID    int
	relations map[string][]*memoryRelation
	state     map[string]string
}

type memoryRelation struct {
	rel       Relation
	remoteApp string
	appData   map[string]map[string]string
	unitData  map[string]map[string]string
}

func NewMemoryModel(app, unit, model string) *MemoryModel {
	return &MemoryModel{
		App:           app,
		Unit:          unit,
		Name:          model,
		Configuration: map[string]any{},
		relations:     map[string][]*memoryRelation{},
		state:         map[string]string{},
	}
}

// AddRelation creates a relation on endpoint with remoteApp.
func (m *MemoryModel) AddRelation(endpoint, remoteApp string) Relation {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r := &memoryRelation{
		rel:       Relation{ID: m.nextID, Endpoint: endpoint},
		remoteApp: remoteApp,
		appData:   map[string]map[string]string{},
		unitData:  map[string]map[string]string{},
	}
	m.relations[endpoint] = append(m.relations[endpoint], r)
	return r.rel
}

// RemoveRelation drops a relation and all its data.
func (m *MemoryModel) RemoveRelation(rel Relation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rels := m.relations[rel.Endpoint]
	for i, r := range rels {
		if r.rel == rel {
			m.relations[rel.Endpoint] = append(rels[:i], rels[i+1:]...)
			return
		}
	}
}

// SetRemoteAppData replaces the remote application's databag.
func (m *MemoryModel) SetRemoteAppData(rel Relation, data map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.find(rel)
	if r == nil {
		return ErrNoRelation
	}
	r.appData[r.remoteApp] = copyData(data)
	return nil
}

// SetRemoteUnitData replaces a remote unit's databag.
func (m *MemoryModel) SetRemoteUnitData(rel Relation, unit string, data map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.find(rel)
	if r == nil {
		return ErrNoRelation
	}
	r.unitData[unit] = copyData(data)
	return nil
}

// LastStatus returns the most recently set status.
func (m *MemoryModel) LastStatus() configmodels.UnitStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Statuses) == 0 {
		return configmodels.UnitStatus{}
	}
	return m.Statuses[len(m.Statuses)-1]
}

func (m *MemoryModel) find(rel Relation) *memoryRelation {
	for _, r := range m.relations[rel.Endpoint] {
		if r.rel.ID == rel.ID {
			return r
		}
	}
	return nil
}

func copyData(data map[string]string) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func (m *MemoryModel) AppName() string   { return m.App }
func (m *MemoryModel) UnitName() string  { return m.Unit }
func (m *MemoryModel) ModelName() string { return m.Name }
func (m *MemoryModel) ModelUUID() string { return m.UUID }

func (m *MemoryModel) IsLeader() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Leader, nil
}

func (m *MemoryModel) Config() (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]any, len(m.Configuration))
	for k, v := range m.Configuration {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryModel) Relations(endpoint string) ([]Relation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rels := make([]Relation, 0, len(m.relations[endpoint]))
	for _, r := range m.relations[endpoint] {
		rels = append(rels, r.rel)
	}
	sort.Slice(rels, func(i, j int) bool { return rels[i].ID < rels[j].ID })
	return rels, nil
}

func (m *MemoryModel) RemoteApp(rel Relation) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.find(rel)
	if r == nil {
		return "", ErrNoRelation
	}
	return r.remoteApp, nil
}

// RemoteUnits lists the remote units that have a databag on rel.
func (m *MemoryModel) RemoteUnits(rel Relation) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.find(rel)
	if r == nil {
		return nil, ErrNoRelation
	}
	var units []string
	for unit := range r.unitData {
		if app, _, _ := strings.Cut(unit, "/"); app != m.App {
			units = append(units, unit)
		}
	}
	sort.Strings(units)
	return units, nil
}

func (m *MemoryModel) AppData(rel Relation, app string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.find(rel)
	if r == nil {
		return nil, ErrNoRelation
	}
	return copyData(r.appData[app]), nil
}

func (m *MemoryModel) UnitData(rel Relation, unit string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.find(rel)
	if r == nil {
		return nil, ErrNoRelation
	}
	return copyData(r.unitData[unit]), nil
}

// SetAppData merges data into this application's databag. Empty values
// delete keys, like relation-set.
func (m *MemoryModel) SetAppData(rel Relation, data map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.Leader {
		return ErrNotLeader
	}
	r := m.find(rel)
	if r == nil {
		return ErrNoRelation
	}
	r.appData[m.App] = mergeData(r.appData[m.App], data)
	return nil
}

func (m *MemoryModel) SetUnitData(rel Relation, data map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.find(rel)
	if r == nil {
		return ErrNoRelation
	}
	r.unitData[m.Unit] = mergeData(r.unitData[m.Unit], data)
	return nil
}

func mergeData(dst, src map[string]string) map[string]string {
	if dst == nil {
		dst = map[string]string{}
	}
	for k, v := range src {
		if v == "" {
			delete(dst, k)
			continue
		}
		dst[k] = v
	}
	return dst
}

func (m *MemoryModel) SetStatus(status configmodels.UnitStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Statuses = append(m.Statuses, status)
	return nil
}

func (m *MemoryModel) SetWorkloadVersion(version string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WorkloadVersion = version
	return nil
}

func (m *MemoryModel) PrivateAddress() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Address, nil
}

func (m *MemoryModel) SetPorts(ports ...Port) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ports = append([]Port(nil), ports...)
	SortPorts(m.Ports)
	return nil
}

func (m *MemoryModel) StateGet(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state[key], nil
}

func (m *MemoryModel) StateSet(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value == "" {
		delete(m.state, key)
		return nil
	}
	m.state[key] = value
	return nil
}
