// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package n2

import (
	"errors"
	"testing"

	"github.com/canonical/sdcore-amf-k8s-operator/backend/juju"
	"github.com/canonical/sdcore-amf-k8s-operator/configmodels"
)

func TestValidate(t *testing.T) {
	testCases := []struct {
		name  string
		data  map[string]any
		valid bool
	}{
		{"integer port", map[string]any{"amf_hostname": "amf", "amf_port": 38412}, true},
		{"numeric string port", map[string]any{"amf_hostname": "amf", "amf_port": "38412"}, true},
		{"with ip", map[string]any{"amf_ip_address": "192.0.2.10", "amf_hostname": "amf", "amf_port": "38412"}, true},
		{"invalid ip", map[string]any{"amf_ip_address": "not-an-ip", "amf_hostname": "amf", "amf_port": 38412}, false},
		{"non numeric port", map[string]any{"amf_hostname": "amf", "amf_port": "invalid_port123"}, false},
		{"port out of range", map[string]any{"amf_hostname": "amf", "amf_port": 70000}, false},
		{"string port out of range", map[string]any{"amf_hostname": "amf", "amf_port": "70000"}, false},
		{"missing hostname", map[string]any{"amf_port": 38412}, false},
		{"missing port", map[string]any{"amf_hostname": "amf"}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.data)
			if tc.valid && err != nil {
				t.Errorf("expected valid data, got %v", err)
			}
			if !tc.valid && !errors.Is(err, ErrInvalidData) {
				t.Errorf("expected ErrInvalidData, got %v", err)
			}
			if DataIsValid(tc.data) != tc.valid {
				t.Errorf("DataIsValid disagrees with Validate")
			}
		})
	}
}

func newProviderModel(leader bool) *juju.MemoryModel {
	m := juju.NewMemoryModel("amf", "amf/0", "core")
	m.Leader = leader
	return m
}

func TestSetN2InformationRequiresLeader(t *testing.T) {
	m := newProviderModel(false)
	m.AddRelation("fiveg-n2", "gnbsim")
	err := NewProvider(m, "fiveg-n2").SetN2Information("192.0.2.10", "amf", 38412)
	if !errors.Is(err, ErrNotLeader) {
		t.Errorf("expected ErrNotLeader, got %v", err)
	}
}

func TestSetN2InformationRequiresRelation(t *testing.T) {
	m := newProviderModel(true)
	err := NewProvider(m, "fiveg-n2").SetN2Information("192.0.2.10", "amf", 38412)
	if !errors.Is(err, ErrRelationNotCreated) {
		t.Errorf("expected ErrRelationNotCreated, got %v", err)
	}
}

func TestSetN2InformationInvalidDataIsNotWritten(t *testing.T) {
	m := newProviderModel(true)
	rel := m.AddRelation("fiveg-n2", "gnbsim")
	err := NewProvider(m, "fiveg-n2").SetN2Information("999.1.1.1", "amf", 38412)
	if !errors.Is(err, ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData, got %v", err)
	}
	data, _ := m.AppData(rel, "amf")
	if len(data) != 0 {
		t.Errorf("expected nothing written, got %v", data)
	}
}

func TestSetN2InformationWritesEveryRelation(t *testing.T) {
	m := newProviderModel(true)
	first := m.AddRelation("fiveg-n2", "gnbsim")
	second := m.AddRelation("fiveg-n2", "gnb")

	if err := NewProvider(m, "fiveg-n2").SetN2Information("192.0.2.10", "amf.example", 38412); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := map[string]string{
		"amf_ip_address": "192.0.2.10",
		"amf_hostname":   "amf.example",
		"amf_port":       "38412",
	}
	for _, rel := range []juju.Relation{first, second} {
		data, _ := m.AppData(rel, "amf")
		for k, v := range expected {
			if data[k] != v {
				t.Errorf("relation %s: expected %s=%s, got %q", rel.Key(), k, v, data[k])
			}
		}
	}
}

func TestProviderRequirerRoundTrip(t *testing.T) {
	provider := newProviderModel(true)
	providerRel := provider.AddRelation("fiveg-n2", "gnbsim")
	if err := NewProvider(provider, "fiveg-n2").SetN2Information("192.0.2.10", "amf.example", 38412); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	published, _ := provider.AppData(providerRel, "amf")

	requirerModel := juju.NewMemoryModel("gnbsim", "gnbsim/0", "core")
	rel := requirerModel.AddRelation("fiveg-n2", "amf")
	if err := requirerModel.SetRemoteAppData(rel, published); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	requirer := NewRequirer(requirerModel, "fiveg-n2")
	var received []configmodels.N2Information
	requirer.OnN2InformationAvailable = func(info configmodels.N2Information) {
		received = append(received, info)
	}
	requirer.HandleRelationChanged(rel)

	expected := configmodels.N2Information{IpAddress: "192.0.2.10", Hostname: "amf.example", Port: 38412}
	if len(received) != 1 || received[0] != expected {
		t.Fatalf("expected one event with %+v, got %+v", expected, received)
	}
	if requirer.AMFIPAddress() != expected.IpAddress || requirer.AMFHostname() != expected.Hostname || requirer.AMFPort() != expected.Port {
		t.Errorf("accessors do not match published data")
	}
}

func TestRequirerIgnoresInvalidData(t *testing.T) {
	m := juju.NewMemoryModel("gnbsim", "gnbsim/0", "core")
	rel := m.AddRelation("fiveg-n2", "amf")
	_ = m.SetRemoteAppData(rel, map[string]string{
		"amf_hostname": "amf",
		"amf_port":     "invalid_port123",
	})

	requirer := NewRequirer(m, "fiveg-n2")
	fired := false
	requirer.OnN2InformationAvailable = func(configmodels.N2Information) { fired = true }
	requirer.HandleRelationChanged(rel)

	if fired {
		t.Error("expected no event for invalid data")
	}
	if requirer.AMFHostname() != "" || requirer.AMFPort() != 0 {
		t.Error("expected empty accessors for invalid data")
	}
}

func TestRequirerWithoutRelation(t *testing.T) {
	requirer := NewRequirer(juju.NewMemoryModel("gnbsim", "gnbsim/0", "core"), "fiveg-n2")
	if requirer.AMFHostname() != "" {
		t.Error("expected empty hostname without relation")
	}
}

type countingModel struct {
	*juju.MemoryModel
	writes int
}

func (c *countingModel) SetAppData(rel juju.Relation, data map[string]string) error {
	c.writes++
	return c.MemoryModel.SetAppData(rel, data)
}

func TestSetN2InformationSkipsUnchangedData(t *testing.T) {
	m := &countingModel{MemoryModel: newProviderModel(true)}
	rel := m.AddRelation("fiveg-n2", "gnbsim")
	provider := NewProvider(m, "fiveg-n2")

	for i := 0; i < 2; i++ {
		if err := provider.SetN2Information("192.0.2.10", "amf.example", 38412); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if m.writes != 1 {
		t.Errorf("expected a single write, got %d", m.writes)
	}

	if err := provider.SetN2Information("", "amf.example", 38412); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := m.AppData(rel, "amf")
	if _, ok := data["amf_ip_address"]; ok {
		t.Errorf("expected ip address to be cleared, got %v", data)
	}
}
