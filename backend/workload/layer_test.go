// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package workload

import (
	"testing"
)

func amfLayer(podIP string) *Layer {
	return &Layer{
		Services: map[string]*Service{
			"amf": {
				Override: "replace",
				Startup:  "enabled",
				Command:  "/bin/amf --cfg /free5gc/config/amfcfg.conf",
				Environment: map[string]string{
					"POD_IP": podIP,
				},
			},
		},
	}
}

func TestParseLayer(t *testing.T) {
	data := []byte(`
services:
  amf:
    startup: enabled
    command: /bin/amf --cfg /free5gc/config/amfcfg.conf
    environment:
      POD_IP: 192.0.2.1
`)
	plan, err := ParseLayer(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !amfLayer("192.0.2.1").ServicesEqual(plan) {
		t.Errorf("expected layer to match parsed plan %+v", plan.Services["amf"])
	}
}

func TestServicesEqual(t *testing.T) {
	testCases := []struct {
		name     string
		plan     *Layer
		expected bool
	}{
		{"nil plan", nil, false},
		{"empty plan", &Layer{}, false},
		{"same services", amfLayer("192.0.2.1"), true},
		{"different environment", amfLayer("192.0.2.2"), false},
		{
			name: "extra service",
			plan: &Layer{Services: map[string]*Service{
				"amf":   amfLayer("192.0.2.1").Services["amf"],
				"other": {Command: "sleep"},
			}},
			expected: false,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := amfLayer("192.0.2.1").ServicesEqual(tc.plan); got != tc.expected {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestLayerMarshalRoundTrip(t *testing.T) {
	layer := amfLayer("192.0.2.1")
	data, err := layer.Marshal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parsed, err := ParseLayer(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.Services["amf"].Override != "replace" {
		t.Errorf("expected override to survive encoding, got %q", parsed.Services["amf"].Override)
	}
}

func TestLogTargetsIncluded(t *testing.T) {
	desired := &Layer{LogTargets: map[string]*LogTarget{
		"loki/0": {
			Override: "replace",
			Type:     "loki",
			Location: "http://loki-0.loki-endpoints:3100/loki/api/v1/push",
			Services: []string{"all"},
		},
	}}
	plan, err := ParseLayer([]byte(`
log-targets:
  loki/0:
    type: loki
    location: http://loki-0.loki-endpoints:3100/loki/api/v1/push
    services: [all]
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !desired.LogTargetsIncluded(plan) {
		t.Errorf("expected log targets to be included in %+v", plan.LogTargets)
	}

	plan.LogTargets["loki/0"].Services = []string{"-all"}
	if desired.LogTargetsIncluded(plan) {
		t.Errorf("expected changed services to be detected")
	}
	if desired.LogTargetsIncluded(&Layer{}) {
		t.Errorf("expected missing target to be detected")
	}
	if !(&Layer{}).LogTargetsIncluded(nil) {
		t.Errorf("expected a layer without targets to be included in any plan")
	}
}
