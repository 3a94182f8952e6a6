// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package workload

import (
	"reflect"

	"gopkg.in/yaml.v2"
)

// Layer is a Pebble configuration layer. Services and log targets are managed.
type Layer struct {
	Summary     string                `yaml:"summary,omitempty"`
	Description string                `yaml:"description,omitempty"`
	Services    map[string]*Service   `yaml:"services,omitempty"`
	LogTargets  map[string]*LogTarget `yaml:"log-targets,omitempty"`
}

type Service struct {
	Summary     string            `yaml:"summary,omitempty"`
	Override    string            `yaml:"override,omitempty"`
	Command     string            `yaml:"command,omitempty"`
	Startup     string            `yaml:"startup,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`
}

// LogTarget forwards service logs to a Loki push endpoint. A service name
// prefixed with "-" removes it; "-all" stops forwarding entirely.
type LogTarget struct {
	Override string            `yaml:"override,omitempty"`
	Type     string            `yaml:"type,omitempty"`
	Location string            `yaml:"location,omitempty"`
	Services []string          `yaml:"services,omitempty"`
	Labels   map[string]string `yaml:"labels,omitempty"`
}

func ParseLayer(data []byte) (*Layer, error) {
	layer := &Layer{}
	if err := yaml.Unmarshal(data, layer); err != nil {
		return nil, err
	}
	if layer.Services == nil {
		layer.Services = map[string]*Service{}
	}
	return layer, nil
}

func (l *Layer) Marshal() ([]byte, error) {
	return yaml.Marshal(l)
}

// ServicesEqual reports whether the plan already holds exactly the services of l.
func (l *Layer) ServicesEqual(plan *Layer) bool {
	if plan == nil {
		return len(l.Services) == 0
	}
	if len(l.Services) != len(plan.Services) {
		return false
	}
	for name, svc := range l.Services {
		other, ok := plan.Services[name]
		if !ok || !serviceEqual(svc, other) {
			return false
		}
	}
	return true
}

// Pebble drops the override field from the combined plan.
func serviceEqual(a, b *Service) bool {
	if a == nil || b == nil {
		return a == b
	}
	ac, bc := *a, *b
	ac.Override, bc.Override = "", ""
	if len(ac.Environment) == 0 && len(bc.Environment) == 0 {
		ac.Environment, bc.Environment = nil, nil
	}
	return reflect.DeepEqual(ac, bc)
}

// LogTargetsIncluded reports whether every log target of l is already in the
// plan with the same settings.
func (l *Layer) LogTargetsIncluded(plan *Layer) bool {
	for name, target := range l.LogTargets {
		if plan == nil {
			return false
		}
		other, ok := plan.LogTargets[name]
		if !ok || !logTargetEqual(target, other) {
			return false
		}
	}
	return true
}

func logTargetEqual(a, b *LogTarget) bool {
	if a == nil || b == nil {
		return a == b
	}
	ac, bc := *a, *b
	ac.Override, bc.Override = "", ""
	if len(ac.Labels) == 0 && len(bc.Labels) == 0 {
		ac.Labels, bc.Labels = nil, nil
	}
	return reflect.DeepEqual(ac, bc)
}
