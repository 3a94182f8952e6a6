// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package juju

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/canonical/sdcore-amf-k8s-operator/backend/logger"
	"github.com/canonical/sdcore-amf-k8s-operator/configmodels"
	"gopkg.in/yaml.v2"
)

// CommandRunner runs a hook tool and returns its standard output.
type CommandRunner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// HookTools implements Model on top of the Juju hook tools available to a
// charm while a hook runs.
type HookTools struct {
	ctx     context.Context
	run     CommandRunner
	getenv  func(string) string
	appName string
	unit    string
	model   string
	uuid    string
}

// NewHookTools reads the unit identity from the hook environment.
func NewHookTools(ctx context.Context, getenv func(string) string) (*HookTools, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	unit := getenv("JUJU_UNIT_NAME")
	if unit == "" {
		return nil, fmt.Errorf("JUJU_UNIT_NAME is not set")
	}
	app, _, _ := strings.Cut(unit, "/")
	return &HookTools{
		ctx:     ctx,
		run:     execRunner,
		getenv:  getenv,
		appName: app,
		unit:    unit,
		model:   getenv("JUJU_MODEL_NAME"),
		uuid:    getenv("JUJU_MODEL_UUID"),
	}, nil
}

// WithRunner replaces the command runner, used by tests.
func (h *HookTools) WithRunner(run CommandRunner) *HookTools {
	h.run = run
	return h
}

func (h *HookTools) AppName() string   { return h.appName }
func (h *HookTools) UnitName() string  { return h.unit }
func (h *HookTools) ModelName() string { return h.model }
func (h *HookTools) ModelUUID() string { return h.uuid }

func (h *HookTools) call(stdin []byte, name string, args ...string) ([]byte, error) {
	logger.JujuLog.Debugf("running %s %v", name, args)
	return h.run(h.ctx, stdin, name, args...)
}

func (h *HookTools) callJSON(out any, name string, args ...string) error {
	raw, err := h.call(nil, name, append([]string{"--format=json"}, args...)...)
	if err != nil {
		return err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("could not decode %s output: %w", name, err)
	}
	return nil
}

func (h *HookTools) IsLeader() (bool, error) {
	var leader bool
	if err := h.callJSON(&leader, "is-leader"); err != nil {
		return false, err
	}
	return leader, nil
}

func (h *HookTools) Config() (map[string]any, error) {
	config := map[string]any{}
	if err := h.callJSON(&config, "config-get"); err != nil {
		return nil, err
	}
	return config, nil
}

func (h *HookTools) Relations(endpoint string) ([]Relation, error) {
	var keys []string
	if err := h.callJSON(&keys, "relation-ids", endpoint); err != nil {
		return nil, err
	}
	relations := make([]Relation, 0, len(keys))
	for _, key := range keys {
		rel, err := ParseRelationKey(key)
		if err != nil {
			return nil, err
		}
		relations = append(relations, rel)
	}
	return relations, nil
}

func (h *HookTools) RemoteApp(rel Relation) (string, error) {
	var units []string
	if err := h.callJSON(&units, "relation-list", "-r", rel.Key()); err != nil {
		return "", err
	}
	for _, unit := range units {
		app, _, _ := strings.Cut(unit, "/")
		if app != "" {
			return app, nil
		}
	}
	if h.getenv("JUJU_RELATION_ID") == rel.Key() {
		return h.getenv("JUJU_REMOTE_APP"), nil
	}
	return "", nil
}

func (h *HookTools) RemoteUnits(rel Relation) ([]string, error) {
	var units []string
	if err := h.callJSON(&units, "relation-list", "-r", rel.Key()); err != nil {
		return nil, err
	}
	return units, nil
}

func (h *HookTools) AppData(rel Relation, app string) (map[string]string, error) {
	data := map[string]string{}
	if err := h.callJSON(&data, "relation-get", "-r", rel.Key(), "--app", "-", app); err != nil {
		return nil, err
	}
	return data, nil
}

func (h *HookTools) UnitData(rel Relation, unit string) (map[string]string, error) {
	data := map[string]string{}
	if err := h.callJSON(&data, "relation-get", "-r", rel.Key(), "-", unit); err != nil {
		return nil, err
	}
	return data, nil
}

// relation-set and state-set read the settings from stdin so that relation
// data never appears on a command line.
func (h *HookTools) setFromFile(tool string, data map[string]string, args ...string) error {
	content, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	_, err = h.call(content, tool, append([]string{"--file", "-"}, args...)...)
	return err
}

func (h *HookTools) SetAppData(rel Relation, data map[string]string) error {
	return h.setFromFile("relation-set", data, "-r", rel.Key(), "--app")
}

func (h *HookTools) SetUnitData(rel Relation, data map[string]string) error {
	return h.setFromFile("relation-set", data, "-r", rel.Key())
}

func (h *HookTools) SetStatus(status configmodels.UnitStatus) error {
	_, err := h.call(nil, "status-set", string(status.Kind), status.Message)
	return err
}

func (h *HookTools) SetWorkloadVersion(version string) error {
	_, err := h.call(nil, "application-version-set", version)
	return err
}

func (h *HookTools) PrivateAddress() (string, error) {
	out, err := h.call(nil, "unit-get", "private-address")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// SetPorts opens the given ports and closes every other opened port.
func (h *HookTools) SetPorts(ports ...Port) error {
	var opened []string
	if err := h.callJSON(&opened, "opened-ports"); err != nil {
		return err
	}
	desired := make(map[string]bool, len(ports))
	for _, p := range ports {
		desired[p.String()] = true
	}
	current := make(map[string]bool, len(opened))
	for _, p := range opened {
		current[p] = true
		if !desired[p] {
			if _, err := h.call(nil, "close-port", p); err != nil {
				return err
			}
		}
	}
	for _, p := range ports {
		if !current[p.String()] {
			if _, err := h.call(nil, "open-port", p.String()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *HookTools) StateGet(key string) (string, error) {
	state := map[string]string{}
	if err := h.callJSON(&state, "state-get"); err != nil {
		return "", err
	}
	return state[key], nil
}

func (h *HookTools) StateSet(key, value string) error {
	if value == "" {
		_, err := h.call(nil, "state-delete", key)
		return err
	}
	return h.setFromFile("state-set", map[string]string{key: value})
}
