// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

// Package report persists what the last dispatch observed, so that the
// long-running "serve" process can expose it.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/canonical/sdcore-amf-k8s-operator/configmodels"
	"gopkg.in/yaml.v2"
)

const FileName = "report.yaml"

type Report struct {
	Unit             string                      `yaml:"unit" json:"unit"`
	Leader           bool                        `yaml:"leader" json:"leader"`
	Status           configmodels.UnitStatus     `yaml:"status" json:"status"`
	N2               *configmodels.N2Information `yaml:"n2,omitempty" json:"n2,omitempty"`
	CertificateState string                      `yaml:"certificateState,omitempty" json:"certificateState,omitempty"`
	WorkloadVersion  string                      `yaml:"workloadVersion,omitempty" json:"workloadVersion,omitempty"`
	LastEvent        string                      `yaml:"lastEvent" json:"lastEvent"`
	LastReconcile    time.Time                   `yaml:"lastReconcile" json:"lastReconcile"`
	Dispatches       int                         `yaml:"dispatches" json:"dispatches"`
	Restarts         int                         `yaml:"restarts" json:"restarts"`
	ConfigWrites     int                         `yaml:"configWrites" json:"configWrites"`
}

func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load reads the report in dir. A missing file yields an empty report.
func Load(dir string) (*Report, error) {
	content, err := os.ReadFile(Path(dir))
	if errors.Is(err, os.ErrNotExist) {
		return &Report{}, nil
	}
	if err != nil {
		return nil, err
	}
	r := &Report{}
	if err := yaml.Unmarshal(content, r); err != nil {
		return nil, fmt.Errorf("could not decode %s: %w", Path(dir), err)
	}
	return r, nil
}

// Write replaces the report in dir atomically.
func Write(dir string, r *Report) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	content, err := yaml.Marshal(r)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, FileName+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), Path(dir))
}
