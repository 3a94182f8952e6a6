// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/canonical/sdcore-amf-k8s-operator/configmodels"
)

func TestLoadMissingReport(t *testing.T) {
	r, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Dispatches != 0 || r.LastEvent != "" {
		t.Errorf("expected empty report, got %+v", r)
	}
}

func TestWriteThenLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	written := &Report{
		Unit:          "amf/0",
		Leader:        true,
		Status:        configmodels.UnitStatus{Kind: configmodels.StatusActive},
		N2:            &configmodels.N2Information{IpAddress: "192.0.2.10", Hostname: "amf.example", Port: 38412},
		LastEvent:     "config-changed",
		LastReconcile: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Dispatches:    3,
		Restarts:      1,
		ConfigWrites:  1,
	}
	if err := Write(dir, written); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Status != written.Status || *loaded.N2 != *written.N2 || !loaded.LastReconcile.Equal(written.LastReconcile) {
		t.Errorf("expected %+v, got %+v", written, loaded)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the report file to remain, got %d entries", len(entries))
	}
}

func TestLoadCorruptReport(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(Path(dir), []byte("status: ["), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected error for corrupt report")
	}
}
