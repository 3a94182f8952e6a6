// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type mockServer struct {
	started bool
	err     error
}

func (m *mockServer) Start(ctx context.Context) error {
	m.started = true
	if m.err != nil {
		return m.err
	}
	<-ctx.Done()
	return nil
}

func TestRunServers_StopsOnCancel(t *testing.T) {
	api := &mockServer{}
	metricsSrv := &mockServer{}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := runServers(ctx, api, metricsSrv)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if !api.started || !metricsSrv.started {
		t.Errorf("expected both servers to be started")
	}
}

func TestRunServers_Failure(t *testing.T) {
	api := &mockServer{}
	metricsSrv := &mockServer{err: errors.New("address already in use")}

	err := runServers(context.Background(), api, metricsSrv)
	if err == nil || err.Error() != "metrics server failed: address already in use" {
		t.Errorf("expected metrics failure, got %v", err)
	}
	if !api.started {
		t.Errorf("expected API server to be started")
	}
}

func TestMainValidateCLIFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expectError bool
	}{
		{
			name:        "render without context",
			args:        []string{"amf-operator", "render"},
			expectError: true,
		},
		{
			name:        "invalid flag",
			args:        []string{"amf-operator", "-invalid", "test.conf"},
			expectError: true,
		},
		{
			name:        "missing config file",
			args:        []string{"amf-operator", "-cfg", "does-not-exist.yaml", "serve"},
			expectError: true,
		},
		{
			name:        "dispatch outside a hook",
			args:        []string{"amf-operator", "dispatch"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JUJU_DISPATCH_PATH", "")
			app := newApp()
			app.Writer = &bytes.Buffer{}
			app.ErrWriter = &bytes.Buffer{}
			err := app.Run(tt.args)

			if tt.expectError && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRenderContextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.yaml")
	contextYAML := `nrfUrl: http://nrf:8081
amfIp: 192.0.2.1
dnn: internet
webuiUri: sdcore-webui:9876
tlsKeyPath: /support/TLS/amf.key
tlsPemPath: /support/TLS/amf.pem
`
	if err := os.WriteFile(path, []byte(contextYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := renderContextFile(path, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	golden, err := os.ReadFile(filepath.Join("backend", "amfconfig", "testdata", "amfcfg.conf"))
	if err != nil {
		t.Fatal(err)
	}
	if out.String() != string(golden) {
		t.Errorf("rendered config does not match golden file:\n%s", out.String())
	}
}

func TestRenderContextFileMissingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.yaml")
	if err := os.WriteFile(path, []byte("dnn: internet\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	err := renderContextFile(path, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "nrf_url") {
		t.Errorf("expected missing nrf_url error, got %v", err)
	}
}
