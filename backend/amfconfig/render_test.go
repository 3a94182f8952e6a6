// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package amfconfig

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testContext() Context {
	ctx := NewContext()
	ctx.NRFURL = "http://nrf:8081"
	ctx.AMFIP = "192.0.2.1"
	ctx.DNN = "internet"
	ctx.WebuiURI = "sdcore-webui:9876"
	ctx.TLSKeyPath = "/support/TLS/amf.key"
	ctx.TLSPemPath = "/support/TLS/amf.pem"
	return ctx
}

func readGolden(t *testing.T, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("could not read golden file: %v", err)
	}
	return string(content)
}

func TestRenderMatchesGolden(t *testing.T) {
	withDatabase := testContext()
	withDatabase.DatabaseName = DefaultDatabaseName
	withDatabase.DatabaseURL = "mongodb://dummy"

	testCases := []struct {
		name   string
		ctx    Context
		golden string
	}{
		{"without database", testContext(), "amfcfg.conf"},
		{"with database", withDatabase, "amfcfg_with_database.conf"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			content, err := Render(tc.ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if expected := readGolden(t, tc.golden); content != expected {
				t.Errorf("rendered config does not match %s:\n%s", tc.golden, content)
			}
		})
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	first, err := Render(testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := Render(testContext())
	if first != second {
		t.Error("expected identical output for identical input")
	}

	changed := testContext()
	changed.DNN = "enterprise"
	third, _ := Render(changed)
	if third == first {
		t.Error("expected output to change with the DNN")
	}
	if !strings.Contains(third, "- enterprise") {
		t.Errorf("expected new DNN in output")
	}
}

func TestRenderMissingValues(t *testing.T) {
	ctx := testContext()
	ctx.NRFURL = ""
	ctx.AMFIP = ""
	_, err := Render(ctx)
	if !errors.Is(err, ErrMissingValue) {
		t.Fatalf("expected ErrMissingValue, got %v", err)
	}
	if !strings.Contains(err.Error(), "nrf_url") || !strings.Contains(err.Error(), "amf_ip") {
		t.Errorf("expected missing fields to be named, got %v", err)
	}
}

func TestRenderDatabaseNameRequiredWithURL(t *testing.T) {
	ctx := testContext()
	ctx.DatabaseURL = "mongodb://dummy"
	if _, err := Render(ctx); !errors.Is(err, ErrMissingValue) {
		t.Errorf("expected ErrMissingValue, got %v", err)
	}
}

func TestRenderLowersLogLevel(t *testing.T) {
	ctx := testContext()
	ctx.LogLevel = "DEBUG"
	content, err := Render(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(content, "debugLevel: debug") {
		t.Error("expected lower case log level")
	}
}
