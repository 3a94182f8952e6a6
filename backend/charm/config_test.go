// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package charm

import (
	"reflect"
	"testing"
)

func TestDecodeConfig(t *testing.T) {
	cfg, err := DecodeConfig(map[string]any{
		"dnn":                   "enterprise",
		"log-level":             "debug",
		"external-amf-hostname": "amf.example.com",
		"unknown-key":           true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := Config{DNN: "enterprise", LogLevel: "debug", ExternalAMFHostname: "amf.example.com"}
	if cfg != expected {
		t.Errorf("expected %+v, got %+v", expected, cfg)
	}
}

func TestDecodeConfigDefaults(t *testing.T) {
	cfg, err := DecodeConfig(map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestInvalidConfigs(t *testing.T) {
	testCases := []struct {
		name     string
		cfg      Config
		expected []string
	}{
		{"valid", DefaultConfig(), nil},
		{"empty dnn", Config{LogLevel: "info"}, []string{"dnn"}},
		{"bad log level", Config{DNN: "internet", LogLevel: "verbose"}, []string{"log-level"}},
		{"both", Config{LogLevel: "trace"}, []string{"dnn", "log-level"}},
		{"bad external ip", Config{DNN: "internet", LogLevel: "info", ExternalAMFIP: "2001:db8::1"}, []string{"external-amf-ip"}},
		{"good external ip", Config{DNN: "internet", LogLevel: "info", ExternalAMFIP: "192.0.2.10"}, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.InvalidConfigs(); !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}
