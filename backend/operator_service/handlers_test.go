// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
package operator_service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/canonical/sdcore-amf-k8s-operator/backend/factory"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/report"
	"github.com/canonical/sdcore-amf-k8s-operator/configmodels"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func activeReport() *report.Report {
	return &report.Report{
		Unit:          "amf/0",
		Leader:        true,
		Status:        configmodels.UnitStatus{Kind: configmodels.StatusActive},
		LastEvent:     "config-changed",
		LastReconcile: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Dispatches:    3,
		N2: &configmodels.N2Information{
			IpAddress: "192.0.2.10",
			Hostname:  "amf-external.sdcore.svc.cluster.local",
			Port:      38412,
		},
	}
}

func get(t *testing.T, s *OperatorService, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestGetStatus(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, report.Write(dir, activeReport()))
	s := NewOperatorService(dir)

	w := get(t, s, "/status")
	require.Equal(t, http.StatusOK, w.Code)
	var resp statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, statusResponse{
		Unit:          "amf/0",
		Leader:        true,
		Status:        configmodels.UnitStatus{Kind: configmodels.StatusActive},
		LastEvent:     "config-changed",
		LastReconcile: "2025-03-01T12:00:00Z",
	}, resp)
}

func TestGetN2Information(t *testing.T) {
	tests := []struct {
		name         string
		report       *report.Report
		expectedCode int
	}{
		{
			name:         "published",
			report:       activeReport(),
			expectedCode: http.StatusOK,
		},
		{
			name:         "not published",
			report:       &report.Report{Unit: "amf/0", Dispatches: 1},
			expectedCode: http.StatusNotFound,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, report.Write(dir, tc.report))
			w := get(t, NewOperatorService(dir), "/n2")
			assert.Equal(t, tc.expectedCode, w.Code)
			if tc.expectedCode != http.StatusOK {
				return
			}
			var info configmodels.N2Information
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
			assert.Equal(t, *tc.report.N2, info)
		})
	}
}

func TestGetHealth(t *testing.T) {
	t.Run("no report yet", func(t *testing.T) {
		w := get(t, NewOperatorService(t.TempDir()), "/healthz")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
	t.Run("after a dispatch", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, report.Write(dir, activeReport()))
		w := get(t, NewOperatorService(dir), "/healthz")
		assert.Equal(t, http.StatusOK, w.Code)
	})
	t.Run("corrupt report", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, report.FileName), []byte("status: [\n"), 0o600))
		w := get(t, NewOperatorService(dir), "/healthz")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestGetReport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, report.Write(dir, activeReport()))
	w := get(t, NewOperatorService(dir), "/report")
	require.Equal(t, http.StatusOK, w.Code)
	var r report.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	assert.Equal(t, 3, r.Dispatches)
	assert.Equal(t, "amf/0", r.Unit)
}

func TestSetLogLevelHandlesMissingSettings(t *testing.T) {
	cfg := factory.DefaultConfig()
	SetLogLevel(&cfg)
	cfg.Logger.AMF.DebugLevel = "verbose"
	SetLogLevel(&cfg)
	cfg.Logger = nil
	SetLogLevel(&cfg)
	SetLogLevel(nil)
}
