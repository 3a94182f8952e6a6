// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package operator_service

import (
	"net/http"
	"time"

	"github.com/canonical/sdcore-amf-k8s-operator/backend/logger"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/report"
	"github.com/canonical/sdcore-amf-k8s-operator/configmodels"
	"github.com/gin-gonic/gin"
)

type statusResponse struct {
	Unit          string                  `json:"unit"`
	Leader        bool                    `json:"leader"`
	Status        configmodels.UnitStatus `json:"status"`
	LastEvent     string                  `json:"lastEvent"`
	LastReconcile string                  `json:"lastReconcile,omitempty"`
}

func (s *OperatorService) load(c *gin.Context) (*report.Report, bool) {
	r, err := report.Load(s.stateDir)
	if err != nil {
		logger.GinLog.Errorf("could not load report: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load operator report"})
		return nil, false
	}
	return r, true
}

// GetHealth answers 200 once the operator has dispatched at least one event.
func (s *OperatorService) GetHealth(c *gin.Context) {
	r, ok := s.load(c)
	if !ok {
		return
	}
	if r.Dispatches == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "no dispatch yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *OperatorService) GetStatus(c *gin.Context) {
	r, ok := s.load(c)
	if !ok {
		return
	}
	logger.GinLog.Debugf("Handling GET request for status %+v", r.Status)
	resp := statusResponse{
		Unit:      r.Unit,
		Leader:    r.Leader,
		Status:    r.Status,
		LastEvent: r.LastEvent,
	}
	if !r.LastReconcile.IsZero() {
		resp.LastReconcile = r.LastReconcile.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *OperatorService) GetN2Information(c *gin.Context) {
	r, ok := s.load(c)
	if !ok {
		return
	}
	if r.N2 == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "N2 information not published"})
		return
	}
	c.JSON(http.StatusOK, r.N2)
}

func (s *OperatorService) GetReport(c *gin.Context) {
	r, ok := s.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, r)
}
