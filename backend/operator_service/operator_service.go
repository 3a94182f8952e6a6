// SPDX-FileCopyrightText: 2022-present Intel Corporation
// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

// Package operator_service serves the report of the last dispatch over HTTP.
package operator_service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/canonical/sdcore-amf-k8s-operator/backend/factory"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	utilLogger "github.com/omec-project/util/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const shutdownTimeout = 5 * time.Second

type OperatorService struct {
	stateDir string
	router   *gin.Engine
}

func NewOperatorService(stateDir string) *OperatorService {
	s := &OperatorService{
		stateDir: stateDir,
		router:   utilLogger.NewGinWithLogrus(logger.GinLog),
	}
	s.router.Use(cors.New(cors.Config{
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Length", "Content-Type", "User-Agent",
			"Referrer", "Host", "X-Requested-With",
		},
		ExposeHeaders:   []string{"Content-Length"},
		AllowAllOrigins: true,
		MaxAge:          86400,
	}))
	s.setupRoutes()
	return s
}

func (s *OperatorService) Router() *gin.Engine {
	return s.router
}

func (s *OperatorService) setupRoutes() {
	s.router.GET("/healthz", s.GetHealth)
	s.router.GET("/status", s.GetStatus)
	s.router.GET("/n2", s.GetN2Information)
	s.router.GET("/report", s.GetReport)
}

// Start serves until ctx is cancelled.
func (s *OperatorService) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.AppLog.Warnf("operator API shutdown: %v", err)
		}
	}()
	logger.AppLog.Infoln("starting operator API on", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// SetLogLevel applies the level of the operator config to every logger.
func SetLogLevel(cfg *factory.Config) {
	if cfg == nil || cfg.Logger == nil {
		logger.InitLog.Warnln("operator config without log level setting")
		return
	}
	if cfg.Logger.AMF == nil || cfg.Logger.AMF.DebugLevel == "" {
		logger.InitLog.Warnln("AMF operator log level not set. Default set to [info] level")
		logger.SetLogLevel(zap.InfoLevel)
		return
	}
	level, err := zapcore.ParseLevel(cfg.Logger.AMF.DebugLevel)
	if err != nil {
		logger.InitLog.Warnf("AMF operator log level [%s] is invalid, set to [info] level",
			cfg.Logger.AMF.DebugLevel)
		logger.SetLogLevel(zap.InfoLevel)
		return
	}
	logger.InitLog.Infof("AMF operator log level is set to [%s] level", level)
	logger.SetLogLevel(level)
}
