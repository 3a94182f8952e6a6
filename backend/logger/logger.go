// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package logger

import (
	"time"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log         *zap.Logger
	AppLog      *zap.SugaredLogger
	InitLog     *zap.SugaredLogger
	CfgLog      *zap.SugaredLogger
	CharmLog    *zap.SugaredLogger
	StatusLog   *zap.SugaredLogger
	K8sLog      *zap.SugaredLogger
	TlsLog      *zap.SugaredLogger
	N2Log       *zap.SugaredLogger
	WorkloadLog *zap.SugaredLogger
	JujuLog     *zap.SugaredLogger
	DbLog       *zap.SugaredLogger
	atomicLevel zap.AtomicLevel

	// GinLog feeds the gin middleware of omec-project/util, which logs through logrus.
	ginLogger *logrus.Logger
	GinLog    *logrus.Entry
)

func init() {
	atomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	config := zap.Config{
		Level:            atomicLevel,
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.EncoderConfig.CallerKey = "caller"
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.StacktraceKey = ""

	var err error
	log, err = config.Build()
	if err != nil {
		panic(err)
	}

	AppLog = log.Sugar().With("component", "AMF-Operator", "category", "App")
	InitLog = log.Sugar().With("component", "AMF-Operator", "category", "Init")
	CfgLog = log.Sugar().With("component", "AMF-Operator", "category", "CFG")
	CharmLog = log.Sugar().With("component", "AMF-Operator", "category", "Charm")
	StatusLog = log.Sugar().With("component", "AMF-Operator", "category", "Status")
	K8sLog = log.Sugar().With("component", "AMF-Operator", "category", "K8s")
	TlsLog = log.Sugar().With("component", "AMF-Operator", "category", "TLS")
	N2Log = log.Sugar().With("component", "AMF-Operator", "category", "N2")
	WorkloadLog = log.Sugar().With("component", "AMF-Operator", "category", "Workload")
	JujuLog = log.Sugar().With("component", "AMF-Operator", "category", "Juju")
	DbLog = log.Sugar().With("component", "AMF-Operator", "category", "DB")

	ginLogger = logrus.New()
	ginLogger.SetReportCaller(false)
	ginLogger.Formatter = &formatter.Formatter{
		TimestampFormat: time.RFC3339,
		TrimMessages:    true,
		NoFieldsSpace:   true,
		HideKeys:        true,
		FieldsOrder:     []string{"component", "category"},
	}
	ginLogger.SetLevel(logrus.InfoLevel)
	GinLog = ginLogger.WithFields(logrus.Fields{"component": "AMF-Operator", "category": "GIN"})
}

func GetLogger() *zap.Logger {
	return log
}

// SetLogLevel: set the log level (panic|fatal|error|warn|info|debug)
func SetLogLevel(level zapcore.Level) {
	InitLog.Infoln("set log level:", level)
	atomicLevel.SetLevel(level)
	ginLogger.SetLevel(ginLevel(level))
}

func ginLevel(level zapcore.Level) logrus.Level {
	switch {
	case level <= zapcore.DebugLevel:
		return logrus.DebugLevel
	case level == zapcore.InfoLevel:
		return logrus.InfoLevel
	case level == zapcore.WarnLevel:
		return logrus.WarnLevel
	case level == zapcore.ErrorLevel:
		return logrus.ErrorLevel
	case level == zapcore.PanicLevel || level == zapcore.DPanicLevel:
		return logrus.PanicLevel
	default:
		return logrus.FatalLevel
	}
}

// Level reports the current level of the zap loggers.
func Level() zapcore.Level {
	return atomicLevel.Level()
}
