// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

/*
 * AMF Operator Configuration Factory
 */

package factory

import (
	"fmt"
	"os"

	"github.com/canonical/sdcore-amf-k8s-operator/backend/logger"
	utilLogger "github.com/omec-project/util/logger"
	"github.com/urfave/cli"
	"gopkg.in/yaml.v2"
)

var OperatorConfig = DefaultConfig()

var cliFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "cfg",
		Usage: "amf operator config file",
	},
}

func GetCliFlags() []cli.Flag {
	return cliFlags
}

// DefaultConfig returns the configuration used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Info: &Info{
			Version:     OPERATOR_EXPECTED_CONFIG_VERSION,
			Description: "AMF operator default configuration",
		},
		Configuration: &Configuration{
			ContainerName: DEFAULT_CONTAINER_NAME,
			PebbleSocket:  DEFAULT_PEBBLE_SOCKET,
			StateDir:      DEFAULT_STATE_DIR,
			Database: &Database{
				Enabled: true,
				Name:    DEFAULT_DATABASE_NAME,
			},
			N2: &N2{
				RelationName: DEFAULT_N2_RELATION_NAME,
			},
			Replicas: true,
			Service: &Service{
				ListenAddr:  DEFAULT_LISTEN_ADDR,
				MetricsAddr: DEFAULT_METRICS_ADDR,
			},
		},
		Logger: &utilLogger.Logger{
			AMF: &utilLogger.LogSetting{
				DebugLevel: "info",
			},
		},
	}
}

func InitConfigFactory(f string) error {
	content, err := os.ReadFile(f)
	if err != nil {
		return fmt.Errorf("[Configuration] %+v", err)
	}
	cfg := DefaultConfig()
	if yamlErr := yaml.Unmarshal(content, &cfg); yamlErr != nil {
		return fmt.Errorf("[Configuration] %+v", yamlErr)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("[Configuration] %+v", err)
	}
	OperatorConfig = cfg
	logger.CfgLog.Infof("loaded operator config %s (version %s)", f, cfg.Info.Version)
	return nil
}

// Validate fills the zero values left by a partial config file and rejects
// values the operator cannot work with.
func (c *Config) Validate() error {
	defaults := DefaultConfig()
	if c.Configuration == nil {
		c.Configuration = defaults.Configuration
	}
	if c.Configuration.ContainerName == "" {
		c.Configuration.ContainerName = DEFAULT_CONTAINER_NAME
	}
	if c.Configuration.PebbleSocket == "" {
		c.Configuration.PebbleSocket = DEFAULT_PEBBLE_SOCKET
	}
	if c.Configuration.StateDir == "" {
		c.Configuration.StateDir = DEFAULT_STATE_DIR
	}
	if c.Configuration.Database == nil {
		c.Configuration.Database = defaults.Configuration.Database
	}
	if c.Configuration.Database.Enabled && c.Configuration.Database.Name == "" {
		c.Configuration.Database.Name = DEFAULT_DATABASE_NAME
	}
	if c.Configuration.N2 == nil || c.Configuration.N2.RelationName == "" {
		logger.CfgLog.Debugf("N2 relation name not set, using %s", DEFAULT_N2_RELATION_NAME)
		c.Configuration.N2 = defaults.Configuration.N2
	}
	if c.Configuration.Service == nil {
		c.Configuration.Service = defaults.Configuration.Service
	}
	if c.Configuration.Service.ListenAddr == "" {
		c.Configuration.Service.ListenAddr = DEFAULT_LISTEN_ADDR
	}
	if c.Configuration.Service.MetricsAddr == "" {
		c.Configuration.Service.MetricsAddr = DEFAULT_METRICS_ADDR
	}
	if c.Info == nil {
		c.Info = defaults.Info
	}
	if c.Info.Version != "" && c.Info.Version != OPERATOR_EXPECTED_CONFIG_VERSION {
		return fmt.Errorf("config version is [%s], but expected is [%s]",
			c.Info.Version, OPERATOR_EXPECTED_CONFIG_VERSION)
	}
	return nil
}
