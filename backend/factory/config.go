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
	"github.com/omec-project/util/logger"
)

const (
	OPERATOR_EXPECTED_CONFIG_VERSION = "1.0.0"

	DEFAULT_CONTAINER_NAME   = "amf"
	DEFAULT_PEBBLE_SOCKET    = "/charm/containers/amf/pebble.socket"
	DEFAULT_STATE_DIR        = "/var/lib/juju/amf-operator"
	DEFAULT_DATABASE_NAME    = "sdcore_amf"
	DEFAULT_N2_RELATION_NAME = "fiveg-n2"
	DEFAULT_LISTEN_ADDR      = ":8090"
	DEFAULT_METRICS_ADDR     = ":8091"
)

type Config struct {
	Info          *Info          `yaml:"info"`
	Configuration *Configuration `yaml:"configuration"`
	Logger        *logger.Logger `yaml:"logger"`
}

type Info struct {
	Version     string `yaml:"version,omitempty"`
	Description string `yaml:"description,omitempty"`
}

type Configuration struct {
	ContainerName string    `yaml:"containerName,omitempty"`
	PebbleSocket  string    `yaml:"pebbleSocket,omitempty"`
	Kubeconfig    string    `yaml:"kubeconfig,omitempty"`
	StateDir      string    `yaml:"stateDir,omitempty"`
	Database      *Database `yaml:"database,omitempty"`
	N2            *N2       `yaml:"n2,omitempty"`
	Replicas      bool      `yaml:"replicas"`
	Service       *Service  `yaml:"service,omitempty"`
}

// Database enables the DB-backed mode, in which the database relation is
// required and its URI is rendered into the AMF configuration.
type Database struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name,omitempty"`
}

type N2 struct {
	RelationName string `yaml:"relationName,omitempty"`
}

// Service configures the introspection servers started by "serve".
type Service struct {
	ListenAddr  string `yaml:"listenAddr,omitempty"`
	MetricsAddr string `yaml:"metricsAddr,omitempty"`
}

func (c *Config) GetVersion() string {
	if c.Info != nil && c.Info.Version != "" {
		return c.Info.Version
	}
	return ""
}
