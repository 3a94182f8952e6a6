// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package charm

import (
	"fmt"
	"net"

	"github.com/mitchellh/mapstructure"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
	"fatal": true,
	"panic": true,
}

// Config is the charm configuration set by the Juju administrator.
type Config struct {
	DNN                 string `mapstructure:"dnn"`
	LogLevel            string `mapstructure:"log-level"`
	ExternalAMFIP       string `mapstructure:"external-amf-ip"`
	ExternalAMFHostname string `mapstructure:"external-amf-hostname"`
}

func DefaultConfig() Config {
	return Config{
		DNN:      "internet",
		LogLevel: "info",
	}
}

// DecodeConfig decodes config-get output over the defaults.
func DecodeConfig(raw map[string]any) (Config, error) {
	cfg := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return cfg, err
	}
	if err := decoder.Decode(raw); err != nil {
		return cfg, fmt.Errorf("could not decode charm config: %w", err)
	}
	return cfg, nil
}

// InvalidConfigs lists the keys holding unusable values, in a fixed order.
func (c Config) InvalidConfigs() []string {
	var invalid []string
	if c.DNN == "" {
		invalid = append(invalid, "dnn")
	}
	if !validLogLevels[c.LogLevel] {
		invalid = append(invalid, "log-level")
	}
	if c.ExternalAMFIP != "" {
		if ip := net.ParseIP(c.ExternalAMFIP); ip == nil || ip.To4() == nil {
			invalid = append(invalid, "external-amf-ip")
		}
	}
	return invalid
}
