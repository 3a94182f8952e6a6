// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

// Package amfconfig renders amfcfg.conf, the configuration file read by the
// AMF binary at start-up.
package amfconfig

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

const (
	NGAPPort     = 38412
	SCTPGRPCPort = 9000
	SBIPort      = 29518

	DefaultScheme           = "https"
	CoreNetworkFullName     = "SDCORE5G"
	CoreNetworkShortName    = "SDCORE"
	ConfigDirPath           = "/free5gc/config"
	ConfigFileName          = "amfcfg.conf"
	ConfigFilePath          = ConfigDirPath + "/" + ConfigFileName
	DefaultDatabaseName     = "sdcore_amf"
	WorkloadVersionFilePath = "/etc/workload-version"
)

var ErrMissingValue = errors.New("missing required config value")

//go:embed amfcfg.conf.tmpl
var templateText string

var configTemplate = template.Must(
	template.New(ConfigFileName).Option("missingkey=error").Funcs(sprig.TxtFuncMap()).Parse(templateText))

// Context holds every value substituted into the template.
type Context struct {
	NGAPPort         int    `yaml:"ngappPort"`
	SCTPGRPCPort     int    `yaml:"sctpGrpcPort"`
	SBIPort          int    `yaml:"sbiPort"`
	NRFURL           string `yaml:"nrfUrl"`
	AMFIP            string `yaml:"amfIp"`
	FullNetworkName  string `yaml:"fullNetworkName"`
	ShortNetworkName string `yaml:"shortNetworkName"`
	DNN              string `yaml:"dnn"`
	Scheme           string `yaml:"scheme"`
	WebuiURI         string `yaml:"webuiUri"`
	LogLevel         string `yaml:"logLevel"`
	TLSKeyPath       string `yaml:"tlsKeyPath"`
	TLSPemPath       string `yaml:"tlsPemPath"`

	// DatabaseURL enables the mongodb section; DatabaseName is then required.
	DatabaseName string `yaml:"databaseName,omitempty"`
	DatabaseURL  string `yaml:"databaseUrl,omitempty"`
}

// NewContext fills the fixed values; callers set the relation derived ones.
func NewContext() Context {
	return Context{
		NGAPPort:         NGAPPort,
		SCTPGRPCPort:     SCTPGRPCPort,
		SBIPort:          SBIPort,
		FullNetworkName:  CoreNetworkFullName,
		ShortNetworkName: CoreNetworkShortName,
		Scheme:           DefaultScheme,
		LogLevel:         "info",
	}
}

func (c Context) missing() []string {
	var missing []string
	check := func(name string, ok bool) {
		if !ok {
			missing = append(missing, name)
		}
	}
	check("ngapp_port", c.NGAPPort > 0)
	check("sctp_grpc_port", c.SCTPGRPCPort > 0)
	check("sbi_port", c.SBIPort > 0)
	check("nrf_url", c.NRFURL != "")
	check("amf_ip", c.AMFIP != "")
	check("full_network_name", c.FullNetworkName != "")
	check("short_network_name", c.ShortNetworkName != "")
	check("dnn", c.DNN != "")
	check("scheme", c.Scheme != "")
	check("webui_uri", c.WebuiURI != "")
	check("log_level", c.LogLevel != "")
	check("tls_key_path", c.TLSKeyPath != "")
	check("tls_pem_path", c.TLSPemPath != "")
	if c.DatabaseURL != "" {
		check("database_name", c.DatabaseName != "")
	}
	return missing
}

// Render produces the config file content. The output depends only on ctx.
func Render(ctx Context) (string, error) {
	if missing := ctx.missing(); len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingValue, strings.Join(missing, ", "))
	}
	var buf bytes.Buffer
	if err := configTemplate.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("could not render %s: %w", ConfigFileName, err)
	}
	return buf.String(), nil
}
