// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

// Package n2 implements both sides of the fiveg_n2 relation interface, over
// which the AMF publishes the address of its NGAP endpoint.
package n2

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/canonical/sdcore-amf-k8s-operator/configmodels"
	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrInvalidData        = errors.New("invalid fiveg_n2 relation data")
	ErrNotLeader          = errors.New("unit must be leader to set application relation data")
	ErrRelationNotCreated = errors.New("relation not created yet")
)

const providerAppDataSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "amf_ip_address": {"type": "string", "format": "ipv4"},
    "amf_hostname": {"type": "string", "minLength": 1},
    "amf_port": {
      "oneOf": [
        {"type": "integer", "minimum": 1, "maximum": 65535},
        {"type": "string", "pattern": "^[0-9]+$"}
      ]
    }
  },
  "required": ["amf_hostname", "amf_port"]
}`

var schema = mustSchema(providerAppDataSchema)

func mustSchema(s string) *gojsonschema.Schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(err)
	}
	return compiled
}

// Validate checks provider application data against the fiveg_n2 schema.
func Validate(data map[string]any) error {
	result, err := schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidData, strings.Join(problems, "; "))
	}
	// A numeric string must still be a valid port.
	if s, ok := data[configmodels.N2AmfPortKey].(string); ok {
		port, err := strconv.Atoi(s)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("%w: amf_port %q out of range", ErrInvalidData, s)
		}
	}
	return nil
}

func DataIsValid(data map[string]any) bool {
	return Validate(data) == nil
}

// decode turns validated databag content into an N2Information.
func decode(data map[string]string) (configmodels.N2Information, error) {
	if err := Validate(configmodels.StringMapToAny(data)); err != nil {
		return configmodels.N2Information{}, err
	}
	port, _ := strconv.Atoi(data[configmodels.N2AmfPortKey])
	return configmodels.N2Information{
		IpAddress: data[configmodels.N2AmfIpAddressKey],
		Hostname:  data[configmodels.N2AmfHostnameKey],
		Port:      port,
	}, nil
}
