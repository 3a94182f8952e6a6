// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0

package configmodels

import (
	"strconv"
)

const (
	N2AmfIpAddressKey = "amf_ip_address"
	N2AmfHostnameKey  = "amf_hostname"
	N2AmfPortKey      = "amf_port"
)

// N2Information is the record an AMF publishes on the fiveg_n2 interface.
type N2Information struct {
	IpAddress string `json:"amf_ip_address,omitempty" yaml:"amfIpAddress,omitempty"`
	Hostname  string `json:"amf_hostname" yaml:"amfHostname"`
	Port      int    `json:"amf_port" yaml:"amfPort"`
}

// ToDatabag encodes the record as relation data. Every value is a string.
func (n N2Information) ToDatabag() map[string]string {
	data := map[string]string{
		N2AmfHostnameKey: n.Hostname,
		N2AmfPortKey:     strconv.Itoa(n.Port),
	}
	if n.IpAddress != "" {
		data[N2AmfIpAddressKey] = n.IpAddress
	}
	return data
}
