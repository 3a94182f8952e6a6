// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0

package configmodels

const (
	CertificateSigningRequestsKey = "certificate_signing_requests"
	CertificatesKey               = "certificates"
)

// RequirerCSR is one entry of the requirer's certificate_signing_requests list.
type RequirerCSR struct {
	CertificateSigningRequest string `json:"certificate_signing_request"`
	Ca                        bool   `json:"ca"`
}

// ProviderCertificate is one entry of the provider's certificates list.
type ProviderCertificate struct {
	Certificate               string   `json:"certificate"`
	CertificateSigningRequest string   `json:"certificate_signing_request"`
	Ca                        string   `json:"ca"`
	Chain                     []string `json:"chain,omitempty"`
	Revoked                   bool     `json:"revoked,omitempty"`
}
