// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package tls

import (
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCSR(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	block, _ := pem.Decode(key)
	require.NotNil(t, block)
	assert.Equal(t, "RSA PRIVATE KEY", block.Type)

	csrPEM, err := GenerateCSR(key, CommonName, []string{CommonName})
	require.NoError(t, err)
	block, _ = pem.Decode(csrPEM)
	require.NotNil(t, block)
	csr, err := x509.ParseCertificateRequest(block.Bytes)
	require.NoError(t, err)
	require.NoError(t, csr.CheckSignature())
	assert.Equal(t, CommonName, csr.Subject.CommonName)
	assert.Equal(t, []string{CommonName}, csr.DNSNames)

	again, err := GenerateCSR(key, CommonName, []string{CommonName})
	require.NoError(t, err)
	assert.NotEqual(t, string(csrPEM), string(again))
}

func TestGenerateCSRInvalidKey(t *testing.T) {
	_, err := GenerateCSR([]byte("not a key"), CommonName, nil)
	assert.Error(t, err)
}

func TestExpiresWithin(t *testing.T) {
	ca := newTestCA(t)
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	csr, err := GenerateCSR(key, CommonName, []string{CommonName})
	require.NoError(t, err)

	cert := ca.sign(t, string(csr), 24*time.Hour)
	soon, err := expiresWithin(cert, time.Now(), ExpiryNoticeRange)
	require.NoError(t, err)
	assert.True(t, soon)

	soon, err = expiresWithin(cert, time.Now(), time.Hour)
	require.NoError(t, err)
	assert.False(t, soon)

	_, err = expiresWithin("garbage", time.Now(), time.Hour)
	assert.Error(t, err)
}
