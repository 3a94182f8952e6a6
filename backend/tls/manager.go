// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package tls

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/canonical/sdcore-amf-k8s-operator/backend/juju"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/logger"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/workload"
)

const (
	CertsDirPath      = "/support/TLS"
	PrivateKeyName    = "amf.key"
	CSRName           = "amf.csr"
	CertificateName   = "amf.pem"
	CommonName        = "amf.sdcore"
	PrivateKeyPath    = CertsDirPath + "/" + PrivateKeyName
	CSRPath           = CertsDirPath + "/" + CSRName
	CertificatePath   = CertsDirPath + "/" + CertificateName
	ExpiryNoticeRange = 7 * 24 * time.Hour
)

type State int

const (
	NoKey State = iota
	KeyStored
	CsrStored
	CertPending
	CertStored
)

func (s State) String() string {
	switch s {
	case NoKey:
		return "NoKey"
	case KeyStored:
		return "KeyStored"
	case CsrStored:
		return "CsrStored"
	case CertPending:
		return "CertPending"
	case CertStored:
		return "CertStored"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Manager keeps the AMF key, signing request and certificate in the workload
// container in step with the certificates relation.
type Manager struct {
	container workload.Container
	requirer  *Requirer
}

func NewManager(container workload.Container, requirer *Requirer) *Manager {
	return &Manager{container: container, requirer: requirer}
}

func (m *Manager) PrivateKeyIsStored() (bool, error)  { return m.container.Exists(PrivateKeyPath) }
func (m *Manager) CSRIsStored() (bool, error)         { return m.container.Exists(CSRPath) }
func (m *Manager) CertificateIsStored() (bool, error) { return m.container.Exists(CertificatePath) }

func (m *Manager) StoredPrivateKey() (string, error) { return m.container.Pull(PrivateKeyPath) }
func (m *Manager) StoredCSR() (string, error)        { return m.container.Pull(CSRPath) }

// StoredCertificate returns the stored certificate, or "" when there is none.
func (m *Manager) StoredCertificate() (string, error) {
	return workload.PullIfExists(m.container, CertificatePath)
}

func (m *Manager) StorePrivateKey(key string) error {
	if err := m.container.Push(PrivateKeyPath, key); err != nil {
		return err
	}
	logger.TlsLog.Infoln("pushed private key to workload")
	return nil
}

func (m *Manager) StoreCSR(csr string) error {
	if err := m.container.Push(CSRPath, strings.TrimSpace(csr)); err != nil {
		return err
	}
	logger.TlsLog.Infoln("pushed CSR to workload")
	return nil
}

func (m *Manager) StoreCertificate(cert string) error {
	if err := m.container.Push(CertificatePath, cert); err != nil {
		return err
	}
	logger.TlsLog.Infoln("pushed certificate to workload")
	return nil
}

// GeneratePrivateKey creates and stores a new private key.
func (m *Manager) GeneratePrivateKey() error {
	key, err := GeneratePrivateKey()
	if err != nil {
		return fmt.Errorf("could not generate private key: %w", err)
	}
	return m.StorePrivateKey(string(key))
}

// RequestNewCertificate signs a fresh CSR with the stored key, stores it and
// requests a certificate for it. A previously stored CSR is replaced on the
// relation.
func (m *Manager) RequestNewCertificate() error {
	key, err := m.StoredPrivateKey()
	if err != nil {
		return fmt.Errorf("could not read private key: %w", err)
	}
	oldCSR, err := workload.PullIfExists(m.container, CSRPath)
	if err != nil {
		return err
	}
	csrPEM, err := GenerateCSR([]byte(key), CommonName, []string{CommonName})
	if err != nil {
		return fmt.Errorf("could not generate CSR: %w", err)
	}
	csr := strings.TrimSpace(string(csrPEM))
	if err := m.StoreCSR(csr); err != nil {
		return err
	}
	if oldCSR != "" {
		return m.requirer.RequestCertificateRenewal(oldCSR, csr)
	}
	return m.requirer.RequestCertificateCreation(csr)
}

// CurrentProviderCertificate returns the assigned certificate issued for the
// stored CSR, or "" when the provider has not issued one.
func (m *Manager) CurrentProviderCertificate() (string, error) {
	csr, err := workload.PullIfExists(m.container, CSRPath)
	if err != nil || csr == "" {
		return "", err
	}
	assigned, err := m.requirer.GetAssignedCertificates()
	if errors.Is(err, juju.ErrNoRelation) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	for _, cert := range assigned {
		if cert.CertificateSigningRequest == csr {
			return cert.Certificate, nil
		}
	}
	return "", nil
}

// CertificateUpdateRequired reports whether cert differs from the stored one.
func (m *Manager) CertificateUpdateRequired(cert string) (bool, error) {
	stored, err := m.StoredCertificate()
	if err != nil {
		return false, err
	}
	return stored != cert, nil
}

// DeleteAll removes key, CSR and certificate. Missing files are skipped.
func (m *Manager) DeleteAll() error {
	for _, path := range []string{PrivateKeyPath, CSRPath, CertificatePath} {
		exists, err := m.container.Exists(path)
		if err != nil {
			return err
		}
		if !exists {
			continue
		}
		if err := m.container.RemovePath(path); err != nil {
			return fmt.Errorf("could not remove %s: %w", path, err)
		}
		logger.TlsLog.Infof("removed %s from workload", path)
	}
	return nil
}

// RenewExpiring requests a new certificate when the stored certificate is
// among those the provider reports as expiring. It returns whether a renewal
// was requested.
func (m *Manager) RenewExpiring(now time.Time) (bool, error) {
	stored, err := m.StoredCertificate()
	if err != nil || stored == "" {
		return false, err
	}
	expiring, err := m.requirer.ExpiringCertificates(now, ExpiryNoticeRange)
	if errors.Is(err, juju.ErrNoRelation) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, cert := range expiring {
		if cert.Certificate != stored {
			logger.TlsLog.Debugln("expiring certificate is not the one stored")
			continue
		}
		if err := m.RequestNewCertificate(); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// State reports where the certificate lifecycle currently is.
func (m *Manager) State() (State, error) {
	hasKey, err := m.PrivateKeyIsStored()
	if err != nil || !hasKey {
		return NoKey, err
	}
	csr, err := workload.PullIfExists(m.container, CSRPath)
	if err != nil || csr == "" {
		return KeyStored, err
	}
	hasCert, err := m.CertificateIsStored()
	if err != nil {
		return CsrStored, err
	}
	if hasCert {
		return CertStored, nil
	}
	requests, err := m.requirer.Requests()
	if err != nil && !errors.Is(err, juju.ErrNoRelation) {
		return CsrStored, err
	}
	for _, req := range requests {
		if req.CertificateSigningRequest == csr {
			return CertPending, nil
		}
	}
	return CsrStored, nil
}
