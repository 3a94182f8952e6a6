// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package tls

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/canonical/sdcore-amf-k8s-operator/backend/juju"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/logger"
	"github.com/canonical/sdcore-amf-k8s-operator/configmodels"
)

// Requirer is the requirer side of the tls-certificates relation.
type Requirer struct {
	model        juju.Model
	relationName string
}

func NewRequirer(model juju.Model, relationName string) *Requirer {
	return &Requirer{model: model, relationName: relationName}
}

func (r *Requirer) relation() (juju.Relation, error) {
	return juju.FirstRelation(r.model, r.relationName)
}

// Requests returns the signing requests this unit has published.
func (r *Requirer) Requests() ([]configmodels.RequirerCSR, error) {
	rel, err := r.relation()
	if err != nil {
		return nil, err
	}
	data, err := r.model.UnitData(rel, r.model.UnitName())
	if err != nil {
		return nil, err
	}
	return decodeList[configmodels.RequirerCSR](data[configmodels.CertificateSigningRequestsKey])
}

func (r *Requirer) setRequests(rel juju.Relation, requests []configmodels.RequirerCSR) error {
	encoded, err := json.Marshal(requests)
	if err != nil {
		return err
	}
	return r.model.SetUnitData(rel, map[string]string{
		configmodels.CertificateSigningRequestsKey: string(encoded),
	})
}

func (r *Requirer) RequestCertificateCreation(csr string) error {
	rel, err := r.relation()
	if err != nil {
		return err
	}
	requests, err := r.Requests()
	if err != nil {
		return err
	}
	for _, req := range requests {
		if req.CertificateSigningRequest == csr {
			logger.TlsLog.Infoln("certificate signing request was already made")
			return nil
		}
	}
	requests = append(requests, configmodels.RequirerCSR{CertificateSigningRequest: csr})
	logger.TlsLog.Infoln("certificate signing request created")
	return r.setRequests(rel, requests)
}

// RequestCertificateRenewal replaces oldCSR with newCSR.
func (r *Requirer) RequestCertificateRenewal(oldCSR, newCSR string) error {
	rel, err := r.relation()
	if err != nil {
		return err
	}
	requests, err := r.Requests()
	if err != nil {
		return err
	}
	renewed := make([]configmodels.RequirerCSR, 0, len(requests)+1)
	for _, req := range requests {
		if req.CertificateSigningRequest != oldCSR && req.CertificateSigningRequest != newCSR {
			renewed = append(renewed, req)
		}
	}
	renewed = append(renewed, configmodels.RequirerCSR{CertificateSigningRequest: newCSR})
	logger.TlsLog.Infoln("certificate renewal requested")
	return r.setRequests(rel, renewed)
}

// ProviderCertificates returns every certificate the provider published.
func (r *Requirer) ProviderCertificates() ([]configmodels.ProviderCertificate, error) {
	rel, err := r.relation()
	if err != nil {
		return nil, err
	}
	app, err := r.model.RemoteApp(rel)
	if err != nil || app == "" {
		return nil, err
	}
	data, err := r.model.AppData(rel, app)
	if err != nil {
		return nil, err
	}
	return decodeList[configmodels.ProviderCertificate](data[configmodels.CertificatesKey])
}

// GetAssignedCertificates returns the provider certificates issued for one of
// this unit's requests.
func (r *Requirer) GetAssignedCertificates() ([]configmodels.ProviderCertificate, error) {
	requests, err := r.Requests()
	if err != nil {
		return nil, err
	}
	provided, err := r.ProviderCertificates()
	if err != nil {
		return nil, err
	}
	requested := make(map[string]bool, len(requests))
	for _, req := range requests {
		requested[req.CertificateSigningRequest] = true
	}
	var assigned []configmodels.ProviderCertificate
	for _, cert := range provided {
		if requested[cert.CertificateSigningRequest] && !cert.Revoked {
			assigned = append(assigned, cert)
		}
	}
	return assigned, nil
}

// ExpiringCertificates returns assigned certificates expiring within window.
func (r *Requirer) ExpiringCertificates(now time.Time, window time.Duration) ([]configmodels.ProviderCertificate, error) {
	assigned, err := r.GetAssignedCertificates()
	if err != nil {
		return nil, err
	}
	var expiring []configmodels.ProviderCertificate
	for _, cert := range assigned {
		soon, err := expiresWithin(cert.Certificate, now, window)
		if err != nil {
			logger.TlsLog.Warnf("could not parse provider certificate: %v", err)
			continue
		}
		if soon {
			expiring = append(expiring, cert)
		}
	}
	return expiring, nil
}

func decodeList[T any](raw string) ([]T, error) {
	if raw == "" {
		return nil, nil
	}
	var list []T
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("could not decode relation data: %w", err)
	}
	return list, nil
}
