// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package charm

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/canonical/sdcore-amf-k8s-operator/backend/amfconfig"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/juju"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/k8s"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/tls"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/workload"
	"github.com/canonical/sdcore-amf-k8s-operator/configmodels"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/kubernetes/fake"
)

const (
	testApp       = "amf"
	testUnit      = "amf/0"
	testNamespace = "sdcore"
	testPodIP     = "192.0.2.1"
)

type fixture struct {
	model     *juju.MemoryModel
	container *workload.MemoryContainer
	client    *fake.Clientset
	services  *k8s.ServiceManager
	op        *Operator
	ca        *testCA

	nrf      juju.Relation
	webui    juju.Relation
	database juju.Relation
	certs    juju.Relation
}

func defaultOptions() Options {
	return Options{DatabaseEnabled: true}
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	model := juju.NewMemoryModel(testApp, testUnit, testNamespace)
	model.Leader = true
	model.Address = testPodIP
	model.Configuration["dnn"] = "internet"

	container := workload.NewMemoryContainer()
	container.MakeDir(amfconfig.ConfigDirPath)
	container.MakeDir(tls.CertsDirPath)

	client := fake.NewSimpleClientset()
	services := k8s.NewServiceManager(client, testNamespace, testApp, amfconfig.NGAPPort, 0)

	return &fixture{
		model:     model,
		container: container,
		client:    client,
		services:  services,
		ca:        newTestCA(t),
		op: New(Deps{
			Model:     model,
			Container: container,
			Services:  services,
			Clock:     time.Now,
			Options:   opts,
		}),
	}
}

// relateAll creates every required relation with its upstream data.
func (f *fixture) relateAll(t *testing.T) {
	t.Helper()
	f.nrf = f.model.AddRelation(FivegNRFRelation, "nrf")
	require.NoError(t, f.model.SetRemoteAppData(f.nrf, map[string]string{"url": "http://nrf:8081"}))
	f.webui = f.model.AddRelation(SdcoreConfigRelation, "webui")
	require.NoError(t, f.model.SetRemoteAppData(f.webui, map[string]string{"webui_url": "sdcore-webui:9876"}))
	f.database = f.model.AddRelation(DatabaseRelation, "mongodb")
	require.NoError(t, f.model.SetRemoteAppData(f.database, map[string]string{
		"username": "operator",
		"password": "secret",
		"uris":     "mongodb://dummy",
	}))
	f.certs = f.model.AddRelation(CertificatesRelation, "self-signed-certificates")
}

func (f *fixture) dispatch(t *testing.T, event juju.Event) {
	t.Helper()
	require.NoError(t, f.op.Dispatch(context.Background(), event))
}

func (f *fixture) relationEvent(kind juju.EventKind, rel juju.Relation) juju.Event {
	return juju.Event{Kind: kind, Endpoint: rel.Endpoint, RelationID: rel.ID}
}

// requests returns the CSRs this unit published on the certificates relation.
func (f *fixture) requests(t *testing.T) []configmodels.RequirerCSR {
	t.Helper()
	data, err := f.model.UnitData(f.certs, testUnit)
	require.NoError(t, err)
	var requests []configmodels.RequirerCSR
	if raw := data[configmodels.CertificateSigningRequestsKey]; raw != "" {
		require.NoError(t, json.Unmarshal([]byte(raw), &requests))
	}
	return requests
}

// issueCertificates answers every published CSR with a certificate valid for
// validity.
func (f *fixture) issueCertificates(t *testing.T, validity time.Duration) []configmodels.ProviderCertificate {
	t.Helper()
	var issued []configmodels.ProviderCertificate
	for _, req := range f.requests(t) {
		issued = append(issued, configmodels.ProviderCertificate{
			Certificate:               f.ca.sign(t, req.CertificateSigningRequest, validity),
			CertificateSigningRequest: req.CertificateSigningRequest,
			Ca:                        f.ca.pem,
		})
	}
	require.NotEmpty(t, issued)
	f.publishCertificates(t, issued...)
	return issued
}

func (f *fixture) publishCertificates(t *testing.T, certs ...configmodels.ProviderCertificate) {
	t.Helper()
	encoded, err := json.Marshal(certs)
	require.NoError(t, err)
	require.NoError(t, f.model.SetRemoteAppData(f.certs, map[string]string{
		configmodels.CertificatesKey: string(encoded),
	}))
}

// activate runs the events that take a fully related unit to Active.
func (f *fixture) activate(t *testing.T) {
	t.Helper()
	f.relateAll(t)
	f.dispatch(t, juju.Event{Kind: juju.ConfigChanged})
	f.issueCertificates(t, 90*24*time.Hour)
	f.dispatch(t, f.relationEvent(juju.RelationChanged, f.certs))
	require.Equal(t, configmodels.StatusActive, f.model.LastStatus().Kind, f.model.LastStatus().String())
}

func mutations(client *fake.Clientset) int {
	n := 0
	for _, action := range client.Actions() {
		switch action.GetVerb() {
		case "create", "update", "patch", "delete":
			n++
		}
	}
	return n
}

type testCA struct {
	cert *x509.Certificate
	key  *rsa.PrivateKey
	pem  string
}

func newTestCA(t *testing.T) *testCA {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test-ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return &testCA{
		cert: cert,
		key:  key,
		pem:  string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})),
	}
}

func (ca *testCA) sign(t *testing.T, csrPEM string, validity time.Duration) string {
	t.Helper()
	block, _ := pem.Decode([]byte(csrPEM))
	require.NotNil(t, block)
	csr, err := x509.ParseCertificateRequest(block.Bytes)
	require.NoError(t, err)
	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      csr.Subject,
		DNSNames:     csr.DNSNames,
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(validity),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, ca.cert, csr.PublicKey, ca.key)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
}
