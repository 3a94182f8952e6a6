// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

// Package status decides the unit status from a snapshot of everything the
// operator knows. The first failing check wins.
package status

import (
	"fmt"
	"strings"

	"github.com/canonical/sdcore-amf-k8s-operator/configmodels"
)

// Snapshot is the input of Evaluate. It is gathered once per event.
type Snapshot struct {
	Leader bool
	// Replicas enables standby units; without it only a single unit is supported.
	Replicas bool

	CanConnect       bool
	InvalidConfigs   []string
	MissingRelations []string

	DatabaseEnabled bool
	DatabaseCreated bool
	DatabaseURL     string

	NRFURL   string
	WebuiURL string

	StorageAttached bool
	PodIP           string

	CertificateAvailable bool
	ServiceRunning       bool

	N2RelationCreated bool
	N2Address         string
}

type check struct {
	failed func(Snapshot) bool
	status func(Snapshot) configmodels.UnitStatus
}

func blocked(msg string) configmodels.UnitStatus {
	return configmodels.UnitStatus{Kind: configmodels.StatusBlocked, Message: msg}
}

func waiting(msg string) configmodels.UnitStatus {
	return configmodels.UnitStatus{Kind: configmodels.StatusWaiting, Message: msg}
}

func fixed(s configmodels.UnitStatus) func(Snapshot) configmodels.UnitStatus {
	return func(Snapshot) configmodels.UnitStatus { return s }
}

var Standby = configmodels.UnitStatus{Kind: configmodels.StatusActive, Message: "standby"}

// readiness are the checks that gate configuration of the workload.
var readiness = []check{
	{
		failed: func(s Snapshot) bool { return !s.Leader },
		status: func(s Snapshot) configmodels.UnitStatus {
			if s.Replicas {
				return Standby
			}
			return blocked("Scaling is not implemented for this charm")
		},
	},
	{
		failed: func(s Snapshot) bool { return !s.CanConnect },
		status: fixed(configmodels.UnitStatus{Kind: configmodels.StatusMaintenance, Message: "Waiting for service to start"}),
	},
	{
		failed: func(s Snapshot) bool { return len(s.InvalidConfigs) > 0 },
		status: func(s Snapshot) configmodels.UnitStatus {
			return blocked(fmt.Sprintf("The following configurations are not valid: [%s]", strings.Join(s.InvalidConfigs, ", ")))
		},
	},
	{
		failed: func(s Snapshot) bool { return len(s.MissingRelations) > 0 },
		status: func(s Snapshot) configmodels.UnitStatus {
			return blocked(fmt.Sprintf("Waiting for %s relation(s)", strings.Join(s.MissingRelations, ", ")))
		},
	},
	{
		failed: func(s Snapshot) bool { return s.DatabaseEnabled && !s.DatabaseCreated },
		status: fixed(waiting("Waiting for the amf database to be available")),
	},
	{
		failed: func(s Snapshot) bool { return s.DatabaseEnabled && s.DatabaseURL == "" },
		status: fixed(waiting("Waiting for AMF database info to be available")),
	},
	{
		failed: func(s Snapshot) bool { return s.NRFURL == "" },
		status: fixed(waiting("Waiting for NRF data to be available")),
	},
	{
		failed: func(s Snapshot) bool { return s.WebuiURL == "" },
		status: fixed(waiting("Waiting for Webui data to be available")),
	},
	{
		failed: func(s Snapshot) bool { return !s.StorageAttached },
		status: fixed(waiting("Waiting for storage to be attached")),
	},
	{
		failed: func(s Snapshot) bool { return s.PodIP == "" },
		status: fixed(waiting("Waiting for pod IP address to be available")),
	},
}

var running = []check{
	{
		failed: func(s Snapshot) bool { return !s.CertificateAvailable },
		status: fixed(waiting("Waiting for certificates to be stored")),
	},
	{
		failed: func(s Snapshot) bool { return !s.ServiceRunning },
		status: fixed(waiting("Waiting for AMF service to start")),
	},
	{
		failed: func(s Snapshot) bool { return s.N2RelationCreated && s.N2Address == "" },
		status: fixed(blocked("Waiting for MetalLB to be enabled")),
	},
}

func firstFailure(s Snapshot, checks []check) (configmodels.UnitStatus, bool) {
	for _, c := range checks {
		if c.failed(s) {
			return c.status(s), true
		}
	}
	return configmodels.UnitStatus{}, false
}

// Evaluate returns the status of the first failing check, or Active.
func Evaluate(s Snapshot) configmodels.UnitStatus {
	if st, failed := firstFailure(s, readiness); failed {
		return st
	}
	if st, failed := firstFailure(s, running); failed {
		return st
	}
	return configmodels.UnitStatus{Kind: configmodels.StatusActive}
}

// ReadyToConfigure runs the same checks as Evaluate up to the pod IP, without
// producing a status.
func ReadyToConfigure(s Snapshot) bool {
	_, failed := firstFailure(s, readiness)
	return !failed
}
