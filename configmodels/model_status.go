// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0

package configmodels

type StatusKind string

const (
	StatusMaintenance StatusKind = "maintenance"
	StatusBlocked     StatusKind = "blocked"
	StatusWaiting     StatusKind = "waiting"
	StatusActive      StatusKind = "active"
)

// UnitStatus is the workload status of a unit as reported to Juju.
type UnitStatus struct {
	Kind    StatusKind `json:"status" yaml:"status"`
	Message string     `json:"message" yaml:"message"`
}

func (s UnitStatus) String() string {
	if s.Message == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + ": " + s.Message
}
