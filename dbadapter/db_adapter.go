// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0

// Package dbadapter turns the data published on the database relation into
// the MongoDB settings the AMF workload is configured with.
package dbadapter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/canonical/sdcore-amf-k8s-operator/backend/logger"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

var ErrNoDatabaseURI = errors.New("no database uri available")

const (
	UsernameKey = "username"
	PasswordKey = "password"
	UrisKey     = "uris"
	DatabaseKey = "database"
)

// DatabaseInfo is the provider's view of the requested database.
type DatabaseInfo struct {
	Username string
	Password string
	Uris     string
}

func DatabaseInfoFromDatabag(data map[string]string) DatabaseInfo {
	return DatabaseInfo{
		Username: data[UsernameKey],
		Password: data[PasswordKey],
		Uris:     data[UrisKey],
	}
}

// IsCreated reports whether the provider created the requested database and
// handed out credentials for it.
func (d DatabaseInfo) IsCreated() bool {
	return d.Username != "" && d.Password != ""
}

// URL returns the first URI of the comma separated uris value once it parses
// as a MongoDB connection string.
func (d DatabaseInfo) URL() (string, error) {
	first, _, _ := strings.Cut(d.Uris, ",")
	first = strings.TrimSpace(first)
	if first == "" {
		return "", ErrNoDatabaseURI
	}
	if _, err := connstring.ParseAndValidate(first); err != nil {
		logger.DbLog.Warnw("invalid database uri in relation data", "error", err)
		return "", fmt.Errorf("%w: %v", ErrNoDatabaseURI, err)
	}
	return first, nil
}
