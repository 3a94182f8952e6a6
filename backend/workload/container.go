// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package workload

import (
	"errors"
)

var ErrNotFound = errors.New("not found")

// Container is the workload container as seen through its process supervisor.
type Container interface {
	CanConnect() bool
	Exists(path string) (bool, error)
	Pull(path string) (string, error)
	Push(path, content string) error
	RemovePath(path string) error

	Plan() (*Layer, error)
	AddLayer(label string, layer *Layer) error
	Replan() error
	Restart(services ...string) error
	Stop(services ...string) error
	ServiceIsRunning(name string) (bool, error)
}

// PullIfExists returns the file content, or "" when the file is absent.
func PullIfExists(c Container, path string) (string, error) {
	content, err := c.Pull(path)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return content, err
}
