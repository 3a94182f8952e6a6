// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package workload

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/canonical/pebble/client"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/logger"
)

const changeTimeout = 60 * time.Second

// PebbleContainer talks to the workload's Pebble daemon over its unix socket.
type PebbleContainer struct {
	client *client.Client
	name   string
}

func NewPebbleContainer(name, socket string) (*PebbleContainer, error) {
	c, err := client.New(&client.Config{Socket: socket})
	if err != nil {
		return nil, fmt.Errorf("could not create pebble client for %s: %w", name, err)
	}
	return &PebbleContainer{client: c, name: name}, nil
}

func (p *PebbleContainer) CanConnect() bool {
	if _, err := p.client.SysInfo(); err != nil {
		logger.WorkloadLog.Debugf("cannot connect to %s container: %v", p.name, err)
		return false
	}
	return true
}

func isNotFound(err error) bool {
	var clientErr *client.Error
	if errors.As(err, &clientErr) {
		return clientErr.Kind == "not-found" || clientErr.StatusCode == http.StatusNotFound
	}
	return false
}

func (p *PebbleContainer) Exists(path string) (bool, error) {
	_, err := p.client.ListFiles(&client.ListFilesOptions{Path: path, Itself: true})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func (p *PebbleContainer) Pull(path string) (string, error) {
	var buf bytes.Buffer
	err := p.client.Pull(&client.PullOptions{Path: path, Target: &buf})
	if isNotFound(err) {
		return "", fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (p *PebbleContainer) Push(path, content string) error {
	return p.client.Push(&client.PushOptions{
		Source:      strings.NewReader(content),
		Path:        path,
		MakeDirs:    true,
		Permissions: 0o644,
	})
}

func (p *PebbleContainer) RemovePath(path string) error {
	err := p.client.RemovePath(&client.RemovePathOptions{Path: path})
	if isNotFound(err) {
		return nil
	}
	return err
}

func (p *PebbleContainer) Plan() (*Layer, error) {
	data, err := p.client.PlanBytes(&client.PlanOptions{})
	if err != nil {
		return nil, err
	}
	return ParseLayer(data)
}

func (p *PebbleContainer) AddLayer(label string, layer *Layer) error {
	data, err := layer.Marshal()
	if err != nil {
		return err
	}
	return p.client.AddLayer(&client.AddLayerOptions{
		Combine:   true,
		Label:     label,
		LayerData: data,
	})
}

func (p *PebbleContainer) wait(changeID string, err error) error {
	if err != nil {
		return err
	}
	change, err := p.client.WaitChange(changeID, &client.WaitChangeOptions{Timeout: changeTimeout})
	if err != nil {
		return err
	}
	if change.Err != "" {
		return errors.New(change.Err)
	}
	return nil
}

func (p *PebbleContainer) Replan() error {
	return p.wait(p.client.Replan(&client.ServiceOptions{}))
}

func (p *PebbleContainer) Restart(services ...string) error {
	return p.wait(p.client.Restart(&client.ServiceOptions{Names: services}))
}

func (p *PebbleContainer) Stop(services ...string) error {
	return p.wait(p.client.Stop(&client.ServiceOptions{Names: services}))
}

func (p *PebbleContainer) ServiceIsRunning(name string) (bool, error) {
	services, err := p.client.Services(&client.ServicesOptions{Names: []string{name}})
	if err != nil {
		return false, err
	}
	for _, svc := range services {
		if svc.Name == name {
			return svc.Current == client.StatusActive, nil
		}
	}
	return false, nil
}
