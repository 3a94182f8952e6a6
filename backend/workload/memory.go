// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package workload

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryContainer is an in-process Container that records every mutation.
type MemoryContainer struct {
	mu sync.Mutex

	Connected bool
	files     map[string]string
	dirs      map[string]bool
	plan      *Layer
	running   map[string]bool

	Pushes   map[string]int
	Removals map[string]int
	Layers   int
	Replans  int
	Restarts int
	Stops    int
}

func NewMemoryContainer() *MemoryContainer {
	return &MemoryContainer{
		Connected: true,
		files:     map[string]string{},
		dirs:      map[string]bool{},
		plan:      &Layer{Services: map[string]*Service{}},
		running:   map[string]bool{},
		Pushes:    map[string]int{},
		Removals:  map[string]int{},
	}
}

// MakeDir marks a directory as present, e.g. an attached storage mount.
func (m *MemoryContainer) MakeDir(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[strings.TrimSuffix(path, "/")] = true
}

// SetFile writes a file without counting it as a push.
func (m *MemoryContainer) SetFile(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
}

// Files returns the stored paths in order.
func (m *MemoryContainer) Files() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// TotalPushes counts pushes across all paths.
func (m *MemoryContainer) TotalPushes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.Pushes {
		total += n
	}
	return total
}

func (m *MemoryContainer) CanConnect() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Connected
}

func (m *MemoryContainer) checkConnected() error {
	if !m.Connected {
		return fmt.Errorf("cannot connect to container")
	}
	return nil
}

func (m *MemoryContainer) Exists(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkConnected(); err != nil {
		return false, err
	}
	if _, ok := m.files[path]; ok {
		return true, nil
	}
	return m.dirs[strings.TrimSuffix(path, "/")], nil
}

func (m *MemoryContainer) Pull(path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkConnected(); err != nil {
		return "", err
	}
	content, ok := m.files[path]
	if !ok {
		return "", fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return content, nil
}

func (m *MemoryContainer) Push(path, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkConnected(); err != nil {
		return err
	}
	m.files[path] = content
	m.Pushes[path]++
	return nil
}

func (m *MemoryContainer) RemovePath(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkConnected(); err != nil {
		return err
	}
	if _, ok := m.files[path]; ok {
		delete(m.files, path)
		m.Removals[path]++
	}
	return nil
}

func (m *MemoryContainer) Plan() (*Layer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkConnected(); err != nil {
		return nil, err
	}
	plan := &Layer{Services: make(map[string]*Service, len(m.plan.Services))}
	for name, svc := range m.plan.Services {
		copied := *svc
		plan.Services[name] = &copied
	}
	if len(m.plan.LogTargets) > 0 {
		plan.LogTargets = make(map[string]*LogTarget, len(m.plan.LogTargets))
		for name, target := range m.plan.LogTargets {
			copied := *target
			plan.LogTargets[name] = &copied
		}
	}
	return plan, nil
}

func (m *MemoryContainer) AddLayer(_ string, layer *Layer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkConnected(); err != nil {
		return err
	}
	for name, svc := range layer.Services {
		copied := *svc
		copied.Override = ""
		m.plan.Services[name] = &copied
	}
	for name, target := range layer.LogTargets {
		if m.plan.LogTargets == nil {
			m.plan.LogTargets = map[string]*LogTarget{}
		}
		copied := *target
		copied.Override = ""
		m.plan.LogTargets[name] = &copied
	}
	m.Layers++
	return nil
}

func (m *MemoryContainer) Replan() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkConnected(); err != nil {
		return err
	}
	for name, svc := range m.plan.Services {
		if svc.Startup == "enabled" {
			m.running[name] = true
		}
	}
	m.Replans++
	return nil
}

func (m *MemoryContainer) Restart(services ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkConnected(); err != nil {
		return err
	}
	for _, name := range services {
		if _, ok := m.plan.Services[name]; !ok {
			return fmt.Errorf("service %q: %w", name, ErrNotFound)
		}
		m.running[name] = true
	}
	m.Restarts++
	return nil
}

func (m *MemoryContainer) Stop(services ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkConnected(); err != nil {
		return err
	}
	for _, name := range services {
		m.running[name] = false
	}
	m.Stops++
	return nil
}

func (m *MemoryContainer) ServiceIsRunning(name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkConnected(); err != nil {
		return false, err
	}
	return m.running[name], nil
}
