// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package juju

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
)

type EventKind int

const (
	Unknown EventKind = iota
	Install
	Start
	Stop
	UpgradeCharm
	ConfigChanged
	UpdateStatus
	LeaderElected
	LeaderSettingsChanged
	Remove
	PebbleReady
	StorageAttached
	StorageDetaching
	RelationCreated
	RelationJoined
	RelationChanged
	RelationDeparted
	RelationBroken
)

var eventNames = map[EventKind]string{
	Unknown:               "unknown",
	Install:               "install",
	Start:                 "start",
	Stop:                  "stop",
	UpgradeCharm:          "upgrade-charm",
	ConfigChanged:         "config-changed",
	UpdateStatus:          "update-status",
	LeaderElected:         "leader-elected",
	LeaderSettingsChanged: "leader-settings-changed",
	Remove:                "remove",
	PebbleReady:           "pebble-ready",
	StorageAttached:       "storage-attached",
	StorageDetaching:      "storage-detaching",
	RelationCreated:       "relation-created",
	RelationJoined:        "relation-joined",
	RelationChanged:       "relation-changed",
	RelationDeparted:      "relation-departed",
	RelationBroken:        "relation-broken",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// suffixed kinds are hooks named "<prefix>-<kind>": relation endpoints,
// containers and storage names.
var suffixed = []EventKind{
	RelationCreated,
	RelationJoined,
	RelationChanged,
	RelationDeparted,
	RelationBroken,
	PebbleReady,
	StorageAttached,
	StorageDetaching,
}

// Event is one hook invocation.
type Event struct {
	Kind EventKind
	// Endpoint is the relation endpoint, container or storage name the hook
	// refers to. Empty for unit-level hooks.
	Endpoint   string
	RelationID int
	RemoteUnit string
	RemoteApp  string
}

func (e Event) String() string {
	if e.Endpoint == "" {
		return e.Kind.String()
	}
	return e.Endpoint + "-" + e.Kind.String()
}

// Relation returns the relation the event refers to, if any.
func (e Event) Relation() (Relation, bool) {
	switch e.Kind {
	case RelationCreated, RelationJoined, RelationChanged, RelationDeparted, RelationBroken:
		return Relation{ID: e.RelationID, Endpoint: e.Endpoint}, true
	}
	return Relation{}, false
}

// ParseHookName maps a hook name such as "fiveg_nrf-relation-joined" to an Event.
func ParseHookName(name string) Event {
	for kind, n := range eventNames {
		if kind != Unknown && name == n {
			return Event{Kind: kind}
		}
	}
	for _, kind := range suffixed {
		suffix := "-" + kind.String()
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			return Event{Kind: kind, Endpoint: strings.TrimSuffix(name, suffix)}
		}
	}
	return Event{Kind: Unknown, Endpoint: name}
}

// ParseDispatchPath parses JUJU_DISPATCH_PATH, e.g. "hooks/config-changed".
func ParseDispatchPath(dispatchPath string) Event {
	return ParseHookName(path.Base(dispatchPath))
}

// EventFromEnv builds the current Event from the hook environment.
func EventFromEnv(getenv func(string) string) (Event, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	dispatchPath := getenv("JUJU_DISPATCH_PATH")
	if dispatchPath == "" {
		return Event{}, fmt.Errorf("JUJU_DISPATCH_PATH is not set")
	}
	event := ParseDispatchPath(dispatchPath)
	if _, ok := event.Relation(); ok {
		rel, err := ParseRelationKey(getenv("JUJU_RELATION_ID"))
		if err != nil {
			return Event{}, err
		}
		event.RelationID = rel.ID
		event.RemoteUnit = getenv("JUJU_REMOTE_UNIT")
		event.RemoteApp = getenv("JUJU_REMOTE_APP")
		if event.RemoteApp == "" && event.RemoteUnit != "" {
			event.RemoteApp, _, _ = strings.Cut(event.RemoteUnit, "/")
		}
	}
	return event, nil
}

// Encode and DecodeEvent give deferred events a stable string form.
func (e Event) Encode() string {
	return strings.Join([]string{
		e.String(),
		strconv.Itoa(e.RelationID),
		e.RemoteUnit,
		e.RemoteApp,
	}, "|")
}

func DecodeEvent(s string) (Event, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 4 {
		return Event{}, fmt.Errorf("invalid encoded event %q", s)
	}
	event := ParseHookName(parts[0])
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return Event{}, fmt.Errorf("invalid encoded event %q: %w", s, err)
	}
	event.RelationID = id
	event.RemoteUnit = parts[2]
	event.RemoteApp = parts[3]
	return event, nil
}
