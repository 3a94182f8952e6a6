// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

// Package k8s manages the LoadBalancer Service that exposes the AMF NGAP
// endpoint outside the cluster.
package k8s

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/canonical/sdcore-amf-k8s-operator/backend/logger"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/util/retry"
)

const (
	AppNameLabel  = "app.kubernetes.io/name"
	PodIndexLabel = "apps.kubernetes.io/pod-index"
	NGAPPortName  = "ngapp"
)

type ServiceManager struct {
	client    kubernetes.Interface
	namespace string
	name      string
	port      int32
	appName   string
	podIndex  int
}

// NewServiceManager manages "<appName>-external" in namespace. podIndex is the
// ordinal of the unit the Service should point at after Patch.
func NewServiceManager(client kubernetes.Interface, namespace, appName string, port int32, podIndex int) *ServiceManager {
	return &ServiceManager{
		client:    client,
		namespace: namespace,
		name:      appName + "-external",
		port:      port,
		appName:   appName,
		podIndex:  podIndex,
	}
}

func (s *ServiceManager) Name() string { return s.name }

func (s *ServiceManager) desiredSpec() corev1.ServiceSpec {
	return corev1.ServiceSpec{
		Selector: map[string]string{AppNameLabel: s.appName},
		Ports: []corev1.ServicePort{
			{Name: NGAPPortName, Port: s.port, Protocol: corev1.ProtocolSCTP},
		},
		Type: corev1.ServiceTypeLoadBalancer,
	}
}

func (s *ServiceManager) get(ctx context.Context) (*corev1.Service, error) {
	return s.client.CoreV1().Services(s.namespace).Get(ctx, s.name, metav1.GetOptions{})
}

// IsCreated reports whether the Service exists. Only "not found" reads as
// false; any other API failure is returned.
func (s *ServiceManager) IsCreated(ctx context.Context) (bool, error) {
	_, err := s.get(ctx)
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("could not get service %s: %w", s.name, err)
	}
	return true, nil
}

// specMatches ignores selector keys other than the app label, so that a
// pod-index selector set by Patch survives.
func specMatches(current, desired corev1.ServiceSpec) bool {
	if current.Type != desired.Type || len(current.Ports) != len(desired.Ports) {
		return false
	}
	for i, p := range desired.Ports {
		c := current.Ports[i]
		if c.Name != p.Name || c.Port != p.Port || c.Protocol != p.Protocol {
			return false
		}
	}
	for k, v := range desired.Selector {
		if current.Selector[k] != v {
			return false
		}
	}
	return true
}

// Create makes sure the Service exists with the desired spec. It is safe to
// call on every reconciliation: an existing matching Service is left alone.
func (s *ServiceManager) Create(ctx context.Context) error {
	services := s.client.CoreV1().Services(s.namespace)
	desired := s.desiredSpec()
	return retry.RetryOnConflict(retry.DefaultRetry, func() error {
		current, err := s.get(ctx)
		if apierrors.IsNotFound(err) {
			svc := &corev1.Service{
				ObjectMeta: metav1.ObjectMeta{
					Name:      s.name,
					Namespace: s.namespace,
					Labels:    map[string]string{AppNameLabel: s.appName},
				},
				Spec: desired,
			}
			if _, err := services.Create(ctx, svc, metav1.CreateOptions{FieldManager: s.appName}); err != nil {
				return err
			}
			logger.K8sLog.Infof("created external AMF service %s", s.name)
			return nil
		}
		if err != nil {
			return err
		}
		if specMatches(current.Spec, desired) {
			return nil
		}
		updated := current.DeepCopy()
		selector := map[string]string{}
		for k, v := range current.Spec.Selector {
			selector[k] = v
		}
		for k, v := range desired.Selector {
			selector[k] = v
		}
		updated.Spec.Selector = selector
		updated.Spec.Ports = desired.Ports
		updated.Spec.Type = desired.Type
		if _, err := services.Update(ctx, updated, metav1.UpdateOptions{FieldManager: s.appName}); err != nil {
			return err
		}
		logger.K8sLog.Infof("updated external AMF service %s", s.name)
		return nil
	})
}

// RequiresPatch reports whether the Service selects a pod other than the
// current leader's.
func (s *ServiceManager) RequiresPatch(ctx context.Context) (bool, error) {
	svc, err := s.get(ctx)
	if apierrors.IsNotFound(err) {
		logger.K8sLog.Debugf("service %s not found", s.name)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return svc.Spec.Selector[PodIndexLabel] != strconv.Itoa(s.podIndex), nil
}

// Patch points the Service at the leader's pod.
func (s *ServiceManager) Patch(ctx context.Context) error {
	patch, err := json.Marshal(map[string]any{
		"spec": map[string]any{
			"selector": map[string]string{PodIndexLabel: strconv.Itoa(s.podIndex)},
		},
	})
	if err != nil {
		return err
	}
	_, err = s.client.CoreV1().Services(s.namespace).Patch(
		ctx, s.name, types.StrategicMergePatchType, patch, metav1.PatchOptions{FieldManager: s.appName})
	if err != nil {
		return fmt.Errorf("could not patch service %s: %w", s.name, err)
	}
	logger.K8sLog.Infof("patched service %s to select pod %d", s.name, s.podIndex)
	return nil
}

// Remove deletes the Service. A missing Service is not an error.
func (s *ServiceManager) Remove(ctx context.Context) error {
	err := s.client.CoreV1().Services(s.namespace).Delete(ctx, s.name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("could not delete service %s: %w", s.name, err)
	}
	logger.K8sLog.Infof("removed external AMF service %s", s.name)
	return nil
}

func (s *ServiceManager) ingress(ctx context.Context) (*corev1.LoadBalancerIngress, error) {
	svc, err := s.get(ctx)
	if apierrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(svc.Status.LoadBalancer.Ingress) == 0 {
		return nil, nil
	}
	return &svc.Status.LoadBalancer.Ingress[0], nil
}

// GetIP returns the load balancer IP, or "" when none is assigned yet.
func (s *ServiceManager) GetIP(ctx context.Context) (string, error) {
	ing, err := s.ingress(ctx)
	if err != nil || ing == nil {
		return "", err
	}
	return ing.IP, nil
}

// GetHostname returns the load balancer hostname, or "" when none is assigned.
func (s *ServiceManager) GetHostname(ctx context.Context) (string, error) {
	ing, err := s.ingress(ctx)
	if err != nil || ing == nil {
		return "", err
	}
	return ing.Hostname, nil
}
