// Package k8s implements orchestrator.Orchestrator over a client-go
// Clientset: plain core/v1 Pods, no CRD, restricted to pods labeled
// managed_by=skynet.
package k8s

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/cache"

	"github.com/menestis/skynet/internal/apierr"
	"github.com/menestis/skynet/internal/orchestrator"
)

const (
	// LabelManagedBy marks every pod this control plane owns.
	LabelManagedBy = "managed_by"
	// LabelManagedByValue is the only value LabelManagedBy ever carries.
	LabelManagedByValue = "skynet"
	// LabelKind names the server kind a pod belongs to.
	LabelKind = "skynet/kind"
	// PropertyLabelPrefix prefixes label keys Adopt collects as Server properties.
	PropertyLabelPrefix = "skynet-prop/"
	// Finalizer blocks pod deletion until the reconciler has released the Server row.
	Finalizer = "skynet/finalizer"
)

// Orchestrator wraps a kubernetes.Interface scoped to one namespace.
type Orchestrator struct {
	client kubernetes.Interface
	ns     string
	log    logr.Logger
}

func New(client kubernetes.Interface, namespace string, log logr.Logger) *Orchestrator {
	return &Orchestrator{client: client, ns: namespace, log: log}
}

// CreatePod builds a bare pod with the well-known labels and the env vars
// given in spec.Env, then creates it. It adds no SKYNET_URL or AMQP_ADDRESS
// env var of its own and no finalizer; the finalizer is added at adoption.
func (o *Orchestrator) CreatePod(ctx context.Context, spec orchestrator.CreateSpec) error {
	labels := map[string]string{
		LabelManagedBy: LabelManagedByValue,
		LabelKind:      spec.Kind,
	}
	for k, v := range spec.Properties {
		labels[PropertyLabelPrefix+k] = v
	}

	env := make([]corev1.EnvVar, 0, len(spec.Env)+2)
	for k, v := range spec.Env {
		env = append(env, corev1.EnvVar{Name: k, Value: v})
	}

	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.Name,
			Namespace: o.ns,
			Labels:    labels,
		},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{{
				Name:  spec.Kind,
				Image: spec.Image,
				Env:   env,
			}},
			RestartPolicy: corev1.RestartPolicyNever,
		},
	}

	_, err := o.client.CoreV1().Pods(o.ns).Create(ctx, pod, metav1.CreateOptions{})
	if err != nil {
		return apierr.Wrap(apierr.KindOrchestrator, err, "create pod %s", spec.Name)
	}
	return nil
}

// DeletePod deletes name, tolerating a pod that is already gone.
func (o *Orchestrator) DeletePod(ctx context.Context, name string) error {
	err := o.client.CoreV1().Pods(o.ns).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		if apierrors.IsConflict(err) {
			return apierr.New(apierr.KindConflict, "delete pod %s: conflicting update", name)
		}
		return apierr.Wrap(apierr.KindOrchestrator, err, "delete pod %s", name)
	}
	return nil
}

// RemoveFinalizer patches the pod to drop Finalizer, allowing the API
// server to complete its deletion.
func (o *Orchestrator) RemoveFinalizer(ctx context.Context, name string) error {
	pod, err := o.client.CoreV1().Pods(o.ns).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil
		}
		return apierr.Wrap(apierr.KindOrchestrator, err, "get pod %s", name)
	}
	remaining := pod.Finalizers[:0]
	for _, f := range pod.Finalizers {
		if f != Finalizer {
			remaining = append(remaining, f)
		}
	}
	pod.Finalizers = remaining
	_, err = o.client.CoreV1().Pods(o.ns).Update(ctx, pod, metav1.UpdateOptions{})
	if err != nil {
		if apierrors.IsConflict(err) {
			return apierr.New(apierr.KindConflict, "remove finalizer on %s: conflicting update", name)
		}
		return apierr.Wrap(apierr.KindOrchestrator, err, "remove finalizer on %s", name)
	}
	return nil
}

// AddFinalizerAndID patches the pod to add Finalizer and the skynet_id
// label minted by the reconciler's Adopt step.
func (o *Orchestrator) AddFinalizerAndID(ctx context.Context, name, skynetID string) error {
	pod, err := o.client.CoreV1().Pods(o.ns).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return apierr.Wrap(apierr.KindOrchestrator, err, "get pod %s", name)
	}
	pod.Finalizers = append(pod.Finalizers, Finalizer)
	if pod.Labels == nil {
		pod.Labels = map[string]string{}
	}
	pod.Labels["skynet_id"] = skynetID
	_, err = o.client.CoreV1().Pods(o.ns).Update(ctx, pod, metav1.UpdateOptions{})
	if err != nil {
		if apierrors.IsConflict(err) {
			return apierr.New(apierr.KindConflict, "adopt pod %s: conflicting update", name)
		}
		return apierr.Wrap(apierr.KindOrchestrator, err, "adopt pod %s", name)
	}
	return nil
}

// Watch streams (pod, phase) observations restricted to managed_by=skynet
// pods via a ListWatch-backed informer, translated into orchestrator.Pod.
func (o *Orchestrator) Watch(ctx context.Context) (<-chan orchestrator.PodEvent, error) {
	selector := fmt.Sprintf("%s=%s", LabelManagedBy, LabelManagedByValue)

	listWatch := &cache.ListWatch{
		ListFunc: func(options metav1.ListOptions) (runtime.Object, error) {
			options.LabelSelector = selector
			return o.client.CoreV1().Pods(o.ns).List(ctx, options)
		},
		WatchFunc: func(options metav1.ListOptions) (watch.Interface, error) {
			options.LabelSelector = selector
			return o.client.CoreV1().Pods(o.ns).Watch(ctx, options)
		},
	}

	events := make(chan orchestrator.PodEvent, 64)

	_, controller := cache.NewInformer(listWatch, &corev1.Pod{}, 0, cache.ResourceEventHandlerFuncs{
		AddFunc:    func(obj interface{}) { o.emit(events, obj) },
		UpdateFunc: func(_, obj interface{}) { o.emit(events, obj) },
		DeleteFunc: func(obj interface{}) { o.emit(events, obj) },
	})

	go func() {
		defer close(events)
		controller.Run(ctx.Done())
	}()

	return events, nil
}

func (o *Orchestrator) emit(events chan<- orchestrator.PodEvent, obj interface{}) {
	pod, ok := obj.(*corev1.Pod)
	if !ok {
		return
	}
	events <- orchestrator.PodEvent{Pod: toPod(pod)}
}

func toPod(pod *corev1.Pod) orchestrator.Pod {
	ip := pod.Status.PodIP
	phase := orchestrator.PodPending
	switch pod.Status.Phase {
	case corev1.PodRunning:
		phase = orchestrator.PodRunning
	case corev1.PodSucceeded:
		phase = orchestrator.PodSucceeded
	case corev1.PodFailed:
		phase = orchestrator.PodFailed
	}
	if pod.DeletionTimestamp != nil {
		phase = orchestrator.PodTerminating
	}
	return orchestrator.Pod{
		Name:              pod.Name,
		IP:                ip,
		Labels:            pod.Labels,
		Phase:             phase,
		DeletionTimestamp: pod.DeletionTimestamp != nil,
		Finalizers:        pod.Finalizers,
	}
}
