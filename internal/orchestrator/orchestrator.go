// Package orchestrator abstracts pod lifecycle management: creating and
// deleting the pods that back Server rows, and streaming observations of
// them. Concrete backends live in sub-packages (k8s).
package orchestrator

import "context"

// PodPhase mirrors the coarse lifecycle a watched pod passes through.
type PodPhase string

const (
	PodPending   PodPhase = "Pending"
	PodRunning   PodPhase = "Running"
	PodTerminating PodPhase = "Terminating"
	PodSucceeded PodPhase = "Succeeded"
	PodFailed    PodPhase = "Failed"
)

// Pod is the orchestrator's flattened view of a watched pod: enough for the
// reconciler to decide adopt/release/no-op without importing a cluster API
// type directly.
type Pod struct {
	Name              string
	IP                string
	Labels            map[string]string
	Phase             PodPhase
	DeletionTimestamp bool
	Finalizers        []string
}

// HasFinalizer reports whether name is present among Pod.Finalizers.
func (p Pod) HasFinalizer(name string) bool {
	for _, f := range p.Finalizers {
		if f == name {
			return true
		}
	}
	return false
}

// PodEvent is one observation delivered by Watch.
type PodEvent struct {
	Pod Pod
}

// CreateSpec describes a pod to create.
type CreateSpec struct {
	Kind       string
	Image      string
	Name       string
	Properties map[string]string
	Env        map[string]string
}

// Orchestrator creates/deletes pods and streams observations of the ones it
// manages. Watch's channel is closed when ctx is cancelled.
type Orchestrator interface {
	CreatePod(ctx context.Context, spec CreateSpec) error
	DeletePod(ctx context.Context, name string) error
	Watch(ctx context.Context) (<-chan PodEvent, error)
}
