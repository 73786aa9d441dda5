// Package reconciler drives pod observations into Server rows: adopting
// newly-seen pods, releasing terminating ones, and draining proxy
// sessions on release. It consumes orchestrator.Orchestrator's watch
// stream rather than implementing a controller-runtime Reconcile(ctx, req)
// method, since this control plane has no CRD and no manager.
package reconciler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/menestis/skynet/internal/apierr"
	"github.com/menestis/skynet/internal/eventbus"
	"github.com/menestis/skynet/internal/metrics"
	"github.com/menestis/skynet/internal/model"
	"github.com/menestis/skynet/internal/orchestrator"
	"github.com/menestis/skynet/internal/orchestrator/k8s"
	"github.com/menestis/skynet/internal/repository"
	"github.com/menestis/skynet/internal/tracing"
)

// Action names the decision a single reconcile pass made, used both as the
// reconcile.action span attribute and in log lines.
type Action string

const (
	ActionAdopt   Action = "adopt"
	ActionRelease Action = "release"
	ActionNoop    Action = "noop"
)

// Result mirrors controller-runtime's reconcile.Result without the
// dependency: RequeueAfter zero means "await the next watch observation".
type Result struct {
	RequeueAfter time.Duration
}

const defaultRequeueAfter = 60 * time.Second

// FinalizerRemover is the subset of orchestrator operations the reconciler
// needs beyond the plain Orchestrator interface (finalizer/label patches),
// satisfied by *k8s.Orchestrator.
type FinalizerRemover interface {
	orchestrator.Orchestrator
	AddFinalizerAndID(ctx context.Context, name, skynetID string) error
	RemoveFinalizer(ctx context.Context, name string) error
}

// Reconciler holds opaque handles to the Repository, EventBus, and
// Orchestrator; it never holds a reference to the rest of the application.
type Reconciler struct {
	repo repository.Repository
	bus  eventbus.Bus
	orch FinalizerRemover
	log  logr.Logger
}

func New(repo repository.Repository, bus eventbus.Bus, orch FinalizerRemover, log logr.Logger) *Reconciler {
	return &Reconciler{repo: repo, bus: bus, orch: orch, log: log}
}

// Run consumes the orchestrator's watch stream until ctx is cancelled,
// reconciling each observation; a per-pod error schedules Result's
// RequeueAfter as a background retry instead of blocking the stream.
func (r *Reconciler) Run(ctx context.Context) error {
	events, err := r.orch.Watch(ctx)
	if err != nil {
		return apierr.Wrap(apierr.KindOrchestrator, err, "start pod watch")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			pod := ev.Pod
			result, err := r.Reconcile(ctx, pod)
			if err != nil {
				r.log.Error(err, "reconcile failed", "pod", pod.Name)
			}
			if result.RequeueAfter > 0 {
				go r.scheduleRequeue(ctx, pod, result.RequeueAfter)
			}
		}
	}
}

func (r *Reconciler) scheduleRequeue(ctx context.Context, pod orchestrator.Pod, after time.Duration) {
	timer := time.NewTimer(after)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
		if _, err := r.Reconcile(ctx, pod); err != nil {
			r.log.Error(err, "requeued reconcile failed", "pod", pod.Name)
		}
	}
}

// Reconcile decides adopt/release/no-op for one pod observation.
func (r *Reconciler) Reconcile(ctx context.Context, pod orchestrator.Pod) (Result, error) {
	tracer := otel.Tracer("skynet")
	ctx, span := tracer.Start(ctx, tracing.SpanReconcilePod,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(tracing.AttrK8sPodName(pod.Name)))
	defer span.End()
	start := time.Now()
	defer func() {
		metrics.ReconcileDuration.WithLabelValues(pod.Labels[k8s.LabelKind]).Observe(time.Since(start).Seconds())
	}()

	logger := r.log.WithValues("pod", pod.Name)

	switch {
	case pod.DeletionTimestamp && pod.HasFinalizer(k8s.Finalizer):
		span.AddEvent(tracing.EventReconcileReleaseStart)
		if err := r.release(ctx, pod, logger); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "release failed")
			return Result{RequeueAfter: defaultRequeueAfter}, err
		}
		span.AddEvent(tracing.EventReconcileReleaseDone)
		return Result{}, nil

	case !pod.HasFinalizer(k8s.Finalizer) && pod.Labels["skynet_id"] == "" && pod.IP != "":
		span.AddEvent(tracing.EventReconcileAdoptStart)
		if err := r.adopt(ctx, pod, logger); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "adopt failed")
			return Result{RequeueAfter: defaultRequeueAfter}, err
		}
		span.AddEvent(tracing.EventReconcileAdoptSuccess)
		return Result{}, nil

	default:
		span.AddEvent(tracing.EventReconcileNoop)
		return Result{}, nil
	}
}

// mintServerID generates a fresh id in the sky-<uuid>-net shape the pod
// label carries.
func mintServerID() string {
	return fmt.Sprintf("sky-%s-net", uuid.NewString())
}

func (r *Reconciler) adopt(ctx context.Context, pod orchestrator.Pod, logger logr.Logger) error {
	kind := pod.Labels[k8s.LabelKind]
	properties := map[string]string{}
	for k, v := range pod.Labels {
		if strings.HasPrefix(k, k8s.PropertyLabelPrefix) {
			properties[strings.TrimPrefix(k, k8s.PropertyLabelPrefix)] = v
		}
	}

	existing, found, err := r.repo.GetServer(ctx, pod.Name)
	if err != nil {
		return err
	}

	id := mintServerID()
	if found {
		id = existing.ID
	} else {
		if err := r.repo.CreateServer(ctx, model.Server{
			ID:          id,
			Label:       pod.Name,
			Kind:        kind,
			IP:          pod.IP,
			State:       model.ServerStarting,
			Properties:  properties,
			Description: "",
		}); err != nil {
			return err
		}
	}

	if kind != model.ProxyKind {
		if err := r.bus.Publish(ctx, eventbus.NewRouteEvent(eventbus.NewRoutePayload{
			ID:         id,
			Addr:       pod.IP,
			Name:       pod.Name,
			Kind:       kind,
			Properties: properties,
		})); err != nil {
			return err
		}
	}

	if err := r.orch.AddFinalizerAndID(ctx, pod.Name, id); err != nil {
		return err
	}

	logger.Info("adopted pod", "server_id", id, "kind", kind)
	return nil
}

func (r *Reconciler) release(ctx context.Context, pod orchestrator.Pod, logger logr.Logger) error {
	id := pod.Labels["skynet_id"]
	server, found, err := r.repo.GetServer(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return r.orch.RemoveFinalizer(ctx, pod.Name)
	}

	if err := r.bus.Publish(ctx, eventbus.DeleteRouteEvent(eventbus.DeleteRoutePayload{ID: server.ID, Name: server.Label})); err != nil {
		return err
	}

	if server.Kind == model.ProxyKind {
		if err := r.drainProxySessions(ctx, server.ID); err != nil {
			return err
		}
	}

	if err := r.repo.DeleteServer(ctx, server.ID); err != nil {
		return err
	}

	if err := r.orch.RemoveFinalizer(ctx, pod.Name); err != nil {
		return err
	}

	logger.Info("released pod", "server_id", server.ID)
	return nil
}

// drainProxySessions nulls the session of every player whose proxy
// references the terminating replica.
func (r *Reconciler) drainProxySessions(ctx context.Context, proxyID string) error {
	players, err := r.repo.ListPlayersByProxy(ctx, proxyID)
	if err != nil {
		return err
	}
	for _, p := range players {
		if err := r.repo.NullPlayerSession(ctx, p.UUID); err != nil {
			return err
		}
	}
	return nil
}
