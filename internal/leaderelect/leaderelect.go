// Package leaderelect wraps client-go's lease-based leader election so
// only one replica runs the reconciler at a time, per spec §4.3.
package leaderelect

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"
)

const (
	leaseDuration = 15 * time.Second
	renewDeadline = 10 * time.Second
	retryPeriod   = 5 * time.Second
)

// Elector tracks this replica's leadership and invokes OnStart/OnStop as it
// gains or loses the lease. IsLeader is a hot-read atomic flag, never
// gated behind a lock.
type Elector struct {
	lock      *resourcelock.LeaseLock
	log       logr.Logger
	onStart   func(ctx context.Context)
	onStop    func()
	isLeader  atomic.Bool
}

// Config names the lease object and the callbacks invoked on transition.
type Config struct {
	Client    kubernetes.Interface
	Namespace string
	Name      string
	Identity  string
	OnStart   func(ctx context.Context)
	OnStop    func()
}

func New(cfg Config, log logr.Logger) *Elector {
	return &Elector{
		lock: &resourcelock.LeaseLock{
			LeaseMeta: metav1.ObjectMeta{Name: cfg.Name, Namespace: cfg.Namespace},
			Client:    cfg.Client.CoordinationV1(),
			LockConfig: resourcelock.ResourceLockConfig{
				Identity: cfg.Identity,
			},
		},
		log:     log,
		onStart: cfg.OnStart,
		onStop:  cfg.OnStop,
	}
}

// IsLeader reports whether this replica currently holds the lease.
func (e *Elector) IsLeader() bool { return e.isLeader.Load() }

// Run blocks until ctx is cancelled, repeatedly acquiring and renewing the
// lease and invoking the configured callbacks across transitions.
func (e *Elector) Run(ctx context.Context) {
	elector, err := leaderelection.NewLeaderElector(leaderelection.LeaderElectionConfig{
		Lock:            e.lock,
		LeaseDuration:   leaseDuration,
		RenewDeadline:   renewDeadline,
		RetryPeriod:     retryPeriod,
		ReleaseOnCancel: true,
		Callbacks: leaderelection.LeaderCallbacks{
			OnStartedLeading: func(ctx context.Context) {
				e.isLeader.Store(true)
				e.log.Info("acquired leadership")
				if e.onStart != nil {
					e.onStart(ctx)
				}
			},
			OnStoppedLeading: func() {
				e.isLeader.Store(false)
				e.log.Info("lost leadership")
				if e.onStop != nil {
					e.onStop()
				}
			},
		},
	})
	if err != nil {
		e.log.Error(err, "could not build leader elector")
		return
	}
	elector.Run(ctx)
}
