// Command skynet boots the control plane: it loads Config from the
// environment, wires every component together, starts the reconciler
// under leader election, and serves the HTTP API until interrupted.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/menestis/skynet/internal/autoscaler"
	"github.com/menestis/skynet/internal/config"
	"github.com/menestis/skynet/internal/discord"
	"github.com/menestis/skynet/internal/echo"
	"github.com/menestis/skynet/internal/eventbus/amqp"
	"github.com/menestis/skynet/internal/httpapi"
	"github.com/menestis/skynet/internal/leaderboard"
	"github.com/menestis/skynet/internal/leaderelect"
	"github.com/menestis/skynet/internal/logging"
	"github.com/menestis/skynet/internal/onlinecount"
	"github.com/menestis/skynet/internal/orchestrator/k8s"
	"github.com/menestis/skynet/internal/playerlifecycle"
	"github.com/menestis/skynet/internal/reconciler"
	"github.com/menestis/skynet/internal/repository/scylla"
	"github.com/menestis/skynet/internal/reputation"
	"github.com/menestis/skynet/internal/shutdown"
	"github.com/menestis/skynet/internal/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logOptions := logging.NewOptions()
	logOptions.Level = cfg.LogLevel
	logOptions.Format = cfg.LogFormat
	log, logResult, err := logOptions.Apply()
	if err != nil {
		return fmt.Errorf("bootstrapping logger: %w", err)
	}
	if logResult.Warning != "" {
		log.Info(logResult.Warning)
	}

	tracingOptions := tracing.NewOptions()
	if err := tracingOptions.Apply(); err != nil {
		log.Error(err, "tracing disabled, continuing with no-op tracer")
	}

	replicaID := uuid.NewString()
	log = log.WithValues("replica", replicaID)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	coordinator := shutdown.New(sigCtx)

	repo, err := scylla.New(scylla.Config{
		Address:  cfg.DBAddress,
		Keyspace: cfg.DBKeyspace,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
	})
	if err != nil {
		return fmt.Errorf("connecting to scylla: %w", err)
	}
	defer repo.Close()

	bus, err := amqp.New(coordinator.Context(), cfg.AMQPAddress, replicaID, log, coordinator)
	if err != nil {
		return fmt.Errorf("connecting to amqp: %w", err)
	}
	defer bus.Close()

	restCfg, err := kubernetesConfig()
	if err != nil {
		return fmt.Errorf("building kubernetes client config: %w", err)
	}
	clientset, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return fmt.Errorf("building kubernetes clientset: %w", err)
	}
	orch := k8s.New(clientset, cfg.KubernetesNamespace, log.WithName("orchestrator"))

	rec := reconciler.New(repo, bus, orch, log.WithName("reconciler"))

	elector := leaderelect.New(leaderelect.Config{
		Client:    clientset,
		Namespace: cfg.LeaderElectionNamespace,
		Name:      "skynet-reconciler",
		Identity:  replicaID,
		OnStart: func(ctx context.Context) {
			log.Info("acquired reconciler lease, starting reconciler")
			if err := rec.Run(ctx); err != nil {
				log.Error(err, "reconciler exited")
			}
		},
		OnStop: func() {
			log.Info("lost reconciler lease")
		},
	}, log.WithName("leaderelect"))
	coordinator.Go(elector.Run)

	autoscalerSvc := autoscaler.New(repo, bus, orch, log.WithName("autoscaler"))
	onlineAgg := onlinecount.New(repo, bus, elector.IsLeader, log.WithName("onlinecount"))
	leaderboardSched := leaderboard.New(repo, bus, elector.IsLeader, log.WithName("leaderboard"))
	if err := leaderboardSched.Start(coordinator.Context(), cfg.LeaderboardSchedule); err != nil {
		return fmt.Errorf("starting leaderboard scheduler: %w", err)
	}
	discordSvc := discord.New(repo, bus)
	echoClient := echo.New(cfg.EchoEndpoint, cfg.EchoKey, log.WithName("echo"))
	reputationClient := reputation.New(cfg.ProxyCheckAPIKey)
	lifecycle := playerlifecycle.New(repo, bus, autoscalerSvc, reputationClient, echoClient, log.WithName("playerlifecycle"))

	api := httpapi.New(httpapi.Deps{
		Repo:         repo,
		Bus:          bus,
		Autoscaler:   autoscalerSvc,
		Orchestrator: orch,
		Lifecycle:    lifecycle,
		Online:       onlineAgg,
		Leaderboard:  leaderboardSched,
		Discord:      discordSvc,
		Echo:         echoClient,
		Shutdown:     coordinator,
		Log:          log.WithName("httpapi"),
	})

	srv := &http.Server{
		Addr:    cfg.SkynetAddress,
		Handler: api,
	}
	coordinator.Go(func(ctx context.Context) {
		log.Info("listening", "address", cfg.SkynetAddress)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "http server exited")
			coordinator.Cancel()
		}
	})

	// The teacher's controller-manager exposes metrics and health on their
	// own ports so kubelet probes and scrapers never compete with API
	// traffic; /metrics and /status stay mounted on api too, for local use.
	metricsSrv := &http.Server{Addr: cfg.MetricsBindAddress, Handler: api.MetricsHandler()}
	coordinator.Go(func(ctx context.Context) {
		log.Info("serving metrics", "address", cfg.MetricsBindAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "metrics server exited")
		}
	})

	healthSrv := &http.Server{Addr: cfg.HealthProbeBindAddress, Handler: api.HealthHandler()}
	coordinator.Go(func(ctx context.Context) {
		log.Info("serving health probe", "address", cfg.HealthProbeBindAddress)
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "health probe server exited")
		}
	})

	<-coordinator.Context().Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "http server graceful shutdown failed")
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "metrics server graceful shutdown failed")
	}
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "health probe server graceful shutdown failed")
	}

	coordinator.Wait()
	return tracing.Shutdown(shutdownCtx)
}

// kubernetesConfig resolves in-cluster config first, falling back to
// KUBECONFIG/~/.kube/config for local runs, matching how the fleet's
// other Kubernetes-facing commands discover credentials.
func kubernetesConfig() (*rest.Config, error) {
	if cfg, err := rest.InClusterConfig(); err == nil {
		return cfg, nil
	}
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	overrides := &clientcmd.ConfigOverrides{}
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides).ClientConfig()
}
