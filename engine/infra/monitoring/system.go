package monitoring

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pharens/pharens-ai/engine/infra/monitoring/metrics"
	"github.com/pharens/pharens-ai/pkg/logger"
)

// Set via -ldflags "-X github.com/pharens/pharens-ai/engine/infra/monitoring.Version=v1.2.3".
var (
	Version    = "unknown"
	CommitHash = "unknown"
)

var (
	systemMu           sync.Mutex
	systemInitialized  bool
	buildInfo          metric.Float64Gauge
	uptimeRegistration metric.Registration
)

// InitSystemMetrics registers build info and uptime once per process.
func InitSystemMetrics(ctx context.Context, meter metric.Meter) {
	systemMu.Lock()
	defer systemMu.Unlock()
	log := logger.FromContext(ctx)
	if !systemInitialized {
		systemInitialized = true
		var err error
		buildInfo, err = meter.Float64Gauge(
			metrics.MetricName("build_info"),
			metric.WithDescription("Build information (value=1)"),
		)
		if err != nil {
			log.Error("Failed to create build info gauge", "error", err)
		}
		uptime, err := meter.Float64ObservableGauge(
			metrics.MetricName("uptime_seconds"),
			metric.WithDescription("Service uptime in seconds"),
		)
		if err != nil {
			log.Error("Failed to create uptime gauge", "error", err)
		} else {
			start := time.Now()
			uptimeRegistration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
				o.ObserveFloat64(uptime, time.Since(start).Seconds())
				return nil
			}, uptime)
			if err != nil {
				log.Error("Failed to register uptime callback", "error", err)
			}
		}
	}
	if buildInfo == nil {
		return
	}
	version, commit, goVersion := getBuildInfo()
	buildInfo.Record(ctx, 1, metric.WithAttributes(
		attribute.String("version", version),
		attribute.String("commit_hash", commit),
		attribute.String("go_version", goVersion),
	))
	log.Info("System metrics initialized", "version", version, "commit", commit, "go_version", goVersion)
}

func getBuildInfo() (version, commit, goVersion string) {
	version, commit = Version, CommitHash
	if info, ok := debug.ReadBuildInfo(); ok {
		if version == "unknown" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
		if commit == "unknown" {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					commit = s.Value
					break
				}
			}
		}
	}
	return version, commit, runtime.Version()
}

// ResetSystemMetricsForTesting lets a test register system metrics on a fresh meter.
func ResetSystemMetricsForTesting() {
	systemMu.Lock()
	defer systemMu.Unlock()
	if uptimeRegistration != nil {
		_ = uptimeRegistration.Unregister()
		uptimeRegistration = nil
	}
	buildInfo = nil
	systemInitialized = false
}
