package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/pulse/internal/config"
	"github.com/zsiec/pulse/internal/controller"
	"github.com/zsiec/pulse/internal/health"
	"github.com/zsiec/pulse/internal/logger"
	"github.com/zsiec/pulse/internal/sched"
	"github.com/zsiec/pulse/pkg/version"
)

func main() {
	var (
		configPath  string
		showVersion bool
		trials      int
	)

	flag.StringVar(&configPath, "config", "configs/default.yaml", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.IntVar(&trials, "trials", 10, "Number of self-test trials to run")
	flag.Parse()

	if showVersion {
		fmt.Println(version.GetInfo().String())
		os.Exit(0)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithField("version", version.GetInfo().Short()).Info("Starting Pulse session runner")
	log.WithField("config_path", configPath).Debug("Configuration loaded")

	if cfg.Metrics.Enabled {
		go startMetricsServer(&cfg.Metrics, log)
	}

	// The display backend is an external collaborator. The runner uses a
	// headless surface with a 60 Hz synthetic refresh so flip timing is
	// exercised end to end without a window system.
	ctrl, err := controller.New(cfg, log, controller.Options{
		Graphics: sched.NewHeadless(16670 * time.Microsecond),
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize session")
	}

	if cfg.Health.Enabled {
		go startHealthServer(cfg, ctrl, log)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
	}()

	if err := runSession(ctx, ctrl, trials, log); err != nil {
		log.WithError(ctrl.CloseWithError(err)).Error("Session failed")
		os.Exit(1)
	}

	if err := ctrl.Close(); err != nil {
		log.WithError(err).Error("Teardown reported failures")
		os.Exit(1)
	}
	log.Info("Session complete")
}

// runSession runs a short stimulus loop: tone load, trigger stamp,
// flip-and-play, inter-trial wait.
func runSession(ctx context.Context, ctrl *controller.Controller, trials int, log *logrus.Logger) error {
	tone := makeTone(1000, 0.5, 44100, 0.01)

	if err := ctrl.StartNoise(); err != nil {
		return err
	}

	for trial := 1; trial <= trials; trial++ {
		select {
		case <-ctx.Done():
			log.Info("Session interrupted")
			return nil
		default:
		}

		if err := ctrl.LoadBufferMono(tone); err != nil {
			return err
		}
		if err := ctrl.StampTriggers([]int{trial}); err != nil {
			return err
		}
		onset, err := ctrl.FlipAndPlay()
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"trial": trial,
			"onset": onset.Seconds(),
		}).Info("Trial started")

		ctrl.WaitUntil(onset + 700*time.Millisecond)
		if err := ctrl.Stop(); err != nil {
			return err
		}
	}

	return ctrl.StopNoise()
}

// makeTone generates a sine burst at the given RMS.
func makeTone(freq float64, seconds float64, rate int, rms float64) []float64 {
	n := int(seconds * float64(rate))
	amp := rms * math.Sqrt2 // sine RMS = amp / sqrt(2)
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return out
}

func startMetricsServer(cfg *config.MetricsConfig, log *logrus.Logger) {
	addr := fmt.Sprintf(":%d", cfg.Port)
	m := http.NewServeMux()
	m.Handle(cfg.Path, promhttp.Handler())
	log.WithField("addr", addr).Info("Starting metrics server")
	if err := http.ListenAndServe(addr, m); err != nil {
		log.WithError(err).Error("Metrics server failed")
	}
}

func startHealthServer(cfg *config.Config, ctrl *controller.Controller, log *logrus.Logger) {
	manager := health.NewManager(log)
	manager.Register(health.NewAudioDeviceChecker(ctrl.Device()))
	manager.Register(health.NewTriggerChecker(ctrl.TriggerChannel()))
	manager.Register(health.NewDataSinkChecker(cfg.Experiment.OutputDir))
	handler := health.NewHandler(manager)

	r := mux.NewRouter()
	r.HandleFunc("/health", handler.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ready", handler.HandleReady).Methods(http.MethodGet)

	addr := fmt.Sprintf(":%d", cfg.Health.Port)
	log.WithField("addr", addr).Info("Starting health server")
	if err := http.ListenAndServe(addr, r); err != nil {
		log.WithError(err).Error("Health server failed")
	}
}
