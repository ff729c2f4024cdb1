// Command sunsetrd runs the color-temperature/gamma daemon: it tracks
// sunset and sunrise (by fixed times, or by solar geometry when
// latitude/longitude are configured) and smoothly transitions the display
// between a night and a day color profile.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sunsetrd/internal/animator"
	"sunsetrd/internal/backend"
	_ "sunsetrd/internal/backend/gamma"
	_ "sunsetrd/internal/backend/socket"
	"sunsetrd/internal/clock"
	"sunsetrd/internal/config"
	"sunsetrd/internal/geo"
	"sunsetrd/internal/interp"
	"sunsetrd/internal/ipc"
	"sunsetrd/internal/lifecycle"
	"sunsetrd/internal/logging"
	"sunsetrd/internal/loop"
	"sunsetrd/internal/procreg"
	"sunsetrd/internal/solar"
	"sunsetrd/internal/sunsetrd"
	"sunsetrd/internal/termguard"
	"sunsetrd/internal/timestate"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	debugFlag   bool
	geoFlag     bool
	reloadFlag  bool
	testFlag    []string
	versionFlag bool
	configPath  string
)

func main() {
	root := &cobra.Command{
		Use:           "sunsetrd",
		Short:         "Wayland display color-temperature and gamma daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	root.Flags().BoolVarP(&debugFlag, "debug", "d", false, "enable verbose development logging")
	root.Flags().BoolVarP(&geoFlag, "geo", "g", false, "print resolved geo/timezone information and exit")
	root.Flags().BoolVarP(&reloadFlag, "reload", "r", false, "signal a running instance to reload its configuration and exit")
	root.Flags().StringSliceVarP(&testFlag, "test", "t", nil, "apply <temperature> <gamma> to a running instance and exit")
	root.Flags().BoolVarP(&versionFlag, "version", "V", false, "print version and exit")
	root.Flags().StringVar(&configPath, "config", "", "path to configuration file (overrides XDG lookup)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(sunsetrd.ExitFailure)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if versionFlag {
		fmt.Println("sunsetrd " + version)
		return nil
	}

	logger, err := logging.New(debugFlag)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	if reloadFlag {
		return signalRunning(logger)
	}
	if len(testFlag) > 0 {
		return sendTestMode(logger, testFlag)
	}

	compositor, err := lifecycle.Detect()
	if err != nil {
		return fmt.Errorf("detect compositor: %w", err)
	}

	if geoFlag {
		return printGeo(logger)
	}

	instanceLock, err := lifecycle.Acquire(compositor.Name)
	if err != nil {
		var already *lifecycle.ErrAlreadyRunning
		if asAlreadyRunning(err, &already) {
			logger.Warn("another instance is already running, signaling reload instead", zap.Int("pid", already.PID))
			return signalRunning(logger)
		}
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	defer instanceLock.Release()

	guard, err := termguard.Acquire()
	if err != nil {
		return fmt.Errorf("acquire terminal guard: %w", err)
	}
	defer guard.Release()

	loader, err := config.NewLoader(configPath, logger)
	if err != nil {
		return fmt.Errorf("resolve configuration: %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if debugFlag {
		cfg.Debug = true
	}

	resolver, err := geo.NewTimezoneResolver()
	if err != nil {
		logger.Warn("timezone resolver unavailable, geo mode will use the process timezone", zap.Error(err))
		resolver = nil
	}

	pids := procreg.New()
	clk := clock.NewRealClock()
	listener := ipc.NewListener("sunsetrd", logger)

	startWindows := computeStartupWindows(cfg, resolver, clk.Now(), logger)
	startState := timestate.Compute(startWindows, clk.Now())
	initial := interp.Compute(startState, cfg)

	be, err := selectBackend(cfg, logger, pids, initial)
	if err != nil {
		return fmt.Errorf("select backend: %w", err)
	}
	defer be.Cleanup()
	defer pids.KillAll(sunsetrd.HelperShutdownGrace)

	if cfg.StartupTransition {
		logger.Info("running startup transition", zap.String("backend", be.Name()))
		animErr := animator.Run(clk, be, startWindows, startState, cfg, logger, func(pct float64) {
			fmt.Fprintf(os.Stderr, "\r%s", animator.ProgressBar(pct))
		})
		fmt.Fprintln(os.Stderr)
		if animErr != nil {
			logger.Warn("startup transition failed, continuing with direct apply", zap.Error(animErr))
		}
	}

	l := loop.New(clk, be, logger, listener, cfg, resolver)
	for {
		err := l.Run()
		if err == nil {
			logger.Info("shutting down")
			return nil
		}
		if !loop.IsReloadRequest(err) {
			return fmt.Errorf("control loop: %w", err)
		}

		reloaded, rerr := loader.Reload()
		if rerr != nil {
			logger.Error("reload failed, continuing with previous configuration", zap.Error(rerr))
			continue
		}
		l.Reload(reloaded)
	}
}

// computeStartupWindows derives the pre-loop windows used for the startup
// animator's captured target and the backend's initial-value spawn, mirroring
// Loop.refreshSolar: in geo mode with coordinates configured it computes the
// day's real solar geometry, falling back to FinishBy-shaped windows if that
// fails or the mode isn't geo, so geo-mode startups don't animate towards a
// value the control loop's first tick immediately overwrites.
func computeStartupWindows(cfg *config.Config, resolver *geo.TimezoneResolver, now time.Time, logger *zap.Logger) timestate.Windows {
	if cfg.TransitionMode != config.ModeGeo || cfg.Latitude == nil || cfg.Longitude == nil {
		return timestate.ComputeWindows(cfg, nil)
	}

	lookup := func(float64, float64) *time.Location { return nil }
	if resolver != nil {
		lookup = resolver.Lookup
	}
	result, err := solar.Calculate(*cfg.Latitude, *cfg.Longitude, now, lookup)
	if err != nil {
		logger.Warn("startup solar compute failed, using finish-by fallback windows", zap.Error(err))
		return timestate.ComputeWindows(cfg, nil)
	}
	return timestate.ComputeWindows(cfg, &result)
}

func selectBackend(cfg *config.Config, logger *zap.Logger, pids *procreg.Registry, initial interp.Values) (backend.Backend, error) {
	ctx := &backend.Context{
		Config:      cfg,
		Logger:      logger,
		Initial:     backend.InitialValues{Temperature: initial.Temperature, Gamma: initial.Gamma},
		PIDRegistry: pids,
	}

	if cfg.Backend != config.BackendAuto {
		return backend.Create(string(cfg.Backend), ctx)
	}

	order := []string{"gamma", "socket"}
	if c, err := lifecycle.Detect(); err == nil && c.Name == "hyprland" {
		order = []string{"socket", "gamma"}
	}

	var lastErr error
	for _, name := range order {
		be, err := backend.Create(name, ctx)
		if err == nil {
			logger.Info("selected backend", zap.String("backend", name))
			return be, nil
		}
		logger.Warn("backend unavailable, trying next", zap.String("backend", name), zap.Error(err))
		lastErr = err
	}
	return nil, fmt.Errorf("no backend available: %w", lastErr)
}

// signalRunning delivers a reload signal to a live instance. If none is
// running, it asks the detected compositor to spawn a fresh one through its
// own IPC instead of failing outright, per the reload/respawn contract.
func signalRunning(logger *zap.Logger) error {
	ok, err := lifecycle.SignalRunning()
	if err != nil {
		return fmt.Errorf("signal running instance: %w", err)
	}
	if ok {
		logger.Info("reload signal sent")
		return nil
	}

	compositor, derr := lifecycle.Detect()
	if derr != nil {
		return fmt.Errorf("no running instance found, and compositor detection failed: %w", derr)
	}
	exe, eerr := os.Executable()
	if eerr != nil {
		return fmt.Errorf("no running instance found, and could not resolve own binary path: %w", eerr)
	}
	if rerr := compositor.Respawn(exe); rerr != nil {
		return fmt.Errorf("no running instance found, and respawn via %s failed: %w", compositor.Name, rerr)
	}
	logger.Info("no running instance found, respawned through compositor", zap.String("compositor", compositor.Name))
	return nil
}

func sendTestMode(logger *zap.Logger, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("--test requires exactly two values: <temperature> <gamma>")
	}
	pid := lifecycle.RunningPID()
	if pid == 0 {
		return fmt.Errorf("no running instance found")
	}
	if err := ipc.WriteTestModeFile("sunsetrd", pid, args[0], args[1]); err != nil {
		return fmt.Errorf("write test-mode parameters: %w", err)
	}
	if err := ipc.SignalTestMode(pid); err != nil {
		return fmt.Errorf("signal test mode: %w", err)
	}
	logger.Info("test-mode values sent", zap.String("temperature", args[0]), zap.String("gamma", args[1]))
	return nil
}

func printGeo(logger *zap.Logger) error {
	loader, err := config.NewLoader(configPath, logger)
	if err != nil {
		return fmt.Errorf("resolve configuration: %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Latitude == nil || cfg.Longitude == nil {
		return fmt.Errorf("no latitude/longitude configured")
	}

	resolver, err := geo.NewTimezoneResolver()
	if err != nil {
		return fmt.Errorf("build timezone resolver: %w", err)
	}

	clk := clock.NewRealClock()
	result, err := solar.Calculate(*cfg.Latitude, *cfg.Longitude, clk.Now(), resolver.Lookup)
	if err != nil {
		return fmt.Errorf("compute solar geometry: %w", err)
	}

	fmt.Printf("sunrise: %s\n", result.Sunrise.Format("15:04:05 MST"))
	fmt.Printf("sunset:  %s\n", result.Sunset.Format("15:04:05 MST"))
	fmt.Printf("civil dawn/dusk: %s / %s\n", result.CivilDawn.Format("15:04:05"), result.CivilDusk.Format("15:04:05"))
	if result.UsedFallback {
		fmt.Printf("note: extreme-latitude fallback applied (%s)\n", result.FallbackDuration)
	}
	return nil
}

func asAlreadyRunning(err error, target **lifecycle.ErrAlreadyRunning) bool {
	already, ok := err.(*lifecycle.ErrAlreadyRunning)
	if !ok {
		return false
	}
	*target = already
	return true
}
