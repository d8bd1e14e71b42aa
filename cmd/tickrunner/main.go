// Package main is the entry point for the TickRunner application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/pflag"

	"tickrunner/internal/config"
	"tickrunner/internal/logger"
	"tickrunner/internal/options"
	"tickrunner/internal/runner"
	"tickrunner/internal/service"
	"tickrunner/internal/services"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const startupErrorLogDir = "log/TickRunner"

// commandLine is the parsed global part of the command line.
type commandLine struct {
	configPath  string
	loggingPath string
	serviceName string
	showVersion bool
	list        bool
	serviceArgs []string
}

// parseCommandLine parses global flags. The global part ends at "--", at the
// first positional argument or at the first flag tickrunner does not define.
// The first positional argument names the service when --service is not
// given; everything after the global part belongs to the service.
func parseCommandLine(argv []string, stderr io.Writer) (*commandLine, error) {
	cl := &commandLine{}
	fs := pflag.NewFlagSet("tickrunner", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	fs.StringVar(&cl.configPath, "config", "conf/TickRunner/TickRunner.json", "Path to main configuration file")
	fs.StringVar(&cl.loggingPath, "logging", "conf/TickRunner/Logging.json", "Path to logging configuration file")
	fs.StringVarP(&cl.serviceName, "service", "s", "", "Service to run (defaults to Service in the config file)")
	fs.BoolVar(&cl.showVersion, "version", false, "Show version information")
	fs.BoolVar(&cl.list, "list", false, "List the available services and their options")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: tickrunner [flags] [service] [--] [service options]\n\n%s", fs.FlagUsages())
	}

	global, rest := splitGlobal(fs, argv)
	if err := fs.Parse(global); err != nil {
		return nil, err
	}

	if cl.serviceName == "" && len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
		cl.serviceName = rest[0]
		rest = rest[1:]
	}
	cl.serviceArgs = rest
	return cl, nil
}

// splitGlobal returns the leading arguments that are flags defined on fs
// (with their values), and everything after them. A "--" separator is
// dropped. -h and --help stay global.
func splitGlobal(fs *pflag.FlagSet, argv []string) (global, rest []string) {
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		if arg == "--" {
			return argv[:i], argv[i+1:]
		}
		if len(arg) < 2 || arg[0] != '-' {
			return argv[:i], argv[i:]
		}

		var flag *pflag.Flag
		inline := false
		if strings.HasPrefix(arg, "--") {
			name := arg[2:]
			if eq := strings.IndexByte(name, '='); eq >= 0 {
				name, inline = name[:eq], true
			}
			if name == "help" {
				continue
			}
			flag = fs.Lookup(name)
		} else {
			short := arg[1:]
			if short == "h" {
				continue
			}
			inline = len(short) > 1
			flag = fs.ShorthandLookup(short[:1])
		}

		if flag == nil {
			return argv[:i], argv[i:]
		}
		if !inline && flag.NoOptDefVal == "" {
			i++
		}
	}
	return argv, nil
}

func main() {
	cl, err := parseCommandLine(os.Args[1:], os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		os.Exit(2)
	}

	if cl.showVersion {
		fmt.Printf("TickRunner %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	// An absolute config path means the process was started by a service
	// manager; the base directory sits three levels above the config file.
	if filepath.IsAbs(cl.configPath) {
		basePath := filepath.Dir(filepath.Dir(filepath.Dir(cl.configPath)))
		if err := os.Chdir(basePath); err != nil {
			startupFailure(fmt.Errorf("failed to chdir to %s: %w", basePath, err))
		}
	}

	if service.NewService(nil).IsService() {
		logger.SetServiceMode(true)
	}

	cfg, lc, err := config.LoadSplit(cl.configPath, cl.loggingPath)
	if err != nil {
		startupFailure(err)
	}
	if err := logger.Init(*lc); err != nil {
		startupFailure(fmt.Errorf("failed to initialize logger: %w", err))
	}
	defer logger.Close()

	reg := runner.NewRegistry()
	if err := services.Register(reg, services.Deps{Config: cfg}); err != nil {
		startupFailure(err)
	}

	if cl.list {
		printServices(os.Stdout, reg)
		return
	}

	name := cl.serviceName
	if name == "" {
		name = cfg.Service
	}
	b, ok := reg.Get(name)
	if !ok {
		startupFailure(fmt.Errorf("unknown service %q (available: %s)", name, strings.Join(reg.Names(), ", ")))
	}

	args, err := options.Parse(b.Name(), b.Options(), cl.serviceArgs)
	if errors.Is(err, options.ErrHelp) {
		return
	}
	if err != nil {
		startupFailure(err)
	}

	log := logger.WithComponent("main")
	log.Info().
		Str("version", version).
		Str("config", cl.configPath).
		Str("logging", cl.loggingPath).
		Str("service", b.Name()).
		Strs("args", cl.serviceArgs).
		Msg("Starting TickRunner")

	host := service.NewService(func(ctx context.Context) error {
		return run(ctx, b, args, cl.loggingPath)
	})

	if err := host.Run(context.Background()); err != nil {
		log.Error().Err(err).Msg("Service exited with error")
		logger.Close()
		os.Exit(1)
	}

	log.Info().Msg("TickRunner stopped")
}

// startupFailure reports an error that happened before the service started
// and exits.
func startupFailure(err error) {
	service.ReportStartupError(err)
	service.WriteStartupErrorFile(startupErrorLogDir, err)
	fmt.Fprintf(os.Stderr, "TickRunner failed to start: %v\n", err)
	os.Exit(1)
}

// run starts the service and waits until it completes on its own or ctx is
// canceled, whichever comes first.
func run(ctx context.Context, b runner.Builder, args options.Args, loggingPath string) error {
	log := logger.WithComponent("main")

	stopWatcher := setupLoggingWatcher(loggingPath)
	defer stopWatcher()

	h, err := runner.Start(b, args)
	if err != nil {
		return err
	}
	log.Info().Str("run", h.RunID()).Msg("Service started")

	select {
	case <-h.Done():
		return awaitHandle(h.BlockUntilFinished)
	case <-ctx.Done():
		log.Info().Msg("Shutdown requested, terminating service")
		return awaitHandle(h.Terminate)
	}
}

// awaitHandle calls a consuming handle operation and turns a worker panic
// into an error.
func awaitHandle(op func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var wp *runner.WorkerPanic
			if e, ok := r.(error); ok && errors.As(e, &wp) {
				log := logger.WithComponent("main")
				log.Error().
					Str("stack", string(wp.Stack)).
					Msg("Service panicked")
				err = wp
				return
			}
			panic(r)
		}
	}()
	op()
	return nil
}

// setupLoggingWatcher reloads the logger when Logging.json changes. It
// returns a function that stops the watcher.
func setupLoggingWatcher(path string) func() {
	log := logger.WithComponent("main")
	var mu sync.Mutex

	w, err := config.NewLoggingWatcher(path, func(lc *logger.Config) {
		mu.Lock()
		defer mu.Unlock()
		if err := logger.Init(*lc); err != nil {
			log.Error().Err(err).Msg("Failed to apply logging configuration")
			return
		}
		reloaded := logger.WithComponent("main")
		reloaded.Info().Str("level", lc.Level).Msg("Logging configuration reloaded")
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create logging watcher, hot reload disabled")
		return func() {}
	}
	if err := w.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start logging watcher")
		_ = w.Stop()
		return func() {}
	}

	return func() {
		if err := w.Stop(); err != nil {
			log.Error().Err(err).Msg("Error stopping logging watcher")
		}
	}
}

func printServices(w io.Writer, reg *runner.Registry) {
	for _, name := range reg.Names() {
		b, _ := reg.Get(name)
		printServiceUsage(w, b)
		fmt.Fprintln(w)
	}
}

func printServiceUsage(w io.Writer, b runner.Builder) {
	fmt.Fprintf(w, "%s:\n", b.Name())
	fs, err := options.NewFlagSet(b.Name(), b.Options())
	if err != nil {
		fmt.Fprintf(w, "  invalid options: %v\n", err)
		return
	}
	fmt.Fprint(w, fs.FlagUsages())
}
