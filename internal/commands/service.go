package commands

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/StrategicUser/smcroute/internal/api"
	"github.com/StrategicUser/smcroute/internal/config"
	"github.com/StrategicUser/smcroute/internal/errs"
	"github.com/StrategicUser/smcroute/internal/iface"
	"github.com/StrategicUser/smcroute/internal/log"
	"github.com/StrategicUser/smcroute/internal/mroute"
)

func CreateServiceCommand() *ServiceCommand {
	sc := &ServiceCommand{
		fs:               flag.NewFlagSet("service", flag.ExitOnError),
		snapshotter:      iface.NetlinkSnapshotter{},
		openKernelSocket: mroute.NewKernelSocket,
	}
	return sc
}

type ServiceCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext
	cfg *config.Config

	state *api.State

	// OS access points, swappable in tests
	snapshotter      iface.Snapshotter
	openKernelSocket func(enableIPv6 bool) (mroute.KernelSocket, error)

	// Runner for crash isolation
	apiRunner *RestartableRunner
	apiServer *api.Server
}

func (s *ServiceCommand) Name() string {
	return s.fs.Name()
}

func (s *ServiceCommand) Init(args []string, ctx *AppContext) error {
	s.ctx = ctx

	if err := s.fs.Parse(args); err != nil {
		return err
	}

	if cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath); err != nil {
		return err
	} else {
		s.cfg = cfg
	}

	return nil
}

func (s *ServiceCommand) Run() error {
	log.Infof("Starting smcroute service...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGUSR1)

	s.state = &api.State{DumpFormat: s.cfg.General.DumpFormat}
	if err := s.startRouting(); err != nil {
		return err
	}

	if s.cfg.General.APIListen != "" {
		if err := s.startAPIServer(ctx, s.cfg.General.APIListen); err != nil {
			log.Errorf("Failed to start API server: %v", err)
			log.Warnf("Status API will not be available")
		}
	} else {
		log.Infof("Status API is disabled")
	}

	refresh := s.refreshTicker()
	defer refresh.Stop()

	log.Infof("Service started successfully.")
	log.Infof("Send SIGHUP to reload configuration, SIGUSR1 to refresh interfaces")

	for {
		select {
		case <-refresh.C:
			if err := s.refreshInterfaces(); err != nil {
				s.shutdown()
				return err
			}

		case sig := <-sigChan:
			switch sig {
			case syscall.SIGHUP:
				log.Infof("Received SIGHUP signal, reloading configuration...")
				if err := s.reload(); err != nil {
					// A failure before teardown (bad config file) keeps the
					// old routing state running. Once the old state is gone
					// and it cannot be rebuilt, the daemon must not keep
					// running with no kernel forwarding state.
					if !s.hasRouting() {
						log.Errorf("Reload failed after routing teardown: %v", err)
						s.shutdown()
						return err
					}
					log.Errorf("Failed to reload configuration: %v", err)
				} else {
					log.Infof("Configuration reloaded successfully")
				}

			case syscall.SIGUSR1:
				log.Infof("Received SIGUSR1 signal, refreshing interfaces...")
				if err := s.refreshInterfaces(); err != nil {
					s.shutdown()
					return err
				}

			case syscall.SIGINT, syscall.SIGTERM:
				log.Infof("Received signal %v, shutting down...", sig)
				s.shutdown()
				return nil
			}
		}
	}
}

// startRouting discovers interfaces, opens the kernel routing socket and
// installs everything the configuration asks for.
func (s *ServiceCommand) startRouting() error {
	tbl := iface.NewTable(s.snapshotter)
	if err := tbl.Init(); err != nil {
		return err
	}
	log.Infof("Discovered %d interface(s)", tbl.Len())

	sock, err := s.openKernelSocket(s.cfg.General.EnableIPv6)
	if err != nil {
		return errs.NewKernelError("failed to open multicast routing socket", err)
	}

	mgr := mroute.NewManager(tbl, sock, s.cfg.General.EnableIPv6)

	s.state.Mu.Lock()
	s.state.Table = tbl
	s.state.Manager = mgr
	s.state.Mu.Unlock()

	s.applyConfig()
	return nil
}

func (s *ServiceCommand) applyConfig() {
	s.state.Mu.Lock()
	defer s.state.Mu.Unlock()

	s.state.Manager.ApplyInterfaces(s.cfg)
	s.state.Manager.ApplyRoutes(s.cfg)
}

// refreshInterfaces re-scans addresses on known interfaces and re-applies
// the configuration when something gained an address. A failed snapshot is
// unrecoverable: the table contents are undefined afterwards.
func (s *ServiceCommand) refreshInterfaces() error {
	s.state.Mu.Lock()
	changed, err := s.state.Table.Refresh()
	s.state.Mu.Unlock()

	if err != nil {
		if errs.IsUnrecoverable(err) {
			return err
		}
		log.Errorf("Interface refresh failed: %v", err)
		return nil
	}

	if changed {
		log.Infof("Interface addresses changed, re-applying configuration")
		s.applyConfig()
	}
	return nil
}

// reload replaces the running configuration. Kernel state from the old
// configuration is torn down first so removed routes do not linger; the
// manager is detached before Close so a failed restart never leaves a
// closed manager reachable through the state.
func (s *ServiceCommand) reload() error {
	cfg, err := loadAndValidateConfigOrFail(s.ctx.ConfigPath)
	if err != nil {
		return err
	}

	s.state.Mu.Lock()
	mgr := s.state.Manager
	s.state.Manager = nil
	s.state.Mu.Unlock()

	if mgr != nil {
		if err := mgr.Close(); err != nil {
			log.Errorf("Failed to tear down previous routing state: %v", err)
		}
	}

	s.cfg = cfg
	s.state.Mu.Lock()
	s.state.DumpFormat = cfg.General.DumpFormat
	s.state.Mu.Unlock()

	return s.startRouting()
}

// hasRouting reports whether a live forwarding manager is attached.
func (s *ServiceCommand) hasRouting() bool {
	s.state.Mu.Lock()
	defer s.state.Mu.Unlock()
	return s.state.Manager != nil
}

func (s *ServiceCommand) refreshTicker() *time.Ticker {
	interval := s.cfg.General.RefreshIntervalSeconds
	if interval <= 0 {
		// Refresh disabled. Keep a ticker so the select loop stays
		// uniform, but make it effectively silent.
		interval = int((24 * time.Hour).Seconds())
	}
	return time.NewTicker(time.Duration(interval) * time.Second)
}

// startAPIServer starts the HTTP status API server in a separate goroutine.
func (s *ServiceCommand) startAPIServer(ctx context.Context, bindAddr string) error {
	log.Infof("Starting status API server on %s", bindAddr)

	s.apiServer = api.NewServer(bindAddr, s.state)

	s.apiRunner = NewRestartableRunner(RunnerConfig{
		Name:           "API server",
		MaxRestarts:    0, // Unlimited restarts
		RestartBackoff: 2 * time.Second,
		MaxBackoff:     30 * time.Second,
	}, func(runCtx context.Context) error {
		return s.apiServer.Start(runCtx)
	})

	return s.apiRunner.Start(ctx)
}

// shutdown performs graceful shutdown of all components.
func (s *ServiceCommand) shutdown() {
	log.Infof("Shutting down smcroute service...")

	if s.apiRunner != nil {
		if err := s.apiRunner.Stop(); err != nil {
			log.Errorf("Error during API server shutdown: %v", err)
		}
	}

	s.state.Mu.Lock()
	mgr := s.state.Manager
	s.state.Manager = nil
	s.state.Mu.Unlock()

	if mgr != nil {
		if err := mgr.Close(); err != nil {
			log.Errorf("Failed to tear down routing state: %v", err)
		}
	}

	log.Infof("Service stopped successfully")
}
