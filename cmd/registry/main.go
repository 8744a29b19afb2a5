// Command registry runs the credential registry service.
//
// The registry keeps an in-memory record per user name: a NaCl box public
// key, the most recently issued single-use nonce, and the last activity
// time. Clients register a name, then prove possession of their secret key
// by sealing messages against the server key under the current nonce.
// Records idle past the configured window are evicted in the background.
//
// # Configuration File
//
// Create a YAML file with registry settings:
//
//	http_addr: "127.0.0.1:7878"
//	metrics_addr: "127.0.0.1:9090"
//	pprof: false
//	drain_duration: 5s
//	graceful_shutdown_duration: 10s
//	read_timeout: 15s
//	write_timeout: 15s
//	log:
//	  json: false
//	  debug: false
//	registry:
//	  reap_interval: 30s
//	  idle_window: 15m
//
// # Endpoints
//
//   - POST /handshake - Register a name with a public key, returns the first nonce
//   - POST /decode - Decrypt a sealed message, returns plaintext and the next nonce
//   - GET /list - List registered users
//   - GET /public-key - Server box public key
//   - GET /livez, /readyz, /drain, /undrain - Health and load-balancer draining
//
// # Usage
//
//	go run ./cmd/registry --config=registry.yaml
//	go run ./cmd/registry --addr=127.0.0.1:7878 --metrics-addr=127.0.0.1:9090
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SchrodingerZhu/new-chat/api/httpserver"
	"github.com/SchrodingerZhu/new-chat/cmd/common"
	"github.com/SchrodingerZhu/new-chat/crypto"
	"github.com/SchrodingerZhu/new-chat/metrics"
	"github.com/SchrodingerZhu/new-chat/protocol"
	"github.com/SchrodingerZhu/new-chat/registry"
)

func main() {
	var (
		configPath   = flag.String("config", "", "Path to YAML config file")
		addr         = flag.String("addr", "", "HTTP listen address")
		metricsAddr  = flag.String("metrics-addr", "", "Metrics listen address (disabled if empty)")
		enablePprof  = flag.Bool("pprof", false, "Enable the pprof debug API")
		logJSON      = flag.Bool("log-json", false, "Log in JSON format")
		logDebug     = flag.Bool("log-debug", false, "Log debug messages")
		reapInterval = flag.Duration("reap-interval", 0, "Interval between idle-record sweeps")
		idleWindow   = flag.Duration("idle-window", 0, "Idle time before a record is evicted")
	)
	flag.Parse()

	cfg, err := loadConfiguration(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	applyFlagOverrides(cfg, *addr, *metricsAddr, *enablePprof, *logJSON, *logDebug,
		*reapInterval, *idleWindow)

	if err := run(cfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfiguration(configPath string) (*common.Config, error) {
	if configPath != "" {
		return common.LoadConfig(configPath)
	}
	return common.DefaultConfig(), nil
}

func applyFlagOverrides(cfg *common.Config, addr, metricsAddr string,
	enablePprof, logJSON, logDebug bool, reapInterval, idleWindow time.Duration) {

	if addr != "" {
		cfg.HTTPAddr = addr
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	if enablePprof {
		cfg.EnablePprof = true
	}
	if logJSON {
		cfg.Log.JSON = true
	}
	if logDebug {
		cfg.Log.Debug = true
	}
	if reapInterval != 0 {
		cfg.Registry.ReapInterval = common.Duration(reapInterval)
	}
	if idleWindow != 0 {
		cfg.Registry.IdleWindow = common.Duration(idleWindow)
	}
}

func run(cfg *common.Config) error {
	log := common.SetupLogger(cfg.Log)

	// The keypair is ephemeral; records only live as long as the process.
	keys, err := crypto.GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("generate server keypair: %w", err)
	}
	log.Info("Server keypair generated", "publicKey", keys.PublicKeyBase64())

	store := registry.NewStore()
	metrics.RegisterUsersGauge(func() float64 {
		return float64(store.Len())
	})

	handshake := protocol.NewHandshake(keys, store, log)

	reaper := registry.NewReaper(store, cfg.Registry.ReapInterval.Std(),
		cfg.Registry.IdleWindow.Std(), log)
	reaper.Start()

	srv, err := httpserver.New(&httpserver.HTTPServerConfig{
		ListenAddr:               cfg.HTTPAddr,
		MetricsAddr:              cfg.MetricsAddr,
		EnablePprof:              cfg.EnablePprof,
		Log:                      log,
		DrainDuration:            cfg.DrainDuration.Std(),
		GracefulShutdownDuration: cfg.GracefulShutdownDuration.Std(),
		ReadTimeout:              cfg.ReadTimeout.Std(),
		WriteTimeout:             cfg.WriteTimeout.Std(),
	}, httpserver.NewRegistryHandler(handshake))
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	srv.RunInBackground()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down registry")
	reaper.Stop()
	srv.Shutdown()
	return nil
}
