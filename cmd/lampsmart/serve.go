package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/lampsmart/internal/config"
	"github.com/muurk/lampsmart/internal/logging"
	"github.com/muurk/lampsmart/internal/server"
	"github.com/muurk/lampsmart/internal/ui"
)

// envPrefix is the prefix for every bridge environment variable.
const envPrefix = "LAMPSMART"

// serveEnv holds bridge settings read from LAMPSMART_* variables. Flags
// override them.
type serveEnv struct {
	Host            string        `envconfig:"HOST" default:""`
	Port            int           `envconfig:"PORT" default:"8750"`
	TLSCert         string        `envconfig:"TLS_CERT"`
	TLSKey          string        `envconfig:"TLS_KEY"`
	Announce        bool          `envconfig:"ANNOUNCE" default:"true"`
	Instance        string        `envconfig:"INSTANCE"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Serve command flags
var (
	serveEnvFile  string
	serveHost     string
	servePort     int
	serveCert     string
	serveKey      string
	serveAnnounce bool
	serveInstance string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP bridge",
	Long: `Run an HTTP bridge that owns the local radio and exposes the configured
devices over a JSON API, with a WebSocket stream of every transmission and
Prometheus metrics at /metrics.

Settings come from LAMPSMART_* environment variables, optionally loaded from a
.env file, and are overridden by flags:

  LAMPSMART_HOST              Listen address (default all interfaces)
  LAMPSMART_PORT              Listen port (default 8750)
  LAMPSMART_TLS_CERT          TLS certificate file
  LAMPSMART_TLS_KEY           TLS private key file
  LAMPSMART_ANNOUNCE          Announce over mDNS (default true)
  LAMPSMART_INSTANCE          mDNS instance name (default hostname)
  LAMPSMART_SHUTDOWN_TIMEOUT  Graceful shutdown limit (default 10s)

Other machines reach the bridge with --bridge URL, or --bridge auto to find
it over mDNS.`,
	Example: `  lampsmart serve
  lampsmart serve --port 9000 --announce=false
  lampsmart serve --env-file /etc/lampsmart.env --dry-run`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&serveEnvFile, "env-file", ".env", "Environment file to load")
	f.StringVar(&serveHost, "host", "", "Listen address")
	f.IntVar(&servePort, "port", 0, "Listen port")
	f.StringVar(&serveCert, "cert", "", "TLS certificate file")
	f.StringVar(&serveKey, "key", "", "TLS private key file")
	f.BoolVar(&serveAnnounce, "announce", true, "Announce the bridge over mDNS")
	f.StringVar(&serveInstance, "instance", "", "mDNS instance name")
}

// loadServeConfig builds the server configuration from the environment,
// an optional env file and the flags that were set explicitly.
func loadServeConfig(cmd *cobra.Command) (*server.Config, error) {
	if err := loadEnvFile(serveEnvFile, cmd.Flags().Changed("env-file")); err != nil {
		return nil, err
	}

	var env serveEnv
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	cfg := &server.Config{
		Host:            env.Host,
		Port:            env.Port,
		CertPath:        env.TLSCert,
		KeyPath:         env.TLSKey,
		Announce:        env.Announce,
		Instance:        env.Instance,
		ShutdownTimeout: env.ShutdownTimeout,
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = serveHost
	}
	if flags.Changed("port") {
		cfg.Port = servePort
	}
	if flags.Changed("cert") {
		cfg.CertPath = serveCert
	}
	if flags.Changed("key") {
		cfg.KeyPath = serveKey
	}
	if flags.Changed("announce") {
		cfg.Announce = serveAnnounce
	}
	if flags.Changed("instance") {
		cfg.Instance = serveInstance
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if (cfg.CertPath == "") != (cfg.KeyPath == "") {
		return nil, fmt.Errorf("both a TLS certificate and key must be provided, or neither")
	}
	return cfg, nil
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is only an error when it was named
// explicitly.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		logging.Debug("Loaded environment file", zap.String("path", path))
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

func runServe(cmd *cobra.Command, args []string) error {
	if bridgeURL != "" {
		return fmt.Errorf("serve drives the local radio and cannot be combined with --bridge")
	}

	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	adv, source, err := openAdvertiser(reg)
	if err != nil {
		return withHints(err, ui.RadioTroubleshooting())
	}
	sess, err := newLocalSession(reg, adv, source)
	if err != nil {
		return err
	}
	defer sess.Close()

	srv, err := server.New(cfg, sess.fleet, sess.tx)
	if err != nil {
		return err
	}

	path, _ := config.GetConfigPath()
	params := []ui.Detail{
		{Key: "Listen", Value: fmt.Sprintf("%s:%s", displayHost(cfg.Host), strconv.Itoa(cfg.Port))},
		{Key: "Radio", Value: source},
		{Key: "Devices", Value: strconv.Itoa(len(sess.fleet.Names()))},
		{Key: "Config", Value: path},
		{Key: "TLS", Value: onOff(cfg.CertPath != "")},
		{Key: "mDNS", Value: onOff(cfg.Announce)},
	}
	ui.NewPrinter(cmd.OutOrStdout()).PrintHeader("LampSmart Bridge", "serve", params)

	logging.Info("Bridge configured",
		zap.Strings("devices", sess.fleet.Names()),
		zap.String("radio", source),
	)
	sess.fleet.DumpConfig()
	return srv.Start(cmd.Context())
}

func displayHost(h string) string {
	if h == "" {
		return "*"
	}
	return h
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
