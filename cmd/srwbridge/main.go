// Command srwbridge interactively discovers the tunable parameters of
// a stored Sirepo SRW simulation and wires up a detector against it.
package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"srwbridge/internal/config"
	"srwbridge/internal/discover"
	"srwbridge/internal/registry"
	"srwbridge/internal/registry/sqlite"
	"srwbridge/internal/sirepo"
)

var (
	flagConfig  string
	flagServer  string
	flagDB      string
	flagDryRun  bool
	flagTrigger bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "srwbridge",
	Short: "Discover tunable Sirepo SRW parameters and build a detector",
	Long: "srwbridge authenticates against a stored Sirepo simulation, lists every " +
		"beamline element with its tunable parameters and watch-points, then prompts " +
		"for the pieces of a detector: one element, one or two parameters, and a watch-point.",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "path to config file (default: search standard locations)")
	rootCmd.Flags().StringVar(&flagServer, "server", "", "Sirepo server address (overrides config)")
	rootCmd.Flags().StringVar(&flagDB, "db", "", "registry database path (overrides config)")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "use an in-memory registry, persist nothing")
	rootCmd.Flags().BoolVar(&flagTrigger, "trigger", false, "run one acquisition after construction and print the readings")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
}

func run(cmd *cobra.Command, args []string) error {
	if flagVerbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	if path != "" {
		logrus.WithField("path", path).Debug("loaded config")
	}
	if flagServer != "" {
		cfg.Server = flagServer
	}
	if flagDB != "" {
		cfg.Database.Path = flagDB
	}

	reg, closeReg, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer closeReg()

	jar, _ := cookiejar.New(nil)
	client := sirepo.New(cfg.Server,
		sirepo.WithHTTPClient(&http.Client{Timeout: cfg.EffectiveHTTPTimeout(), Jar: jar}),
		sirepo.WithPollInterval(cfg.EffectivePollInterval()),
	)

	session := &discover.Session{
		In:        os.Stdin,
		Out:       os.Stdout,
		Client:    client,
		Registry:  reg,
		SimType:   cfg.SimType,
		Server:    cfg.Server,
		DataRoot:  cfg.DataRoot,
		UnitScale: cfg.UnitScale,
	}

	det, err := session.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("\nDetector %s constructed.\n", det.Name())
	fmt.Println("Fields:")
	for name, desc := range det.Describe() {
		suffix := ""
		if desc.External != "" {
			suffix = " (external: " + desc.External + ")"
		}
		fmt.Printf("  %-32s %s%s\n", name, desc.Dtype, suffix)
	}

	if flagTrigger {
		if _, err := det.Trigger(); err != nil {
			return fmt.Errorf("trigger: %w", err)
		}
		fmt.Println("\nReadings:")
		for name, r := range det.Read() {
			fmt.Printf("  %-32s %v\n", name, r.Value)
		}
	}

	return nil
}

func loadConfig() (*config.Config, string, error) {
	if flagConfig != "" {
		return config.LoadFromPath(flagConfig)
	}
	return config.Load()
}

func openRegistry(cfg *config.Config) (registry.Registry, func(), error) {
	if flagDryRun {
		return registry.NewMemory(), func() {}, nil
	}
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open registry database: %w", err)
	}
	logrus.WithField("path", cfg.Database.Path).Debug("registry database opened")
	return store, func() { store.Close() }, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}
