// Command remotejobs fetches the RemoteOK job board, filters it, and either
// prints, exports or serves the result to a local dashboard.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"remotejobs-engine/internal/config"
	"remotejobs-engine/internal/logging"
)

const cmdName = "remotejobs"

type app struct {
	cmd *cobra.Command

	cfgFlag   string
	verbosity int
	jsonLogs  bool

	cfgPath string
	cfg     config.Config
}

func newApp() *app {
	a := &app{}

	a.cmd = &cobra.Command{
		Use:           cmdName,
		Short:         "Browse remote job listings from RemoteOK",
		Long:          "Fetch RemoteOK listings, narrow them with filters, and print, export or serve them.",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Flags parsed; errors from here on are not usage errors.
			cmd.SilenceUsage = true
			logging.Setup(a.verbosity, a.jsonLogs)
			return a.loadConfig()
		},
	}
	a.cmd.CompletionOptions.HiddenDefaultCmd = true

	pf := a.cmd.PersistentFlags()
	pf.StringVarP(&a.cfgFlag, "config", "c", "", fmt.Sprintf("path to the config file (default $%s/%s)", config.EnvDataDir, config.FileName))
	pf.CountVarP(&a.verbosity, "verbose", "v", "issue INFO (-v), DEBUG (-vv)")
	pf.BoolVar(&a.jsonLogs, "json-logs", false, "write logs as JSON")
	if err := a.cmd.MarkPersistentFlagFilename("config", "yml", "yaml"); err != nil {
		panic(fmt.Sprintf("failed to mark config flag as filename: %v", err))
	}

	a.cmd.AddCommand(a.serveCmd(), a.fetchCmd(), a.exportCmd())
	return a
}

// loadConfig bootstraps and loads the config file, then applies its logging
// section on top of the command line.
func (a *app) loadConfig() error {
	a.cfgPath = config.ResolvePath(a.cfgFlag)
	if _, err := config.EnsureUserConfig(a.cfgPath); err != nil {
		return fmt.Errorf("config bootstrap failed: %w", err)
	}

	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	cfg, vr := config.NormalizeAndValidate(cfg)
	if err := vr.Err(); err != nil {
		return fmt.Errorf("%s: %w", a.cfgPath, err)
	}
	for _, w := range vr.Warnings {
		slog.Warn("config", "path", a.cfgPath, "warning", w)
	}
	a.cfg = cfg

	logging.Setup(max(a.verbosity, cfg.Logging.Verbosity), a.jsonLogs || cfg.Logging.JSON)
	slog.Debug("loaded config", "path", a.cfgPath)
	return nil
}

func main() {
	a := newApp()
	if err := a.cmd.Execute(); err != nil {
		slog.Error(err.Error())
		if !a.cmd.SilenceUsage {
			_ = a.cmd.Usage()
		}
		os.Exit(1)
	}
}
