package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"gpt2webui/internal/app"
	"gpt2webui/internal/config"
	"gpt2webui/internal/ledger"
	"gpt2webui/internal/util"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		die(err.Error())
	}
}

type cli struct {
	configFile string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "gpt2webui",
		Short: "Convert a ChatGPT export into an Open WebUI chat import file",
		Long: `gpt2webui reads a ChatGPT conversations export (conversations.json, the
export zip, or its extracted directory) and writes the chats as an Open WebUI
import file. Conversations recorded in the import ledger are skipped, so the
same export can be converted again without duplicates.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		RunE:              c.runConvert,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configFile, "config", "", "config file (yaml, json or toml)")
	pf.StringSlice("input", nil, "ChatGPT export: conversations.json, export zip or directory (repeatable)")
	pf.String("output", "", "Open WebUI import file to write")
	pf.String("ledger", "", "import ledger location")
	pf.String("ledger-driver", "", "import ledger backend: json|sqlite")
	pf.String("model", "", "model name stamped on converted messages")
	pf.String("user-id", "", "Open WebUI user id (generated when empty)")
	pf.Bool("strict", false, "abort on the first malformed message instead of skipping it")
	pf.String("log-level", "", "log level: debug|info|warn|error")
	pf.String("log-format", "", "log format: text|json")

	root.AddCommand(
		&cobra.Command{
			Use:   "convert",
			Short: "Convert the export and record converted conversations in the ledger",
			Args:  cobra.NoArgs,
			RunE:  c.runConvert,
		},
		&cobra.Command{
			Use:   "inspect",
			Short: "Summarize the export and its ledger state without converting",
			Args:  cobra.NoArgs,
			RunE:  c.runInspect,
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Dry-run the conversion and check every produced chat",
			Args:  cobra.NoArgs,
			RunE:  c.runValidate,
		},
		newLedgerCmd(c),
	)
	return root
}

func newLedgerCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Work with the import ledger",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every recorded conversation",
		Args:  cobra.NoArgs,
		RunE:  c.runLedgerList,
	})
	return cmd
}

var flagKeys = map[string]string{
	"input":         config.KeyInput,
	"output":        config.KeyOutput,
	"ledger":        config.KeyLedgerPath,
	"ledger-driver": config.KeyLedgerDriver,
	"model":         config.KeyModel,
	"user-id":       config.KeyUserID,
	"strict":        config.KeyStrict,
	"log-level":     config.KeyLogLevel,
	"log-format":    config.KeyLogFormat,
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	v, err := config.New(c.configFile)
	if err != nil {
		return err
	}
	pf := cmd.Root().PersistentFlags()
	for flagName, key := range flagKeys {
		if err := v.BindPFlag(key, pf.Lookup(flagName)); err != nil {
			return errors.Wrapf(err, "bind --%s", flagName)
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	c.cfg = cfg
	setupLogging(cfg.LogLevel, cfg.LogFormat)
	return nil
}

func (c *cli) openLedger() (ledger.Ledger, error) {
	return ledger.Open(ledger.Options{
		Driver: c.cfg.LedgerDriver,
		Path:   c.cfg.LedgerPath,
		Logger: slog.Default(),
	})
}

func (c *cli) convertOptions(l ledger.Ledger) app.ConvertOptions {
	return app.ConvertOptions{
		InputPaths: c.cfg.Inputs,
		OutputPath: c.cfg.Output,
		Ledger:     l,
		UserID:     c.cfg.UserID,
		Model:      c.cfg.Model,
		Strict:     c.cfg.Strict,
		Logger:     slog.Default(),
	}
}

func (c *cli) runConvert(_ *cobra.Command, _ []string) error {
	l, err := c.openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	report, err := app.Convert(c.convertOptions(l))
	if errors.Is(err, app.ErrInputNotFound) {
		slog.Error("input file not found", "error", err)
		return nil
	}
	if err != nil {
		return err
	}
	printJSON(map[string]any{
		"ok":     true,
		"output": c.cfg.Output,
		"report": report,
	})
	return nil
}

func (c *cli) runInspect(_ *cobra.Command, _ []string) error {
	l, err := c.openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	res, err := app.Inspect(c.cfg.Inputs, l)
	if errors.Is(err, app.ErrInputNotFound) {
		slog.Error("input file not found", "error", err)
		return nil
	}
	if err != nil {
		return err
	}
	printJSON(res)
	return nil
}

func (c *cli) runValidate(_ *cobra.Command, _ []string) error {
	l, err := c.openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	res, err := app.Validate(c.convertOptions(l))
	if errors.Is(err, app.ErrInputNotFound) {
		slog.Error("input file not found", "error", err)
		return nil
	}
	if err != nil {
		return err
	}
	printJSON(res)
	if !res.Valid {
		return errors.New("validation failed")
	}
	return nil
}

func (c *cli) runLedgerList(_ *cobra.Command, _ []string) error {
	l, err := c.openLedger()
	if err != nil {
		return err
	}
	defer l.Close()
	printJSON(map[string]any{
		"path":    l.Path(),
		"entries": l.Load(),
	})
	return nil
}

func setupLogging(level, format string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func printJSON(v any) {
	fmt.Println(util.PrettyJSON(v))
}

func die(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
