package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/drydeck/drydeck"
	addresscmd "github.com/drydeck/drydeck/internal/commands/addresses"
)

const usage = `usage: drydeck <command> [flags]

commands:
  serve                 run the HTTP admin API
  migrate up|down|status
  import <file.json>    load a {"addresses": [...]} document
`

var errUsage = errors.New("invalid arguments")

// moduleBuilder is swapped in tests.
var moduleBuilder = buildModule

type globalFlags struct {
	config string
	driver string
	dsn    string
}

func (g *globalFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&g.config, "config", os.Getenv("DRYDECK_CONFIG"), "Path to a YAML config file")
	fs.StringVar(&g.driver, "driver", "", "Storage driver override (memory, sqlite, postgres)")
	fs.StringVar(&g.dsn, "dsn", "", "Storage DSN override")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		log.Fatalf("drydeck: %v", err)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "serve":
		return runServe(ctx, args[1:])
	case "migrate":
		return runMigrate(ctx, args[1:], out)
	case "import":
		return runImport(ctx, args[1:], out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func buildModule(ctx context.Context, flags globalFlags, autoMigrate bool) (*drydeck.Module, error) {
	cfg, err := drydeck.LoadConfig(flags.config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if driver := strings.TrimSpace(flags.driver); driver != "" {
		cfg.Storage.Driver = driver
	}
	if dsn := strings.TrimSpace(flags.dsn); dsn != "" {
		cfg.Storage.DSN = dsn
	}
	cfg.Storage.AutoMigrate = cfg.Storage.AutoMigrate && autoMigrate

	module, err := drydeck.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialise module: %w", err)
	}
	return module, nil
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var flags globalFlags
	flags.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(ctx, flags, true)
	if err != nil {
		return err
	}
	defer module.Close()

	srv, err := module.Server()
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}
	return srv.Run(ctx)
}

func runMigrate(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	var flags globalFlags
	flags.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	action := "up"
	if fs.NArg() > 0 {
		action = fs.Arg(0)
	}

	module, err := moduleBuilder(ctx, flags, false)
	if err != nil {
		return err
	}
	defer module.Close()

	runner, err := module.Migrator()
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}

	switch action {
	case "up":
		applied, err := runner.Up(ctx)
		if err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		if len(applied) == 0 {
			fmt.Fprintln(out, "no pending migrations")
		}
		for _, migration := range applied {
			fmt.Fprintf(out, "applied %s\n", migration.ID())
		}
	case "down":
		reverted, err := runner.Down(ctx)
		if err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		fmt.Fprintf(out, "reverted %s\n", reverted.ID())
	case "status":
		statuses, err := runner.Status(ctx)
		if err != nil {
			return fmt.Errorf("migrate status: %w", err)
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MIGRATION\tSTATE\tAPPLIED AT")
		for _, status := range statuses {
			state, at := "pending", ""
			if status.Applied {
				state = "applied"
				at = status.AppliedAt.UTC().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", status.Migration.ID(), state, at)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("%w: unknown migrate action %q", errUsage, action)
	}
	return nil
}

func runImport(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	var flags globalFlags
	flags.register(fs)
	dryRun := fs.Bool("dry-run", false, "Validate entries without storing them")
	continueOnError := fs.Bool("continue", false, "Skip invalid or duplicate entries instead of stopping")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: import expects exactly one file", errUsage)
	}

	document, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	module, err := moduleBuilder(ctx, flags, true)
	if err != nil {
		return err
	}
	defer module.Close()

	report := &addresscmd.ImportReport{}
	cmd := addresscmd.ImportAddressesCommand{
		Document:        document,
		ContinueOnError: *continueOnError,
		DryRun:          *dryRun,
		Report:          report,
	}
	if err := module.Commands().Import.Execute(ctx, cmd); err != nil {
		return fmt.Errorf("execute import command: %w", err)
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
