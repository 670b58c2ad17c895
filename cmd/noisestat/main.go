package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/workplace-hygiene/noiseexposure/internal/app"
	"github.com/workplace-hygiene/noiseexposure/internal/log"
	"github.com/workplace-hygiene/noiseexposure/internal/recompute"
	"github.com/workplace-hygiene/noiseexposure/pkg/config"
	"github.com/workplace-hygiene/noiseexposure/pkg/exposure"
	"github.com/workplace-hygiene/noiseexposure/pkg/responseformat"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run returns the process exit code so deferred flushes happen before exit.
func run(args []string, stdout io.Writer) int {
	flags := flag.NewFlagSet("noisestat", flag.ContinueOnError)
	cfgFile := flags.String("config", "", "Path to the configuration file (optional): noisestat.yaml or noisestat.toml")
	cfgBackend := flags.String("config-backend", "", "Configuration backend type: 'yaml' or 'toml'; inferred from the file extension when empty")
	input := flags.String("input", "", "Investigation snapshot JSON to compute; '-' reads standard input")
	save := flags.Bool("save", false, "Store the -input snapshot and record its statistics")
	investigation := flags.String("investigation", "", "ID of a stored investigation to compute")
	all := flags.Bool("all", false, "Recompute every stored investigation")
	format := flags.String("format", "table", "Output format: table, json or msgpack")
	serve := flags.Bool("serve", false, "Serve the REST API")
	debug := flags.Bool("debug", false, "Turn on debugging output")
	logFile := flags.String("log-file", "", "Also write JSON logs to this file, rotated at 100 MB")
	showVersion := flags.Bool("version", false, "Show version and exit")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintf(stdout, "noisestat %s\n", version)
		return 0
	}

	if err := log.InitWithFile(*debug, log.FileOptions{Path: *logFile, MaxSizeMB: 100, MaxBackups: 5}); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	cfgData, err := loadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		return 1
	}

	application := app.New(cfgData, log.GetSugaredLogger())
	ctx := context.Background()

	if *serve {
		if err := application.Run(ctx); err != nil {
			log.Errorf("Application error: %v", err)
			return 1
		}
		return 0
	}

	var results []recompute.Result
	switch {
	case *input != "":
		results, err = computeSnapshot(ctx, application, *input, *save)
	case *investigation != "" || *all:
		results, err = computeStored(ctx, application, *investigation, *all)
	default:
		fmt.Fprintln(os.Stderr, "Error: one of -input, -investigation, -all or -serve is required")
		flags.Usage()
		return 2
	}
	if err != nil {
		log.Errorf("%v", err)
		return 1
	}

	terminal := false
	if f, ok := stdout.(*os.File); ok {
		terminal = isTerminal(f)
	}

	out := bufio.NewWriter(stdout)
	defer out.Flush()
	if err := writeResults(out, *format, terminal, results); err != nil {
		log.Errorf("Failed to write results: %v", err)
		return 1
	}
	return 0
}

func loadConfig(cfgFile, cfgBackend string) (*config.ConfigData, error) {
	if cfgFile == "" {
		cfgData := &config.ConfigData{}
		cfgData.ApplyDefaults()
		return cfgData, nil
	}

	filename, _ := filepath.Abs(cfgFile)
	provider, err := config.NewProvider(filename, cfgBackend)
	if err != nil {
		return nil, err
	}
	defer provider.Close()

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}
	return cfgData, nil
}

func readSnapshot(path string) (*exposure.Investigation, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var inv exposure.Investigation
	if err := json.NewDecoder(r).Decode(&inv); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", path, err)
	}
	return &inv, nil
}

func computeSnapshot(ctx context.Context, a *app.App, path string, save bool) ([]recompute.Result, error) {
	inv, err := readSnapshot(path)
	if err != nil {
		return nil, err
	}

	if !save {
		return []recompute.Result{{
			InvestigationID: inv.ID,
			Statistics:      a.Calculator().ComputeAllStatistics(inv),
		}}, nil
	}

	s, err := a.OpenStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("-save needs storage: %w", err)
	}
	defer s.Close()

	if err := s.SaveInvestigation(ctx, inv); err != nil {
		return nil, err
	}
	res, err := recompute.New(s, a.Calculator(), 1, true, log.Named("recompute")).One(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	return []recompute.Result{res}, nil
}

func computeStored(ctx context.Context, a *app.App, id string, all bool) ([]recompute.Result, error) {
	s, err := a.OpenStore(ctx)
	if errors.Is(err, app.ErrNoStorage) {
		return nil, fmt.Errorf("-investigation and -all need a storage section in -config: %w", err)
	}
	if err != nil {
		return nil, err
	}
	defer s.Close()

	r := recompute.New(s, a.Calculator(), a.Workers(), true, log.Named("recompute"))
	if all {
		return r.All(ctx)
	}
	res, err := r.One(ctx, id)
	if err != nil {
		return nil, err
	}
	return []recompute.Result{res}, nil
}

func writeResults(w io.Writer, format string, terminal bool, results []recompute.Result) error {
	switch format {
	case "table":
		_, err := io.WriteString(w, renderResults(results, terminal))
		return err
	case "json":
		return responseformat.Encode(w, responseformat.FormatJSON, results)
	case "msgpack":
		return responseformat.Encode(w, responseformat.FormatMsgPack, results)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
