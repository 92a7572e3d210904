package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/NHSDigital/national-document-repository-go/internal/app"
	"github.com/NHSDigital/national-document-repository-go/internal/config"
	"github.com/NHSDigital/national-document-repository-go/pkg/ndr"
)

const usage = `Usage: ndr [-env file] <command> [arguments]

Commands:
  search-patient <nhs-number>    Look up patient demographics
  list-documents <nhs-number>    List stored documents
  lloyd-george <nhs-number>      Get the stitched Lloyd George record
  feature-flags                  List feature flags
`

func main() {
	os.Exit(execute())
}

// execute runs the CLI and returns the process exit code
func execute() int {
	envFile := flag.String("env", "", "Path to a .env file (default: ./.env when present)")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return 2
	}

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Printf("Failed to create client: %v", err)
		return 1
	}
	defer a.Close()

	if cfg.MetricsAddr != "" {
		srv := a.MetricsServer(cfg.MetricsAddr)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.Logger.Error("Metrics server failed", "error", err)
			}
		}()
		defer srv.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, a.Client, flag.Args(), os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			return 2
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if ndr.IsAuthError(err) {
			fmt.Fprintln(os.Stderr, "The session could not be refreshed; log in again.")
		}
		return 1
	}

	return 0
}

var errUsage = errors.New("usage")

// run executes one command and writes its result to out as JSON
func run(ctx context.Context, client *ndr.Client, args []string, out io.Writer) error {
	command, rest := args[0], args[1:]

	var result interface{}
	var err error

	switch command {
	case "search-patient":
		if len(rest) != 1 {
			return errUsage
		}
		result, err = client.Patients.Search(ctx, rest[0])
	case "list-documents":
		if len(rest) != 1 {
			return errUsage
		}
		result, err = client.Documents.Search(ctx, rest[0])
	case "lloyd-george":
		if len(rest) != 1 {
			return errUsage
		}
		result, err = client.LloydGeorge.Stitch(ctx, rest[0])
	case "feature-flags":
		result, err = client.FeatureFlags.List(ctx)
	default:
		return errUsage
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
