package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/NHSDigital/national-document-repository-go/internal/app"
	"github.com/NHSDigital/national-document-repository-go/internal/config"
	"github.com/NHSDigital/national-document-repository-go/pkg/ndr"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize repository client: %v", err)
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

	impl := &mcp.Implementation{
		Name:    "national-document-repository",
		Version: "1.0.0",
	}

	server := mcp.NewServer(impl, nil)

	registerTools(server, a.Client)

	// stdout carries the protocol, so logs go to stderr
	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		a.Logger.Error("Server stopped", "error", err)
	}
}

func registerTools(server *mcp.Server, client *ndr.Client) {
	tools := &repositoryTools{client: client}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_patient",
		Description: "Look up a patient's demographics by NHS number. Returns name, date of birth, postcode, registered GP practice and record status flags.",
	}, tools.SearchPatient)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the documents stored for a patient, with file name, upload date, size and virus scan result.",
	}, tools.ListDocuments)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_lloyd_george_record",
		Description: "Get the patient's stitched Lloyd George record: number of files, total size, last updated time and a temporary download URL.",
	}, tools.GetLloydGeorgeRecord)
}
