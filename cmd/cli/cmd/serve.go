package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/resopt/internal/storage"
	"github.com/resopt/internal/webui"
	"github.com/resopt/pkg/utils"
)

var (
	// Serve command flags
	dataDir string
	port    int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an HTTP server to view saved pass reports",
	Long: `Start the report API over a local output directory.

The serve command exposes the reports written by the remap command:
  - GET /api/report?jid=<uuid>          report summary
  - GET /api/report?jid=<uuid>&view=full raw pass report

Endpoints that need the job database return 503 in this mode.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	binName := BinName()
	serveCmd.Example = `  # Serve reports from the default output directory
  ` + binName + ` serve

  # Specify data directory and port
  ` + binName + ` serve -d ./my-output -p 9090`

	serveCmd.Flags().StringVarP(&dataDir, "data-dir", "d", "./output", "Data directory containing remap results")
	serveCmd.Flags().IntVarP(&port, "port", "p", 8080, "Port for report server")
}

func runServe(cmd *cobra.Command, args []string) error {
	return startServeMode(dataDir, port, GetLogger())
}

// startServeMode is shared between remap --serve and the serve command.
func startServeMode(dataDirectory string, serverPort int, log utils.Logger) error {
	if _, err := os.Stat(dataDirectory); os.IsNotExist(err) {
		return fmt.Errorf("data directory not found: %s", dataDirectory)
	}

	store, err := storage.NewLocalStorage(dataDirectory)
	if err != nil {
		return err
	}

	server := webui.NewServer(nil, store, serverPort, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
		os.Exit(0)
	}()

	log.Info("")
	log.Info("Report server listening on http://localhost:%d", serverPort)
	log.Info("Data directory: %s", dataDirectory)
	log.Info("Press Ctrl+C to stop")
	log.Info("")

	if err := server.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
