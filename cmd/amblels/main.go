package main

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"

	"amblels/internal/analysis"
	"amblels/internal/config"
	"amblels/internal/lsp"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"go.lsp.dev/uri"
)

var version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "amblels",
		Short: "Language server for Amble world files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the language server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	var recursive bool
	check := &cobra.Command{
		Use:   "check <dir>",
		Short: "Scan a directory of world files and print diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(args[0], recursive)
		},
	}
	check.Flags().BoolVarP(&recursive, "recursive", "r", false, "scan subdirectories too")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("amblels", version)
		},
	}

	root.AddCommand(serve, check, versionCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe() error {
	commonlog.Configure(1, nil)

	cfg := config.Default()
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	logFile, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	stdlog.SetOutput(io.MultiWriter(os.Stderr, logFile))
	stdlog.SetFlags(stdlog.Ldate | stdlog.Ltime | stdlog.Lmicroseconds | stdlog.Lshortfile)
	stdlog.Println("Starting amblels language server...")

	server, err := lsp.NewServer()
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	return server.RunStdio()
}

// runCheck does one batch scan and prints every diagnostic, grouped by
// file. Exits nonzero when any error-severity diagnostic exists.
func runCheck(dir string, recursive bool) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	cfg, err := config.Load(abs)
	if err != nil {
		return err
	}
	cfg.Scan.Recursive = cfg.Scan.Recursive || recursive

	ws := analysis.NewWorkspace(cfg)
	ws.ScanDirectory(abs)

	var errors int
	for _, docURI := range ws.Documents() {
		diags := ws.Diagnostics(docURI)
		if len(diags) == 0 {
			continue
		}
		fmt.Println(displayPath(docURI))
		for _, d := range diags {
			if d.Severity != nil && *d.Severity == protocol.DiagnosticSeverityError {
				errors++
			}
			fmt.Printf("  %d:%d %s %s\n",
				d.Range.Start.Line+1, d.Range.Start.Character+1,
				severityLabel(d.Severity), d.Message)
		}
	}

	if errors > 0 {
		return fmt.Errorf("%d error(s)", errors)
	}
	return nil
}

func displayPath(raw string) string {
	if parsed, err := uri.Parse(raw); err == nil {
		return parsed.Filename()
	}
	return raw
}

func severityLabel(s *protocol.DiagnosticSeverity) string {
	if s == nil {
		return "info"
	}
	switch *s {
	case protocol.DiagnosticSeverityError:
		return "error"
	case protocol.DiagnosticSeverityWarning:
		return "warning"
	case protocol.DiagnosticSeverityHint:
		return "hint"
	}
	return "info"
}
