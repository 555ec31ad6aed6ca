// Package main is the entry point for the quill expression engine CLI.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quillmath/quill/pkg/api"
	"github.com/quillmath/quill/pkg/runtime"
	"github.com/quillmath/quill/pkg/types"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Symbolic and numeric expression engine",
}

var evalCmd = &cobra.Command{
	Use:   "eval <expression>",
	Short: "Evaluate one expression and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine(cmd)
		if err != nil {
			return err
		}
		t, err := engine.Evaluate(strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.String())
		return nil
	},
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine(cmd)
		if err != nil {
			return err
		}
		return startREPL(engine, cmd.OutOrStdout())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the engine over HTTP",
	RunE:  serve,
}

func init() {
	rootCmd.Version = version + " (commit=" + commit + ", built=" + date + ")"
	rootCmd.SetVersionTemplate("quill version {{.Version}}\n")

	rootCmd.PersistentFlags().Int("precision", 0, "Decimal places used for division and display (default 10)")
	rootCmd.PersistentFlags().Bool("degrees", false, "Interpret trigonometric input in degrees")
	rootCmd.PersistentFlags().String("session", "", "Session YAML file to load (precision, angle mode, functions)")

	serveCmd.Flags().Int("port", 0, "HTTP server port (default 8787, env PORT)")
	serveCmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")

	rootCmd.AddCommand(evalCmd, replCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newEngine builds an engine from the persistent flags and an optional
// session file.
func newEngine(cmd *cobra.Command) (*runtime.Engine, error) {
	cfg := types.DefaultConfig()
	if v, _ := cmd.Flags().GetInt("precision"); v > 0 {
		cfg.Precision = v
	}
	if v, _ := cmd.Flags().GetBool("degrees"); v {
		cfg.Angle = types.Degrees
	}
	engine := runtime.NewEngine(cfg)

	if path, _ := cmd.Flags().GetString("session"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening session: %w", err)
		}
		defer f.Close()
		session, err := runtime.LoadSession(f)
		if err != nil {
			return nil, err
		}
		if err := session.Apply(engine); err != nil {
			return nil, err
		}
	}
	return engine, nil
}

func serve(cmd *cobra.Command, args []string) error {
	engine, err := newEngine(cmd)
	if err != nil {
		return err
	}

	port := envOrDefault("PORT", "8787")
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		port = fmt.Sprintf("%d", v)
	}
	host := envOrDefault("HOST", "0.0.0.0")
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		host = v
	}
	addr := fmt.Sprintf("%s:%s", host, port)

	server := api.New(engine)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		if err := server.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("quill listening on %s", addr)
	return server.Listen(addr)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
