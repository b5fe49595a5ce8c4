package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ironsheep/gemini-vision-mcp/internal/config"
	"github.com/ironsheep/gemini-vision-mcp/internal/server"
	"github.com/spf13/cobra"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configFile string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "gemini-vision-mcp",
	Short: "MCP server for image analysis with a hosted vision model",
	Long: `gemini-vision-mcp lets an MCP client analyze local images by sending them
to a Gemini vision model through OpenRouter.

This server communicates via MCP protocol over stdin/stdout.
Configure it in your MCP client (e.g., Claude Desktop).

Environment variables:
  OPENROUTER_API_KEY     API key for the gateway (required)
  OPENROUTER_BASE_URL    Gateway base URL (default https://openrouter.ai/api/v1)
  GEMINI_MODEL           Model identifier (default google/gemini-2.0-flash-exp)
  LOG_LEVEL              debug, info, warn or error (default info)
  LOG_FILE               Also append logs to this file
  MAX_IMAGE_SIZE_MB      Reject larger files, 0 for no limit (default 10)
  MAX_IMAGE_DIMENSION    Downscale larger images, 0 to disable (default 0)`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("gemini-vision-mcp %s\n  Build time: %s\n  Git commit: %s\n",
		Version, BuildTime, GitCommit))
	rootCmd.Flags().StringVar(&configFile, "config", "", "YAML or JSON config file")
	rootCmd.Flags().StringVar(&envFile, "env-file", "", "dotenv file to load (default .env)")
}

func run(ctx context.Context) error {
	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load(config.Options{ConfigFile: configFile, EnvFile: envFile})
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	if cfg.Debug() {
		log.Printf("Gemini Vision MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		log.Printf("Configuration: %v", cfg.Redacted())
	}

	srv, err := server.New(cfg, server.WithVersion(Version))
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	if cfg.Info() {
		log.Printf("Gemini Vision MCP Server started (model %s)", cfg.Model)
	}
	return srv.Run(ctx)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("Server error: %v", err)
	}
}
