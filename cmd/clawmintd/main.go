package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbc20/clawmint"
	"github.com/mbc20/clawmint/internal/moltbook"
	"github.com/mbc20/clawmint/pkg/config"
	"github.com/mbc20/clawmint/pkg/observability"
)

// Version information (set via ldflags)
var Version = "dev"

var (
	configFile string
	agentsFile string
	httpPort   int
)

func main() {
	root := &cobra.Command{
		Use:   "clawmintd",
		Short: "Automated CLAW mint swarm for Moltbook",
		Long: `clawmintd runs one mint loop per registered agent against the Moltbook
posting API, self-manages rate limits, and periodically asks the mbc20
indexer to pick up posts it has missed.`,
	}
	root.PersistentFlags().StringVar(&configFile, "config", getEnv("CONFIG_FILE", ""), "Runtime configuration file (YAML)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Register pending agents and run the mint swarm",
		RunE:  runSwarm,
	}
	runCmd.Flags().StringVar(&agentsFile, "agents", "", "Override the agent roster path")
	runCmd.Flags().IntVar(&httpPort, "http-port", getEnvInt("PORT", 0), "Override the metrics/health port")

	registerCmd := &cobra.Command{
		Use:   "register <name>",
		Short: "Register a single agent and print its claim instructions",
		Args:  cobra.ExactArgs(1),
		RunE:  registerAgent,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the clawmintd version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("clawmintd v%s\n", Version)
		},
	}

	root.AddCommand(runCmd, registerCmd, versionCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.LoadConfig(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if agentsFile != "" {
		cfg.AgentsFile = agentsFile
	}
	if httpPort != 0 {
		cfg.HTTPPort = httpPort
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSwarm(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log.Printf("Starting clawmintd v%s", Version)
	log.Printf("Roster: %s, HTTP port: %d", cfg.AgentsFile, cfg.HTTPPort)

	// Initialize observability
	serveMetrics := !cfg.Runtime.DisableMetrics
	if serveMetrics {
		observability.InitMetrics()
	}
	healthChecker := observability.InitHealthChecker()
	healthChecker.RegisterCheck(observability.PingCheck())

	obsServer := observability.NewServer(cfg.HTTPPort, serveMetrics)
	errChan := make(chan error, 2)
	go func() {
		log.Printf("Starting HTTP server on :%d", cfg.HTTPPort)
		if err := obsServer.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	go func() {
		if err := clawmint.RunWithConfig(ctx, cfg); err != nil && ctx.Err() == nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		cancel()
		log.Printf("Error: %v", err)
	case <-quit:
		log.Println("Shutting down swarm...")
		cancel()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Swarm stopped")
	return nil
}

func registerAgent(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	name := args[0]
	client := moltbook.NewClient(cfg.MoltbookBaseURL)

	reg, err := client.Register(cmd.Context(), name, fmt.Sprintf("AI Agent %s for CLAW minting", name))
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	clawmint.PrintClaimInstructions(name, reg)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
