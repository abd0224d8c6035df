// Package server provides server-related CLI commands.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ryankurte/efm32-mbedtls/internal/config"
	"github.com/ryankurte/efm32-mbedtls/internal/logging"
	"github.com/ryankurte/efm32-mbedtls/internal/server"
	"github.com/ryankurte/efm32-mbedtls/pkg/cryptodrv"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the accelerator service",
		Long:  `Start the CRYPTO accelerator service processing MAC commands over TCP.`,
		RunE:  runServe,
	}

	// Add serve command specific flags that can override config.
	cmd.Flags().String("host", "", "Server host (overrides config)")
	cmd.Flags().Int("port", 0, "Server port (overrides config)")
	cmd.Flags().String("metrics-addr", "", "Metrics listen address (overrides config)")

	// Bind serve command flags to viper.
	_ = viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("metrics.addr", cmd.Flags().Lookup("metrics-addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Get configuration.
	cfg := config.Get()

	// Normalize log level and format from viper/config.
	logLevel := viper.GetString("log.level")
	if logLevel == "" {
		logLevel = cfg.Log.Level
	}
	logFormat := viper.GetString("log.format")
	if logFormat == "" {
		logFormat = cfg.Log.Format
	}
	logLevel = strings.TrimSpace(strings.ToLower(logLevel))
	logFormat = strings.TrimSpace(strings.ToLower(logFormat))

	// Initialize logger using config values (with CLI flags overriding config via viper).
	logging.InitLogger(
		logLevel == "debug",
		logFormat == "human",
	)

	host := viper.GetString("server.host")
	if host == "" {
		host = cfg.Server.Host
	}
	port := viper.GetInt("server.port")
	if port == 0 {
		port = cfg.Server.Port
	}
	metricsAddr := viper.GetString("metrics.addr")
	if metricsAddr == "" {
		metricsAddr = cfg.Metrics.Addr
	}

	// Initialize the server with configured host and port.
	serverAddr := fmt.Sprintf("%s:%d", host, port)
	srv, err := server.NewServer(serverAddr, cfg.Device.WaitTicks)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %v", err)
	}

	log.Debug().
		Int("devices", cryptodrv.DeviceCount()).
		Dur("tick", cryptodrv.TickDuration()).
		Int("wait_ticks", cfg.Device.WaitTicks).
		Msg("device registry")

	// Serve Prometheus metrics on a separate listener.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:              metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", metricsAddr).Msg("metrics endpoint listening")
		if err := metricsSrv.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics endpoint failed")
		}
	}()

	// Reload device registry configuration on SIGHUP.
	reloadChan := make(chan os.Signal, 1)
	signal.Notify(reloadChan, syscall.SIGHUP)
	go func() {
		for range reloadChan {
			log.Info().Msg("reloading configuration...")

			if err := config.Initialize(); err != nil {
				log.Error().Err(err).Msg("failed to reload configuration")
				continue
			}

			rcfg := config.Get()
			if err := cryptodrv.Configure(cryptodrv.Config{
				Devices:      rcfg.Device.Count,
				TickDuration: rcfg.Device.Tick,
			}); err != nil {
				log.Error().Err(err).Msg("failed to reconfigure device registry")
				continue
			}

			log.Info().
				Int("devices", rcfg.Device.Count).
				Dur("tick", rcfg.Device.Tick).
				Msg("configuration reloaded")
		}
	}()

	defer signal.Stop(reloadChan)

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %v", err)
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM)

	<-stopChan
	log.Info().Msg("shutting down server...")

	if err := srv.Stop(); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during metrics endpoint shutdown")
	}

	return nil
}
