package server

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	anetserver "github.com/andrei-cloud/anet/server"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/ryankurte/efm32-mbedtls/internal/errorcodes"
	"github.com/ryankurte/efm32-mbedtls/internal/logging"
	"github.com/ryankurte/efm32-mbedtls/internal/logic"
	"github.com/ryankurte/efm32-mbedtls/internal/metrics"
)

// Firmware is the revision string reported by the NC diagnostics command.
const Firmware = "EFR32-CRYPTO-0512"

// logAdapter implements anet.Logger using zerolog.
type logAdapter struct{}

// Server wraps the anet TCP server and the accelerator command handlers.
type Server struct {
	address     string
	srv         *anetserver.Server
	waitTicks   int
	activeConns int32
}

func (l logAdapter) Print(v ...any) {
	log.Info().Msgf("%v", v...)
}

func (l logAdapter) Printf(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func (l logAdapter) Infof(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func (l logAdapter) Warnf(format string, v ...any) {
	log.Warn().Msgf(format, v...)
}

func (l logAdapter) Errorf(format string, v ...any) {
	log.Error().Msgf(format, v...)
}

// NewServer configures and returns the accelerator server instance.
// waitTicks is the device lock wait policy applied to every MAC command.
func NewServer(address string, waitTicks int) (*Server, error) {
	cfg := &anetserver.ServerConfig{
		MaxConns:        100,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     0 * time.Second, // disable idle connection closure.
		ShutdownTimeout: 5 * time.Second,
		Logger:          logAdapter{},
	}

	s := &Server{
		address:   address,
		waitTicks: waitTicks,
	}
	handler := anetserver.HandlerFunc(s.handle)
	srv, err := anetserver.NewServer(address, handler, cfg)
	if err != nil {
		return nil, fmt.Errorf("server setup failed: %w", err)
	}
	s.srv = srv

	return s, nil
}

// Start begins listening for connections.
func (s *Server) Start() error {
	log.Info().Str("address", s.address).Msg("server started")
	return s.srv.Start()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	return s.srv.Stop()
}

// incrementCode returns the reply code by incrementing the second character.
func (s *Server) incrementCode(cmd string) string {
	b := []byte(cmd)
	if len(b) < 2 {
		return cmd
	}
	if b[1] == 'Z' {
		b[1] = 'A'
	} else {
		b[1]++
	}

	return string(b)
}

// errorResponse constructs a disabled-command response.
func (s *Server) errorResponse(cmd string) []byte {
	return []byte(s.incrementCode(cmd) + errorcodes.Err68.CodeOnly())
}

// commandDescription names the known host commands for request logs.
func commandDescription(cmd string) string {
	switch cmd {
	case "MG":
		return "Generate MAC"
	case "MV":
		return "Verify MAC"
	case "NC":
		return "Diagnostics"
	default:
		return "Unknown Command"
	}
}

// responseCode extracts the two-character error code from a response.
func responseCode(resp []byte) string {
	if len(resp) < 4 {
		return ""
	}

	return string(resp[2:4])
}

func (s *Server) handle(conn *anetserver.ServerConn, data []byte) ([]byte, error) {
	client := conn.Conn.RemoteAddr().String()
	requestID := uuid.NewString()
	active := atomic.AddInt32(&s.activeConns, 1)
	metrics.RequestStarted()
	defer func() {
		atomic.AddInt32(&s.activeConns, -1)
		metrics.RequestDone()
	}()

	start := time.Now()
	log.Debug().
		Str("event", "handle_start").
		Str("client_ip", client).
		Str("request_id", requestID).
		Msg("starting request handling")

	if len(data) < 2 {
		log.Error().
			Str("client_ip", client).
			Str("request_id", requestID).
			Msg("malformed request")

		return nil, errors.New("malformed request")
	}

	cmd := string(data[:2])
	payload := data[2:]
	logging.LogRequest(client, requestID, cmd, commandDescription(cmd), data, int(active))

	var resp []byte
	var execErr error

	switch cmd {
	case "MG":
		resp, execErr = logic.ExecuteMG(payload, s.waitTicks)
	case "MV":
		resp, execErr = logic.ExecuteMV(payload, s.waitTicks)
	case "NC":
		resp, execErr = logic.ExecuteNC([]byte(Firmware))
	default:
		log.Warn().
			Str("event", "unknown_command").
			Str("client_ip", client).
			Str("request_id", requestID).
			Str("command", cmd).
			Msg("command not recognized, responding with error code")
		resp = s.errorResponse(cmd)
	}

	if execErr != nil {
		log.Error().
			Str("event", "command_execution_error").
			Str("client_ip", client).
			Str("request_id", requestID).
			Str("command", cmd).
			Err(execErr).
			Msg("command execution failed")
		resp = s.errorResponse(cmd)
	}

	took := time.Since(start)
	code := responseCode(resp)
	metrics.RecordCommand(cmd, code, took.Seconds())
	if code == errorcodes.Err12.CodeOnly() {
		metrics.RecordDeviceBusy(cmd)
	}

	respCmd := ""
	if len(resp) >= 2 {
		respCmd = string(resp[:2])
	}
	logging.LogResponse(
		client,
		requestID,
		cmd,
		respCmd,
		resp,
		code,
		took,
		int(atomic.LoadInt32(&s.activeConns)),
	)

	return resp, nil
}
