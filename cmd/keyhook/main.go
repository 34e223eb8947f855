// Command keyhook is the one-shot entry point the host invokes on every
// session turn: one discover -> merge -> refresh -> probe -> select cycle,
// reported back to the host as a single JSON envelope on stdout. It must
// never keep the host waiting beyond its configured per-request deadline,
// and it always exits 0 with continue:true even when something internal
// failed, so a credential-rotation bug can never block the session itself.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/driftforge/keyrotate/internal/engine"
	"github.com/driftforge/keyrotate/pkg/config"
	"github.com/driftforge/keyrotate/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "keyhook: load config: %v\n", err)
		writeFallbackEnvelope()
		return
	}

	// stdout carries only the envelope, so log lines go to stderr.
	log := logger.New(cfg.Logging)
	if !strings.EqualFold(cfg.Logging.Output, "file") {
		log.SetOutput(os.Stderr)
	}

	e, err := engine.New(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "keyhook: build engine: %v\n", err)
		writeFallbackEnvelope()
		return
	}
	defer e.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Daemon.ProbeDeadline+5*time.Second)
	defer cancel()

	env := e.RunHook(ctx)
	if err := json.NewEncoder(os.Stdout).Encode(env); err != nil {
		fmt.Fprintf(os.Stderr, "keyhook: encode envelope: %v\n", err)
	}
}

// writeFallbackEnvelope is the last line of defense: even a config or
// wiring failure must still produce a well-formed envelope so the host
// never blocks on a missing response.
func writeFallbackEnvelope() {
	fallback := struct {
		Continue       bool `json:"continue"`
		SuppressOutput bool `json:"suppressOutput"`
	}{Continue: true, SuppressOutput: true}
	json.NewEncoder(os.Stdout).Encode(fallback)
}
