// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"

	"github.com/google/renameio/v2"
)

// DefaultYAML is the annotated configuration written by "config init".
const DefaultYAML = `# greeter configuration
# Environment variables (GREETER_*) override every value below.

listenAddr: ":8080"
# metricsListenAddr: ":9090"   # serve /metrics on a separate listener

# Signs CSRF tokens and session cookies. Change this in production.
secretKey: "hard to guess string"

logLevel: info
logService: greeter
shutdownTimeout: 10s

# trustedProxies: ["10.0.0.0/8"]
# allowedOrigins: ["https://greeter.example.com"]

csrf:
  timeLimit: 1h

session:
  backend: memory   # memory | redis | sqlite | badger
  ttl: 24h
  cookieName: session
  # redis:
  #   addr: "127.0.0.1:6379"
  #   db: 0
  # sqlite:
  #   path: "/var/lib/greeter/sessions.db"
  # badger:
  #   dir: "/var/lib/greeter/sessions"

rateLimit:
  enabled: false
  requests: 600
  window: 1m

tracing:
  enabled: false
  exporter: grpc
  # endpoint: "localhost:4317"
  samplingRate: 1.0
`

// WriteDefault atomically writes DefaultYAML to path.
func WriteDefault(path string) error {
	if err := renameio.WriteFile(path, []byte(DefaultYAML), 0o600); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
