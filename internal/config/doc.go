// Package config handles configuration loading for authbridge.
//
// # Overview
//
// Configuration comes from either environment variables (FromEnv) or a YAML
// file with environment variable expansion (Load). The presence of both
// backend.url and backend.key decides IsConfigured; their absence is never a
// load-time error — the process starts degraded and every network-facing
// component short-circuits.
//
// # Environment Variables
//
//	AUTHBRIDGE_BACKEND_URL    identity backend base URL
//	AUTHBRIDGE_BACKEND_KEY    identity backend API key
//	AUTHBRIDGE_HTTP_ADDR      HTTP listen address (default 0.0.0.0:8080)
//	AUTHBRIDGE_PUBLIC_ORIGIN  externally visible origin, for OAuth callbacks
//	AUTHBRIDGE_LOG_LEVEL      debug, info, warn, error (default info)
//	AUTHBRIDGE_LOG_FORMAT     text or json (default text)
//
// # Configuration File
//
// Values can reference environment variables:
//
//	backend:
//	  url: "https://identity.example.com"
//	  key: "${AUTHBRIDGE_BACKEND_KEY}"
//	server:
//	  http_addr: "0.0.0.0:8080"
//	  public_origin: "https://app.example.com"
//	logging:
//	  level: "info"
//	  format: "text"
package config
