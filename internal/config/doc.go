// Package config handles configuration loading for the ERPNext assistant.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from ERPNEXT_ASSISTANT_CONFIG environment variable
//  2. ./config.yaml (current directory)
//  3. ~/.config/erpnext-assistant/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	frappe:
//	  csrf_token: "${FRAPPE_CSRF_TOKEN}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Frappe backend:
//
//	frappe:
//	  base_url: "https://erp.example.com"
//	  csrf_token: "${FRAPPE_CSRF_TOKEN}"
//	  timeout: "120s"
//
// Server settings:
//
//	server:
//	  http_addr: "127.0.0.1:8090"
//
// Client state database:
//
//	database:
//	  path: "~/.local/share/erpnext-assistant/state.db"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - Frappe base URL presence and scheme
//   - HTTP address presence
//   - Database path presence
//   - Duration format validity
package config
