// Package config loads relaydash settings.
//
// # Resolution Order
//
//  1. Built-in defaults (Default)
//  2. TOML file, ~/.config/relaydash/config.toml unless a path is given
//  3. A .env file in the working directory (never overrides variables that
//     are already set)
//  4. Environment: BACKEND_URL, then RELAYDASH_BACKEND_URL,
//     RELAYDASH_LOG_LEVEL, RELAYDASH_LOG_FILE
//
// A missing config file or .env is not an error. Empty values in the file
// keep their defaults.
//
// # TOML Format
//
//	backend_url = "http://127.0.0.1:8001"
//	log_level = "info"         # trace, debug, info, warn, error
//	log_format = "text"        # text or json
//	log_file = "~/.local/state/relaydash/relaydash.log"
//	reconnect_delay = "3s"     # Go duration or bare seconds
//	request_timeout = "10s"
//	log_limit = 50
//
// The websocket endpoint is not configured separately: WebSocketURL swaps
// http for ws (https for wss) and appends /ws.
package config
