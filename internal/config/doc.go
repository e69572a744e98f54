// Package config loads the questnetd configuration.
//
// Values come from, in increasing priority: built-in defaults, an optional
// YAML file, and QUESTNET_* environment variables where dots in the key
// become underscores (server.port -> QUESTNET_SERVER_PORT). Durations use Go
// syntax ("54s", "1m30s"); lists in environment variables are
// comma-separated.
//
// The port and the encoding are read once at startup; nothing is reloaded.
package config
