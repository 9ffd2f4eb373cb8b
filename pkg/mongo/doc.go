// Package mongo connects to MongoDB with the official v2 driver.
//
// New applies pool settings from Config (MONGODB_* variables) and pings with
// retries. NewWithDatabase returns the configured database directly.
// Healthcheck plugs the client into the readiness check. Tool result history
// in internal/history is stored through this connection.
package mongo
