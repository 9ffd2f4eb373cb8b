// Package requestid attaches a correlation ID to every HTTP request.
//
// Middleware reuses a valid client-supplied X-Request-ID header or generates a
// UUID, stores it in the context and echoes it back. LogExtractor injects it
// into log records and Propagate forwards it on outgoing calls to tool
// webhooks, so one user action can be traced across services.
package requestid
