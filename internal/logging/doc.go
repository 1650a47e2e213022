// Package logging provides structured logging for escconf.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used by the CLI, the terminal editor and the edit server.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (WebSocket message content)
//   - Info: Normal operations (commits, connections, file reloads)
//   - Warn: Non-fatal issues (dropped clients, failed reloads)
//   - Error: Fatal issues (startup failures, save failures)
//
// Logging is silent unless a level is passed to Initialize or set in
// ESCCONF_LOG_LEVEL.
//
// # Specialized Logging
//
//	logging.LogCommit("BEEP_STRENGTH", "1250", 255)
//	logging.LogConnection(remoteAddr, "websocket_upgraded")
//	logging.LogWebSocketMessage(sessionID, "received", payload)
//	logging.LogReload("quad.yaml", true)
//
// # Output Format
//
// Logs are written to stderr in console format:
//
//	2025-11-25T10:30:45.123-0800  INFO  Setting committed
//	  setting=BEEP_STRENGTH input=1250 value=255
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. Initialize and SetLogger
// are meant to be called once at startup.
package logging
