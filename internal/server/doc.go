// Package server implements the browser-facing edit server for escconf.
//
// The server exposes the numeric common settings of a settings file over a
// small JSON API and a WebSocket endpoint. Each WebSocket client gets its own
// pending edits; commits from any client go to the shared store, are written
// back to the file and broadcast to every client.
//
// # Endpoints
//
//	GET  /api/settings         numeric common fields (display units)
//	POST /api/settings/{name}  {"display": "1250"} commits through the field
//	GET  /api/view             every setting of every ESC
//	GET  /ws                   live editing session
//	GET  /health               liveness and version
//
// # WebSocket Messages
//
// Clients send:
//
//	{"type":"edit","name":"BEEP_STRENGTH","display":"120"}   pending only
//	{"type":"cancel","name":"BEEP_STRENGTH"}                  drop pending
//	{"type":"commit","name":"BEEP_STRENGTH"}                  commit pending
//
// The server replies with "hello" (session id and fields) on connect,
// "pending", "committed" or "error" to the sender, and "changed" or "reload"
// to every client when the store changes.
//
// # Usage Example
//
//	srv, err := server.New(&server.Config{
//	    Port:      8484,
//	    Store:     store,
//	    Path:      "quad.yaml",
//	    Advertise: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start blocks until SIGINT or SIGTERM
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run returns once its context is cancelled:
//  1. Close WebSocket sessions with a close frame
//  2. Stop the file watcher and mDNS advertisement
//  3. Wait up to 10 seconds for in-flight requests
package server
