// Package remote is the client side of the escconf edit server API.
//
// It reads settings and commits values over HTTP, retrying transient
// failures with exponential backoff:
//
//	c := remote.NewClient("192.168.1.20", 8484)
//	applied, err := c.Commit(ctx, "PPM_MIN_THROTTLE", "1250")
//	// applied.Display == "1252"
//
// Errors are *Error values classified by ErrorType; the Is* helpers and
// GetTroubleshootingHint work on wrapped errors too.
package remote
