package utils

import "io"

// Close closes c and ignores any error.
// Use for best-effort cleanup where the error cannot change the outcome.
func Close(c io.Closer) {
	_ = c.Close()
}
