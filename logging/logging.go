// Package logging holds the debug switch. Everything else logs through the
// standard log package directly.
package logging

import (
	"io"
	"log"
	"os"
)

// Debugf prints only when debug output is on. It defaults to a no-op.
var Debugf func(format string, v ...interface{}) = func(string, ...interface{}) {}

// SetDebug turns debug lines on or off.
func SetDebug(on bool) {
	if on {
		Debugf = func(format string, v ...interface{}) {
			log.Printf("debug: "+format, v...)
		}
		return
	}
	Debugf = func(string, ...interface{}) {}
}

// Setup sets the standard logger flags and, when path is not empty, sends
// log output to that file instead of stderr. The returned closer must be
// closed on exit.
func Setup(path string) (io.Closer, error) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if path == "" {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	log.SetOutput(f)
	return f, nil
}
