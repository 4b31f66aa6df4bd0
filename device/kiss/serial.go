package kiss

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"go.bug.st/serial"
)

// connectSerial opens a serial KISS TNC at the given baud rate.
func connectSerial(devicePath string, baud int) (io.ReadWriteCloser, error) {
	if devicePath == "" {
		return nil, fmt.Errorf("no device path (e.g., /dev/ttyUSB0 or COM3) provided for KISS serial")
	}

	port, err := serial.Open(devicePath, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", devicePath, err)
	}
	// Without a timeout Read blocks forever and Close cannot unblock it on
	// every platform.
	if err := port.SetReadTimeout(time.Second); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}
	return &serialPort{Port: port}, nil
}

// serialPort turns the zero-byte reads of an expired read timeout into
// retries, so a quiet radio channel does not look like EOF to the decoder.
type serialPort struct {
	serial.Port
	closed atomic.Bool
}

func (s *serialPort) Read(p []byte) (int, error) {
	for {
		n, err := s.Port.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
		if s.closed.Load() {
			return 0, io.EOF
		}
	}
}

func (s *serialPort) Close() error {
	s.closed.Store(true)
	return s.Port.Close()
}
