package kiss

import (
	"fmt"
	"net"
	"time"
)

const tcpDialTimeout = 10 * time.Second

// connectTCP dials a KISS TNC such as Direwolf at host:port.
func connectTCP(address string) (net.Conn, error) {
	if address == "" {
		return nil, fmt.Errorf("no device address (ip:port) provided for KISS TCP")
	}
	conn, err := net.DialTimeout("tcp", address, tcpDialTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to KISS TNC at %s: %w", address, err)
	}
	return conn, nil
}
