// Package kiss reads AX.25 frames from a KISS TNC over TCP or a serial port.
package kiss

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"sync"

	"aprsnoop/aprs"
	"aprsnoop/config"
	"aprsnoop/logging"
	"aprsnoop/packet"
)

// Client represents an active connection to a KISS TNC
type Client struct {
	conn      io.ReadWriteCloser
	closeOnce sync.Once
}

// Connect opens the TNC named by conf.Device: host:port for TCP, anything
// else is a serial device.
func Connect(conf config.InterfaceConfig) (*Client, error) {
	if !strings.EqualFold(conf.Type, config.InterfaceKISS) {
		return nil, fmt.Errorf("interface type %q is not KISS", conf.Type)
	}

	if _, _, err := net.SplitHostPort(conf.Device); err == nil {
		log.Printf("Attempting KISS TCP connection to: %s", conf.Device)
		conn, err := connectTCP(conf.Device)
		if err != nil {
			return nil, err
		}
		log.Println("Successfully connected to KISS TNC via TCP")
		return NewClient(conn), nil
	}

	log.Printf("Attempting KISS Serial connection to: %s at %d baud", conf.Device, conf.BaudRate)
	port, err := connectSerial(conf.Device, conf.BaudRate)
	if err != nil {
		return nil, err
	}
	log.Println("Successfully connected to KISS TNC via Serial")
	return NewClient(port), nil
}

// NewClient wraps an already open TNC connection.
func NewClient(conn io.ReadWriteCloser) *Client {
	return &Client{conn: conn}
}

// Start reads frames until the connection ends, sending every decodable
// APRS packet down packetChan. It closes packetChan when done. Run it as a
// goroutine.
func (c *Client) Start(packetChan chan<- *packet.Packet) {
	defer close(packetChan)
	decoder := NewDecoder(c.conn)

	for {
		frame, err := decoder.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				log.Println("KISS connection closed.")
			} else {
				log.Printf("Error reading KISS frame: %v", err)
			}
			return
		}

		if frame[0]&0x0F != cmdData {
			logging.Debugf("Ignoring KISS command frame 0x%02X", frame[0])
			continue
		}

		pkt, err := aprs.ParseAX25(frame[1:])
		if err != nil {
			logging.Debugf("Failed to parse AX.25 frame: %v -- %x", err, frame[1:])
			continue
		}
		packetChan <- pkt
	}
}

// Close disconnects the client. It is safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			c.conn.Close()
		}
	})
}
