// Package aprsis reads packets from an APRS-IS server.
package aprsis

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"aprsnoop/aprs"
	"aprsnoop/config"
	"aprsnoop/location"
	"aprsnoop/logging"
	"aprsnoop/packet"
)

const (
	appName    = "aprsnoop"
	appVersion = "0.1"

	// filteredPort honors the filter in the login line; fullFeedPort sends
	// everything.
	filteredPort = "14580"
	fullFeedPort = "10152"

	dialTimeout  = 15 * time.Second
	loginTimeout = 10 * time.Second
)

// Client represents an active connection to an APRS-IS server
type Client struct {
	conn       net.Conn
	reader     *bufio.Reader
	callsign   string
	filter     string
	IsVerified bool
	closeOnce  sync.Once
}

// Filter returns the server-side filter for conf: the configured one, or a
// range filter around the station gridsquare when a radius is set. An empty
// result means the full feed.
func Filter(conf config.Config) string {
	if conf.Interface.Filter != "" {
		return conf.Interface.Filter
	}
	if conf.Interface.RadiusKm <= 0 || conf.Station.GridSquare == "" {
		return ""
	}
	lat, lon, err := location.GridSquareCenter(conf.Station.GridSquare)
	if err != nil {
		log.Printf("Warning: Could not parse station gridsquare '%s' for APRS-IS filter: %v", conf.Station.GridSquare, err)
		return ""
	}
	return fmt.Sprintf("r/%.3f/%.3f/%d", lat, lon, conf.Interface.RadiusKm)
}

// Address picks the server port from the filter unless the configured
// server already names one.
func Address(server, filter string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	if filter != "" {
		return net.JoinHostPort(server, filteredPort)
	}
	return net.JoinHostPort(server, fullFeedPort)
}

// loginPasscode returns the passcode to send, falling back to read-only
// when none is configured or it does not match the callsign.
func loginPasscode(callsign string, passcode int) (int, error) {
	if passcode <= 0 {
		log.Printf("APRS-IS passcode not set, connecting read-only.")
		return aprs.ReadOnlyPasscode, nil
	}
	want, err := aprs.Passcode(callsign)
	if err != nil {
		return 0, fmt.Errorf("failed to calculate passcode: %w", err)
	}
	if passcode != want {
		log.Printf("Warning: Provided passcode (%d) does not match the one for %s. Connecting read-only.", passcode, callsign)
		return aprs.ReadOnlyPasscode, nil
	}
	return passcode, nil
}

// Connect establishes a connection to an APRS-IS server
func Connect(conf config.Config) (*Client, error) {
	callsign := conf.Station.Callsign
	if callsign == "" {
		return nil, fmt.Errorf("callsign missing in config for APRS-IS")
	}
	passcode, err := loginPasscode(callsign, conf.Station.Passcode)
	if err != nil {
		return nil, err
	}

	filter := Filter(conf)
	if filter == "" {
		log.Printf("Warning: no APRS-IS filter set, receiving the full feed.")
	}
	addr := Address(conf.Interface.Server, filter)

	log.Printf("Attempting APRS-IS connection to %s", addr)
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to APRS-IS server %s: %w", addr, err)
	}
	log.Printf("Connected to APRS-IS server: %s", conn.RemoteAddr())

	client := newClient(conn, callsign, filter)
	if err := client.login(passcode); err != nil {
		client.Close()
		return nil, fmt.Errorf("APRS-IS login failed: %w", err)
	}
	log.Println("APRS-IS Login successful")
	return client, nil
}

func newClient(conn net.Conn, callsign, filter string) *Client {
	return &Client{
		conn:     conn,
		reader:   bufio.NewReader(conn),
		callsign: callsign,
		filter:   filter,
	}
}

// loginLine builds the line sent after connecting.
func loginLine(callsign string, passcode int, filter string) string {
	line := fmt.Sprintf("user %s pass %d vers %s %s", callsign, passcode, appName, appVersion)
	if filter != "" {
		line += " filter " + filter
	}
	return line + "\r\n"
}

// login sends the login string and waits for the server's logresp.
func (c *Client) login(passcode int) error {
	if _, err := io.WriteString(c.conn, loginLine(c.callsign, passcode, c.filter)); err != nil {
		return fmt.Errorf("failed to send login string: %w", err)
	}
	log.Printf("Sent login: user %s pass **** vers %s %s filter %q", c.callsign, appName, appVersion, c.filter)

	c.conn.SetReadDeadline(time.Now().Add(loginTimeout))
	defer c.conn.SetReadDeadline(time.Time{})

	for {
		lineBytes, err := c.reader.ReadBytes('\n')
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return fmt.Errorf("timeout waiting for login response from server")
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("connection closed unexpectedly during login")
			}
			return fmt.Errorf("error reading login response: %w", err)
		}
		line := strings.TrimSpace(string(lineBytes))
		logging.Debugf("APRS-IS server: %s", line)

		if !strings.HasPrefix(line, "#") {
			// Data before logresp; the server accepted us read-only.
			log.Printf("Received data before login confirmation, continuing read-only")
			c.IsVerified = false
			return nil
		}
		if !strings.HasPrefix(line, "# logresp ") {
			continue
		}

		// # logresp <callsign> verified|unverified, server <serverid>
		parts := strings.Fields(line)
		if len(parts) < 4 {
			continue
		}
		if !strings.EqualFold(parts[2], c.callsign) {
			return fmt.Errorf("login response callsign mismatch: expected %s, got %s", c.callsign, parts[2])
		}
		status := strings.TrimSuffix(parts[3], ",")
		c.IsVerified = status == "verified" && passcode != aprs.ReadOnlyPasscode
		if !c.IsVerified {
			log.Printf("APRS-IS login status: %s (continuing read-only)", status)
		}
		return nil
	}
}

// Start reads lines until the connection ends, sending every decodable
// packet down packetChan. It closes packetChan when done. Run it as a
// goroutine.
func (c *Client) Start(packetChan chan<- *packet.Packet) {
	defer close(packetChan)
	log.Println("Starting APRS-IS packet reader...")

	for {
		lineBytes, err := c.reader.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				log.Println("APRS-IS connection closed.")
			} else {
				log.Printf("Error reading APRS-IS stream: %v", err)
			}
			return
		}

		line := strings.TrimSpace(string(lineBytes))
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		pkt, err := aprs.Parse([]byte(line))
		if err != nil {
			logging.Debugf("Failed to parse APRS-IS line: %v -- %s", err, line)
			continue
		}
		packetChan <- pkt
	}
}

// Close disconnects the client. It is safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			log.Println("Closing APRS-IS connection.")
			c.conn.Close()
		}
	})
}
