package aprsis

import (
	"bufio"
	"net"
	"strings"
	"testing"

	"aprsnoop/config"
	"aprsnoop/packet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	conf := config.Default()
	assert.Equal(t, "", Filter(conf), "no filter and no radius means full feed")

	conf.Station.GridSquare = "FN31"
	assert.Equal(t, "", Filter(conf), "gridsquare alone does not filter")

	conf.Interface.RadiusKm = 100
	assert.Equal(t, "r/41.500/-73.000/100", Filter(conf))

	conf.Interface.Filter = "p/K1"
	assert.Equal(t, "p/K1", Filter(conf))

	conf.Interface.Filter = ""
	conf.Station.GridSquare = "bogus"
	assert.Equal(t, "", Filter(conf))
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "rotate.aprs.net:14580", Address("rotate.aprs.net", "r/1/2/3"))
	assert.Equal(t, "rotate.aprs.net:10152", Address("rotate.aprs.net", ""))
	assert.Equal(t, "127.0.0.1:9000", Address("127.0.0.1:9000", ""))
}

func TestLoginPasscode(t *testing.T) {
	p, err := loginPasscode("N0CALL", 13023)
	require.NoError(t, err)
	assert.Equal(t, 13023, p)

	p, err = loginPasscode("N0CALL", 1)
	require.NoError(t, err)
	assert.Equal(t, -1, p, "mismatch falls back to read-only")

	p, err = loginPasscode("N0CALL", 0)
	require.NoError(t, err)
	assert.Equal(t, -1, p)
}

func TestLoginLine(t *testing.T) {
	assert.Equal(t, "user N0CALL pass -1 vers aprsnoop 0.1\r\n", loginLine("N0CALL", -1, ""))
	assert.Equal(t, "user N0CALL pass 13023 vers aprsnoop 0.1 filter r/1/2/3\r\n", loginLine("N0CALL", 13023, "r/1/2/3"))
}

// fakeServer accepts one connection, checks the login and replies with
// lines.
func fakeServer(t *testing.T, reply ...string) (string, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	logins := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		logins <- line
		for _, l := range reply {
			conn.Write([]byte(l + "\r\n"))
		}
	}()
	return ln.Addr().String(), logins
}

func testConfig(server string) config.Config {
	conf := config.Default()
	conf.Station.Callsign = "N0CALL"
	conf.Station.Passcode = 13023
	conf.Interface.Server = server
	conf.Interface.Filter = "r/41/-72/50"
	return conf
}

func TestConnectAndStart(t *testing.T) {
	addr, logins := fakeServer(t,
		"# aprsc 2.1.19",
		"# logresp N0CALL verified, server T2TEST",
		"K1ABC>APRS,TCPIP*:>Testing",
		"garbage line",
		"# keepalive",
		"W1AW>APRS::N0CALL   :hi{1",
	)

	client, err := Connect(testConfig(addr))
	require.NoError(t, err)
	defer client.Close()

	assert.True(t, client.IsVerified)
	login := <-logins
	assert.True(t, strings.HasPrefix(login, "user N0CALL pass 13023 vers aprsnoop"), login)
	assert.Contains(t, login, "filter r/41/-72/50")

	ch := make(chan *packet.Packet)
	go client.Start(ch)

	var got []*packet.Packet
	for pkt := range ch {
		got = append(got, pkt)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "K1ABC", got[0].From)
	assert.Equal(t, "Testing", *got[0].Status)
	assert.Equal(t, "hi", *got[1].Text)
}

func TestConnect_Unverified(t *testing.T) {
	addr, _ := fakeServer(t, "# logresp N0CALL unverified, server T2TEST")
	conf := testConfig(addr)
	conf.Station.Passcode = -1

	client, err := Connect(conf)
	require.NoError(t, err)
	defer client.Close()
	assert.False(t, client.IsVerified)
}

func TestConnect_CallsignMismatch(t *testing.T) {
	addr, _ := fakeServer(t, "# logresp K1ABC verified, server T2TEST")
	_, err := Connect(testConfig(addr))
	assert.ErrorContains(t, err, "callsign mismatch")
}

func TestConnect_ClosedDuringLogin(t *testing.T) {
	addr, _ := fakeServer(t)
	_, err := Connect(testConfig(addr))
	assert.ErrorContains(t, err, "closed unexpectedly")
}

func TestConnect_NoCallsign(t *testing.T) {
	conf := testConfig("127.0.0.1:1")
	conf.Station.Callsign = ""
	_, err := Connect(conf)
	assert.Error(t, err)
}

func TestClose_Twice(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()
	c := newClient(a, "N0CALL", "")
	c.Close()
	c.Close()
}
