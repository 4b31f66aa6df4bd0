package main

import (
	"log"
	"time"

	"aprsnoop/clock"
	"aprsnoop/handler"
	"aprsnoop/metrics"
	"aprsnoop/packet"
)

// progressEvery is how often, in packets, the running total is logged.
const progressEvery = 1000

// consumer feeds decoded packets to the dispatcher in arrival order.
type consumer struct {
	dispatcher *handler.Dispatcher
	clock      clock.Clock
	// observe, when set, sees every packet after it was dispatched.
	observe func(*packet.Packet)

	count int
	start time.Time
}

// run consumes until packets is closed and returns the packet count.
func (c *consumer) run(packets <-chan *packet.Packet) int {
	c.start = c.clock.Now()
	for pkt := range packets {
		c.count++
		metrics.PacketsTotal.Inc()
		if c.count%progressEvery == 0 {
			log.Printf("received %d packets in %d sec", c.count, int(c.clock.Now().Sub(c.start).Seconds()))
		}

		c.dispatcher.Dispatch(pkt)
		if c.observe != nil {
			c.observe(pkt)
		}
	}
	return c.count
}
