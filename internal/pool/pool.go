// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package pool

import (
	"sync"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
)

// Kind selects which broadcasts a client receives.
type Kind uint8

const (
	KindNmea Kind = 1 << iota
	KindLocation
	KindSatellites
)

const sendBuffer = 64

type Client struct {
	ID    string
	Kinds Kind
	Send  chan []byte
	// Done is closed when the client is removed from the pool.
	Done chan struct{}
}

// Pool fans broadcasts out to its clients. A slow client misses messages
// instead of holding up the others.
type Pool struct {
	log     zerolog.Logger
	clients cmap.ConcurrentMap[string, *Client]

	// mu orders registration so demand transitions are reported in order
	mu     sync.Mutex
	demand chan bool
}

func New(logger zerolog.Logger) *Pool {
	return &Pool{
		log:     logger,
		clients: cmap.New[*Client](),
		demand:  make(chan bool, 16),
	}
}

// Demand reports true when the first client joins and false when the last
// one leaves.
func (p *Pool) Demand() <-chan bool {
	return p.demand
}

// Add registers a new client receiving the given kinds of broadcasts.
func (p *Pool) Add(kinds Kind) *Client {
	c := &Client{
		ID:    uuid.NewString(),
		Kinds: kinds,
		Send:  make(chan []byte, sendBuffer),
		Done:  make(chan struct{}),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.clients.Set(c.ID, c)
	count := p.clients.Count()
	if count == 1 {
		p.demand <- true
	}
	p.log.Info().Str("client", c.ID).Int("clients", count).Msg("client connected")
	return c
}

// Remove unregisters c. Removing a client twice is a no-op.
func (p *Pool) Remove(c *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.clients.Get(c.ID); !ok {
		return
	}
	p.clients.Remove(c.ID)
	close(c.Done)

	count := p.clients.Count()
	if count == 0 {
		p.log.Info().Msg("no clients connected")
		p.demand <- false
	}
	p.log.Info().Str("client", c.ID).Int("clients", count).Msg("client disconnected")
}

func (p *Pool) Count() int {
	return p.clients.Count()
}

// Broadcast queues msg for every client subscribed to kind.
func (p *Pool) Broadcast(kind Kind, msg []byte) {
	for item := range p.clients.IterBuffered() {
		c := item.Val
		if c.Kinds&kind == 0 {
			continue
		}
		select {
		case c.Send <- msg:
		default:
			p.log.Debug().Str("client", c.ID).Msg("client too slow, message dropped")
		}
	}
}
