package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// EventPublisher is what the service layer uses to push committed changes.
// Publishing never fails from the caller's point of view: a missing
// scope or a dead connection just means nobody receives the event.
type EventPublisher interface {
	PublishToScope(scope string, event Event)
	PublishToAll(event Event)
}

// outbound is a publish request handled by Run. Exactly one target is set:
// a single client, a scope, or (both empty) everyone.
type outbound struct {
	client *Client
	scope  string
	event  Event
}

type joinRequest struct {
	client *Client
	scope  string
}

// Hub owns the connection registry.
//
// What is a scope? A scope is a named group of connections, one per channel
// ("channel-7"). A connection enters a scope by sending join-channel and
// leaves every scope when it disconnects. Nothing about scopes is stored:
// after a restart the registry starts empty and clients join again.
//
// Publishing sends an event to one scope, or to every connection when the
// event is global (voice-channel-updated). The event is marshaled once and
// the same bytes are queued on each client's send channel. Delivery is
// fire-and-forget: there is no acknowledgement, retry or replay, so a
// connection that joins late only sees events published after its join.
//
// Concurrency: all state below is touched only by the Run goroutine. Every
// other method hands work to Run over an unbuffered channel, so
// registration, joins and publishes are applied in the order they were
// accepted and per-scope delivery order equals publish order. A client whose
// send buffer is full is dropped inside Run instead of blocking it, so one
// slow reader never delays the others.
//
//	hub := ws.NewHub()
//	go hub.Run()
//	hub.PublishToScope(ws.ChannelScope(7), ws.Event{Op: ws.OpNewMessage, Data: msg})
//	hub.Shutdown()
type Hub struct {
	clients map[*Client]struct{}
	// scopes: scope → client ID → client. A lookup index only; each
	// Client owns its own scope set.
	scopes map[string]map[string]*Client
	seq    int64

	register   chan *Client
	unregister chan *Client
	join       chan joinRequest
	publish    chan outbound
	queries    chan func()

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates an empty hub. Start it with `go hub.Run()`.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		scopes:     make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan joinRequest),
		publish:    make(chan outbound),
		queries:    make(chan func()),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run is the hub's event loop. It returns after Shutdown.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			log.Printf("[ws] client connected: id=%s user=%d (total: %d)", client.id, client.userID, len(h.clients))

		case client := <-h.unregister:
			h.removeClient(client)

		case req := <-h.join:
			h.addToScope(req.client, req.scope)

		case msg := <-h.publish:
			h.deliver(msg)

		case query := <-h.queries:
			query()

		case <-h.stop:
			for client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[*Client]struct{})
			h.scopes = make(map[string]map[string]*Client)
			close(h.done)
			log.Println("[ws] hub shut down, all connections closed")
			return
		}
	}
}

// Register adds a connection. It reports false once the hub has shut down.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a connection from the registry and from every scope
// it joined, then closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Join adds the client to scope. Joining a scope twice is a no-op.
func (h *Hub) Join(client *Client, scope string) {
	select {
	case h.join <- joinRequest{client: client, scope: scope}:
	case <-h.done:
	}
}

// PublishToScope delivers event to every connection currently in scope.
func (h *Hub) PublishToScope(scope string, event Event) {
	h.enqueue(outbound{scope: scope, event: event})
}

// PublishToAll delivers event to every connection.
func (h *Hub) PublishToAll(event Event) {
	h.enqueue(outbound{event: event})
}

// sendTo delivers event to a single connection if it is still registered.
func (h *Hub) sendTo(client *Client, event Event) {
	h.enqueue(outbound{client: client, event: event})
}

func (h *Hub) enqueue(msg outbound) {
	select {
	case h.publish <- msg:
	case <-h.done:
	}
}

// ScopeSize returns how many connections are in scope.
func (h *Hub) ScopeSize(scope string) int {
	result := make(chan int, 1)
	if !h.query(func() { result <- len(h.scopes[scope]) }) {
		return 0
	}
	return <-result
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	result := make(chan int, 1)
	if !h.query(func() { result <- len(h.clients) }) {
		return 0
	}
	return <-result
}

// query runs fn on the Run goroutine. It reports false after shutdown.
func (h *Hub) query(fn func()) bool {
	select {
	case h.queries <- fn:
		return true
	case <-h.done:
		return false
	}
}

// Shutdown closes every connection's send channel and stops Run.
// Run must have been started.
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

func (h *Hub) addToScope(client *Client, scope string) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	if _, joined := client.scopes[scope]; joined {
		return
	}

	members, ok := h.scopes[scope]
	if !ok {
		members = make(map[string]*Client)
		h.scopes[scope] = members
	}
	members[client.id] = client
	client.scopes[scope] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}

	for scope := range client.scopes {
		if members, ok := h.scopes[scope]; ok {
			delete(members, client.id)
			if len(members) == 0 {
				delete(h.scopes, scope)
			}
		}
	}
	client.scopes = make(map[string]struct{})

	delete(h.clients, client)
	close(client.send)
	log.Printf("[ws] client disconnected: id=%s user=%d (remaining: %d)", client.id, client.userID, len(h.clients))
}

// deliver stamps the sequence number, encodes once and queues the frame.
// A client whose buffer is full is dropped rather than blocking the loop.
func (h *Hub) deliver(msg outbound) {
	var targets []*Client
	switch {
	case msg.client != nil:
		if _, ok := h.clients[msg.client]; !ok {
			return
		}
		targets = []*Client{msg.client}
	case msg.scope != "":
		for _, client := range h.scopes[msg.scope] {
			targets = append(targets, client)
		}
	default:
		for client := range h.clients {
			targets = append(targets, client)
		}
	}
	if len(targets) == 0 {
		return
	}

	h.seq++
	msg.event.Seq = h.seq

	data, err := json.Marshal(msg.event)
	if err != nil {
		log.Printf("[ws] failed to marshal %s event: %v", msg.event.Op, err)
		return
	}

	for _, client := range targets {
		select {
		case client.send <- data:
		default:
			log.Printf("[ws] send buffer full for client %s, dropping connection", client.id)
			h.removeClient(client)
		}
	}
}
