package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/opencode-ai/socdemo/internal/sequencer"
	"github.com/rs/zerolog"
)

const (
	streamSendBuffer = 64
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = 54 * time.Second
)

// stream fans sequencer events out to WebSocket clients. Slow clients are
// disconnected rather than allowed to stall playback.
type stream struct {
	logger   zerolog.Logger
	metrics  *metrics
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*streamClient]struct{}
	closed  bool
	wg      sync.WaitGroup
}

type streamClient struct {
	conn   *websocket.Conn
	send   chan []byte
	filter map[sequencer.EventName]bool
}

func newStream(logger zerolog.Logger, m *metrics) *stream {
	return &stream{
		logger:  logger,
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*streamClient]struct{}),
	}
}

// parseEventFilter reads a comma separated ?events= list.
func parseEventFilter(raw string) map[sequencer.EventName]bool {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	filter := make(map[sequencer.EventName]bool)
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			filter[sequencer.EventName(name)] = true
		}
	}
	return filter
}

func (s *stream) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		respondError(w, http.StatusServiceUnavailable, errServerClosing)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	client := &streamClient{
		conn:   conn,
		send:   make(chan []byte, streamSendBuffer),
		filter: parseEventFilter(r.URL.Query().Get("events")),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[client] = struct{}{}
	s.wg.Add(2)
	s.mu.Unlock()
	s.metrics.streamClients.Inc()

	s.logger.Debug().Str("remote_addr", r.RemoteAddr).Msg("stream client connected")

	go s.writePump(client)
	go s.readPump(client)
}

// broadcast runs on the sequencer's dispatching goroutine and never blocks.
func (s *stream) broadcast(event sequencer.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Str("event", string(event.Name)).Msg("failed to encode event")
		return
	}

	var slow []*streamClient
	s.mu.RLock()
	for client := range s.clients {
		if client.filter != nil && !client.filter[event.Name] {
			continue
		}
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}
	s.mu.RUnlock()

	for _, client := range slow {
		s.logger.Warn().Str("remote_addr", client.conn.RemoteAddr().String()).Msg("dropping slow stream client")
		s.remove(client)
	}
}

func (s *stream) remove(client *streamClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client]; !ok {
		return
	}
	delete(s.clients, client)
	close(client.send)
	s.metrics.streamClients.Dec()
}

func (s *stream) clientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// close disconnects every client and waits for their pumps to exit.
func (s *stream) close() {
	s.mu.Lock()
	s.closed = true
	for client := range s.clients {
		delete(s.clients, client)
		close(client.send)
		s.metrics.streamClients.Dec()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *stream) writePump(client *streamClient) {
	ticker := time.NewTicker(streamPingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
		s.wg.Done()
	}()

	for {
		select {
		case data, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.remove(client)
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.remove(client)
				return
			}
		}
	}
}

// readPump discards client messages; it exists to process control frames
// and notice disconnects.
func (s *stream) readPump(client *streamClient) {
	defer func() {
		s.remove(client)
		client.conn.Close()
		s.wg.Done()
	}()

	client.conn.SetReadLimit(4096)
	client.conn.SetReadDeadline(time.Now().Add(streamPongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Debug().Err(err).Msg("stream client read error")
			}
			return
		}
	}
}
