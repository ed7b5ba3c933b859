// Package server exposes the local monitor surface: live notification and
// state streaming over WebSocket plus a small REST API for diagnostics and
// property access.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/openlowpan/rcpd/internal/config"
	"github.com/openlowpan/rcpd/internal/events"
	"github.com/openlowpan/rcpd/internal/rcp"
	"github.com/openlowpan/rcpd/internal/spinel"
)

// Server broadcasts device notifications to WebSocket clients and answers
// REST queries against the connected RCP.
type Server struct {
	cfg    *config.Config
	client *rcp.Client
	feed   *events.ChanSink
	log    zerolog.Logger

	clients   map[*wsClient]struct{}
	clientsMu sync.RWMutex

	upgrader websocket.Upgrader
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Message is the JSON structure sent to all WebSocket clients.
type Message struct {
	Type         string               `json:"type"` // "notification" or "state"
	State        string               `json:"state,omitempty"`
	Notification *events.Notification `json:"notification,omitempty"`
	Stamp        int64                `json:"stamp"` // Unix ms
}

// New creates a Server. feed is the notification stream it fans out to
// WebSocket clients.
func New(cfg *config.Config, client *rcp.Client, feed *events.ChanSink, log zerolog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		client:  client,
		feed:    feed,
		log:     log,
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// NotifyState broadcasts a connection state change to all clients.
func (s *Server) NotifyState(state rcp.State) {
	s.broadcast(Message{
		Type:  "state",
		State: state.String(),
		Stamp: time.Now().UnixMilli(),
	})
}

// Run starts the HTTP server and the notification fan-out, blocking until ctx
// is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	go s.fanOut(ctx)

	srv := &http.Server{
		Addr:    s.cfg.Monitor.ListenAddr,
		Handler: s.routes(),
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	s.log.Info().Str("addr", s.cfg.Monitor.ListenAddr).Msg("monitor listening")
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/reset", s.handleReset)
	mux.HandleFunc("/api/property", s.handleProperty)
	return mux
}

// fanOut drains the notification feed and broadcasts each entry.
func (s *Server) fanOut(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-s.feed.C():
			s.broadcast(Message{
				Type:         "notification",
				Notification: &n,
				Stamp:        time.Now().UnixMilli(),
			})
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, 64),
	}

	s.clientsMu.Lock()
	s.clients[client] = struct{}{}
	total := len(s.clients)
	s.clientsMu.Unlock()
	s.log.Info().Int("total", total).Msg("websocket client connected")

	// Current state first, so a new client can render immediately.
	hello := Message{
		Type:  "state",
		State: s.client.State().String(),
		Stamp: time.Now().UnixMilli(),
	}
	if data, err := json.Marshal(hello); err == nil {
		client.send <- data
	}

	// Writer goroutine
	go func() {
		defer conn.Close()
		for msg := range client.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	// Reader goroutine (keep-alive; inbound messages are ignored)
	go func() {
		defer func() {
			s.clientsMu.Lock()
			delete(s.clients, client)
			total := len(s.clients)
			s.clientsMu.Unlock()
			close(client.send)
			s.log.Info().Int("total", total).Msg("websocket client disconnected")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.client.Stats())
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, err := s.cfg.ToJSON()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	if err := s.client.Reset(ctx); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// propertyResult is the REST shape for a single property read or write.
type propertyResult struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

func (s *Server) handleProperty(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		name := r.URL.Query().Get("name")
		prop, ok := spinel.PropertyByName(name)
		if !ok {
			http.Error(w, fmt.Sprintf("unknown property %q", name), http.StatusNotFound)
			return
		}
		val, err := s.client.GetProperty(r.Context(), prop)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, propertyResult{Name: prop.Name(), Value: val})

	case http.MethodPost:
		var req propertyResult
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		prop, ok := spinel.PropertyByName(req.Name)
		if !ok {
			http.Error(w, fmt.Sprintf("unknown property %q", req.Name), http.StatusNotFound)
			return
		}
		val, err := coerceValue(prop.Type(), req.Value)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.client.SetProperty(r.Context(), prop, val); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, propertyResult{Name: prop.Name(), Value: val})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// coerceValue narrows a JSON-decoded value to the Go type the property's wire
// type expects. JSON numbers arrive as float64.
func coerceValue(t spinel.DataType, v any) (any, error) {
	switch t {
	case spinel.TypeBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("server: expected boolean, got %T", v)
		}
		return b, nil
	case spinel.TypeUTF8:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("server: expected string, got %T", v)
		}
		return s, nil
	case spinel.TypeUint8, spinel.TypeInt8, spinel.TypeUint16, spinel.TypeInt16,
		spinel.TypeUint32, spinel.TypeInt32:
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("server: expected number, got %T", v)
		}
		return narrowNumber(t, f)
	default:
		return nil, fmt.Errorf("server: %v properties are not settable over the REST API", t)
	}
}

func narrowNumber(t spinel.DataType, f float64) (any, error) {
	if f != float64(int64(f)) {
		return nil, fmt.Errorf("server: expected integer, got %v", f)
	}
	n := int64(f)
	switch t {
	case spinel.TypeUint8:
		if n < 0 || n > 0xFF {
			return nil, fmt.Errorf("server: %d out of range for uint8", n)
		}
		return uint8(n), nil
	case spinel.TypeInt8:
		if n < -128 || n > 127 {
			return nil, fmt.Errorf("server: %d out of range for int8", n)
		}
		return int8(n), nil
	case spinel.TypeUint16:
		if n < 0 || n > 0xFFFF {
			return nil, fmt.Errorf("server: %d out of range for uint16", n)
		}
		return uint16(n), nil
	case spinel.TypeInt16:
		if n < -32768 || n > 32767 {
			return nil, fmt.Errorf("server: %d out of range for int16", n)
		}
		return int16(n), nil
	case spinel.TypeUint32:
		if n < 0 || n > 0xFFFFFFFF {
			return nil, fmt.Errorf("server: %d out of range for uint32", n)
		}
		return uint32(n), nil
	case spinel.TypeInt32:
		if n < -2147483648 || n > 2147483647 {
			return nil, fmt.Errorf("server: %d out of range for int32", n)
		}
		return int32(n), nil
	}
	return nil, fmt.Errorf("server: unsupported numeric type %v", t)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers already sent; nothing useful left to do.
		return
	}
}

func (s *Server) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for client := range s.clients {
		select {
		case client.send <- data:
		default:
			// Client too slow, skip
		}
	}
}
