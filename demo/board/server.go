package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"kvbench/lineclient"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server exposes the board over HTTP and pushes every change to SSE and websocket
// listeners.
type Server struct {
	store    *Store
	hub      *Hub
	router   *mux.Router
	logger   *zap.Logger
	upgrader websocket.Upgrader

	stop     chan struct{}
	stopOnce sync.Once
}

func NewServer(store *Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:  store,
		hub:    NewHub(),
		router: mux.NewRouter(),
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		stop: make(chan struct{}),
	}
	s.setupRoutes()
	return s
}

func (s *Server) Router() http.Handler {
	return s.router
}

// Close ends every open event stream so the HTTP server can shut down.
func (s *Server) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
	s.router.HandleFunc("/tweets", s.handlePush).Methods("POST")
	s.router.HandleFunc("/tweets/first", s.handlePrepend).Methods("POST")
	s.router.HandleFunc("/tweets/last", s.handlePop(ActionPopLast)).Methods("DELETE")
	s.router.HandleFunc("/tweets/first", s.handlePop(ActionPopFirst)).Methods("DELETE")
	s.router.HandleFunc("/tweets/count", s.handleCount).Methods("GET")
	s.router.HandleFunc("/tweets_list", s.handleList).Methods("GET")
	s.router.HandleFunc("/events", s.handleEvents).Methods("GET")
	s.router.HandleFunc("/ws", s.handleWebSocket).Methods("GET")
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

// handlePush appends the form field text. command=lpush puts it on top instead.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	if r.FormValue("command") == ActionPrepend {
		s.handlePrepend(w, r)
		return
	}
	text := r.FormValue("text")
	if err := s.store.Append(text); err != nil {
		s.writeError(w, err)
		return
	}
	s.hub.Broadcast(Event{Action: ActionAppend, Text: text})
	writeJSON(w, http.StatusCreated, Event{Action: ActionAppend, Text: text})
}

func (s *Server) handlePrepend(w http.ResponseWriter, r *http.Request) {
	text := r.FormValue("text")
	if err := s.store.Prepend(text); err != nil {
		s.writeError(w, err)
		return
	}
	s.hub.Broadcast(Event{Action: ActionPrepend, Text: text})
	writeJSON(w, http.StatusCreated, Event{Action: ActionPrepend, Text: text})
}

func (s *Server) handlePop(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var text string
		var err error
		if action == ActionPopFirst {
			text, err = s.store.PopFirst()
		} else {
			text, err = s.store.PopLast()
		}
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.hub.Broadcast(Event{Action: action, Text: text})
		writeJSON(w, http.StatusOK, Event{Action: action, Text: text})
	}
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Count()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	tweets, err := s.store.List()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tweets)
}

// handleEvents streams every board change as a Server-Sent Event.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	events, cancel := s.hub.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.stop:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Warn("Failed to encode event", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// handleWebSocket sends every board change as a JSON text message.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	events, cancel := s.hub.Subscribe()
	defer cancel()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// the reader only notices when the peer goes away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-s.stop:
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidText):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrEmpty):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, lineclient.ErrIO):
		s.logger.Error("Store unreachable", zap.Error(err))
		http.Error(w, "store unavailable", http.StatusBadGateway)
	default:
		s.logger.Error("Store request failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
