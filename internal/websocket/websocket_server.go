package websocket

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/luciancaetano/questnet"
	"github.com/luciancaetano/questnet/internal/codec"
	"github.com/luciancaetano/questnet/internal/identity"
)

var _ questnet.Server = (*Server)(nil)

// Server implements the questnet.Server interface
type Server struct {
	addr        string
	statusPath  string
	instanceID  string
	logger      logrus.FieldLogger
	connOpts    connectionOptions
	nextID      func() string
	statusCache *cache.Cache // nil when status caching is disabled

	connections sync.Map // map[string]questnet.Connection

	mu       sync.RWMutex
	running  bool
	stopping bool // set by Stop, cleared by Start
	listener net.Listener
	server   *http.Server
	done     chan struct{}
	upgrader websocket.Upgrader

	callbacksMu     sync.RWMutex
	onConnect       func(conn questnet.Connection)
	onError         func(err error)
	onStatusRequest func() string
}

// New creates a new server from cfg. Missing fields take their defaults.
//
// It fails only when cfg.Format names an unknown encoding.
func New(cfg *ServerConfig) (*Server, error) {
	cfg.applyDefaults()

	c, err := codec.New(cfg.Format, cfg.MaxMessageSize)
	if err != nil {
		return nil, err
	}

	s := &Server{
		addr:       cfg.Addr,
		statusPath: cfg.StatusPath,
		instanceID: cfg.InstanceID,
		logger:     cfg.Logger,
		nextID:     identity.NextID,
		connOpts: connectionOptions{
			codec:          c,
			logger:         cfg.Logger,
			keepalive:      *cfg.Keepalive,
			rateLimit:      cfg.RateLimitConfig,
			sendBufferSize: cfg.SendBufferSize,
			maxMessageSize: cfg.MaxMessageSize,
		},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}

	if cfg.StatusCacheTTL > 0 {
		s.statusCache = cache.New(cfg.StatusCacheTTL, 0)
	}

	return s, nil
}

// Start binds the listening address and serves in the background
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return questnet.ErrServerAlreadyRunning
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.mu.Unlock()
		transportErr := &questnet.TransportError{Op: "listen", Addr: s.addr, Err: err}
		s.reportError(transportErr)
		return transportErr
	}

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	done := make(chan struct{})

	s.listener = ln
	s.server = srv
	s.done = done
	s.running = true
	s.stopping = false
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"addr":     ln.Addr().String(),
		"encoding": s.connOpts.codec.Format(),
	}).Infof("server is listening on %s", ln.Addr())

	go s.serve(srv, ln)

	go func() {
		select {
		case <-ctx.Done():
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.Stop(stopCtx)
		case <-done:
		}
	}()

	return nil
}

func (s *Server) serve(srv *http.Server, ln net.Listener) {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.reportError(&questnet.TransportError{Op: "serve", Addr: ln.Addr().String(), Err: err})

		s.mu.Lock()
		if s.server == srv && s.running {
			s.running = false
			close(s.done)
		}
		s.mu.Unlock()
	}
}

// Stop closes every connection, even after a failed serve, and shuts the
// listener down
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.running = false
		close(s.done)
	}
	s.stopping = true
	srv := s.server
	s.server = nil
	s.mu.Unlock()

	// Close connections even when serve has already failed.
	s.ForEachConnection(func(conn questnet.Connection) {
		if c, ok := conn.(*Connection); ok {
			c.closeWithCode(websocket.CloseGoingAway, questnet.ReasonServerShutdown)
			return
		}
		conn.Close(questnet.ReasonServerShutdown)
	})

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return &questnet.TransportError{Op: "shutdown", Addr: s.Addr(), Err: err}
	}
	return nil
}

// Addr returns the bound address while running, else the configured one
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// OnConnect installs the new-connection callback
func (s *Server) OnConnect(callback func(conn questnet.Connection)) {
	s.callbacksMu.Lock()
	s.onConnect = callback
	s.callbacksMu.Unlock()
}

// OnError installs the transport error callback
func (s *Server) OnError(callback func(err error)) {
	s.callbacksMu.Lock()
	s.onError = callback
	s.callbacksMu.Unlock()
}

// OnStatusRequest installs the status text callback
func (s *Server) OnStatusRequest(callback func() string) {
	s.callbacksMu.Lock()
	s.onStatusRequest = callback
	s.callbacksMu.Unlock()

	if s.statusCache != nil {
		s.statusCache.Flush()
	}
}

func (s *Server) connectCallback() func(conn questnet.Connection) {
	s.callbacksMu.RLock()
	defer s.callbacksMu.RUnlock()
	return s.onConnect
}

func (s *Server) statusCallback() func() string {
	s.callbacksMu.RLock()
	defer s.callbacksMu.RUnlock()
	return s.onStatusRequest
}

func (s *Server) reportError(err error) {
	s.logger.WithError(err).Error("server error")

	s.callbacksMu.RLock()
	callback := s.onError
	s.callbacksMu.RUnlock()

	if callback != nil {
		callback(err)
	}
}

func (s *Server) isStopping() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopping
}

// register adds an accepted connection unless Stop has begun. Stop flips
// stopping under the same lock before it walks the registry, so a
// connection is either seen by Stop or refused here.
func (s *Server) register(conn *Connection) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopping {
		return false
	}
	s.AddConnection(conn)
	return true
}

// AddConnection registers conn under its ID
func (s *Server) AddConnection(conn questnet.Connection) {
	s.connections.Store(conn.ID(), conn)
}

// RemoveConnection deregisters the connection with the given id
func (s *Server) RemoveConnection(id string) {
	s.connections.Delete(id)
}

// GetConnection returns a connection by ID
func (s *Server) GetConnection(id string) (questnet.Connection, bool) {
	if conn, ok := s.connections.Load(id); ok {
		return conn.(questnet.Connection), true
	}
	return nil, false
}

// ForEachConnection applies callback to every registered connection
func (s *Server) ForEachConnection(callback func(conn questnet.Connection)) {
	s.connections.Range(func(key, value interface{}) bool {
		if conn, ok := value.(questnet.Connection); ok {
			callback(conn)
		}
		return true
	})
}

// ConnectionCount returns the number of registered connections
func (s *Server) ConnectionCount() int {
	count := 0
	s.connections.Range(func(key, value interface{}) bool {
		count++
		return true
	})
	return count
}

// Broadcast sends msg to all connected clients
func (s *Server) Broadcast(msg questnet.Message) {
	s.ForEachConnection(func(conn questnet.Connection) {
		conn.Send(msg)
	})
}
