// ABOUTME: Relay server streaming scripted assistant turns over websocket
// ABOUTME: Each connection gets its own source, encoder and turn script
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/zimcore/argon/internal/discovery"
	"github.com/zimcore/argon/pkg/audio"
	"github.com/zimcore/argon/pkg/audio/encode"
)

// Config holds relay configuration
type Config struct {
	Port       int
	Name       string
	EnableMDNS bool
	AudioFile  string // MP3 to stream; empty streams a synthetic voice
	Codec      string // "pcm" or "opus"
	ChunkMs    int    // chunk length for pcm; opus always uses 20ms
	TurnMs     int    // length of each scripted turn
	PauseMs    int    // silence between turns
	Speedup    float64

	// InterruptEvery cuts every Nth turn halfway with an interrupted message
	InterruptEvery int
}

// DefaultConfig returns sensible relay defaults
func DefaultConfig() Config {
	return Config{
		Port:       8928,
		Name:       "Argon Relay",
		EnableMDNS: true,
		Codec:      "pcm",
		ChunkMs:    40,
		TurnMs:     3000,
		PauseMs:    1500,
		Speedup:    2,
	}
}

// Server is the relay server
type Server struct {
	config Config
	format audio.Format

	upgrader   websocket.Upgrader
	httpServer *http.Server
	mux        *http.ServeMux
	listener   net.Listener

	sessions   map[string]*session
	sessionsMu sync.Mutex

	mdnsManager *discovery.Manager

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a relay server
func New(config Config) (*Server, error) {
	if config.Codec != "pcm" && config.Codec != "opus" {
		return nil, fmt.Errorf("unsupported codec: %s (supported: pcm, opus)", config.Codec)
	}
	if config.ChunkMs <= 0 {
		config.ChunkMs = 40
	}
	if config.Speedup < 1 {
		config.Speedup = 1
	}

	format := audio.SessionOutput
	format.Codec = config.Codec

	s := &Server{
		config:   config,
		format:   format,
		mux:      http.NewServeMux(),
		sessions: make(map[string]*session),
		stopChan: make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.mux.HandleFunc(Path, s.handleWebSocket)
	return s, nil
}

// Handler exposes the relay's HTTP handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens and serves until Stop is called
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	log.Printf("Relay starting: %s (%s, %dms chunks)", s.config.Name, s.config.Codec, s.config.ChunkMs)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Path:        Path,
			Codec:       s.config.Codec,
		})
		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		}
	}

	s.httpServer = &http.Server{Handler: s.mux}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	log.Printf("WebSocket relay listening on %s", listener.Addr())

	var serverErr error
	select {
	case <-s.stopChan:
		log.Printf("Relay shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
	}

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	s.sessionsMu.Lock()
	for _, sess := range s.sessions {
		sess.cancel()
	}
	s.sessionsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.wg.Wait()
	log.Printf("Relay stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// Sessions returns the number of connected clients
func (s *Server) Sessions() int {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	return len(s.sessions)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.wg.Add(1)
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	select {
	case <-s.stopChan:
		log.Printf("Rejecting connection during shutdown")
		return
	default:
	}

	sess, err := s.newSession(conn)
	if err != nil {
		log.Printf("Failed to start session for %s: %v", r.RemoteAddr, err)
		return
	}
	defer sess.close()

	s.sessionsMu.Lock()
	s.sessions[sess.id] = sess
	s.sessionsMu.Unlock()

	log.Printf("Session %s connected from %s", sess.id, r.RemoteAddr)

	defer func() {
		s.sessionsMu.Lock()
		delete(s.sessions, sess.id)
		s.sessionsMu.Unlock()
		log.Printf("Session %s disconnected (mic bytes received: %d)", sess.id, sess.micBytes)
	}()

	sess.send(Message{
		Type:       TypeHello,
		Name:       s.config.Name,
		Codec:      s.format.Codec,
		SampleRate: s.format.SampleRate,
		Channels:   s.format.Channels,
	})

	sess.wg.Add(2)
	go func() {
		defer sess.wg.Done()
		sess.writer()
	}()
	go func() {
		defer sess.wg.Done()
		sess.stream()
	}()

	sess.reader()
	sess.cancel()
	sess.wg.Wait()
}

// session is one connected client
type session struct {
	id      string
	conn    *websocket.Conn
	config  Config
	format  audio.Format
	source  Source
	encoder encode.Encoder
	frames  int

	sendChan chan interface{}
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	micBytes int64
}

func (s *Server) newSession(conn *websocket.Conn) (*session, error) {
	source, err := NewSource(s.config.AudioFile, s.format)
	if err != nil {
		return nil, err
	}

	encoder, err := encode.New(s.format)
	if err != nil {
		source.Close()
		return nil, err
	}

	frames := encoder.ChunkFrames()
	if frames == 0 {
		frames = s.format.SampleRate * s.config.ChunkMs / 1000
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &session{
		id:       uuid.New().String(),
		conn:     conn,
		config:   s.config,
		format:   s.format,
		source:   source,
		encoder:  encoder,
		frames:   frames,
		sendChan: make(chan interface{}, 256),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

func (c *session) close() {
	c.cancel()
	c.encoder.Close()
	c.source.Close()
}

// reader consumes microphone audio until the client goes away
func (c *session) reader() {
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			c.cancel()
			return
		}
		if msgType == websocket.BinaryMessage {
			c.micBytes += int64(len(data))
		}
	}
}

// writer serializes all writes on the connection
func (c *session) writer() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case <-c.ctx.Done():
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return

		case msg := <-c.sendChan:
			var err error
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			switch v := msg.(type) {
			case []byte:
				err = c.conn.WriteMessage(websocket.BinaryMessage, v)
			default:
				var data []byte
				data, err = json.Marshal(v)
				if err == nil {
					err = c.conn.WriteMessage(websocket.TextMessage, data)
				}
			}
			if err != nil {
				log.Printf("Error writing to session %s: %v", c.id, err)
				c.cancel()
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				c.cancel()
				return
			}
		}
	}
}

func (c *session) send(msg interface{}) bool {
	select {
	case c.sendChan <- msg:
		return true
	case <-c.ctx.Done():
		return false
	}
}
