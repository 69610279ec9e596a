package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oxygene76/orrery/internal/types"
	"github.com/oxygene76/orrery/pkg/render"
	"github.com/oxygene76/orrery/pkg/scene"
)

const writeWait = 10 * time.Second

const replyBuffer = 16

// streamClient holds at most one pending frame; a newer frame replaces an
// unsent one. Acks and errors queue separately and are never dropped.
type streamClient struct {
	conn    *websocket.Conn
	frames  chan []byte
	replies chan []byte
	done    chan struct{}
	once    sync.Once
}

func newStreamClient(conn *websocket.Conn) *streamClient {
	return &streamClient{
		conn:    conn,
		frames:  make(chan []byte, 1),
		replies: make(chan []byte, replyBuffer),
		done:    make(chan struct{}),
	}
}

func (c *streamClient) deliver(msg []byte) {
	select {
	case c.frames <- msg:
		return
	default:
	}
	select {
	case <-c.frames:
	default:
	}
	select {
	case c.frames <- msg:
	default:
	}
}

// reply queues a response to a client command, waiting for room unless
// the client is gone
func (c *streamClient) reply(msg []byte) {
	select {
	case c.replies <- msg:
	case <-c.done:
	}
}

func (c *streamClient) close() {
	c.once.Do(func() { close(c.done) })
}

type hub struct {
	mu      sync.Mutex
	clients map[*streamClient]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[*streamClient]struct{})}
}

func (h *hub) add(c *streamClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(c *streamClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *hub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.deliver(msg)
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
	}
}

func frameMessage(f render.Frame) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return json.Marshal(types.StreamMessage{Type: types.MessageFrame, Seq: f.Seq, Data: data})
}

func errorMessage(err error) []byte {
	b, _ := json.Marshal(types.StreamMessage{Type: types.MessageError, Error: err.Error()})
	return b
}

// handleStream upgrades to a websocket, sends the current frame and then
// every published frame. Text messages from the client are control
// commands.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Warning: websocket upgrade failed: %v", err)
		return
	}

	c := newStreamClient(conn)
	s.hub.add(c)
	s.metrics.StreamConnected(1)
	defer func() {
		s.hub.remove(c)
		s.metrics.StreamConnected(-1)
		conn.Close()
	}()

	if msg, err := frameMessage(s.viewer.Frame()); err == nil {
		c.deliver(msg)
	}

	go s.readCommands(c)

	for {
		var msg []byte
		select {
		case <-c.done:
			return
		case msg = <-c.replies:
		case msg = <-c.frames:
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.close()
			return
		}
	}
}

func (s *Server) readCommands(c *streamClient) {
	defer c.close()
	for {
		var cmd scene.Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Warning: stream client read failed: %v", err)
			}
			return
		}
		resp, err := s.viewer.Apply(cmd)
		if err != nil {
			c.reply(errorMessage(err))
			continue
		}
		data, _ := json.Marshal(resp)
		ack, _ := json.Marshal(types.StreamMessage{Type: types.MessageAck, Data: data})
		c.reply(ack)
	}
}
