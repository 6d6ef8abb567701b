package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"nhooyr.io/websocket"

	"github.com/invin-app/invin-core/internal/feed"
	"github.com/invin-app/invin-core/internal/puzzle"
	"github.com/invin-app/invin-core/internal/session"
)

// Msg is the wire envelope in both directions.
type Msg struct {
	T string                 `json:"t"`
	M map[string]interface{} `json:"m,omitempty"`
}

type envelope struct {
	T string      `json:"t"`
	M interface{} `json:"m,omitempty"`
}

// Gateway exposes one session engine per websocket connection. Inbound
// messages map to engine actions; outbound messages mirror the engine's
// listener events. The client's "transition_done" message is the
// animation-complete signal the engine waits for.
type Gateway struct {
	feedBaseURL string
	pageSize    int
}

func NewGateway(feedBaseURL string, pageSize int) *Gateway {
	return &Gateway{
		feedBaseURL: feedBaseURL,
		pageSize:    pageSize,
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	sock, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return
	}

	client := feed.NewClient(g.feedBaseURL, token)
	c := &conn{
		sock: sock,
		send: make(chan []byte, 64),
	}
	c.engine = session.New(client, client, c, session.Config{
		PageSize:    g.pageSize,
		AutoRefetch: true,
	})

	ctx := r.Context()
	go c.writeLoop(ctx)
	log.Printf("ws: client connected")
	c.engine.Start()
	c.readLoop(ctx)
	c.closeSend()
	log.Printf("ws: client disconnected")
}

type conn struct {
	sock   *websocket.Conn
	send   chan []byte
	engine *session.Engine

	mu     sync.Mutex
	closed bool
}

func (c *conn) readLoop(ctx context.Context) {
	defer c.sock.Close(websocket.StatusNormalClosure, "")
	for {
		_, data, err := c.sock.Read(ctx)
		if err != nil {
			return
		}
		var msg Msg
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		c.dispatch(msg)
	}
}

func (c *conn) dispatch(msg Msg) {
	switch msg.T {
	case "answer":
		c.engine.SubmitAnswer(str(msg.M, "value"))
	case "guess":
		c.engine.SubmitGuess(str(msg.M, "value"))
	case "skip":
		c.engine.Skip()
	case "advance":
		c.engine.Advance()
	case "transition_done":
		c.engine.CompleteTransition()
	case "select":
		c.engine.SelectSquare(str(msg.M, "square"))
	case "move":
		c.engine.AttemptMove(str(msg.M, "from"), str(msg.M, "to"))
	default:
		log.Printf("ws: unknown message type %q", msg.T)
	}
}

func (c *conn) writeLoop(ctx context.Context) {
	for data := range c.send {
		if err := c.sock.Write(ctx, websocket.MessageText, data); err != nil {
			return
		}
	}
}

func (c *conn) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// push never blocks: a slow or closed connection drops events rather
// than stalling an engine callback.
func (c *conn) push(t string, m interface{}) {
	data, err := json.Marshal(envelope{T: t, M: m})
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// session.Listener

func (c *conn) StateChanged(state session.State) {
	c.push("state", map[string]interface{}{"state": state.String()})
}

func (c *conn) FeedbackReady(fb session.Feedback) {
	c.push("feedback", fb)
}

func (c *conn) StatsUpdated(stats session.Stats) {
	c.push("stats", stats)
}

func (c *conn) HintRevealed(hint string, hintsUsed int) {
	c.push("hint", map[string]interface{}{"hint": hint, "hints_used": hintsUsed})
}

func (c *conn) PuzzleUpdated(snap puzzle.Snapshot) {
	c.push("puzzle", snap)
}

func (c *conn) BatchChanged(index, length int) {
	item, ok := c.engine.CurrentItem()
	m := map[string]interface{}{"index": index, "length": length}
	if ok {
		m["item"] = item
	}
	c.push("batch", m)
}

func str(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
