// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vechain/stakevault/api/logs"
	"github.com/vechain/stakevault/api/utils"
	"github.com/vechain/stakevault/log"
	"github.com/vechain/stakevault/logdb"
	"github.com/vechain/stakevault/state"
	"github.com/vechain/stakevault/thor"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	clientBufferSize = 256
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = pongWait * 7 / 10
)

type client struct {
	account *thor.Address
	send    chan *logs.Event
}

// Subscriptions streams committed vault events over websocket.
// A client that does not keep up is disconnected, so slow readers never
// hold back the ledger.
type Subscriptions struct {
	upgrader *websocket.Upgrader
	sub      event.Subscription

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func New(st *state.State, allowedOrigins []string) *Subscriptions {
	ch := make(chan []state.Event, 64)
	s := &Subscriptions{
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == origin || allowed == "*" {
						return true
					}
				}
				return false
			},
		},
		clients: make(map[*client]struct{}),
		done:    make(chan struct{}),
	}
	s.sub = st.SubscribeEvents(ch)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.dispatch(ch)
	}()
	return s
}

func (s *Subscriptions) dispatch(ch <-chan []state.Event) {
	for {
		select {
		case <-s.done:
			return
		case <-s.sub.Err():
			return
		case events := <-ch:
			for _, ev := range events {
				if e, ok := logdb.NewEvent(ev); ok {
					s.broadcast(logs.ConvertEvent(e))
				}
			}
		}
	}
}

func (s *Subscriptions) broadcast(msg *logs.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		if c.account != nil && (msg.Account == nil || *msg.Account != *c.account) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			logger.Debug("dropping slow subscriber")
			delete(s.clients, c)
			close(c.send)
		}
	}
}

func (s *Subscriptions) register(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.clients[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Subscriptions) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.clients, c)
	s.wg.Done()
}

func (s *Subscriptions) handleSubscribeVault(w http.ResponseWriter, req *http.Request) error {
	c := &client{send: make(chan *logs.Event, clientBufferSize)}
	if a := req.URL.Query().Get("account"); a != "" {
		addr, err := thor.ParseAddress(a)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "account"))
		}
		c.account = &addr
	}

	// registered before the handshake completes, so the client sees every
	// event committed after its dial returns
	if !s.register(c) {
		return utils.HTTPError(errors.New("service closed"), http.StatusServiceUnavailable)
	}
	defer s.unregister(c)

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has replied
		logger.Debug("upgrade failed", "err", err)
		return nil
	}
	defer conn.Close()

	s.pipe(conn, c)
	return nil
}

func (s *Subscriptions) pipe(conn *websocket.Conn, c *client) {
	// read side only watches for pongs and the peer going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(1024)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	closeWith := func(code int, text string) {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
	}
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				closeWith(websocket.ClosePolicyViolation, "slow consumer")
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-gone:
			return
		case <-s.done:
			closeWith(websocket.CloseGoingAway, "")
			return
		}
	}
}

// Close disconnects all clients and stops following the state.
func (s *Subscriptions) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	s.mu.Unlock()

	s.sub.Unsubscribe()
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/vault").
		Methods(http.MethodGet).
		Name("WS /subscriptions/vault").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeVault))
}
