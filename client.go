package main

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Client struct {
	conn  *websocket.Conn
	send  chan any
	id    string
	admin bool
}

// newConnID generates a per-connection identifier. Unlike a cookie this is
// never reused; reconnecting players resume their score by display name
// instead.
func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		log.Println("rand.Read error:", err)
		return ""
	}
	return hex.EncodeToString(buf)
}

// serveWS upgrades player connections on /ws.
func serveWS(cfg *Config, hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		serveConn(cfg, hub, false, w, r)
	}
}

// serveAdminWS upgrades host console connections on /admin/ws. Basic auth
// has already been checked by the time this runs.
func serveAdminWS(cfg *Config, hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		serveConn(cfg, hub, true, w, r)
	}
}

func serveConn(cfg *Config, hub *Hub, admin bool, w http.ResponseWriter, r *http.Request) {
	connID := newConnID()
	if connID == "" {
		http.Error(w, "unable to assign connection id", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade error:", err)
		return
	}

	client := &Client{
		conn:  conn,
		send:  make(chan any, 8),
		id:    connID,
		admin: admin,
	}

	logf(cfg, "WS: %s connection %s from %s", roleName(admin), connID, realIP(r))

	hub.register <- client

	go client.writePump()
	client.readPump(hub)
}

func roleName(admin bool) string {
	if admin {
		return "Host"
	}
	return "Player"
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unreg <- c
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "join":
			h.joins <- clientEvent{
				client: c,
				msg:    msg,
			}
		case "submit_answer":
			h.answers <- clientEvent{
				client: c,
				msg:    msg,
			}
		case "start_game", "next_question", "audio_finished", "repeat_question",
			"show_answer", "end_game", "give_point", "take_point":
			h.control <- clientEvent{
				client: c,
				msg:    msg,
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
