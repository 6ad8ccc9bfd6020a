/*
File Name:  status.go
Package:    webapi

webapi exposes a small local HTTP surface for inspecting a running node:
its own address, its known clients, and a websocket stream of datagrams
passing through it, mirroring the core package's administrative API in
shape while replacing its domain.
*/

package webapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Azoozya/toktok/netio"
	"github.com/Azoozya/toktok/signal"
	"github.com/Azoozya/toktok/wire"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// wsUpgrader allows all origins; this API is intended for local/trusted
// administrative access only.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Instance serves the status API for one node.
type Instance struct {
	net    *netio.Network
	feed   signal.Signal[wire.Datagram]
	log    *logrus.Entry
	Router *mux.Router
}

// New builds an Instance and registers its routes. feed, when non-nil, is
// subscribed to by /status/stream websocket clients to receive a live feed
// of datagrams; pass a broadcast signal's handle here to wire it up, or
// nil to disable streaming.
func New(net *netio.Network, feed signal.Signal[wire.Datagram], log *logrus.Entry) *Instance {
	inst := &Instance{net: net, feed: feed, log: log, Router: mux.NewRouter()}

	inst.Router.HandleFunc("/status", inst.statusHandler).Methods("GET")
	inst.Router.HandleFunc("/status/peers", inst.peersHandler).Methods("GET")
	inst.Router.HandleFunc("/status/stream", inst.streamHandler).Methods("GET")

	return inst
}

// Serve starts an HTTP server on addr using Instance's router. It blocks
// until the server stops or errors.
func (inst *Instance) Serve(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      inst.Router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}

type statusResponse struct {
	LocalAddr     string `json:"local_addr"`
	Broadcastable bool   `json:"broadcastable"`
}

func (inst *Instance) statusHandler(w http.ResponseWriter, r *http.Request) {
	encodeJSON(inst.log, w, r, statusResponse{
		LocalAddr:     inst.net.LocalAddr().String(),
		Broadcastable: inst.net.Broadcastable(),
	})
}

func (inst *Instance) peersHandler(w http.ResponseWriter, r *http.Request) {
	// The Network registry does not expose a full listing by design (only
	// membership tests), so status/peers always answers with an empty list.
	encodeJSON(inst.log, w, r, []string{})
}

func (inst *Instance) streamHandler(w http.ResponseWriter, r *http.Request) {
	if inst.feed == nil {
		http.Error(w, "streaming not enabled", http.StatusNotImplemented)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		inst.log.WithError(err).Debug("webapi: websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := inst.feed.Subscribe()
	defer sub.Close()

	id := uuid.New()
	log := inst.log.WithField("stream", id)

	for {
		dg, ok, err := sub.Recv(r.Context())
		if err != nil || !ok {
			return
		}
		if err := conn.WriteJSON(dg.Data.Header().String()); err != nil {
			log.WithError(err).Debug("webapi: stream write failed")
			return
		}
	}
}

func encodeJSON(log *logrus.Entry, w http.ResponseWriter, r *http.Request, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Debugf("webapi: error writing response for %s", r.URL.Path)
	}
}
