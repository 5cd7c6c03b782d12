// This file is part of go-mc/server project.
// Copyright (C) 2023.  Tnze
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Йоу, чат! Оверлей - це живе вікно в колізійне дерево.
// Редактор карт підключається по вебсокету і отримує знімки дерева в msgpack,
// щоб намалювати всі прямокутники поверх карти. Хто не встигає читати -
// просто пропускає кадри, світ через нього не гальмує.

package overlay

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"SectorShooter/world"
)

// Hub роздає знімки всім підключеним клієнтам. Реалізує world.SnapshotViewer.
type Hub struct {
	log      *zap.Logger
	limiter  *rate.Limiter // скільки знімків на секунду реально відправляємо
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

var _ world.SnapshotViewer = (*Hub)(nil)

// NewHub створює хаб. limiter == nil - без обмеження.
func NewHub(log *zap.Logger, limiter *rate.Limiter) *Hub {
	return &Hub{
		log:     log,
		limiter: limiter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			// редактор карт працює з локальної машини, без браузерного Origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// ViewSnapshot кодує знімок один раз і кладе в черги всіх клієнтів
func (h *Hub) ViewSnapshot(s *world.Snapshot) {
	if h.limiter != nil && !h.limiter.Allow() {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}
	data, err := s.EncodeMsgpack()
	if err != nil {
		h.log.Error("Encode snapshot error", zap.Error(err))
		return
	}
	for c := range h.clients {
		if !c.trySend(data) {
			h.log.Debug("Client too slow, frame dropped",
				zap.String("addr", c.addr),
				zap.Int64("tick", s.Tick),
			)
		}
	}
}

// ServeHTTP приймає вебсокет-підключення
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Info("Upgrade error", zap.Error(err))
		return
	}
	c := newClient(h, conn, r.RemoteAddr)
	if !h.register(c) {
		_ = conn.Close()
		return
	}
	h.log.Info("Overlay client connected", zap.String("addr", c.addr))

	go c.writePump()
	go c.readPump()
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.log.Info("Overlay client disconnected", zap.String("addr", c.addr))
	}
}

// Len - кількість підключених клієнтів
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close відключає всіх клієнтів і більше нікого не приймає
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
