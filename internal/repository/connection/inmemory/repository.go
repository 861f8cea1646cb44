package inmemory

import (
	"log/slog"
	"sync"

	"github.com/sharetube/syncroom/internal/repository/connection"
)

type repo struct {
	clients map[string]*connection.Client
	mu      sync.RWMutex
	logger  *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		clients: make(map[string]*connection.Client),
		logger:  logger,
	}
}

func (r *repo) Add(client *connection.Client) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[client.ID()]; ok {
		r.logger.Info(funcName, "error", connection.ErrAlreadyExists, "conn_id", client.ID())
		return connection.ErrAlreadyExists
	}
	r.clients[client.ID()] = client

	r.logger.Debug(funcName, "conn_id", client.ID(), "connections", len(r.clients))
	return nil
}

func (r *repo) Remove(connID string) (*connection.Client, error) {
	funcName := "connection.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[connID]
	if !ok {
		return nil, connection.ErrNotFound
	}
	delete(r.clients, connID)

	r.logger.Debug(funcName, "conn_id", connID, "connections", len(r.clients))
	return client, nil
}

func (r *repo) Get(connID string) (*connection.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[connID]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return client, nil
}

func (r *repo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.clients)
}

// CloseAll closes every connection, which ends their read loops.
func (r *repo) CloseAll() {
	r.mu.RLock()
	clients := make([]*connection.Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.RUnlock()

	for _, c := range clients {
		c.Close()
	}
}
