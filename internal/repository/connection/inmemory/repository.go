package inmemory

import (
	"sync"

	"github.com/watchalong/server/internal/repository/connection"
	"github.com/watchalong/server/pkg/wsconn"
)

type repo struct {
	connList map[*wsconn.Conn]string
	idList   map[string]*wsconn.Conn
	mu       sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		connList: make(map[*wsconn.Conn]string),
		idList:   make(map[string]*wsconn.Conn),
	}
}

func (r *repo) Add(conn *wsconn.Conn, connectionId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connList[conn] != "" || r.idList[connectionId] != nil {
		return connection.ErrAlreadyExists
	}

	r.connList[conn] = connectionId
	r.idList[connectionId] = conn

	return nil
}

func (r *repo) RemoveByConnectionId(connectionId string) (*wsconn.Conn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.idList[connectionId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, connectionId)

	return conn, nil
}

func (r *repo) GetConn(connectionId string) (*wsconn.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.idList[connectionId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}
