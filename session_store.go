package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps the nonce for each in-progress verification session.
// Should be safe to use concurrently.
type SessionStore interface {
	// StoreNonce stores the nonce for the given session id, overwriting
	// any previous value.
	StoreNonce(sessionId string, nonce string) error

	// RetrieveNonce returns the nonce for the given session id, or an
	// error when it is unknown.
	RetrieveNonce(sessionId string) (string, error)

	// RemoveNonce deletes the nonce. A missing value is an error: it
	// means the session was already consumed or never existed.
	RemoveNonce(sessionId string) error
}

type InMemorySessionStore struct {
	nonces map[string]string
	mutex  sync.Mutex
}

func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		nonces: make(map[string]string),
	}
}

func (s *InMemorySessionStore) StoreNonce(sessionId, nonce string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.nonces[sessionId] = nonce
	return nil
}

func (s *InMemorySessionStore) RetrieveNonce(sessionId string) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if nonce, ok := s.nonces[sessionId]; ok {
		return nonce, nil
	}
	return "", fmt.Errorf("failed to find nonce for %s", sessionId)
}

func (s *InMemorySessionStore) RemoveNonce(sessionId string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.nonces[sessionId]; !ok {
		return fmt.Errorf("failed to remove nonce for %s, because it wasn't there", sessionId)
	}
	delete(s.nonces, sessionId)
	return nil
}

// ------------------------------------------------------------------------------

type RedisSessionStore struct {
	client    *redis.Client
	namespace string
}

func NewRedisSessionStore(client *redis.Client, namespace string) *RedisSessionStore {
	return &RedisSessionStore{client: client, namespace: namespace}
}

func sessionKey(namespace, sessionId string) string {
	return fmt.Sprintf("%s:flow:%s", namespace, sessionId)
}

// A verification attempt is transient; anything older than this is stale.
const SessionTTL time.Duration = 30 * time.Minute

func (s *RedisSessionStore) StoreNonce(sessionId string, nonce string) error {
	ctx := context.Background()
	return s.client.Set(ctx, sessionKey(s.namespace, sessionId), nonce, SessionTTL).Err()
}

func (s *RedisSessionStore) RetrieveNonce(sessionId string) (string, error) {
	ctx := context.Background()
	return s.client.Get(ctx, sessionKey(s.namespace, sessionId)).Result()
}

func (s *RedisSessionStore) RemoveNonce(sessionId string) error {
	ctx := context.Background()
	return s.client.Del(ctx, sessionKey(s.namespace, sessionId)).Err()
}
