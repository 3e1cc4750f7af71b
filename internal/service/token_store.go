package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RefreshTokenStore keeps refresh token jtis so they can be revoked,
// individually or all at once for a user (global sign-out).
type RefreshTokenStore interface {
	Store(jti, userID string, ttl time.Duration) error
	Exists(jti string) (bool, error)
	Revoke(jti string) error
	RevokeAllForUser(userID string) error
}

// AccessDenylist records access token jtis invalidated before their natural
// expiry. Consulted by the auth middleware on every authenticated call.
type AccessDenylist interface {
	Deny(jti string, ttl time.Duration) error
	IsDenied(jti string) (bool, error)
}

type refreshEntry struct {
	userID    string
	expiresAt time.Time
}

type memoryRefreshTokenStore struct {
	mu     sync.Mutex
	items  map[string]refreshEntry
	byUser map[string]map[string]struct{}
}

func NewMemoryRefreshTokenStore() RefreshTokenStore {
	return &memoryRefreshTokenStore{
		items:  make(map[string]refreshEntry),
		byUser: make(map[string]map[string]struct{}),
	}
}

func (s *memoryRefreshTokenStore) Store(jti, userID string, ttl time.Duration) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[jti] = refreshEntry{userID: userID, expiresAt: time.Now().UTC().Add(ttl)}
	if userID != "" {
		if s.byUser[userID] == nil {
			s.byUser[userID] = make(map[string]struct{})
		}
		s.byUser[userID][jti] = struct{}{}
	}
	return nil
}

func (s *memoryRefreshTokenStore) Exists(jti string) (bool, error) {
	jti = strings.TrimSpace(jti)
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[jti]
	if !ok {
		return false, nil
	}
	if time.Now().UTC().After(entry.expiresAt) {
		s.remove(jti, entry.userID)
		return false, nil
	}
	return true, nil
}

func (s *memoryRefreshTokenStore) Revoke(jti string) error {
	jti = strings.TrimSpace(jti)
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.items[jti]; ok {
		s.remove(jti, entry.userID)
	}
	return nil
}

func (s *memoryRefreshTokenStore) RevokeAllForUser(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for jti := range s.byUser[userID] {
		delete(s.items, jti)
	}
	delete(s.byUser, userID)
	return nil
}

func (s *memoryRefreshTokenStore) remove(jti, userID string) {
	delete(s.items, jti)
	if set, ok := s.byUser[userID]; ok {
		delete(set, jti)
		if len(set) == 0 {
			delete(s.byUser, userID)
		}
	}
}

// redisKV is the subset of redis.Client commands the stores need. Narrowed
// so tests can stub it.
type redisKV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

type redisRefreshTokenStore struct {
	client redisKV
	prefix string
}

func NewRedisRefreshTokenStore(client *redis.Client) RefreshTokenStore {
	if client == nil {
		return nil
	}
	return &redisRefreshTokenStore{
		client: client,
		prefix: "auth:refresh:",
	}
}

func (s *redisRefreshTokenStore) Store(jti, userID string, ttl time.Duration) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	ctx, cancel := storeContext()
	defer cancel()
	if err := s.client.Set(ctx, s.prefix+jti, userID, ttl).Err(); err != nil {
		return err
	}
	if userID == "" {
		return nil
	}
	userKey := s.prefix + "user:" + userID
	if err := s.client.SAdd(ctx, userKey, jti).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, userKey, ttl).Err()
}

func (s *redisRefreshTokenStore) Exists(jti string) (bool, error) {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return false, nil
	}
	ctx, cancel := storeContext()
	defer cancel()
	n, err := s.client.Exists(ctx, s.prefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *redisRefreshTokenStore) Revoke(jti string) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return nil
	}
	ctx, cancel := storeContext()
	defer cancel()
	return s.client.Del(ctx, s.prefix+jti).Err()
}

func (s *redisRefreshTokenStore) RevokeAllForUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	ctx, cancel := storeContext()
	defer cancel()
	userKey := s.prefix + "user:" + userID
	jtis, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return err
	}
	keys := []string{userKey}
	for _, jti := range jtis {
		keys = append(keys, s.prefix+jti)
	}
	return s.client.Del(ctx, keys...).Err()
}

type memoryAccessDenylist struct {
	mu    sync.Mutex
	items map[string]time.Time
}

func NewMemoryAccessDenylist() AccessDenylist {
	return &memoryAccessDenylist{items: make(map[string]time.Time)}
}

func (d *memoryAccessDenylist) Deny(jti string, ttl time.Duration) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items[jti] = time.Now().UTC().Add(ttl)
	return nil
}

func (d *memoryAccessDenylist) IsDenied(jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	exp, ok := d.items[jti]
	if !ok {
		return false, nil
	}
	if time.Now().UTC().After(exp) {
		delete(d.items, jti)
		return false, nil
	}
	return true, nil
}

type redisAccessDenylist struct {
	client redisKV
	prefix string
}

func NewRedisAccessDenylist(client *redis.Client) AccessDenylist {
	if client == nil {
		return nil
	}
	return &redisAccessDenylist{
		client: client,
		prefix: "auth:denied:",
	}
}

func (d *redisAccessDenylist) Deny(jti string, ttl time.Duration) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	ctx, cancel := storeContext()
	defer cancel()
	return d.client.Set(ctx, d.prefix+jti, "1", ttl).Err()
}

func (d *redisAccessDenylist) IsDenied(jti string) (bool, error) {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return false, nil
	}
	ctx, cancel := storeContext()
	defer cancel()
	n, err := d.client.Exists(ctx, d.prefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 500*time.Millisecond)
}
