package repository

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/crypto/nacl/secretbox"
)

const credentialKeyPrefix = "puntoazul_auth:"

var ErrNoCredential = errors.New("not authenticated")

// Credential is what a login leaves behind for a session.
type Credential struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CredentialProvider stores one credential per session. Expiry is checked on
// every Get; an expired credential is removed and reported as ErrNoCredential.
type CredentialProvider interface {
	Get(ctx context.Context, sessionID string) (*Credential, error)
	Set(ctx context.Context, sessionID string, cred Credential) error
	Clear(ctx context.Context, sessionID string) error
	PurgeExpired(ctx context.Context) (int, error)
}

func credentialKey(sessionID string) string {
	return credentialKeyPrefix + sessionID
}

// Sealer encrypts credentials at rest with NaCl secretbox.
type Sealer struct {
	key [32]byte
}

// NewSealer derives the box key from secret.
func NewSealer(secret string) *Sealer {
	return &Sealer{key: sha256.Sum256([]byte(secret))}
}

func (s *Sealer) Seal(plain []byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, &s.key), nil
}

func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < 24 {
		return nil, errors.New("sealed credential too short")
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plain, ok := secretbox.Open(nil, sealed[24:], &nonce, &s.key)
	if !ok {
		return nil, errors.New("sealed credential cannot be opened")
	}
	return plain, nil
}

func (s *Sealer) sealCredential(cred Credential) ([]byte, error) {
	plain, err := json.Marshal(cred)
	if err != nil {
		return nil, err
	}
	return s.Seal(plain)
}

func (s *Sealer) openCredential(sealed []byte) (*Credential, error) {
	plain, err := s.Open(sealed)
	if err != nil {
		return nil, err
	}
	var cred Credential
	if err := json.Unmarshal(plain, &cred); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}
	return &cred, nil
}

// MemoryCredentialProvider keeps credentials in process memory.
type MemoryCredentialProvider struct {
	mu      sync.Mutex
	sealer  *Sealer
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	sealed    []byte
	expiresAt time.Time
}

func NewMemoryCredentialProvider(sealer *Sealer) *MemoryCredentialProvider {
	return &MemoryCredentialProvider{
		sealer:  sealer,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (p *MemoryCredentialProvider) Get(_ context.Context, sessionID string) (*Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := credentialKey(sessionID)
	entry, ok := p.entries[key]
	if !ok {
		return nil, ErrNoCredential
	}
	if !p.now().Before(entry.expiresAt) {
		delete(p.entries, key)
		return nil, ErrNoCredential
	}
	return p.sealer.openCredential(entry.sealed)
}

func (p *MemoryCredentialProvider) Set(_ context.Context, sessionID string, cred Credential) error {
	sealed, err := p.sealer.sealCredential(cred)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[credentialKey(sessionID)] = memoryEntry{sealed: sealed, expiresAt: cred.ExpiresAt}
	return nil
}

func (p *MemoryCredentialProvider) Clear(_ context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, credentialKey(sessionID))
	return nil
}

func (p *MemoryCredentialProvider) PurgeExpired(_ context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	n := 0
	for key, entry := range p.entries {
		if !now.Before(entry.expiresAt) {
			delete(p.entries, key)
			n++
		}
	}
	return n, nil
}

// RedisCredentialProvider stores sealed credentials in Redis with a TTL.
type RedisCredentialProvider struct {
	client *redis.Client
	sealer *Sealer
	now    func() time.Time
}

// NewRedisCredentialProvider connects and pings Redis before returning.
func NewRedisCredentialProvider(ctx context.Context, addr, password string, db int, sealer *Sealer) (*RedisCredentialProvider, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	zap.L().Info("Redis credential store connected", zap.String("addr", addr), zap.Int("db", db))
	return &RedisCredentialProvider{client: client, sealer: sealer, now: time.Now}, nil
}

func (p *RedisCredentialProvider) Get(ctx context.Context, sessionID string) (*Credential, error) {
	key := credentialKey(sessionID)
	sealed, err := p.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	cred, err := p.sealer.openCredential(sealed)
	if err != nil {
		return nil, err
	}
	if !p.now().Before(cred.ExpiresAt) {
		p.client.Del(ctx, key)
		return nil, ErrNoCredential
	}
	return cred, nil
}

func (p *RedisCredentialProvider) Set(ctx context.Context, sessionID string, cred Credential) error {
	ttl := cred.ExpiresAt.Sub(p.now())
	if ttl <= 0 {
		return p.Clear(ctx, sessionID)
	}
	sealed, err := p.sealer.sealCredential(cred)
	if err != nil {
		return err
	}
	if err := p.client.Set(ctx, credentialKey(sessionID), sealed, ttl).Err(); err != nil {
		return fmt.Errorf("set credential: %w", err)
	}
	return nil
}

func (p *RedisCredentialProvider) Clear(ctx context.Context, sessionID string) error {
	if err := p.client.Del(ctx, credentialKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// PurgeExpired is a no-op; Redis drops keys when their TTL runs out.
func (p *RedisCredentialProvider) PurgeExpired(context.Context) (int, error) {
	return 0, nil
}

func (p *RedisCredentialProvider) Close() error {
	return p.client.Close()
}
