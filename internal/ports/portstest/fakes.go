package portstest

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/ports"
)

type Lockouts struct {
	mu    sync.Mutex
	state map[string]ports.LockoutState
}

func NewLockouts() *Lockouts { return &Lockouts{state: map[string]ports.LockoutState{}} }

func (l *Lockouts) Get(_ context.Context, key string) (ports.LockoutState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state[key], nil
}

func (l *Lockouts) RecordFailure(_ context.Context, key string, now time.Time, threshold int, window time.Duration) (ports.LockoutState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.state[key]
	st.FailedCount++
	if st.FailedCount >= threshold {
		until := now.Add(window)
		st.LockedUntil = &until
	}
	l.state[key] = st
	return st, nil
}

func (l *Lockouts) Clear(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.state, key)
	return nil
}

type Revocations struct {
	mu      sync.Mutex
	revoked map[uuid.UUID]bool
}

func NewRevocations() *Revocations { return &Revocations{revoked: map[uuid.UUID]bool{}} }

func (r *Revocations) MarkRevoked(_ context.Context, id uuid.UUID, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[id] = true
	return nil
}

func (r *Revocations) IsRevoked(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revoked[id], nil
}

type MagicLinks struct {
	mu    sync.Mutex
	links map[string]ports.MagicLink
}

func NewMagicLinks() *MagicLinks { return &MagicLinks{links: map[string]ports.MagicLink{}} }

func (m *MagicLinks) Put(_ context.Context, tokenHash string, link ports.MagicLink, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[tokenHash] = link
	return nil
}

func (m *MagicLinks) Take(_ context.Context, tokenHash string) (*ports.MagicLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[tokenHash]
	if !ok {
		return nil, nil
	}
	delete(m.links, tokenHash)
	return &link, nil
}

// SettingsCache is a map cache. Hits and Invalidations count calls for assertions.
type SettingsCache struct {
	mu            sync.Mutex
	items         map[string][]byte
	Hits          int
	Invalidations int
}

func NewSettingsCache() *SettingsCache { return &SettingsCache{items: map[string][]byte{}} }

func (c *SettingsCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	if ok {
		c.Hits++
	}
	return v, ok, nil
}

func (c *SettingsCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *SettingsCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	c.Invalidations++
	return nil
}

type Hasher struct{}

func (Hasher) Hash(password string) (string, error) { return "hash:" + password, nil }

func (Hasher) Compare(hash, password string) error {
	if hash != "hash:"+password {
		return errors.New("hash mismatch")
	}
	return nil
}

// Signer hands out opaque tokens mapped to their claims.
type Signer struct {
	mu     sync.Mutex
	tokens map[string]ports.AuthClaims
}

func NewSigner() *Signer { return &Signer{tokens: map[string]ports.AuthClaims{}} }

func (s *Signer) Sign(claims ports.AuthClaims) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.NewString()
	s.tokens[token] = claims
	return token, nil
}

func (s *Signer) ParseAndValidate(token string) (ports.AuthClaims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claims, ok := s.tokens[token]
	if !ok {
		return ports.AuthClaims{}, errors.New("unknown token")
	}
	return claims, nil
}

func (s *Signer) PublicJWKs() ([]map[string]any, error) {
	return []map[string]any{{"kid": "test", "kty": "RSA"}}, nil
}

// Mailer records sent messages. Set Fail to simulate an SMTP outage.
type Mailer struct {
	mu   sync.Mutex
	Sent []ports.MailMessage
	Fail bool
}

func (m *Mailer) Send(_ context.Context, msg ports.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	if m.Fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

// Last returns the most recent message sent to the address.
func (m *Mailer) Last(to string) (ports.MailMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Sent) - 1; i >= 0; i-- {
		if m.Sent[i].To == to {
			return m.Sent[i], true
		}
	}
	return ports.MailMessage{}, false
}

// Workbook captures the sheets it was asked to write.
type Workbook struct {
	Sheets []ports.Sheet
}

func (w *Workbook) Write(out io.Writer, sheets []ports.Sheet) error {
	w.Sheets = sheets
	names := make([]string, 0, len(sheets))
	for _, s := range sheets {
		names = append(names, s.Name)
	}
	_, err := io.WriteString(out, strings.Join(names, ","))
	return err
}

// Publisher records published events.
type Publisher struct {
	mu     sync.Mutex
	Events []string
	Fail   bool
}

func (p *Publisher) Publish(_ context.Context, event ports.DeliveredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Fail {
		return errors.New("broker unavailable")
	}
	p.Events = append(p.Events, event.Type)
	return nil
}
