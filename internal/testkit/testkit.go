// Package testkit provides in-memory implementations of the service ports
// for unit and handler tests.
package testkit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"malladmin/internal/model"
	"malladmin/internal/query"
	"malladmin/internal/repository"
)

func notFound(what string, id any) error {
	return fmt.Errorf("%s %v: %w", what, id, repository.ErrNotFound)
}

func contains(q string, fields ...string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// paginate sorts by id descending and slices out p's page.
func paginate[T any](items []T, id func(T) int64, p query.ListParams) ([]T, int64) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) > id(items[j]) })
	total := int64(len(items))
	start := p.Offset()
	if p.PageSize == 0 {
		return items, total
	}
	if start >= len(items) {
		return nil, total
	}
	end := start + p.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total
}

// Tx runs fn directly. Err, when set, is returned without calling fn.
type Tx struct {
	mu    sync.Mutex
	Calls int
	Err   error
}

func (t *Tx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	t.Calls++
	err := t.Err
	t.mu.Unlock()
	if err != nil {
		return err
	}
	return fn(ctx)
}

// RecordedEvent is one Enqueue call.
type RecordedEvent struct {
	AggregateType string
	AggregateID   int64
	RoutingKey    string
	Payload       any
}

type Outbox struct {
	mu     sync.Mutex
	Events []RecordedEvent
	Err    error
}

func (o *Outbox) Enqueue(ctx context.Context, aggregateType string, aggregateID int64, routingKey string, payload any) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return o.Err
	}
	o.Events = append(o.Events, RecordedEvent{aggregateType, aggregateID, routingKey, payload})
	return nil
}

// Keys returns the routing keys enqueued so far.
func (o *Outbox) Keys() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	keys := make([]string, len(o.Events))
	for i, e := range o.Events {
		keys[i] = e.RoutingKey
	}
	return keys
}

type Users struct {
	mu     sync.Mutex
	rows   map[int64]*model.User
	nextID int64
	Err    error
}

func NewUsers(users ...model.User) *Users {
	s := &Users{rows: map[int64]*model.User{}}
	for _, u := range users {
		u := u
		if u.ID == 0 {
			s.nextID++
			u.ID = s.nextID
		} else if u.ID > s.nextID {
			s.nextID = u.ID
		}
		s.rows[u.ID] = &u
	}
	return s
}

func (s *Users) List(ctx context.Context, p query.ListParams) ([]model.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	var out []model.User
	for _, u := range s.rows {
		if !contains(p.Search, u.Name, u.Email, u.Phone) {
			continue
		}
		if p.Status != "" && u.Status != p.Status {
			continue
		}
		if r := p.Filter("role"); r != "" && u.Role != r {
			continue
		}
		out = append(out, *u)
	}
	items, total := paginate(out, func(u model.User) int64 { return u.ID }, p)
	return items, total, nil
}

func (s *Users) GetByID(ctx context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.rows[id]
	if !ok {
		return nil, notFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (s *Users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.rows {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, notFound("user", email)
}

func (s *Users) emailTaken(email string, except int64) bool {
	for _, u := range s.rows {
		if u.Email == email && u.ID != except {
			return true
		}
	}
	return false
}

func (s *Users) Create(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(u.Email, 0) {
		return fmt.Errorf("create user: %w", repository.ErrConflict)
	}
	s.nextID++
	u.ID = s.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	s.rows[u.ID] = &cp
	return nil
}

func (s *Users) Update(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.rows[u.ID]
	if !ok {
		return notFound("user", u.ID)
	}
	if s.emailTaken(u.Email, u.ID) {
		return fmt.Errorf("update user: %w", repository.ErrConflict)
	}
	u.PasswordHash = cur.PasswordHash
	u.UpdatedAt = time.Now()
	cp := *u
	s.rows[u.ID] = &cp
	return nil
}

func (s *Users) UpdatePassword(ctx context.Context, id int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[id]
	if !ok {
		return notFound("user", id)
	}
	u.PasswordHash = hash
	return nil
}

func (s *Users) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[id]
	if !ok {
		return notFound("user", id)
	}
	u.LastLoginAt = &at
	return nil
}

func (s *Users) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return notFound("user", id)
	}
	delete(s.rows, id)
	return nil
}

func (s *Users) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	return int64(len(s.rows)), nil
}

func (s *Users) ActiveIDs(ctx context.Context, roles ...string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, u := range s.rows {
		if u.Status != model.UserStatusActive {
			continue
		}
		if len(roles) > 0 && !oneOf(u.Role, roles) {
			continue
		}
		ids = append(ids, u.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func oneOf(v string, set []string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

// Sessions is an in-memory SessionStore.
type Sessions struct {
	mu   sync.Mutex
	rows map[string]model.Session
	Err  error
}

func NewSessions() *Sessions {
	return &Sessions{rows: map[string]model.Session{}}
}

func (s *Sessions) Create(ctx context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.rows[sess.ID] = *sess
	return nil
}

func (s *Sessions) Get(ctx context.Context, id string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	sess, ok := s.rows[id]
	if !ok {
		return nil, notFound("session", id)
	}
	return &sess, nil
}

func (s *Sessions) ListByUser(ctx context.Context, userID int64) ([]model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Session
	for _, sess := range s.rows {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Sessions) Delete(ctx context.Context, userID int64, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.rows[id]
	if !ok || sess.UserID != userID {
		return notFound("session", id)
	}
	delete(s.rows, id)
	return nil
}

func (s *Sessions) DeleteAllExcept(ctx context.Context, userID int64, keepID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	n := 0
	for id, sess := range s.rows {
		if sess.UserID == userID && id != keepID {
			delete(s.rows, id)
			n++
		}
	}
	return n, nil
}

// Attempts is an in-memory AttemptCounter without expiry.
type Attempts struct {
	mu     sync.Mutex
	counts map[string]int64
	Err    error
}

func NewAttempts() *Attempts {
	return &Attempts{counts: map[string]int64{}}
}

func (a *Attempts) Increment(ctx context.Context, id string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts[strings.ToLower(id)]++
	return a.counts[strings.ToLower(id)], nil
}

func (a *Attempts) Get(ctx context.Context, id string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return 0, a.Err
	}
	return a.counts[strings.ToLower(id)], nil
}

func (a *Attempts) Reset(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.counts, strings.ToLower(id))
	return nil
}

// Audit records inserted entries.
type Audit struct {
	mu      sync.Mutex
	Entries []model.AuditLog
}

func (a *Audit) Insert(ctx context.Context, entry *model.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	entry.ID = int64(len(a.Entries) + 1)
	entry.CreatedAt = time.Now()
	a.Entries = append(a.Entries, *entry)
	return nil
}

func (a *Audit) List(ctx context.Context, p query.ListParams) ([]model.AuditLog, int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []model.AuditLog
	for _, e := range a.Entries {
		if act := p.Filter("action"); act != "" && e.Action != act {
			continue
		}
		if res := p.Filter("resource"); res != "" && e.Resource != res {
			continue
		}
		if uid, ok := p.FilterID("user_id"); ok && (e.UserID == nil || *e.UserID != uid) {
			continue
		}
		out = append(out, e)
	}
	items, total := paginate(out, func(e model.AuditLog) int64 { return e.ID }, p)
	return items, total, nil
}

// Actions returns the recorded audit actions in order.
func (a *Audit) Actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.Entries))
	for i, e := range a.Entries {
		out[i] = e.Action
	}
	return out
}

// ErrInjected is a generic failure for error-path tests.
var ErrInjected = errors.New("injected failure")
