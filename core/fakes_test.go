package core

import (
	"context"
	"errors"
	"sync"
	"time"
)

// In-memory stand-ins for the repository interfaces. Error injection fields
// let tests simulate a failing persistence layer.

type fakeUserRepo struct {
	mu      sync.Mutex
	nextID  int64
	users   map[string]*User // by username
	findErr error
	saveErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*User{}}
}

func (f *fakeUserRepo) add(u User) *User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	f.users[u.Username] = &u
	return &u
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	if u, ok := f.users[username]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByToken(ctx context.Context, token string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	if token == "" {
		return nil, nil
	}
	for _, u := range f.users {
		if u.Token == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByUsernames(ctx context.Context, usernames []string) ([]User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []User
	for _, name := range usernames {
		if u, ok := f.users[name]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, username, passwordHash, email string, role Role) (*User, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return f.add(User{Username: username, PasswordHash: passwordHash, Email: email, Role: role}), nil
}

func (f *fakeUserRepo) UpdateToken(ctx context.Context, id int64, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	for _, u := range f.users {
		if u.ID == id {
			u.Token = token
			return nil
		}
	}
	return errors.New("user not found")
}

func (f *fakeUserRepo) SetAuthenticated(ctx context.Context, id int64, authenticated bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	for _, u := range f.users {
		if u.ID == id {
			u.IsAuthenticated = authenticated
			return nil
		}
	}
	return errors.New("user not found")
}

func (f *fakeUserRepo) HasAdmin(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Role == RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

type fakeRequestLog struct {
	mu        sync.Mutex
	entries   []RequestLogEntry // newest first
	appendErr error
	readErr   error
}

func (f *fakeRequestLog) Append(ctx context.Context, entry RequestLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	f.entries = append([]RequestLogEntry{entry}, f.entries...)
	return nil
}

func (f *fakeRequestLog) Recent(ctx context.Context, since *time.Time, limit int) ([]RequestLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	var out []RequestLogEntry
	for _, e := range f.entries {
		if since != nil && e.CreatedAt.Before(*since) {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRequestLog) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.entries)), nil
}

func (f *fakeRequestLog) snapshot() []RequestLogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RequestLogEntry(nil), f.entries...)
}

type fakeErrorLog struct {
	mu        sync.Mutex
	entries   []ErrorLogEntry // newest first
	appendErr error
	readErr   error
}

func (f *fakeErrorLog) Append(ctx context.Context, entry ErrorLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	f.entries = append([]ErrorLogEntry{entry}, f.entries...)
	return nil
}

func (f *fakeErrorLog) Recent(ctx context.Context, limit int) ([]ErrorLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := append([]ErrorLogEntry(nil), f.entries...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeErrorLog) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.entries)), nil
}

func (f *fakeErrorLog) snapshot() []ErrorLogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ErrorLogEntry(nil), f.entries...)
}

type fakeCatalog struct {
	mu      sync.Mutex
	records map[int64]Record
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{records: map[int64]Record{}}
}

func (f *fakeCatalog) ListAll(ctx context.Context) ([]Record, error) {
	return f.List(ctx, 0, len(f.records))
}

func (f *fakeCatalog) List(ctx context.Context, after, count int) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Record
	for _, r := range f.records {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeCatalog) Get(ctx context.Context, id int64) (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.records[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (f *fakeCatalog) Create(ctx context.Context, rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[rec.ID]; ok {
		return ErrDuplicateRecord
	}
	f.records[rec.ID] = rec
	return nil
}

func (f *fakeCatalog) CreateMany(ctx context.Context, recs []Record) (int, error) {
	inserted := 0
	for _, rec := range recs {
		if err := f.Create(ctx, rec); err == nil {
			inserted++
		}
	}
	return inserted, nil
}

func (f *fakeCatalog) Upsert(ctx context.Context, rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.ID] = rec
	return nil
}

func (f *fakeCatalog) Patch(ctx context.Context, id int64, patch RecordPatch) (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	if patch.Name != nil {
		r.Name = *patch.Name
	}
	if patch.Category != nil {
		r.Category = *patch.Category
	}
	if patch.Attributes != nil {
		r.Attributes = patch.Attributes
	}
	f.records[id] = r
	return &r, nil
}

func (f *fakeCatalog) Delete(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return false, nil
	}
	delete(f.records, id)
	return true, nil
}
