package httpapi

import (
	"context"
	"sync"
	"time"

	"hashkey.local/internal/app/shortlink"
	"hashkey.local/internal/app/shortlink/repo"
	"hashkey.local/internal/platform/ratelimit"
)

type fakeShortlinks struct {
	mu       sync.Mutex
	rows     map[int64]shortlink.Shortlink
	nextID   int64
	batches  [][]int64
	points   int
	pointErr error
}

func newFakeShortlinks() *fakeShortlinks {
	return &fakeShortlinks{rows: make(map[int64]shortlink.Shortlink), nextID: 1}
}

func (f *fakeShortlinks) Create(_ context.Context, url string, ownerID *int64) (shortlink.Shortlink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sl := range f.rows {
		if sl.URL == url {
			if sl.Disabled {
				return shortlink.Shortlink{}, repo.ErrShortlinkDisabled
			}
			return sl, nil
		}
	}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	sl := shortlink.Shortlink{ID: f.nextID, URL: url, OwnerID: ownerID, CreatedAt: now, UpdatedAt: now}
	f.rows[sl.ID] = sl
	f.nextID++
	return sl, nil
}

func (f *fakeShortlinks) FindByID(_ context.Context, id int64) (shortlink.Shortlink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points++
	if f.pointErr != nil {
		return shortlink.Shortlink{}, f.pointErr
	}
	sl, ok := f.rows[id]
	if !ok {
		return shortlink.Shortlink{}, repo.ErrShortlinkNotFound
	}
	return sl, nil
}

func (f *fakeShortlinks) FindByIDs(_ context.Context, ids []int64) ([]shortlink.Shortlink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]int64(nil), ids...))
	out := []shortlink.Shortlink{}
	for _, id := range ids {
		if sl, ok := f.rows[id]; ok {
			out = append(out, sl)
		}
	}
	return out, nil
}

func (f *fakeShortlinks) Disable(_ context.Context, id int64) error {
	return f.setDisabled(id, true)
}

func (f *fakeShortlinks) Enable(_ context.Context, id int64) error {
	return f.setDisabled(id, false)
}

func (f *fakeShortlinks) setDisabled(id int64, disabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sl, ok := f.rows[id]
	if !ok {
		return repo.ErrShortlinkNotFound
	}
	if sl.Disabled == disabled {
		if disabled {
			return repo.ErrAlreadyDisabled
		}
		return repo.ErrAlreadyEnabled
	}
	sl.Disabled = disabled
	f.rows[id] = sl
	return nil
}

func (f *fakeShortlinks) ResolveURL(_ context.Context, id int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sl, ok := f.rows[id]
	if !ok || sl.Disabled {
		return "", nil
	}
	return sl.URL, nil
}

type fakeUsers struct {
	mu       sync.Mutex
	rows     map[int64]shortlink.User
	nextID   int64
	pointErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{rows: make(map[int64]shortlink.User), nextID: 1}
}

func (f *fakeUsers) Create(_ context.Context, username, passwordHash string) (shortlink.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.Username == username {
			return shortlink.User{}, repo.ErrUserAlreadyExists
		}
	}
	u := shortlink.User{ID: f.nextID, Username: username, Role: shortlink.RoleUser, PasswordHash: passwordHash}
	f.rows[u.ID] = u
	f.nextID++
	return u, nil
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (shortlink.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.Username == username {
			return u, nil
		}
	}
	return shortlink.User{}, repo.ErrUserNotFound
}

// setRole 模拟直接改库授予或收回 admin
func (f *fakeUsers) setRole(id int64, role string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.rows[id]
	u.Role = role
	f.rows[id] = u
}

func (f *fakeUsers) FindByID(_ context.Context, id int64) (shortlink.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pointErr != nil {
		return shortlink.User{}, f.pointErr
	}
	u, ok := f.rows[id]
	if !ok {
		return shortlink.User{}, repo.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) FindByIDs(_ context.Context, ids []int64) ([]shortlink.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []shortlink.User{}
	for _, id := range ids {
		if u, ok := f.rows[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// fakeLimiter 按 rule 名累计 cost，超过 rule.Limit 就拒绝
type fakeLimiter struct {
	mu   sync.Mutex
	used map[string]int
	err  error
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{used: make(map[string]int)}
}

func (f *fakeLimiter) Allow(_ context.Context, rule ratelimit.Rule, _ string, cost int) (ratelimit.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return ratelimit.Decision{}, f.err
	}
	if f.used[rule.Name]+cost > rule.Limit {
		return ratelimit.Decision{Remaining: rule.Limit - f.used[rule.Name], RetryAfter: rule.Window}, nil
	}
	f.used[rule.Name] += cost
	return ratelimit.Decision{Allowed: true, Remaining: rule.Limit - f.used[rule.Name]}, nil
}
