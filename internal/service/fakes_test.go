package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/codementorx/internal/model"
	"github.com/iliyamo/codementorx/internal/notify"
	"github.com/iliyamo/codementorx/internal/repository"
)

// memDB is an in-memory credential store shared by the fake repositories.
type memDB struct {
	mu      sync.Mutex
	nextID  uint64
	users   map[uint64]model.User
	otps    map[uint64]model.OTPVerification
	resets  map[uint64]model.PasswordResetToken
	refresh map[string]refreshRow

	// failPasswordWrite, when set, fails the next password write once.
	failPasswordWrite error
}

type refreshRow struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

func newMemDB() *memDB {
	return &memDB{
		users:   map[uint64]model.User{},
		otps:    map[uint64]model.OTPVerification{},
		resets:  map[uint64]model.PasswordResetToken{},
		refresh: map[string]refreshRow{},
	}
}

type memUsers struct{ db *memDB }
type memOTPs struct{ db *memDB }
type memResets struct{ db *memDB }
type memRefresh struct{ db *memDB }

func (m memUsers) Create(_ context.Context, u model.User) (uint64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, x := range m.db.users {
		if strings.EqualFold(x.Username, u.Username) || strings.EqualFold(x.Email, u.Email) {
			return 0, repository.ErrDuplicate
		}
	}
	m.db.nextID++
	u.ID = m.db.nextID
	m.db.users[u.ID] = u
	return u.ID, nil
}

func (m memUsers) UsernameExists(_ context.Context, username string) (bool, error) {
	return m.find(func(u model.User) bool { return strings.EqualFold(u.Username, username) }), nil
}

func (m memUsers) EmailExists(_ context.Context, email string) (bool, error) {
	return m.find(func(u model.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (m memUsers) find(match func(model.User) bool) bool {
	_, err := m.first(match)
	return err == nil
}

func (m memUsers) first(match func(model.User) bool) (model.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, u := range m.db.users {
		if match(u) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	return m.first(func(u model.User) bool { return u.ID == id })
}

func (m memUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	return m.first(func(u model.User) bool { return strings.EqualFold(u.Username, username) })
}

func (m memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	return m.first(func(u model.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m memUsers) update(id uint64, fn func(*model.User)) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	u, ok := m.db.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&u)
	m.db.users[id] = u
	return nil
}

func (m memUsers) Activate(_ context.Context, id uint64) error {
	if err := m.update(id, func(u *model.User) { u.IsActive = true }); err != nil {
		return err
	}
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if o, ok := m.db.otps[id]; ok {
		o.IsVerified = true
		m.db.otps[id] = o
	}
	return nil
}

func (m memUsers) Delete(_ context.Context, id uint64) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.db.users, id)
	delete(m.db.otps, id)
	for k, t := range m.db.resets {
		if t.UserID == id {
			delete(m.db.resets, k)
		}
	}
	return nil
}

func (m memOTPs) Create(_ context.Context, userID uint64, code string, createdAt time.Time) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.otps[userID]; ok {
		return repository.ErrDuplicate
	}
	m.db.otps[userID] = model.OTPVerification{UserID: userID, Code: code, CreatedAt: createdAt}
	return nil
}

func (m memOTPs) GetByUser(_ context.Context, userID uint64) (model.OTPVerification, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	o, ok := m.db.otps[userID]
	if !ok {
		return model.OTPVerification{}, repository.ErrNotFound
	}
	return o, nil
}

func (m memOTPs) Replace(_ context.Context, userID uint64, code string, createdAt time.Time) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	o, ok := m.db.otps[userID]
	if !ok {
		return repository.ErrNotFound
	}
	o.Code, o.CreatedAt = code, createdAt
	m.db.otps[userID] = o
	return nil
}

func (m memResets) DeleteForUser(_ context.Context, userID uint64) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for k, t := range m.db.resets {
		if t.UserID == userID {
			delete(m.db.resets, k)
		}
	}
	return nil
}

func (m memResets) Create(_ context.Context, userID uint64, token string, createdAt time.Time) (uint64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, t := range m.db.resets {
		if t.Token == token {
			return 0, repository.ErrDuplicate
		}
	}
	m.db.nextID++
	m.db.resets[m.db.nextID] = model.PasswordResetToken{ID: m.db.nextID, UserID: userID, Token: token, CreatedAt: createdAt}
	return m.db.nextID, nil
}

func (m memResets) GetByToken(_ context.Context, token string) (model.PasswordResetToken, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, t := range m.db.resets {
		if t.Token == token {
			return t, nil
		}
	}
	return model.PasswordResetToken{}, repository.ErrNotFound
}

func (m memResets) Redeem(_ context.Context, id, userID uint64, hash string) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	t, ok := m.db.resets[id]
	if !ok || t.IsUsed {
		return false, nil
	}
	if err := m.db.failPasswordWrite; err != nil {
		m.db.failPasswordWrite = nil
		return false, err
	}
	u, ok := m.db.users[userID]
	if !ok {
		return false, repository.ErrNotFound
	}
	t.IsUsed = true
	u.PasswordHash = hash
	m.db.resets[id] = t
	m.db.users[userID] = u
	return true, nil
}

func (m memRefresh) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.refresh[tokenHash] = refreshRow{userID: userID, exp: exp}
	return nil
}

func (m memRefresh) ValidateRefresh(_ context.Context, tokenHash string, now time.Time) (uint64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	r, ok := m.db.refresh[tokenHash]
	if !ok || r.revoked || now.After(r.exp) {
		return 0, repository.ErrNotFound
	}
	return r.userID, nil
}

func (m memRefresh) RevokeByHash(_ context.Context, tokenHash string, _ time.Time) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if r, ok := m.db.refresh[tokenHash]; ok {
		r.revoked = true
		m.db.refresh[tokenHash] = r
	}
	return nil
}

// mailbox records sent messages and fails while err is set.
type mailbox struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

type sentMail struct{ to, subject, body string }

func (b *mailbox) Send(_ context.Context, to, subject, body string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.sent = append(b.sent, sentMail{to, subject, body})
	return nil
}

func (b *mailbox) last() sentMail {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.sent) == 0 {
		return sentMail{}
	}
	return b.sent[len(b.sent)-1]
}

var errRelayDown = errors.New("relay down")

// clock is a settable time source.
type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var testTemplates = notify.Templates{AppName: "MyApp", FrontendURL: "http://localhost:5173"}

// fixture wires the services over one memDB.
type fixture struct {
	db     *memDB
	mail   *mailbox
	clock  *clock
	verify *Verification
	reset  *Reset
	acct   *Accounts
	codes  []string
}

func newFixture() *fixture {
	f := &fixture{
		db:    newMemDB(),
		mail:  &mailbox{},
		clock: &clock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)},
	}
	issuer := NewTokenIssuer("test-secret", 15, 7, memRefresh{f.db})
	issuer.Now = f.clock.Now

	f.verify = NewVerification(memUsers{f.db}, memOTPs{f.db}, f.mail, testTemplates, issuer, 10*time.Minute, 4, nil)
	f.verify.Now = f.clock.Now
	f.verify.GenerateOTP = func() (string, error) {
		if len(f.codes) == 0 {
			return "000000", nil
		}
		c := f.codes[0]
		f.codes = f.codes[1:]
		return c, nil
	}

	f.reset = NewReset(memUsers{f.db}, memResets{f.db}, f.mail, testTemplates, time.Hour, 4, nil)
	f.reset.Now = f.clock.Now

	f.acct = NewAccounts(memUsers{f.db}, memRefresh{f.db}, issuer)
	f.acct.Now = f.clock.Now
	return f
}
