// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/danielhkuo/recruit-feasibility/auth"
	"github.com/danielhkuo/recruit-feasibility/middleware"
	"github.com/danielhkuo/recruit-feasibility/models"
)

const CookieName = "feasibility_session"

// lockStripes bounds the per-session lock table.
const lockStripes = 64

type Options struct {
	Secret string
	Secure bool
	TTL    time.Duration
}

// Manager binds a wizard state to each request through a signed cookie.
type Manager struct {
	store Store
	opts  Options
	now   func() time.Time
	locks [lockStripes]sync.Mutex
}

func NewManager(store Store, opts Options) *Manager {
	return &Manager{store: store, opts: opts, now: time.Now}
}

// Session is the request-scoped view of one researcher's wizard.
type Session struct {
	ID    string
	State *models.WizardState
	IsNew bool
}

type ctxKey struct{}

// FromContext returns the session attached by Manager.Middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func (m *Manager) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &m.locks[h.Sum32()%lockStripes]
}

// Middleware loads the session, runs next, and saves the state if next
// changed it. The response is held back until the save succeeds, so a
// client never sees a step confirmed that was not stored. Requests for
// the same session are serialized.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, isNew := m.sessionID(r)

		mu := m.lockFor(id)
		mu.Lock()
		defer mu.Unlock()

		sess, err := m.load(r.Context(), id, isNew)
		if err != nil {
			zap.L().Error("session load failed", zap.Error(err))
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Could not load your session")
			return
		}

		before, err := json.Marshal(sess.State)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Could not load your session")
			return
		}

		buf := newBufferedWriter(w)
		next.ServeHTTP(buf, r.WithContext(WithSession(r.Context(), sess)))

		saved := false
		after, err := json.Marshal(sess.State)
		if err == nil && !bytes.Equal(before, after) {
			err = m.store.Save(r.Context(), sess.ID, sess.State)
			saved = err == nil
		}
		if err != nil {
			zap.L().Error("session save failed", zap.String("path", r.URL.Path), zap.Error(err))
			buf.discard()
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Could not save your answers, try again")
			return
		}

		// The cookie expires TTL after the last save, matching when the
		// janitor considers the session idle.
		if sess.IsNew || saved {
			m.setCookie(w, sess.ID)
		}
		buf.flush()
	})
}

// sessionID reads the signed cookie. A missing or invalid cookie starts a
// new session.
func (m *Manager) sessionID(r *http.Request) (id string, isNew bool) {
	if c, err := r.Cookie(CookieName); err == nil {
		if id, err := auth.VerifySessionID(c.Value, m.opts.Secret); err == nil {
			return id, false
		}
	}
	return auth.NewSessionID(), true
}

// load fetches the stored state. A valid cookie whose state was purged
// keeps its ID with a fresh state.
func (m *Manager) load(ctx context.Context, id string, isNew bool) (*Session, error) {
	if isNew {
		return &Session{ID: id, State: models.NewWizardState(), IsNew: true}, nil
	}
	state, err := m.store.Load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return &Session{ID: id, State: models.NewWizardState()}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Session{ID: id, State: state}, nil
}

func (m *Manager) setCookie(w http.ResponseWriter, id string) {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    auth.SignSessionID(id, m.opts.Secret),
		Path:     "/",
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if m.opts.TTL > 0 {
		c.MaxAge = int(m.opts.TTL.Seconds())
	}
	http.SetCookie(w, c)
}

// RunJanitor purges sessions idle for longer than the TTL every interval
// until ctx is cancelled.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) error {
	if m.opts.TTL <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := m.store.Purge(ctx, m.now().Add(-m.opts.TTL))
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				zap.L().Warn("session purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				zap.L().Info("purged idle sessions", zap.Int64("count", n))
			}
		}
	}
}

// bufferedWriter holds status and body until flush. Headers go straight
// to the underlying writer's map and are kept on discard.
type bufferedWriter struct {
	w      http.ResponseWriter
	status int
	body   bytes.Buffer
}

func newBufferedWriter(w http.ResponseWriter) *bufferedWriter {
	return &bufferedWriter{w: w}
}

func (b *bufferedWriter) Header() http.Header { return b.w.Header() }

func (b *bufferedWriter) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedWriter) discard() {
	b.body.Reset()
}

func (b *bufferedWriter) flush() {
	status := b.status
	if status == 0 {
		status = http.StatusOK
	}
	b.w.WriteHeader(status)
	b.w.Write(b.body.Bytes())
}
