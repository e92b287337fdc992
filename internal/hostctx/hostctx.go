// Package hostctx marks work that runs inside the embedded application.
//
// Go has no thread identity to hang a flag on, so the marker is a scope
// token carried in a context.Context. A token counts as active only while
// its scope is open; closing is idempotent and happens on every exit path
// of Do, panics included.
package hostctx

import (
	"context"
	"sync"

	"github.com/brettbedarf/embedfs/internal/util"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
)

type scopeKey struct{}

// Tracker records the scopes currently open.
type Tracker struct {
	open *xsync.Map[uuid.UUID, string]
}

func NewTracker() *Tracker {
	return &Tracker{open: xsync.NewMap[uuid.UUID, string]()}
}

// Scope is one entry into embedded context.
type Scope struct {
	id      uuid.UUID
	label   string
	tracker *Tracker
	once    sync.Once
}

// Enter opens a scope. The caller must Close it.
func (t *Tracker) Enter(label string) *Scope {
	logger := util.GetLogger("HostCtx.Enter")

	s := &Scope{id: uuid.New(), label: label, tracker: t}
	t.open.Store(s.id, label)
	logger.Trace().Str("scope", s.id.String()).Str("label", label).Msg("Entered embedded context")
	return s
}

func (s *Scope) ID() uuid.UUID {
	return s.id
}

func (s *Scope) Label() string {
	return s.label
}

// Close ends the scope. Later calls do nothing.
func (s *Scope) Close() {
	s.once.Do(func() {
		logger := util.GetLogger("HostCtx.Close")
		s.tracker.open.Delete(s.id)
		logger.Trace().Str("scope", s.id.String()).Msg("Left embedded context")
	})
}

// Open reports whether the scope has not been closed yet.
func (s *Scope) Open() bool {
	_, ok := s.tracker.open.Load(s.id)
	return ok
}

// Do runs fn inside a fresh scope whose token is attached to the context fn
// receives.
func (t *Tracker) Do(ctx context.Context, label string, fn func(ctx context.Context) error) error {
	s := t.Enter(label)
	defer s.Close()
	return fn(WithScope(ctx, s))
}

// Active reports whether ctx carries a scope of this tracker that is still
// open.
func (t *Tracker) Active(ctx context.Context) bool {
	s, ok := FromContext(ctx)
	if !ok || s.tracker != t {
		return false
	}
	return s.Open()
}

// Len returns the number of open scopes.
func (t *Tracker) Len() int {
	return t.open.Size()
}

func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

func FromContext(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	return s, ok
}
