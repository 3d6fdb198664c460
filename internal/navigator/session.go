package navigator

import (
	"github.com/seuros/funnelscope/internal/aggregate"
	"github.com/seuros/funnelscope/internal/dataset"
)

// DefaultTrendStage is the stage plotted when no other stage is requested.
const DefaultTrendStage = "signups"

// Hooks observe a session. Both callbacks are optional.
type Hooks struct {
	OnTransition func(from, to Kind)
	OnRender     func(cached bool)
}

// Option configures a Session.
type Option func(*Session)

// WithTopN sets the ranking depth of list views.
func WithTopN(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithHooks installs observation callbacks.
func WithHooks(h Hooks) Option {
	return func(s *Session) {
		s.hooks = h
	}
}

// WithMemoSize bounds the number of memoised frames.
func WithMemoSize(n int) Option {
	return func(s *Session) {
		s.memo = newMemo(n)
	}
}

// Session owns one user's navigation state. It is not safe for concurrent
// use; callers serialise access per session.
type Session struct {
	snapshot *dataset.Snapshot
	initial  dataset.Key
	key      dataset.Key
	view     View
	topN     int
	hooks    Hooks
	memo     *memo
}

// New starts a session on the Root view for key. The transaction type of key
// is ignored; it is carried by the active view instead.
func New(snapshot *dataset.Snapshot, key dataset.Key, opts ...Option) *Session {
	key.TxnType = dataset.TxnNone
	s := &Session{
		snapshot: snapshot,
		initial:  key,
		key:      key,
		view:     Root{},
		topN:     aggregate.DefaultTopN,
		memo:     newMemo(defaultMemoSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View returns the active view.
func (s *Session) View() View { return s.view }

// Key returns the selected month and country.
func (s *Session) Key() dataset.Key { return s.key }

// Select changes the month and country. The active view is kept and its data
// re-resolved against the new key on the next render.
func (s *Session) Select(month string, country dataset.Country) {
	s.key = dataset.Key{Month: month, Country: country}
}

// ShowTrend opens the trend chart of stage from Root. An empty stage plots
// signups.
func (s *Session) ShowTrend(stage string) bool {
	if s.view.Kind() != KindRoot {
		return false
	}
	if stage == "" {
		stage = DefaultTrendStage
	}
	s.push(Trend{Stage: stage})
	return true
}

// ClickStage drills into an expandable stage from Root. Clicks on inert
// stages or from other views leave the state unchanged.
func (s *Session) ClickStage(stageID string) bool {
	if s.view.Kind() != KindRoot {
		return false
	}
	stage, ok := s.snapshot.Stage(s.key, stageID)
	if !ok || !stage.Expandable() {
		return false
	}
	s.push(StageBreakdown{Stage: stageID})
	return true
}

// ClickEntry dispatches a click on a breakdown child. Error code flags are
// checked before page URL flags; children with neither are inert.
func (s *Session) ClickEntry(entryID string) bool {
	current, ok := s.view.(StageBreakdown)
	if !ok {
		return false
	}
	stage, ok := s.snapshot.Stage(s.key, current.Stage)
	if !ok {
		return false
	}
	child, ok := stage.Child(entryID)
	if !ok {
		return false
	}

	switch {
	case child.Entry.HasErrorCodes:
		s.push(ErrorCodeList{Stage: current.Stage, Entry: entryID, TxnType: dataset.InferTxnType(child)})
	case child.Entry.HasPageURLs:
		s.push(LoginPageURLList{Stage: current.Stage, Bucket: entryID})
	default:
		return false
	}
	return true
}

// ClickCode drills from an error code list into the failure reasons of code.
func (s *Session) ClickCode(code string) bool {
	current, ok := s.view.(ErrorCodeList)
	if !ok || code == "" {
		return false
	}
	s.push(FailureReasonList{
		Stage:   current.Stage,
		Entry:   current.Entry,
		TxnType: current.TxnType,
		Code:    code,
	})
	return true
}

// Back pops exactly one level. On Root it does nothing.
func (s *Session) Back() View {
	if s.view.Kind() != KindRoot {
		s.push(s.view.Parent())
	}
	return s.view
}

// Reset returns to Root and the key the session started with.
func (s *Session) Reset() {
	s.key = s.initial
	s.push(Root{})
}

func (s *Session) push(next View) {
	from := s.view.Kind()
	s.view = next
	if s.hooks.OnTransition != nil {
		s.hooks.OnTransition(from, next.Kind())
	}
}

// Render resolves the active view against the current key.
func (s *Session) Render() Frame {
	key := memoKey{key: s.key, view: s.view, topN: s.topN}
	if frame, ok := s.memo.get(key); ok {
		s.observeRender(true)
		return frame
	}
	frame := Build(s.snapshot, s.key, s.view, s.topN)
	s.memo.put(key, frame)
	s.observeRender(false)
	return frame
}

func (s *Session) observeRender(cached bool) {
	if s.hooks.OnRender != nil {
		s.hooks.OnRender(cached)
	}
}
