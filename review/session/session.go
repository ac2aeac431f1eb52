package session

import (
	"context"
	"time"
)

const (
	// DefaultPageBatchSize is how many preview pages one fetch returns.
	DefaultPageBatchSize = 10
	// DefaultCallTimeout bounds a single use-case call.
	DefaultCallTimeout = 30 * time.Second
)

// Options tune a session. The zero value uses the defaults.
type Options struct {
	PageBatchSize int
	CallTimeout   time.Duration
}

// Session runs the review machine for one consumer. A single goroutine
// inside Run owns the machine, so intents and completions are applied
// strictly one at a time in arrival order; use-case calls run on their own
// goroutines and feed their results back in as events.
type Session struct {
	uc      UseCases
	machine *machine
	timeout time.Duration

	intents chan Intent
	events  chan event
	states  chan State
	actions chan Action
}

// New builds a session for one document. Run must be started before the
// session makes progress.
func New(uc UseCases, documentID string, opts Options) *Session {
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Session{
		uc:      uc,
		machine: newMachine(documentID, opts.PageBatchSize),
		timeout: timeout,
		intents: make(chan Intent, 64),
		events:  make(chan event, 64),
		states:  make(chan State, 1),
		actions: make(chan Action, 16),
	}
}

// Dispatch queues an intent. Intents are applied in dispatch order.
func (s *Session) Dispatch(in Intent) {
	s.intents <- in
}

// States delivers state snapshots. The channel conflates: a slow consumer
// always receives the latest state, intermediate snapshots may be skipped.
func (s *Session) States() <-chan State {
	return s.states
}

// Actions delivers one-shot actions in order. When a consumer falls behind
// the buffer, the oldest actions are dropped, never the newest.
func (s *Session) Actions() <-chan Action {
	return s.actions
}

// Run drives the session until ctx is done. It fetches the record first
// and then processes intents and completions as they arrive.
func (s *Session) Run(ctx context.Context) {
	s.execute(ctx, s.machine.start())
	s.publish()
	for {
		select {
		case <-ctx.Done():
			return
		case in := <-s.intents:
			s.execute(ctx, s.machine.handleIntent(in))
			s.publish()
		case ev := <-s.events:
			s.execute(ctx, s.machine.handleEvent(ev))
			s.publish()
		}
	}
}

func (s *Session) publish() {
	state := s.machine.state
	for {
		select {
		case s.states <- state:
			return
		default:
		}
		// Full: drop the stale snapshot and try again. Run is the only
		// sender, so the retry can only race a consumer taking the value,
		// which also frees the slot.
		select {
		case <-s.states:
		default:
		}
	}
}

func (s *Session) emit(a Action) {
	for {
		select {
		case s.actions <- a:
			return
		default:
		}
		// A consumer that stopped draining loses the oldest action, never
		// the newest. Loop until the send lands: a dispatch on the consumer
		// side can refill the freed slot, so one retry is not enough.
		select {
		case <-s.actions:
		default:
		}
	}
}

func (s *Session) execute(ctx context.Context, cmds []command) {
	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case emitAction:
			s.emit(c.action)

		case fetchRecord:
			go func() {
				callCtx, cancel := s.callContext(ctx)
				defer cancel()
				rec, err := s.uc.GetDocumentRecord(callCtx, c.documentID)
				s.deliver(ctx, recordFetched{gen: c.gen, refresh: c.refresh, record: rec, err: err})
			}()

		case fetchContact:
			go func() {
				callCtx, cancel := s.callContext(ctx)
				defer cancel()
				contact, err := s.uc.GetContact(callCtx, c.contactID)
				s.deliver(ctx, contactFetched{gen: c.gen, contact: contact, err: err})
			}()

		case fetchPages:
			go func() {
				callCtx, cancel := s.callContext(ctx)
				defer cancel()
				pages, err := s.uc.GetDocumentPages(callCtx, c.documentID, c.offset, c.limit)
				s.deliver(ctx, pagesFetched{gen: c.gen, offset: c.offset, limit: c.limit, pages: pages, err: err})
			}()

		case persistDraft:
			go func() {
				callCtx, cancel := s.callContext(ctx)
				defer cancel()
				rec, err := s.uc.UpdateDocumentDraft(callCtx, c.documentID, c.data, c.version)
				s.deliver(ctx, draftPersisted{gen: c.gen, record: rec, err: err})
			}()

		case bindContact:
			go func() {
				callCtx, cancel := s.callContext(ctx)
				defer cancel()
				rec, err := s.uc.BindDocumentContact(callCtx, c.documentID, c.contactID)
				s.deliver(ctx, contactBound{gen: c.gen, record: rec, err: err})
			}()

		case clearContact:
			go func() {
				callCtx, cancel := s.callContext(ctx)
				defer cancel()
				rec, err := s.uc.ClearDocumentContact(callCtx, c.documentID)
				s.deliver(ctx, contactCleared{gen: c.gen, record: rec, err: err})
			}()

		case confirmDocument:
			go func() {
				callCtx, cancel := s.callContext(ctx)
				defer cancel()
				entryID, err := s.uc.ConfirmDocument(callCtx, c.documentID)
				s.deliver(ctx, confirmFinished{gen: c.gen, entryID: entryID, err: err})
			}()

		case rejectDocument:
			go func() {
				callCtx, cancel := s.callContext(ctx)
				defer cancel()
				err := s.uc.RejectDocument(callCtx, c.documentID, c.reason)
				s.deliver(ctx, rejectFinished{gen: c.gen, err: err})
			}()

		case reprocessDocument:
			go func() {
				callCtx, cancel := s.callContext(ctx)
				defer cancel()
				err := s.uc.ReprocessDocument(callCtx, c.documentID)
				s.deliver(ctx, reprocessFinished{gen: c.gen, err: err})
			}()
		}
	}
}

func (s *Session) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Session) deliver(ctx context.Context, ev event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}
