// Package messagetest provides an in-memory message.Platform for tests.
package messagetest

import (
	"context"
	"sync"

	"ghexplorer/internal/message"
)

// Op names recorded by Platform
const (
	OpEditText    = "edit_text"
	OpEditCaption = "edit_caption"
	OpSendText    = "send_text"
	OpSendPhoto   = "send_photo"
	OpDelete      = "delete"
	OpAnswer      = "answer_callback"
)

// Call is one recorded platform call
type Call struct {
	Op       string
	Handle   message.Handle
	Body     string
	PhotoURL string
	Keyboard message.Keyboard
}

// Platform records every call and keeps the latest body per message.
// Failures can be injected per op with Fail.
type Platform struct {
	mu       sync.Mutex
	calls    []Call
	bodies   map[int]string
	deleted  map[int]bool
	nextID   int
	failures map[string][]error
	OnEdit   func(Call)
}

// New returns an empty fake platform. Sent messages get ids from 1000 up.
func New() *Platform {
	return &Platform{
		bodies:   make(map[int]string),
		deleted:  make(map[int]bool),
		nextID:   1000,
		failures: make(map[string][]error),
	}
}

// Fail queues err to be returned by the next call of op
func (p *Platform) Fail(op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[op] = append(p.failures[op], err)
}

func (p *Platform) popFailure(op string) error {
	queue := p.failures[op]
	if len(queue) == 0 {
		return nil
	}
	p.failures[op] = queue[1:]
	return queue[0]
}

func (p *Platform) record(c Call) error {
	p.mu.Lock()
	if err := p.popFailure(c.Op); err != nil {
		p.mu.Unlock()
		return err
	}
	if (c.Op == OpEditText || c.Op == OpEditCaption) && p.deleted[c.Handle.MessageID] {
		p.mu.Unlock()
		return &message.PlatformError{Op: c.Op, Err: message.ErrMessageGone}
	}
	c.Keyboard = c.Keyboard.Clone()
	p.calls = append(p.calls, c)
	if c.Op == OpEditText || c.Op == OpEditCaption {
		p.bodies[c.Handle.MessageID] = c.Body
	}
	hook := p.OnEdit
	p.mu.Unlock()

	if hook != nil && (c.Op == OpEditText || c.Op == OpEditCaption) {
		hook(c)
	}
	return nil
}

func (p *Platform) EditText(ctx context.Context, h message.Handle, body string, kb message.Keyboard) error {
	return p.record(Call{Op: OpEditText, Handle: h, Body: body, Keyboard: kb})
}

func (p *Platform) EditCaption(ctx context.Context, h message.Handle, caption string, kb message.Keyboard) error {
	return p.record(Call{Op: OpEditCaption, Handle: h, Body: caption, Keyboard: kb})
}

func (p *Platform) SendText(ctx context.Context, chatID int64, body string, kb message.Keyboard) (message.Handle, error) {
	p.mu.Lock()
	p.nextID++
	h := message.Handle{ChatID: chatID, MessageID: p.nextID, Kind: message.KindText}
	p.mu.Unlock()
	if err := p.record(Call{Op: OpSendText, Handle: h, Body: body, Keyboard: kb}); err != nil {
		return message.Handle{}, err
	}
	p.mu.Lock()
	p.bodies[h.MessageID] = body
	p.mu.Unlock()
	return h, nil
}

func (p *Platform) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, kb message.Keyboard) (message.Handle, error) {
	p.mu.Lock()
	p.nextID++
	h := message.Handle{ChatID: chatID, MessageID: p.nextID, Kind: message.KindPhoto}
	p.mu.Unlock()
	if err := p.record(Call{Op: OpSendPhoto, Handle: h, Body: caption, PhotoURL: photoURL, Keyboard: kb}); err != nil {
		return message.Handle{}, err
	}
	p.mu.Lock()
	p.bodies[h.MessageID] = caption
	p.mu.Unlock()
	return h, nil
}

func (p *Platform) Delete(ctx context.Context, h message.Handle) error {
	if err := p.record(Call{Op: OpDelete, Handle: h}); err != nil {
		return err
	}
	p.mu.Lock()
	p.deleted[h.MessageID] = true
	p.mu.Unlock()
	return nil
}

func (p *Platform) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return p.record(Call{Op: OpAnswer, Body: text})
}

// Calls returns a snapshot of all recorded calls
func (p *Platform) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// CallsOf returns recorded calls with the given op
func (p *Platform) CallsOf(op string) []Call {
	var out []Call
	for _, c := range p.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Body returns the latest body or caption of a message
func (p *Platform) Body(messageID int) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bodies[messageID]
}

// Deleted reports whether a message was deleted
func (p *Platform) Deleted(messageID int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deleted[messageID]
}

// LastCall returns the most recent call, if any
func (p *Platform) LastCall() (Call, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.calls) == 0 {
		return Call{}, false
	}
	return p.calls[len(p.calls)-1], true
}
