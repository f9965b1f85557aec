package lcs

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Status is the result class of a Check call.
type Status string

const (
	StatusValid          Status = "valid"
	StatusAlreadyChecked Status = "already_checked"
	StatusInvalid        Status = "invalid"
)

// Outcome is the result of one Check call.
type Outcome struct {
	Status  Status
	Source  SourceKind
	License *License
	// Message is the human-readable diagnostic or informational text.
	Message string
	Err     error
	At      time.Time
}

// OK is true when a verified license is held after the call.
func (o Outcome) OK() bool {
	return o.Status == StatusValid || o.Status == StatusAlreadyChecked
}

func (o Outcome) Kind() Kind {
	return KindOf(o.Err)
}

type Option func(c *Checker)

func WithSecret(secret string) Option {
	return func(c *Checker) {
		c.secret = secret
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Checker) {
		c.now = now
	}
}

func WithMessages(m Messages) Option {
	return func(c *Checker) {
		c.messages = m.withDefaults()
	}
}

// WithObserver registers fn to be called after every Check.
func WithObserver(fn func(Outcome)) Option {
	return func(c *Checker) {
		c.observers = append(c.observers, fn)
	}
}

// Checker validates the license at most once and holds the verified body for
// entitlement queries. The zero value is not usable; use NewChecker.
type Checker struct {
	opener    Opener
	secret    string
	now       func() time.Time
	messages  Messages
	observers []func(Outcome)

	mu      sync.RWMutex
	license *License
}

func NewChecker(opener Opener, opts ...Option) *Checker {
	c := &Checker{
		opener:   opener,
		secret:   licenseSecret,
		now:      time.Now,
		messages: DefaultMessages(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Check validates the license unless one is already held. A held license
// makes Check a no-op reporting StatusAlreadyChecked; the source is not read
// again. A failed check leaves nothing held, so the next call tries again.
func (c *Checker) Check() Outcome {
	o := c.check()
	for _, fn := range c.observers {
		fn(o)
	}
	return o
}

func (c *Checker) check() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	at := c.now()

	if c.license != nil {
		return Outcome{Status: StatusAlreadyChecked, License: c.license, Message: c.messages.AlreadyChecked(), At: at}
	}

	src, err := c.opener.Open()
	if err != nil {
		return c.failed(Outcome{At: at}, err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			logrus.WithError(err).Warn("Couldn't close license source")
		}
	}()

	o := Outcome{Source: src.Kind, At: at}

	l, err := Validate(src, c.secret, at)
	if err != nil {
		return c.failed(o, err)
	}

	c.license = l
	o.Status = StatusValid
	o.License = l

	logrus.WithField("source", src.Kind).Info("License is valid")

	return o
}

func (c *Checker) failed(o Outcome, err error) Outcome {
	o.Status = StatusInvalid
	o.Err = err
	o.Message = c.messages.Describe(err)

	logrus.WithError(err).WithField("source", o.Source).Warn("License check failed")

	return o
}

// License returns the verified license, or nil before a successful Check.
func (c *Checker) License() *License {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.license
}

// HasFeature is false until a Check succeeded.
func (c *Checker) HasFeature(tag string) bool {
	return c.License().HasFeature(tag)
}

// Reset drops the held license so the next Check reads the source again.
func (c *Checker) Reset() {
	c.mu.Lock()
	c.license = nil
	c.mu.Unlock()
}

// Messages returns the diagnostics renderer in use.
func (c *Checker) Messages() Messages {
	return c.messages
}
