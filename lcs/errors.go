package lcs

import (
	"fmt"
	"syscall"

	"github.com/pkg/errors"
)

// Kind classifies why a license check failed.
type Kind int

const (
	KindNone Kind = iota
	KindSourceUnavailable
	KindIOFailure
	KindFormatCorrupt
	KindIntegrityMismatch
	KindExpired
)

func (k Kind) String() string {
	switch k {
	case KindSourceUnavailable:
		return "source_unavailable"
	case KindIOFailure:
		return "io_failure"
	case KindFormatCorrupt:
		return "format_corrupt"
	case KindIntegrityMismatch:
		return "integrity_mismatch"
	case KindExpired:
		return "expired"
	default:
		return "none"
	}
}

// Error is returned by every failing step of a license check.
type Error struct {
	Kind Kind
	// Detail is a short technical reason, e.g. "line 31 exceeds the line limit".
	Detail string
	// ExpiresAfter is set for KindExpired.
	ExpiresAfter string
	// Override is set when the failing source came from the environment.
	Override bool
	Err      error
}

func (e *Error) Error() string {
	msg := "license: " + e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Cause() error  { return e.Err }
func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// KindOf returns the kind of a license error, or KindNone.
func KindOf(err error) Kind {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Kind
	}
	return KindNone
}

const (
	DefaultProduct       = "f-keyfile"
	DefaultAppeal        = "If you believe this is a mistake, please contact support@f-keyfile.com with the output above."
	DefaultExpiredAppeal = "Please renew your license at https://f-keyfile.com/renew or contact sales@f-keyfile.com."
)

// Messages renders the diagnostics shown to operators.
type Messages struct {
	Product       string
	OverrideEnv   string
	Appeal        string
	ExpiredAppeal string
}

func DefaultMessages() Messages {
	return Messages{
		Product:       DefaultProduct,
		OverrideEnv:   DefaultOverrideEnv,
		Appeal:        DefaultAppeal,
		ExpiredAppeal: DefaultExpiredAppeal,
	}
}

func (m Messages) withDefaults() Messages {
	d := DefaultMessages()
	if m.Product == "" {
		m.Product = d.Product
	}
	if m.OverrideEnv == "" {
		m.OverrideEnv = d.OverrideEnv
	}
	if m.Appeal == "" {
		m.Appeal = d.Appeal
	}
	if m.ExpiredAppeal == "" {
		m.ExpiredAppeal = d.ExpiredAppeal
	}
	return m
}

// AlreadyChecked is the informational message for a repeated check.
func (m Messages) AlreadyChecked() string {
	return fmt.Sprintf("%s license key already checked.", m.withDefaults().Product)
}

// Describe turns err into a self-contained, actionable diagnostic.
func (m Messages) Describe(err error) string {
	if err == nil {
		return ""
	}
	m = m.withDefaults()

	var lerr *Error
	if !errors.As(err, &lerr) {
		return fmt.Sprintf("An unexpected error occurred while checking the %s license: %s\n%s", m.Product, err, m.Appeal)
	}

	switch lerr.Kind {
	case KindSourceUnavailable:
		if lerr.Override {
			return fmt.Sprintf("%s license detected in environment variable %s, but unable to create a temporary file: %s\n%s",
				m.Product, m.OverrideEnv, causeText(lerr), m.Appeal)
		}
		return fmt.Sprintf("Could not open the %s license file. "+
			"Please check whether it's installed correctly and whether it's world-readable.\n%s", m.Product, m.Appeal)
	case KindIOFailure:
		return fmt.Sprintf("An I/O error occurred while reading the %s license file.\n%s", m.Product, m.Appeal)
	case KindFormatCorrupt:
		return fmt.Sprintf("The %s license file appears to be corrupted. Please reinstall it.\n%s", m.Product, m.Appeal)
	case KindIntegrityMismatch:
		return fmt.Sprintf("The %s license file is invalid.\n%s", m.Product, m.Appeal)
	case KindExpired:
		return fmt.Sprintf("The %s license file is invalid: expired since %s.\n%s", m.Product, lerr.ExpiresAfter, m.ExpiredAppeal)
	default:
		return fmt.Sprintf("The %s license file could not be checked.\n%s", m.Product, m.Appeal)
	}
}

func causeText(e *Error) string {
	if e.Err == nil {
		return e.Detail
	}
	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		return fmt.Sprintf("%s (errno=%d)", e.Err, int(errno))
	}
	return e.Err.Error()
}
