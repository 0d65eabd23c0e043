// Package apperr provides coded application errors whose user-facing text comes
// from a localized message bundle.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error is the base application error. Args are interpolated into the message
// template registered for Code.
type Error struct {
	Code  Code
	Args  map[string]string
	Cause error
}

// New returns an error for code. kv are alternating argument names and values.
func New(code Code, kv ...string) *Error {
	e := &Error{Code: code}
	if len(kv) > 0 {
		e.Args = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			e.Args[kv[i]] = kv[i+1]
		}
	}
	return e
}

// Wrap returns an error for code that unwraps to cause.
func Wrap(cause error, code Code, kv ...string) *Error {
	e := New(code, kv...)
	e.Cause = cause
	return e
}

// Error is the untranslated form used in logs.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if len(e.Args) > 0 {
		keys := make([]string, 0, len(e.Args))
		for k := range e.Args {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%s", k, e.Args[k])
		}
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error by code so errors.Is(err, apperr.New(code)) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// GetCode extracts the code from any error. Returns CodeUnknown for foreign errors.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// Messages resolves message templates for a locale.
type Messages interface {
	Format(locale string, key string, args map[string]string) (string, bool)
}

// Message renders err for locale. Foreign errors and codes without a template
// fall back to a generic message.
func Message(m Messages, locale string, err error) string {
	var e *Error
	if !errors.As(err, &e) {
		if msg, ok := m.Format(locale, string(CodeUnknown), nil); ok {
			return msg
		}
		return "an unexpected error occurred"
	}
	if msg, ok := m.Format(locale, string(e.Code), e.Args); ok {
		return msg
	}
	return e.Error()
}
