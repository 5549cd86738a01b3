package apperr

import (
	"errors"
	"strings"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindFormatUnsupported
	KindDuplicate
	KindIndexCommit
	KindEncoder
	KindIO
	KindInvalidInput
)

var (
	ErrNotFound          = errors.New("not found")
	ErrFormatUnsupported = errors.New("format not supported")
	ErrDuplicate         = errors.New("duplicate content")
	ErrIndexCommit       = errors.New("index commit failed")
	ErrEncoder           = errors.New("encoder failed")
	ErrIO                = errors.New("i/o failure")
	ErrInvalidInput      = errors.New("invalid input")
)

var sentinels = map[Kind]error{
	KindNotFound:          ErrNotFound,
	KindFormatUnsupported: ErrFormatUnsupported,
	KindDuplicate:         ErrDuplicate,
	KindIndexCommit:       ErrIndexCommit,
	KindEncoder:           ErrEncoder,
	KindIO:                ErrIO,
	KindInvalidInput:      ErrInvalidInput,
}

// String returns the snake_case name used in logs and JSON output.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindFormatUnsupported:
		return "format_unsupported"
	case KindDuplicate:
		return "duplicate"
	case KindIndexCommit:
		return "index_commit"
	case KindEncoder:
		return "encoder"
	case KindIO:
		return "io"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// Error is a tagged failure. Subject names the identifier or path that
// triggered it; Output holds diagnostics such as captured encoder output.
type Error struct {
	Kind    Kind
	Op      string
	Subject string
	Message string
	Output  string
	Err     error
}

// New builds an *Error without an underlying cause.
func New(kind Kind, op, subject, message string) *Error {
	return &Error{Kind: kind, Op: op, Subject: subject, Message: message}
}

// Wrap builds an *Error around cause. A nil cause yields the same value New
// would.
func Wrap(kind Kind, op, subject string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Subject: subject, Err: cause}
}

func (e *Error) Error() string {
	parts := make([]string, 0, 5)
	if op := strings.TrimSpace(e.Op); op != "" {
		parts = append(parts, op)
	}
	parts = append(parts, e.Kind.String())
	if subject := strings.TrimSpace(e.Subject); subject != "" {
		parts = append(parts, subject)
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := sentinels[e.Kind]
	return ok && target == sentinel
}

// ErrorKind reports the kind name for status classification.
func (e *Error) ErrorKind() string {
	return e.Kind.String()
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return KindUnknown
}

// OutputOf returns captured diagnostics attached anywhere in err's chain.
func OutputOf(err error) string {
	var tagged *Error
	for err != nil {
		if !errors.As(err, &tagged) {
			return ""
		}
		if tagged.Output != "" {
			return tagged.Output
		}
		err = tagged.Err
	}
	return ""
}
