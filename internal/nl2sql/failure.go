package nl2sql

import (
	"errors"
	"fmt"
)

// FailureKind is the closed set of translation failure categories. Grammar or
// semantic errors in the generated SQL are not part of this set; they surface
// at execution time as a distinct category owned by the query engine.
type FailureKind string

const (
	KindInvalidSchema    FailureKind = "invalid_schema"
	KindEmptyQuestion    FailureKind = "empty_question"
	KindServiceError     FailureKind = "service_error"
	KindTranslationEmpty FailureKind = "translation_empty"
	KindUnknown          FailureKind = "unknown"
)

// Error is a tagged translation failure. Callers match on Kind instead of
// inspecting message strings.
type Error struct {
	Kind   FailureKind
	Detail string
	cause  error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("translation failed: %s", e.Kind)
	}
	return fmt.Sprintf("translation failed: %s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.cause }

func newError(kind FailureKind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, cause: cause}
}

// KindOf extracts the failure kind from an error returned by this package.
// Foreign errors report KindUnknown; nil reports an empty kind.
func KindOf(err error) FailureKind {
	if err == nil {
		return ""
	}
	var translationErr *Error
	if errors.As(err, &translationErr) {
		return translationErr.Kind
	}
	return KindUnknown
}
