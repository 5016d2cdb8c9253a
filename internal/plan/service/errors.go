package service

import (
	"errors"
	"fmt"
	"strings"

	"arho/internal/plan/store"
	id "arho/pkg/domain"
	dErrors "arho/pkg/domain-errors"
	"arho/pkg/platform/sentinel"
)

// Op names the store operation that failed.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpLink   Op = "link"
	OpUnlink Op = "unlink"
	OpQuery  Op = "query"
)

// OpError reports one failed store operation. Err carries a domain code:
// CodeReadInconsistency when an update targets a row that no longer exists,
// CodeNotFound when a delete does, CodeInternal for queries and
// CodeWriteFailed otherwise.
type OpError struct {
	Kind store.Kind
	Op   Op
	ID   id.ID
	Err  error
}

func (e *OpError) Error() string {
	if e.ID.IsZero() {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s %s: %v", e.Op, e.Kind, e.ID, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func newOpError(kind store.Kind, op Op, v id.ID, err error) *OpError {
	var code dErrors.Code
	var msg string
	switch {
	case op == OpUpdate && errors.Is(err, sentinel.ErrNotFound):
		code, msg = dErrors.CodeReadInconsistency, "row no longer exists"
	case op == OpDelete && errors.Is(err, sentinel.ErrNotFound):
		code, msg = dErrors.CodeNotFound, "row not found"
	case op == OpQuery:
		code, msg = dErrors.CodeInternal, "read failed"
	default:
		code, msg = dErrors.CodeWriteFailed, "write failed"
	}
	return &OpError{Kind: kind, Op: op, ID: v, Err: dErrors.Wrap(err, code, msg)}
}

// asOpError returns err as an *OpError, wrapping foreign errors as a failed
// query on kind.
func asOpError(kind store.Kind, err error) *OpError {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe
	}
	return newOpError(kind, OpQuery, "", err)
}

// SaveReport collects the child failures of a cascade that otherwise
// completed. The node the caller asked for was written.
type SaveReport struct {
	Failures []*OpError
}

func (r *SaveReport) Error() string {
	msgs := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%d plan writes failed: %s", len(r.Failures), strings.Join(msgs, "; "))
}

func (r *SaveReport) Unwrap() []error {
	out := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		out[i] = f
	}
	return out
}

func (r *SaveReport) add(err *OpError) {
	r.Failures = append(r.Failures, err)
}

// err returns the report as an error, or nil when nothing failed.
func (r *SaveReport) err() error {
	if r == nil || len(r.Failures) == 0 {
		return nil
	}
	return r
}
