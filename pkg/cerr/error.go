package cerr

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"buf.build/gen/go/bufbuild/protovalidate/protocolbuffers/go/buf/validate"
	"connectrpc.com/connect"
	"google.golang.org/protobuf/proto"

	"github.com/kazz187/agentboard/pkg/clog"
)

type Error struct {
	Code    Code
	Msg     string          // returned to the caller together with Code
	Err     error           // logged, never returned to the caller
	Stack   string          // captured for server-side codes
	Details []proto.Message // returned to the caller as connect error details
}

func NewError(code Code, msg string, underlying error) *Error {
	err := &Error{
		Code: code,
		Msg:  msg,
		Err:  underlying,
	}
	if code.ServerSide() {
		buf := make([]byte, 2048)
		n := runtime.Stack(buf, false)
		err.Stack = string(buf[:n])
	}
	return err
}

// NewValidationError reports a rejected input field. ruleID follows the
// "<field>.<rule>" convention, e.g. "title.required".
func NewValidationError(ruleID, msg string) *Error {
	err := NewError(InvalidArgument, msg, nil)
	err.AddViolation(ruleID, msg)
	return err
}

func (e *Error) AddViolation(ruleID, msg string) {
	e.Details = append(e.Details, &validate.Violation{
		RuleId:  &ruleID,
		Message: &msg,
	})
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Msg, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) ConnectError() *connect.Error {
	connectErr := connect.NewError(e.Code.ConnectCode(), errors.New(e.Msg))
	for _, d := range e.Details {
		detail, err := connect.NewErrorDetail(d)
		if err != nil {
			continue
		}
		connectErr.AddDetail(detail)
	}
	return connectErr
}

// Normalize turns any error into a *Error, mapping cancellation to Canceled
// and anything unrecognised to Unknown. The cause is recorded on ctx for the
// request logger.
func Normalize(ctx context.Context, err error) *Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return NewError(Canceled, "connection closed", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(DeadlineExceeded, "deadline exceeded", err)
	}
	clog.AddError(ctx, err)
	var ce *Error
	if errors.As(err, &ce) {
		if ce.Stack != "" {
			clog.AddStack(ctx, ce.Stack)
		}
		return ce
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return NewError(CodeFromConnect(connectErr), connectErr.Message(), err)
	}
	return NewError(Unknown, "unknown error", err)
}

func ExtractConnectError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return Normalize(ctx, err).ConnectError()
}

func IsCode(err error, code Code) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// Violations returns the rule ids attached to err, if any.
func Violations(err error) []string {
	var ce *Error
	if !errors.As(err, &ce) {
		return nil
	}
	var ids []string
	for _, d := range ce.Details {
		if v, ok := d.(*validate.Violation); ok {
			ids = append(ids, v.GetRuleId())
		}
	}
	return ids
}
