package room

import "fmt"

// Error codes carried in the "error" field of error frames. Clients key
// their handling off these; the msg field is display text only.
const (
	CodeNameTaken     = "name_taken"
	CodeGameRunning   = "game_running"
	CodeUnknownPlayer = "unknown_player"
	CodeNotAuthorized = "not_authorized"
	CodeInvalidAction = "invalid_action"
	CodeNotStarted    = "not_started"
	CodeMalformed     = "malformed_message"
	CodeHandlerError  = "handler_error"
	CodeEmptyName     = "empty_name"
)

// Error is an expected rejection of a join/leave/dispatch operation. It is
// converted into an error frame for the originating connection and never
// terminates the connection.
type Error struct {
	Code string
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// NewError builds a typed room error with a wire code.
func NewError(code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// ErrorCode extracts the wire code from err, or "" for untyped errors.
func ErrorCode(err error) string {
	if re, ok := err.(*Error); ok {
		return re.Code
	}
	return ""
}
