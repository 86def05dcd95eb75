package ygggo_mysqlx

import (
	"errors"
	"fmt"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
)

// ErrStmtClosed is wrapped by the *StatementError returned when a closed
// statement is executed.
var ErrStmtClosed = errors.New("ygggo_mysqlx: statement is closed")

// ErrorClass groups driver errors by how a caller should react to them.
type ErrorClass int

const (
	ErrClassUnknown ErrorClass = iota
	ErrClassRetryable
	ErrClassConflict
	ErrClassReadonly
	ErrClassConstraint
	ErrClassBindMismatch
	ErrClassOutOfSync
)

func (c ErrorClass) String() string {
	switch c {
	case ErrClassRetryable:
		return "retryable"
	case ErrClassConflict:
		return "conflict"
	case ErrClassReadonly:
		return "readonly"
	case ErrClassConstraint:
		return "constraint"
	case ErrClassBindMismatch:
		return "bind_mismatch"
	case ErrClassOutOfSync:
		return "out_of_sync"
	default:
		return "unknown"
	}
}

// MySQL server and client error numbers used by Classify.
const (
	codeCommandsOutOfSync = 2014 // CR_COMMANDS_OUT_OF_SYNC
	codeParamsNotBound    = 2031 // CR_PARAMS_NOT_BOUND
	codeInvalidParamNo    = 2034 // CR_INVALID_PARAMETER_NO
	codeWrongArguments    = 1210 // ER_WRONG_ARGUMENTS
	codeDupKey            = 1022
	codeBadNull           = 1048
	codeDupEntry          = 1062
	codeLockWaitTimeout   = 1205
	codeLockDeadlock      = 1213
	codeOptionPrevents    = 1290
	codeRowIsReferenced   = 1451
	codeNoReferencedRow   = 1452
	codeCheckViolated     = 3819
)

var classByCode = map[uint16]ErrorClass{
	codeCommandsOutOfSync: ErrClassOutOfSync,
	codeParamsNotBound:    ErrClassBindMismatch,
	codeInvalidParamNo:    ErrClassBindMismatch,
	codeWrongArguments:    ErrClassBindMismatch,
	codeLockDeadlock:      ErrClassRetryable,
	codeLockWaitTimeout:   ErrClassRetryable,
	codeOptionPrevents:    ErrClassReadonly,
	codeDupEntry:          ErrClassConflict,
	codeDupKey:            ErrClassConflict,
	codeBadNull:           ErrClassConstraint,
	codeRowIsReferenced:   ErrClassConstraint,
	codeNoReferencedRow:   ErrClassConstraint,
	codeCheckViolated:     ErrClassConstraint,
}

// messageFragments is consulted only when the error carries no usable code.
// Every fragment of an entry must be present for it to match, ignoring case.
var messageFragments = []struct {
	parts []string
	class ErrorClass
}{
	{[]string{"commands out of sync"}, ErrClassOutOfSync},
	{[]string{"Number of variables doesn't match number of parameters in prepared statement"}, ErrClassBindMismatch},
	{[]string{"No data supplied for parameters in prepared statement"}, ErrClassBindMismatch},
	{[]string{"Missing placeholder"}, ErrClassBindMismatch},
	{[]string{"sql: expected ", " arguments, got "}, ErrClassBindMismatch},
}

// Classify maps an error to an ErrorClass, preferring the MySQL error number
// and falling back to the message text.
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrClassUnknown
	}
	var be *BindCountMismatchError
	if errors.As(err, &be) {
		return ErrClassBindMismatch
	}
	if errors.Is(err, mysql.ErrPktSync) || errors.Is(err, mysql.ErrPktSyncMul) {
		return ErrClassOutOfSync
	}
	if code, ok := driverCode(err); ok {
		if cl, ok := classByCode[code]; ok {
			return cl
		}
	}
	msg := strings.ToLower(err.Error())
	for _, f := range messageFragments {
		if containsAll(msg, f.parts) {
			return f.class
		}
	}
	return ErrClassUnknown
}

func containsAll(s string, parts []string) bool {
	for _, p := range parts {
		if !strings.Contains(s, strings.ToLower(p)) {
			return false
		}
	}
	return true
}

func driverCode(err error) (uint16, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number, true
	}
	return 0, false
}

// IsOutOfSync reports whether err is the transient "commands out of sync"
// condition that Stmt.Execute recovers from.
func IsOutOfSync(err error) bool { return Classify(err) == ErrClassOutOfSync }

// IsBindMismatch reports whether err means bound values and placeholders disagree.
func IsBindMismatch(err error) bool { return Classify(err) == ErrClassBindMismatch }

// IsDuplicate reports whether err wraps MySQL's duplicate entry error.
func IsDuplicate(err error) bool {
	code, ok := driverCode(err)
	return ok && code == codeDupEntry
}

// ConnectionError is raised where no statement exists yet, typically when
// the driver refuses to prepare a query.
type ConnectionError struct {
	Op      string
	Query   string
	Message string
	Code    int
	Err     error
}

func (e *ConnectionError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("ygggo_mysqlx: %s: %s", e.Op, e.Message)
	}
	return "ygggo_mysqlx: " + e.Message
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// StatementError is a failed statement execution. Stmt is the offending
// statement; its Preview gives the inlined query for diagnostics.
type StatementError struct {
	Stmt    *Stmt
	Message string
	Code    int
	Err     error
}

func (e *StatementError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("ygggo_mysqlx: statement failed (%d): %s", e.Code, e.Message)
	}
	return "ygggo_mysqlx: statement failed: " + e.Message
}

func (e *StatementError) Unwrap() error { return e.Err }

// BindCountMismatchError is a StatementError raised when the bound values do
// not line up with the placeholders of the statement.
type BindCountMismatchError struct {
	StatementError
}

func (e *BindCountMismatchError) Error() string {
	return "ygggo_mysqlx: bind mismatch: " + e.Message
}

// As lets errors.As find the embedded *StatementError.
func (e *BindCountMismatchError) As(target any) bool {
	if t, ok := target.(**StatementError); ok {
		*t = &e.StatementError
		return true
	}
	return false
}

// newError wraps a driver error in the taxonomy. Without a statement the
// result is a *ConnectionError.
func newError(err error, stmt *Stmt) error {
	if err == nil {
		return nil
	}
	msg, code := err.Error(), 0
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		msg, code = me.Message, int(me.Number)
	}
	if stmt == nil {
		return &ConnectionError{Message: msg, Code: code, Err: err}
	}
	base := StatementError{Stmt: stmt, Message: msg, Code: code, Err: err}
	if Classify(err) == ErrClassBindMismatch {
		return &BindCountMismatchError{StatementError: base}
	}
	return &base
}

func newBindMismatch(stmt *Stmt, format string, args ...any) *BindCountMismatchError {
	return &BindCountMismatchError{StatementError: StatementError{
		Stmt:    stmt,
		Message: fmt.Sprintf(format, args...),
	}}
}
