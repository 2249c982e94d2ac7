package models

import "fmt"

// ValidationError reports bad caller input. Never retried.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Msg)
}

// CodecError reports malformed account bytes. The offending item is skipped;
// streams continue.
type CodecError struct {
	Account string
	Msg     string
}

func (e *CodecError) Error() string {
	if e.Account == "" {
		return fmt.Sprintf("codec error: %s", e.Msg)
	}
	return fmt.Sprintf("codec error: account %s: %s", e.Account, e.Msg)
}

// TransientChainError reports a network/RPC hiccup. Retried with bounded
// backoff by the execution engine and the discovery loop only.
type TransientChainError struct {
	Op  string
	Err error
}

func (e *TransientChainError) Error() string {
	return fmt.Sprintf("transient chain error: %s: %v", e.Op, e.Err)
}

func (e *TransientChainError) Unwrap() error { return e.Err }

// OnChainRejection reports a definitive simulation or execution failure
// (slippage exceeded, insufficient funds). Not retried.
type OnChainRejection struct {
	Signature string
	Reason    string
}

func (e *OnChainRejection) Error() string {
	return fmt.Sprintf("on-chain rejection: %s", e.Reason)
}

// TimeoutError reports a confirmation or subscription timeout. Retryable up
// to a limit, then surfaced as a terminal failure.
type TimeoutError struct {
	Op      string
	Elapsed string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout: %s after %s", e.Op, e.Elapsed)
}

// ErrNoPoolFound is returned when routing accounts cannot be resolved for a
// token.
var ErrNoPoolFound = fmt.Errorf("no pool found for token")
