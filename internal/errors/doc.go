// Package errors provides structured, actionable error values for attrsync.
//
// Every error carries a registered code, a category and a short message.
// Optional detail, a fix suggestion and a wrapped cause can be attached with
// the With* builders.
//
// # Error Categories
//
//   - config: the reconciler or a host was wired incorrectly. These are
//     programmer errors and are never retried.
//   - validation: a caller supplied desired state that cannot be applied.
//   - protocol: a wire frame could not be decoded or encoded.
//   - runtime: a failure while serving live sessions.
//   - cli: command line usage errors.
//
// # Usage
//
//	err := errors.New("E100").
//	    WithDetail(`strategy "tokenset" needs TokenSetAccessor`).
//	    WithSuggestion("Implement TokenSet and SetTokenSet on the host")
//
//	fmt.Println(err.Format())
package errors
