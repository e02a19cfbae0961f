package taskmux

import "sync/atomic"

// Token identifies one caller's registered interest in a task's result.
// Tokens are unique within the process and never reused; the zero Token
// is never issued.
type Token uint64

var tokenSeq atomic.Uint64

func nextToken() Token {
	return Token(tokenSeq.Add(1))
}

// request is one registered interest: the declared priority and the
// callback to fire if the request survives to completion.
type request[T any] struct {
	priority Priority
	onResult func(T)
}
