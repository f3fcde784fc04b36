package bytenc

import "errors"

var (
	// ErrClosed is returned by [Encoder.Push] once the encoder has started closing. Pushing into a
	// closed encoder is a usage error and is never worth retrying.
	ErrClosed = errors.New("encoder is closed")
	// ErrEmpty is returned by [Encoder.PullImmediately] when there is no pending chunk but the
	// encoder is still open.
	ErrEmpty = errors.New("no chunk available")
	// ErrListener wraps errors returned by a [Listener]. When [Emitter.Emit] returns it, the chunk
	// has already been stored in the mailbox and must not be emitted again.
	ErrListener = errors.New("listener failed")
	// ErrUnknownEncoding is returned by [Encoder.EncodeText] for text encoding names that can't be
	// resolved.
	ErrUnknownEncoding = errors.New("unknown text encoding")
)
