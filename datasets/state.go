package datasets

import "fmt"

type ID uint64

// LoadState is the lifecycle of a dataset record:
// AwaitingConfirmation → Queued → Loading → Loaded or Failed. Canceled records
// are removed on the next tick.
type LoadState uint8

const (
	AwaitingConfirmation LoadState = iota + 1
	Queued
	Loading
	Loaded
	Failed
	Canceled
)

func (s LoadState) String() string {
	switch s {
	case AwaitingConfirmation:
		return "awaiting confirmation"
	case Queued:
		return "queued"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	case Canceled:
		return "canceled"
	}
	return fmt.Sprintf("LoadState(%d)", s)
}

// Settled reports whether no further transition happens without an intent.
func (s LoadState) Settled() bool {
	return s == Loaded || s == Failed || s == Canceled
}
