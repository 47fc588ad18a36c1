package core

//go:generate mockgen -source=signal_iface.go -destination=mocks/mock_signal.go -package=mocks

// Frame is a raw serialized signaling message.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
// TrySend must be safe for concurrent use and must never interleave frames.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
