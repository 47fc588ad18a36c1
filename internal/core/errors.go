package core

import "errors"

var (
	ErrUnknownRoom            = errors.New("unknown room")
	ErrUnknownParticipant     = errors.New("unknown participant")
	ErrDuplicateParticipant   = errors.New("participant already joined")
	ErrNegotiationFailure     = errors.New("negotiation failed")
	ErrNegotiationTimeout     = errors.New("negotiation timed out")
	ErrEndpointReleaseFailure = errors.New("endpoint release failed")
	ErrTransportSendFailure   = errors.New("transport send failed")

	// ErrRoomClosed is returned by Room.Join after the room lost its last participant.
	// Callers should fetch a fresh room from the RoomManager and retry.
	ErrRoomClosed = errors.New("room closed")
	// ErrParticipantClosed is returned for operations on a participant that already left.
	ErrParticipantClosed = errors.New("participant closed")
)

// ErrorCode maps an error to the short code reported to clients.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnknownRoom):
		return "unknown_room"
	case errors.Is(err, ErrUnknownParticipant):
		return "unknown_participant"
	case errors.Is(err, ErrDuplicateParticipant):
		return "duplicate_participant"
	case errors.Is(err, ErrNegotiationTimeout):
		return "negotiation_timeout"
	case errors.Is(err, ErrNegotiationFailure):
		return "negotiation_failure"
	case errors.Is(err, ErrParticipantClosed), errors.Is(err, ErrRoomClosed):
		return "closed"
	default:
		return "internal"
	}
}
