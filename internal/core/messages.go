package core

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/groupcall/internal/domain"
)

// Message ids, client to server.
const (
	IDJoinRoom         = "joinRoom"
	IDReceiveVideoFrom = "receiveVideoFrom"
	IDLeaveRoom        = "leaveRoom"
	IDOnIceCandidate   = "onIceCandidate"
)

// Message ids, server to client.
const (
	IDIceCandidate          = "iceCandidate"
	IDReceiveVideoAnswer    = "receiveVideoAnswer"
	IDExistingParticipants  = "existingParticipants"
	IDNewParticipantArrived = "newParticipantArrived"
	IDParticipantLeft       = "participantLeft"
	IDError                 = "error"
)

// Envelope is a decoded client message. The set of variants is closed:
// JoinRoom, ReceiveVideoFrom, LeaveRoom, OnIceCandidate and Unknown.
type Envelope interface {
	envelopeID() string
}

type JoinRoom struct {
	Room string `json:"room"`
	Name string `json:"name"`
}

type ReceiveVideoFrom struct {
	Sender   string `json:"sender"`
	SDPOffer string `json:"sdpOffer"`
}

type LeaveRoom struct{}

type OnIceCandidate struct {
	Name      string    `json:"name"`
	Candidate Candidate `json:"candidate"`
}

// Unknown carries an id this server does not handle.
type Unknown struct {
	ID string
}

func (JoinRoom) envelopeID() string         { return IDJoinRoom }
func (ReceiveVideoFrom) envelopeID() string { return IDReceiveVideoFrom }
func (LeaveRoom) envelopeID() string        { return IDLeaveRoom }
func (OnIceCandidate) envelopeID() string   { return IDOnIceCandidate }
func (u Unknown) envelopeID() string        { return u.ID }

// EnvelopeID returns the wire id of env.
func EnvelopeID(env Envelope) string { return env.envelopeID() }

// DecodeEnvelope parses one client message.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var env Envelope
	switch head.ID {
	case IDJoinRoom:
		var m JoinRoom
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.ID, err)
		}
		env = m
	case IDReceiveVideoFrom:
		var m ReceiveVideoFrom
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.ID, err)
		}
		env = m
	case IDLeaveRoom:
		env = LeaveRoom{}
	case IDOnIceCandidate:
		var m OnIceCandidate
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.ID, err)
		}
		env = m
	default:
		env = Unknown{ID: head.ID}
	}
	return env, nil
}

type IceCandidateMessage struct {
	ID        string                 `json:"id"`
	Name      domain.ParticipantName `json:"name"`
	Candidate Candidate              `json:"candidate"`
}

func NewIceCandidateMessage(name domain.ParticipantName, c Candidate) IceCandidateMessage {
	return IceCandidateMessage{ID: IDIceCandidate, Name: name, Candidate: c}
}

type ReceiveVideoAnswerMessage struct {
	ID        string                 `json:"id"`
	Name      domain.ParticipantName `json:"name"`
	SDPAnswer string                 `json:"sdpAnswer"`
}

func NewReceiveVideoAnswerMessage(name domain.ParticipantName, answer string) ReceiveVideoAnswerMessage {
	return ReceiveVideoAnswerMessage{ID: IDReceiveVideoAnswer, Name: name, SDPAnswer: answer}
}

type ExistingParticipantsMessage struct {
	ID   string                   `json:"id"`
	Data []domain.ParticipantName `json:"data"`
}

func NewExistingParticipantsMessage(names []domain.ParticipantName) ExistingParticipantsMessage {
	if names == nil {
		names = []domain.ParticipantName{}
	}
	return ExistingParticipantsMessage{ID: IDExistingParticipants, Data: names}
}

// ParticipantMessage announces arrivals and departures.
type ParticipantMessage struct {
	ID   string                 `json:"id"`
	Name domain.ParticipantName `json:"name"`
}

func NewParticipantArrivedMessage(name domain.ParticipantName) ParticipantMessage {
	return ParticipantMessage{ID: IDNewParticipantArrived, Name: name}
}

func NewParticipantLeftMessage(name domain.ParticipantName) ParticipantMessage {
	return ParticipantMessage{ID: IDParticipantLeft, Name: name}
}

type ErrorMessage struct {
	ID      string `json:"id"`
	Request string `json:"request,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorMessage(request string, err error) ErrorMessage {
	return ErrorMessage{ID: IDError, Request: request, Code: ErrorCode(err), Message: err.Error()}
}
