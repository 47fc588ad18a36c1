// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"unicode/utf8"
)

const (
	MaxParticipantNameLen = 36
	MaxRoomNameLen        = 64
)

var (
	ErrNameTooLong = errors.New("name too long")
	ErrNameEmpty   = errors.New("name empty")
)

type ParticipantName string

// ParticipantKey identifies a participant inside a room.
// Two handles with the same key refer to the same logical participant.
type ParticipantKey struct {
	Room RoomName
	Name ParticipantName
}

func (k ParticipantKey) String() string {
	return string(k.Room) + "/" + string(k.Name)
}

func NewParticipantName(raw string) (ParticipantName, error) {
	if err := checkName(raw, MaxParticipantNameLen); err != nil {
		return "", err
	}
	return ParticipantName(raw), nil
}

func checkName(raw string, max int) error {
	if len(raw) == 0 {
		return ErrNameEmpty
	}
	if utf8.RuneCountInString(raw) > max {
		return ErrNameTooLong
	}
	return nil
}
