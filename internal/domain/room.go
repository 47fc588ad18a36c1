package domain

type RoomName string

func NewRoomName(raw string) (RoomName, error) {
	if err := checkName(raw, MaxRoomNameLen); err != nil {
		return "", err
	}
	return RoomName(raw), nil
}

// RoomInfo is a read-only view of a room for APIs.
type RoomInfo struct {
	Name         RoomName          `json:"name"`
	Participants []ParticipantName `json:"participants"`
}
