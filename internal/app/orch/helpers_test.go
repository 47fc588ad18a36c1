package orch_test

import "github.com/dkeye/groupcall/internal/domain"

func domainName(s string) domain.ParticipantName { return domain.ParticipantName(s) }
func domainRoom(s string) domain.RoomName        { return domain.RoomName(s) }
