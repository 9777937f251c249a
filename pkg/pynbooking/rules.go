package pynbooking

import (
	"strings"

	"staylock/pkg/interval"
)

var DefaultConfirmedStatuses = []string{"confirmed", "confirmata", "confirmată"}

// MatchRules decides whether a ledger entry occupies the room being booked.
// The ledger names rooms loosely, so a hit on any enabled room rule counts.
type MatchRules struct {
	MatchRoomType     bool
	MatchRoomName     bool
	SubstringRoomName bool
	ConfirmedStatuses []string
}

func DefaultMatchRules() MatchRules {
	return MatchRules{
		MatchRoomType:     true,
		MatchRoomName:     true,
		SubstringRoomName: true,
		ConfirmedStatuses: DefaultConfirmedStatuses,
	}
}

func (m MatchRules) RoomMatches(entry LedgerReservation, roomKey string) bool {
	if m.MatchRoomType && entry.RoomType != "" && entry.RoomType == roomKey {
		return true
	}
	if m.MatchRoomName && entry.RoomName == roomKey {
		return true
	}
	if m.SubstringRoomName && roomKey != "" &&
		strings.Contains(strings.ToLower(entry.RoomName), strings.ToLower(roomKey)) {
		return true
	}
	return false
}

func (m MatchRules) IsConfirmed(status string) bool {
	status = strings.ToLower(strings.TrimSpace(status))
	for _, s := range m.ConfirmedStatuses {
		if status == strings.ToLower(s) {
			return true
		}
	}
	return false
}

// Blocks reports whether entry makes stay unavailable for roomKey. Entries
// with unreadable dates never block.
func (m MatchRules) Blocks(entry LedgerReservation, roomKey string, stay interval.Range) bool {
	entryStay, ok := entry.Stay()
	if !ok || !entryStay.Overlaps(stay) {
		return false
	}
	return m.RoomMatches(entry, roomKey) && m.IsConfirmed(entry.Status)
}
