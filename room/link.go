package room

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// InviteLink renders <base>/meeting/<id>, with ?personal=true for a personal room.
func InviteLink(baseURL, meetingID string, personal bool) string {
	link := strings.TrimRight(baseURL, "/") + "/meeting/" + url.PathEscape(meetingID)
	if personal {
		link += "?personal=true"
	}
	return link
}

// NewMeetingID returns a fresh id for an ad-hoc meeting.
func NewMeetingID() string {
	return uuid.NewString()
}

// MeetingID picks the id for this session: an explicit id wins, a personal
// room uses the user id, anything else gets a new random id.
func MeetingID(explicit, userID string, personal bool) string {
	switch {
	case explicit != "":
		return explicit
	case personal && userID != "":
		return userID
	}
	return NewMeetingID()
}
