package domain

import (
	"fmt"
	"strings"
)

// EventSourceKind identifies what kind of chat produced an event.
type EventSourceKind string

const (
	SourceUser  EventSourceKind = "user"
	SourceGroup EventSourceKind = "group"
	SourceRoom  EventSourceKind = "room"
)

// Destination is the resolved id used for push-style notification.
type Destination string

// String returns the raw identifier.
func (d Destination) String() string {
	return string(d)
}

// EventSource identifies who to notify once a background sync completes.
// Exactly one of the ids is meaningful, chosen by Kind.
type EventSource struct {
	Kind    EventSourceKind
	UserID  string
	GroupID string
	RoomID  string
}

// NewEventSource validates that the id matching kind is present.
func NewEventSource(kind EventSourceKind, userID, groupID, roomID string) (EventSource, error) {
	src := EventSource{Kind: kind, UserID: userID, GroupID: groupID, RoomID: roomID}
	if err := src.Validate(); err != nil {
		return EventSource{}, err
	}
	return src, nil
}

// UserSource is a shorthand for a one-to-one chat source.
func UserSource(userID string) (EventSource, error) {
	return NewEventSource(SourceUser, userID, "", "")
}

// Validate checks the kind and its matching id.
func (s EventSource) Validate() error {
	var id string
	switch s.Kind {
	case SourceUser:
		id = s.UserID
	case SourceGroup:
		id = s.GroupID
	case SourceRoom:
		id = s.RoomID
	default:
		return fmt.Errorf("%w: unknown event source kind %q", ErrInvalidInput, s.Kind)
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s event source requires a %s id", ErrInvalidInput, s.Kind, s.Kind)
	}
	return nil
}

// Destination returns the id matching the source kind.
func (s EventSource) Destination() Destination {
	switch s.Kind {
	case SourceGroup:
		return Destination(s.GroupID)
	case SourceRoom:
		return Destination(s.RoomID)
	default:
		return Destination(s.UserID)
	}
}

// SourceFromID builds an event source from a bare chat id, inferring the
// kind from the LINE id prefix: C for groups, R for rooms, anything else
// is a user.
func SourceFromID(id string) (EventSource, error) {
	id = strings.TrimSpace(id)
	switch {
	case strings.HasPrefix(id, "C"):
		return NewEventSource(SourceGroup, "", id, "")
	case strings.HasPrefix(id, "R"):
		return NewEventSource(SourceRoom, "", "", id)
	default:
		return UserSource(id)
	}
}
