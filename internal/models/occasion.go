package models

import "strings"

type OccasionKind string

const (
	OccasionActivity OccasionKind = "activity"
	OccasionEvent    OccasionKind = "event"
)

// OccasionRef points at exactly one activity or event.
type OccasionRef struct {
	Kind OccasionKind
	ID   string
}

// NewOccasionRef builds a reference from the two optional ids. It fails
// when both or neither are set.
func NewOccasionRef(activityID, eventID string) (OccasionRef, bool) {
	activityID = strings.TrimSpace(activityID)
	eventID = strings.TrimSpace(eventID)
	switch {
	case activityID != "" && eventID == "":
		return OccasionRef{Kind: OccasionActivity, ID: activityID}, true
	case eventID != "" && activityID == "":
		return OccasionRef{Kind: OccasionEvent, ID: eventID}, true
	default:
		return OccasionRef{}, false
	}
}

// Column is the attendance column that holds the reference.
func (o OccasionRef) Column() string {
	if o.Kind == OccasionActivity {
		return "activity_id"
	}
	return "event_id"
}

func (o OccasionRef) String() string {
	return string(o.Kind) + ":" + o.ID
}
