package ontevent

import (
	"fmt"
	"strings"
)

// EventType is the kind of run event an email reports.
type EventType string

const (
	// EventUploaded - the run has been uploaded to iRODS.
	EventUploaded EventType = "uploaded"
	// EventBasecalled - the run has been basecalled, basecall type unknown.
	EventBasecalled EventType = "basecalled"
	// EventBasecalledHAC - basecalled with the high accuracy model.
	EventBasecalledHAC EventType = "basecalled (HAC)"
	// EventBasecalledSUP - basecalled with the super-high accuracy model.
	EventBasecalledSUP EventType = "basecalled (SUP)"
	// EventBasecalledMOD - basecalled with the modified bases model.
	EventBasecalledMOD EventType = "basecalled (MOD)"
)

var eventNames = map[string]EventType{
	"uploaded":       EventUploaded,
	"basecalled":     EventBasecalled,
	"basecalled_hac": EventBasecalledHAC,
	"basecalled_sup": EventBasecalledSUP,
	"basecalled_mod": EventBasecalledMOD,
}

// EventNames returns the accepted CLI names for events.
func EventNames() []string {
	return []string{"uploaded", "basecalled", "basecalled_hac", "basecalled_sup", "basecalled_mod"}
}

// ParseEvent converts a CLI name or a wire value into an EventType.
func ParseEvent(value string) (EventType, error) {
	trimmed := strings.TrimSpace(value)
	if event, ok := eventNames[strings.ToLower(trimmed)]; ok {
		return event, nil
	}
	// Wire values round trip as-is ("basecalled (HAC)" etc.).
	for _, event := range eventNames {
		if string(event) == trimmed {
			return event, nil
		}
	}
	return "", fmt.Errorf("unknown event %q (expected one of %s)",
		value, strings.Join(EventNames(), ", "))
}

func (e EventType) String() string { return string(e) }
