package events

import (
	"strings"
	"time"
)

const (
	TypeProjectResolved   = "project_resolved"
	TypeResolutionFailed  = "project_resolution_failed"
	TypeBarcodeScanned    = "barcode_scanned"
	SubjectPrefix         = "events."
	SubjectBarcodeScanned = SubjectPrefix + TypeBarcodeScanned
)

// Subject is the NATS subject an event of this type is published on.
func Subject(eventType string) string {
	return SubjectPrefix + eventType
}

// TypeFromSubject strips the subject prefix.
func TypeFromSubject(subject string) string {
	return strings.TrimPrefix(subject, SubjectPrefix)
}

func ProjectResolved(barcode, projectID, name string, steps int, manualURL, via string, at time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeProjectResolved,
		Data: map[string]interface{}{
			"barcode":     barcode,
			"project_id":  projectID,
			"name":        name,
			"total_steps": steps,
			"manual_url":  manualURL,
			"via":         via,
			"entity_type": "project",
			"entity_id":   projectID,
			"occurred_at": at,
		},
		OccurredAt: at,
	}
}

func ResolutionFailed(barcode, reason string, at time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeResolutionFailed,
		Data: map[string]interface{}{
			"barcode":     barcode,
			"reason":      reason,
			"entity_type": "barcode",
			"entity_id":   barcode,
			"occurred_at": at,
		},
		OccurredAt: at,
	}
}

func BarcodeScanned(barcode string, at time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeBarcodeScanned,
		Data: map[string]interface{}{
			"barcode":     barcode,
			"entity_type": "barcode",
			"entity_id":   barcode,
			"occurred_at": at,
		},
		OccurredAt: at,
	}
}

// BarcodeFrom extracts the scanned value from a barcode_scanned payload.
func BarcodeFrom(e Event) (string, bool) {
	v, ok := e.Payload()["barcode"].(string)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
