package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubjects(t *testing.T) {
	assert.Equal(t, "events.project_resolved", Subject(TypeProjectResolved))
	assert.Equal(t, TypeBarcodeScanned, TypeFromSubject(SubjectBarcodeScanned))
}

func TestProjectResolved(t *testing.T) {
	at := time.Unix(100, 0)
	evt := ProjectResolved("123", "barcode-123", "Desk", 5, "https://x.example/a.pdf", "primary", at)

	assert.Equal(t, TypeProjectResolved, evt.EventType())
	assert.Equal(t, at, evt.Timestamp())
	assert.Equal(t, "barcode-123", evt.Payload()["entity_id"])
	assert.Equal(t, 5, evt.Payload()["total_steps"])
}

func TestBarcodeFrom(t *testing.T) {
	code, ok := BarcodeFrom(BaseEvent{Data: map[string]interface{}{"barcode": " 42 "}})
	assert.True(t, ok)
	assert.Equal(t, "42", code)

	_, ok = BarcodeFrom(BaseEvent{Data: map[string]interface{}{"barcode": 42}})
	assert.False(t, ok)

	_, ok = BarcodeFrom(BaseEvent{Data: map[string]interface{}{}})
	assert.False(t, ok)
}

func TestBarcodeScannedRoundTrip(t *testing.T) {
	evt := BarcodeScanned("0123456789012", time.Now())

	assert.Equal(t, SubjectBarcodeScanned, Subject(evt.EventType()))
	code, ok := BarcodeFrom(evt)
	assert.True(t, ok)
	assert.Equal(t, "0123456789012", code)
}

func TestEncodeDecode(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	body, err := Encode(ResolutionFailed("42", "no result found", at))
	assert.NoError(t, err)

	evt, err := Decode(Subject(TypeResolutionFailed), body, at)
	assert.NoError(t, err)
	assert.Equal(t, TypeResolutionFailed, evt.EventType())
	assert.Equal(t, "42", evt.Payload()["barcode"])
	assert.Equal(t, at, evt.Timestamp())

	_, err = Decode(SubjectBarcodeScanned, []byte("not json"), at)
	assert.Error(t, err)

	evt, err = Decode(SubjectBarcodeScanned, []byte("null"), at)
	assert.NoError(t, err)
	_, ok := BarcodeFrom(evt)
	assert.False(t, ok)
}
