package api

import "time"

// Profile is the server-owned participant record. The server normalizes
// fields on update, so responses always replace local state wholesale.
type Profile struct {
	ID                string `json:"id"`
	ParticipantName   string `json:"participant_name"`
	Email             string `json:"email"`
	PhoneNumber       string `json:"phone_number"`
	RecoveryNotes     string `json:"recovery_notes"`
	PreferredCallTime string `json:"preferred_call_time"`
}

// ProfileUpdate is the editable subset of Profile. Phone numbers are
// managed out of band and cannot be changed here.
type ProfileUpdate struct {
	ParticipantName   string `json:"participant_name"`
	Email             string `json:"email"`
	RecoveryNotes     string `json:"recovery_notes"`
	PreferredCallTime string `json:"preferred_call_time"`
}

// CallRecord is a single entry in the call history, immutable from the
// client's perspective. DurationSeconds is nil for calls that never
// connected.
type CallRecord struct {
	ID              string    `json:"id"`
	StartedAt       time.Time `json:"started_at"`
	Status          string    `json:"status"`
	DurationSeconds *int      `json:"duration_seconds"`
}

// Transcript is one utterance of a recorded call.
type Transcript struct {
	ID        string    `json:"id"`
	CallID    string    `json:"call_id"`
	Speaker   string    `json:"speaker"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// InitiationResult is the server's acknowledgement of a call request. The
// server assigns the call id; the client never invents history entries.
type InitiationResult struct {
	CallID string `json:"call_id"`
	Status string `json:"status"`
}
