package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lead is a prospect that has not yet become a member.
type Lead struct {
	ID                 uuid.UUID   `json:"id" yaml:"id"`
	Name               string      `json:"name" yaml:"name"`
	Mobile             string      `json:"mobile" yaml:"mobile"`
	Status             string      `json:"status" yaml:"status"`
	AssignedTo         uuid.UUID   `json:"assignedTo" yaml:"assignedTo"`
	PolicyInterestType string      `json:"policyInterestType" yaml:"policyInterestType"`
	VoiceNotes         []VoiceNote `json:"voiceNotes" yaml:"voiceNotes"`
	CreatedAt          time.Time   `json:"createdAt" yaml:"createdAt"`
}
