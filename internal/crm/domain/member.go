// Package domain holds the CRM entity types shared by every pipeline.
// Entities are plain values; all derivation logic lives in the pipeline
// services, which are pure functions over these collections.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// MemberTier is the customer tier.
type MemberTier string

const (
	TierSilver   MemberTier = "Silver"
	TierGold     MemberTier = "Gold"
	TierDiamond  MemberTier = "Diamond"
	TierPlatinum MemberTier = "Platinum"
)

// PolicyHolderType distinguishes individual policies from family policies,
// which are visible only through the family's SPOC member.
type PolicyHolderType string

const (
	HolderIndividual PolicyHolderType = "Individual"
	HolderFamily     PolicyHolderType = "Family"
)

// RenewalStatus classifies a policy by days left until renewal.
type RenewalStatus string

const (
	RenewalActive  RenewalStatus = "Active"
	RenewalPending RenewalStatus = "Pending"
	RenewalOverdue RenewalStatus = "Overdue"
)

// LeadSourceRef points a member at a node of the lead-source hierarchy.
type LeadSourceRef struct {
	SourceID *uuid.UUID `json:"sourceId" yaml:"sourceId"`
	Detail   string     `json:"detail" yaml:"detail"`
}

// Commission is the advisor commission attached to a policy.
type Commission struct {
	Amount float64 `json:"amount" yaml:"amount"`
	Status string  `json:"status" yaml:"status"`
}

// PaymentDetails records the last premium payment against a policy.
type PaymentDetails struct {
	TransactionID string    `json:"transactionId" yaml:"transactionId"`
	Amount        float64   `json:"amount" yaml:"amount"`
	Date          time.Time `json:"date" yaml:"date"`
	Status        string    `json:"status" yaml:"status"`
	StatusReason  string    `json:"statusReason" yaml:"statusReason"`
}

// Policy belongs to exactly one member.
type Policy struct {
	ID          uuid.UUID        `json:"id" yaml:"id"`
	PolicyType  string           `json:"policyType" yaml:"policyType"`
	Premium     float64          `json:"premium" yaml:"premium"`
	Coverage    float64          `json:"coverage" yaml:"coverage"`
	RenewalDate time.Time        `json:"renewalDate" yaml:"renewalDate"`
	HolderType  PolicyHolderType `json:"policyHolderType" yaml:"policyHolderType"`
	Commission  *Commission      `json:"commission,omitempty" yaml:"commission,omitempty"`
	Payment     *PaymentDetails  `json:"paymentDetails,omitempty" yaml:"paymentDetails,omitempty"`
}

// VoiceNote is a captured and summarized recording attached to a member or lead.
type VoiceNote struct {
	ID                uuid.UUID `json:"id" yaml:"id"`
	Summary           string    `json:"summary" yaml:"summary"`
	TranscriptSnippet string    `json:"transcriptSnippet" yaml:"transcriptSnippet"`
	RecordedAt        time.Time `json:"recordedAt" yaml:"recordedAt"`
	Tags              []string  `json:"tags" yaml:"tags"`
	Status            string    `json:"status" yaml:"status"`
	ActionItems       []string  `json:"actionItems" yaml:"actionItems"`
	AudioKey          string    `json:"audioKey,omitempty" yaml:"audioKey,omitempty"`
}

// Member is a customer record with embedded policies and voice notes.
type Member struct {
	ID         uuid.UUID     `json:"id" yaml:"id"`
	MemberCode string        `json:"memberId" yaml:"memberId"`
	Name       string        `json:"name" yaml:"name"`
	Mobile     string        `json:"mobile" yaml:"mobile"`
	DOB        *time.Time    `json:"dob,omitempty" yaml:"dob,omitempty"`
	Address    string        `json:"address" yaml:"address"`
	City       string        `json:"city" yaml:"city"`
	State      string        `json:"state" yaml:"state"`
	Tier       MemberTier    `json:"memberType" yaml:"memberType"`
	Active     bool          `json:"active" yaml:"active"`
	AssignedTo []uuid.UUID   `json:"assignedTo" yaml:"assignedTo"`
	CreatedBy  uuid.UUID     `json:"createdBy" yaml:"createdBy"`
	CreatedAt  time.Time     `json:"createdAt" yaml:"createdAt"`
	Lat        *float64      `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lng        *float64      `json:"lng,omitempty" yaml:"lng,omitempty"`
	Digipin    string        `json:"digipin,omitempty" yaml:"digipin,omitempty"`
	LeadSource LeadSourceRef `json:"leadSource" yaml:"leadSource"`
	Policies   []Policy      `json:"policies" yaml:"policies"`
	VoiceNotes []VoiceNote   `json:"voiceNotes" yaml:"voiceNotes"`
	IsSPOC     bool          `json:"isSPOC" yaml:"isSPOC"`
	SPOCID     *uuid.UUID    `json:"spocId,omitempty" yaml:"spocId,omitempty"`
}

// PolicyVisible reports whether the policy may appear in aggregates for this
// member. Family policies are visible only through the family's SPOC.
func (m Member) PolicyVisible(p Policy) bool {
	return p.HolderType != HolderFamily || m.IsSPOC
}

// InFamily reports whether the member participates in a family group, either
// as the SPOC or as a dependent linked to one.
func (m Member) InFamily() bool {
	return m.IsSPOC || m.SPOCID != nil
}

// AssignedToAdvisor reports whether the advisor appears in the assignment set.
func (m Member) AssignedToAdvisor(advisorID uuid.UUID) bool {
	for _, id := range m.AssignedTo {
		if id == advisorID {
			return true
		}
	}
	return false
}

// FirstAdvisor returns the first assigned advisor id, if any.
func (m Member) FirstAdvisor() (uuid.UUID, bool) {
	if len(m.AssignedTo) == 0 {
		return uuid.Nil, false
	}
	return m.AssignedTo[0], true
}
