// Package transport defines the wire types of the voice-note endpoints.
package transport

import (
	"strings"
	"time"

	"finroots_crm_backend/internal/crm/paging"
	"finroots_crm_backend/platform/apperr"

	"github.com/google/uuid"
)

// OwnerType distinguishes the two note-bearing client kinds in URLs.
type OwnerType string

const (
	OwnerMember OwnerType = "member"
	OwnerLead   OwnerType = "lead"
)

// ParseOwnerType maps the URL scope segment.
func ParseOwnerType(value string) (OwnerType, error) {
	switch OwnerType(value) {
	case OwnerMember, OwnerLead:
		return OwnerType(value), nil
	default:
		return "", apperr.Validation("owner scope must be member or lead")
	}
}

// Filters holds the advanced-mode note filters. They apply only when
// Advanced is set.
type Filters struct {
	Advanced  bool
	Keyword   string
	DateStart *time.Time
	DateEnd   *time.Time
	// AdvisorID narrows to notes of clients assigned to one advisor.
	// Admin only; ignored for advisor scopes.
	AdvisorID *uuid.UUID
}

// Row is one voice note as rendered in the listing.
type Row struct {
	NoteID            uuid.UUID `json:"noteId"`
	OwnerType         OwnerType `json:"ownerType"`
	OwnerID           uuid.UUID `json:"ownerId"`
	ClientName        string    `json:"clientName"`
	Summary           string    `json:"summary"`
	TranscriptSnippet string    `json:"transcriptSnippet"`
	RecordedAt        time.Time `json:"recordedAt"`
	Tags              []string  `json:"tags"`
	Status            string    `json:"status"`
	ActionItems       []string  `json:"actionItems"`
	HasAudio          bool      `json:"hasAudio"`
	AudioKey          string    `json:"audioKey,omitempty"`
	MatchedSnippets   []string  `json:"matchedSnippets,omitempty"`
}

// ListResponse is the flat, recent-first note listing.
type ListResponse struct {
	paging.Page[Row]
}

// Group bundles one client's notes in grouped mode.
type Group struct {
	OwnerType  OwnerType `json:"ownerType"`
	OwnerID    uuid.UUID `json:"ownerId"`
	ClientName string    `json:"clientName"`
	Notes      []Row     `json:"notes"`
}

// GroupedResponse paginates over client groups, not individual notes.
type GroupedResponse struct {
	paging.Page[Group]
}

// ListNotesRequest carries the note listing query parameters.
type ListNotesRequest struct {
	Advanced   bool   `form:"advanced"`
	Keyword    string `form:"keyword"`
	DateStart  string `form:"dateStart"`
	DateEnd    string `form:"dateEnd"`
	Advisor    string `form:"advisor"`
	Grouped    bool   `form:"grouped"`
	MatchedIDs string `form:"matchedIds"`
	Page       int    `form:"page"`
	PageSize   int    `form:"pageSize"`
}

// ParseDate decodes an optional YYYY-MM-DD query value.
func ParseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, apperr.Validation("invalid date filter")
	}
	return &t, nil
}

// ParseMatchedIDs decodes the optional AI match set; nil means no search was
// performed, an empty slice means the search found nothing.
func ParseMatchedIDs(value string, present bool) (*[]uuid.UUID, error) {
	if !present {
		return nil, nil
	}
	ids := []uuid.UUID{}
	for _, p := range strings.Split(value, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := uuid.Parse(p)
		if err != nil {
			return nil, apperr.Validation("invalid matchedIds filter")
		}
		ids = append(ids, id)
	}
	return &ids, nil
}

// AISearchRequest is the body of the semantic note search endpoint.
type AISearchRequest struct {
	Query string `json:"query" binding:"required"`
}

// AISearchResponse maps matched note ids to the snippets the model quoted.
type AISearchResponse struct {
	Matches  map[uuid.UUID][]string `json:"matches"`
	Fallback bool                   `json:"fallback"`
}

// SummarizeRequest carries the raw transcript to condense.
type SummarizeRequest struct {
	Transcript string `json:"transcript" binding:"required"`
}

// Summary is the structured output of transcript summarization.
type Summary struct {
	Summary     string   `json:"summary"`
	Tags        []string `json:"tags"`
	ActionItems []string `json:"actionItems"`
}

// SummarizeResponse returns the generated summary. A degraded result is
// returned to the caller but never written to the note.
type SummarizeResponse struct {
	Result   Summary `json:"result"`
	Fallback bool    `json:"fallback"`
}

// ActionItemRequest names the action item being converted or dismissed.
type ActionItemRequest struct {
	Item string `json:"item" binding:"required"`
}

// ConvertResponse returns the task created from an action item.
type ConvertResponse struct {
	TaskID uuid.UUID `json:"taskId"`
}

// UploadURLRequest asks for a presigned audio upload slot for a note.
type UploadURLRequest struct {
	OwnerType OwnerType `json:"ownerType" binding:"required"`
	OwnerID   uuid.UUID `json:"ownerId" binding:"required"`
	NoteID    uuid.UUID `json:"noteId" binding:"required"`
}

// UploadURLResponse carries the presigned PUT URL and the object key the
// note will reference.
type UploadURLResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// DownloadURLResponse carries a presigned GET URL.
type DownloadURLResponse struct {
	URL string `json:"url"`
}
