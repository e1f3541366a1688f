package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"finroots_crm_backend/internal/crm/domain"
	policiesservice "finroots_crm_backend/internal/policies/service"
)

// renewalWindowDays matches the policy pipeline's Pending window.
const renewalWindowDays = 30

// Collections is the store surface the renewal scan reads.
type Collections interface {
	ListMembers() []domain.Member
	ListTasks() []domain.Task
}

// AutoDescription is the deterministic description of a renewal follow-up.
// The scan uses it to detect follow-ups that already exist.
func AutoDescription(policyType string, daysLeft int) string {
	return fmt.Sprintf("Renewal follow-up: %s policy due in %d days", policyType, daysLeft)
}

func autoDescriptionPrefix(policyType string) string {
	return fmt.Sprintf("Renewal follow-up: %s policy", policyType)
}

// DuePayloads walks every member's visible policies and returns one payload
// per policy inside the renewal window that has no open Auto task yet.
// Members without an assigned advisor are skipped; there is nobody to give
// the follow-up to.
func DuePayloads(data Collections, now time.Time) []AutoCreatePayload {
	tasks := data.ListTasks()

	var payloads []AutoCreatePayload
	for _, m := range data.ListMembers() {
		advisorID, ok := m.FirstAdvisor()
		if !ok {
			continue
		}

		for _, p := range m.Policies {
			if !m.PolicyVisible(p) {
				continue
			}

			daysLeft := policiesservice.DaysLeft(p.RenewalDate, now)
			if daysLeft < 0 || daysLeft > renewalWindowDays {
				continue
			}
			if hasOpenAutoTask(tasks, m.ID, p.PolicyType) {
				continue
			}

			payloads = append(payloads, AutoCreatePayload{
				MemberID:   m.ID.String(),
				PolicyID:   p.ID.String(),
				AdvisorID:  advisorID.String(),
				PolicyType: p.PolicyType,
				DaysLeft:   daysLeft,
			})
		}
	}
	return payloads
}

func hasOpenAutoTask(tasks []domain.Task, memberID uuid.UUID, policyType string) bool {
	prefix := autoDescriptionPrefix(policyType)
	for _, t := range tasks {
		if t.Type != domain.TaskAuto || !t.IsOpen() {
			continue
		}
		if t.MemberID == nil || *t.MemberID != memberID {
			continue
		}
		if strings.HasPrefix(t.Description, prefix) {
			return true
		}
	}
	return false
}
