package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskRenewalScan = "policies.renewal_scan"

const TaskAutoCreate = "tasks.auto_create"

// AutoCreatePayload describes one renewal follow-up to materialize as an
// Auto task.
type AutoCreatePayload struct {
	MemberID   string `json:"memberId"`
	PolicyID   string `json:"policyId"`
	AdvisorID  string `json:"advisorId"`
	PolicyType string `json:"policyType"`
	DaysLeft   int    `json:"daysLeft"`
}

func NewRenewalScanTask() *asynq.Task {
	return asynq.NewTask(TaskRenewalScan, nil)
}

func NewAutoCreateTask(payload AutoCreatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAutoCreate, data), nil
}

func ParseAutoCreatePayload(task *asynq.Task) (AutoCreatePayload, error) {
	var payload AutoCreatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AutoCreatePayload{}, err
	}
	return payload, nil
}
