package events

import "time"

const ContractTerminatedTopic = "hr.contract.lifecycle.v1"

type ContractTerminatedEvent struct {
	EventType  string    `json:"event_type"`
	ContractID string    `json:"contract_id"`
	EmployeeID string    `json:"employee_id"`
	CompanyID  string    `json:"company_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
