package events

import "time"

const EmployeeCreatedTopic = "hr.employee.lifecycle.v1"

// EmployeeCreatedEvent is the outbox payload for a new employee record.
// DepartmentID is empty when the employee starts unassigned.
type EmployeeCreatedEvent struct {
	EventType      string    `json:"event_type"`
	EmployeeID     string    `json:"employee_id"`
	CompanyID      string    `json:"company_id"`
	DepartmentID   string    `json:"department_id,omitempty"`
	EmployeeNumber string    `json:"employee_number"`
	OccurredAt     time.Time `json:"occurred_at"`
}
