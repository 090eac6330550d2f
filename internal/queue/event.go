// Package queue defines the audit payloads exchanged over the message broker
// and the background consumer that drains them.
package queue

// Audit action tags.
const (
	ActionRegister   = "REGISTER"
	ActionLogin      = "LOGIN"
	ActionRefresh    = "REFRESH"
	ActionLogout     = "LOGOUT"
	ActionApprove    = "APPROVE"
	ActionReject     = "REJECT"
	ActionDeactivate = "DEACTIVATE"
)

// AuditEvent records one auth-relevant action. Events are published
// fire-and-forget: a broker outage must never fail the operation being
// audited, so publishers log and drop on error.
type AuditEvent struct {
	ID         string `json:"id"`
	Action     string `json:"action"`
	ActorID    string `json:"actor_id"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	ClientIP   string `json:"client_ip,omitempty"`
	OccurredAt string `json:"occurred_at"`
}
