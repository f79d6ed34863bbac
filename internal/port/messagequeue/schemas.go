package messagequeue

// CaseCreatedPayload is the schema for cases.created messages.
type CaseCreatedPayload struct {
	CaseID        string `json:"case_id"`
	CallRef       string `json:"call_ref"`
	PriorityScore int    `json:"priority_score"`
	PriorityLevel string `json:"priority_level"`
	AssignedTeam  string `json:"assigned_team"`
	Escalation    bool   `json:"escalation"`
}

// CaseResolvedPayload is the schema for cases.approved and cases.rejected messages.
type CaseResolvedPayload struct {
	CaseID  string `json:"case_id"`
	CallRef string `json:"call_ref"`
	Status  string `json:"status"`
	Actor   string `json:"actor"`
	Notes   string `json:"notes,omitempty"`
}

// CaseRemindedPayload is the schema for cases.reminded messages.
type CaseRemindedPayload struct {
	CaseID    string `json:"case_id"`
	Kind      string `json:"kind"`
	Recipient string `json:"recipient"`
}
