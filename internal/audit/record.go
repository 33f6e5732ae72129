package audit

import "time"

// Action enumerates audited security operations.
type Action string

const (
	ActionLogin          Action = "login"
	ActionRefresh        Action = "refresh"
	ActionLogout         Action = "logout"
	ActionRegister       Action = "register"
	ActionAuthenticate   Action = "authenticate"
	ActionAuthorize      Action = "authorize"
	ActionPasswordChange Action = "password_change"
	ActionRoleChange     Action = "role_change"
	ActionDeactivate     Action = "deactivate"
)

// Actions lists every Action, for subscribers that want all of them.
var Actions = []Action{
	ActionLogin,
	ActionRefresh,
	ActionLogout,
	ActionRegister,
	ActionAuthenticate,
	ActionAuthorize,
	ActionPasswordChange,
	ActionRoleChange,
	ActionDeactivate,
}

// Outcome is the result of an audited operation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Record is one audit log entry. Reason holds the fine-grained failure kind that is
// never shown to clients. Records never carry raw secrets or raw tokens.
type Record struct {
	ID        string         `json:"id"`
	Action    Action         `json:"action"`
	Outcome   Outcome        `json:"outcome"`
	Reason    string         `json:"reason,omitempty"`
	Subject   string         `json:"subject,omitempty"`
	SubjectID string         `json:"subject_id,omitempty"`
	TokenID   string         `json:"token_id,omitempty"`
	RemoteIP  string         `json:"remote_ip,omitempty"`
	Path      string         `json:"path,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}
