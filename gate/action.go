package gate

// Action is the verb half of a capability.
type Action string

const (
	ActionList   Action = "list"
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	// ActionSend covers outbound document sharing (e.g. invoice deep links).
	ActionSend Action = "send"
)
