package gate

import "strings"

// Permission is a capability string of the form "resource:action",
// e.g. "invoice:create". Either half may be the wildcard "*".
type Permission string

const (
	Wildcard = "*"
	// PermissionAll grants every capability.
	PermissionAll Permission = "*:*"
)

// NewPermission builds the capability for action on resource.
func NewPermission(resource string, action Action) Permission {
	return Permission(resource + ":" + string(action))
}

// Parse splits p into its resource and action halves. Malformed values
// yield two empty strings.
func (p Permission) Parse() (string, Action) {
	resource, action, ok := strings.Cut(string(p), ":")
	if !ok || resource == "" || action == "" {
		return "", ""
	}
	return resource, Action(action)
}

// Matches reports whether holding p grants the requested capability.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionAll || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, reqAct := requested.Parse()
	if res == "" || reqRes == "" {
		return false
	}
	resOK := res == Wildcard || res == reqRes
	actOK := string(act) == Wildcard || act == reqAct
	return resOK && actOK
}
