package service

// StaticPrivilegeChecker grants admin rights to a fixed set of user IDs,
// typically loaded from configuration at startup.
type StaticPrivilegeChecker struct {
	admins map[string]struct{}
}

// NewStaticPrivilegeChecker builds a checker from a list of admin IDs.
func NewStaticPrivilegeChecker(adminIDs []string) *StaticPrivilegeChecker {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		if id != "" {
			admins[id] = struct{}{}
		}
	}
	return &StaticPrivilegeChecker{admins: admins}
}

// IsPrivileged implements PrivilegeChecker.
func (c *StaticPrivilegeChecker) IsPrivileged(userID string) bool {
	_, ok := c.admins[userID]
	return ok
}
