package models

// ShareGrant is a single entry on a node's share list: a principal (user or
// group, never both) and the set of actions granted to it.
type ShareGrant struct {
	UserID  *int64   `json:"user_id,omitempty"`
	GroupID *string  `json:"group_id,omitempty"`
	Actions []string `json:"actions"`
}

func (g ShareGrant) SamePrincipal(other ShareGrant) bool {
	if g.UserID != nil && other.UserID != nil {
		return *g.UserID == *other.UserID
	}
	if g.GroupID != nil && other.GroupID != nil {
		return *g.GroupID == *other.GroupID
	}
	return false
}

func (g ShareGrant) HasAction(action string) bool {
	for _, a := range g.Actions {
		if a == action {
			return true
		}
	}
	return false
}

type ShareGrants []ShareGrant

// Covers reports whether the grant list contains any entry for the given
// user or one of their groups.
func (gs ShareGrants) Covers(userID int64, groupIDs []string) bool {
	for _, g := range gs {
		if g.UserID != nil && *g.UserID == userID {
			return true
		}
		if g.GroupID != nil {
			for _, gid := range groupIDs {
				if *g.GroupID == gid {
					return true
				}
			}
		}
	}
	return false
}
