package policy

// Rule is one row of the authorization table.
type Rule struct {
	Name        string `json:"name"`
	Effect      Effect `json:"effect"`
	Description string `json:"description"`
	match       func(s *Subject, a Action, r Resource) bool
}

// rules is the authoritative table, evaluated top to bottom.
var rules = []Rule{
	{
		Name:        "admin",
		Effect:      Allow,
		Description: "admins may perform every action",
		match: func(s *Subject, _ Action, _ Resource) bool {
			return IsAdmin(s)
		},
	},
	{
		Name:        "self",
		Effect:      Allow,
		Description: "users may read, update and delete their own record and create and read their own orders",
		match: func(s *Subject, a Action, r Resource) bool {
			if s == nil || r.OwnerID == 0 || r.OwnerID != s.UserID {
				return false
			}
			switch r.Kind {
			case ResourceUser:
				return a == ActionRead || a == ActionUpdate || a == ActionDelete
			case ResourceOrder:
				return a == ActionCreate || a == ActionRead || a == ActionList
			}
			return false
		},
	},
	{
		Name:        "franchise-admin",
		Effect:      Allow,
		Description: "franchise admins may manage stores of their franchise and read its orders",
		match: func(s *Subject, a Action, r Resource) bool {
			if s == nil || !holds(s, isFranchiseeOf(r.FranchiseID)) {
				return false
			}
			switch r.Kind {
			case ResourceStore:
				return a == ActionCreate || a == ActionUpdate || a == ActionDelete
			case ResourceOrder:
				return a == ActionRead || a == ActionList
			}
			return false
		},
	},
	{
		Name:        "franchise-scope",
		Effect:      Deny,
		Description: "franchise admins may not touch stores or franchises they do not administer",
		match: func(s *Subject, a Action, r Resource) bool {
			if s == nil || !holds(s, isFranchisee) {
				return false
			}
			switch r.Kind {
			case ResourceStore:
				return true
			case ResourceFranchise:
				return !catalogRead(a, r)
			}
			return false
		},
	},
	{
		Name:        "diner-catalog",
		Effect:      Allow,
		Description: "signed-in users may read the menu and the franchise list",
		match: func(s *Subject, a Action, r Resource) bool {
			return s != nil && catalogRead(a, r)
		},
	},
	{
		Name:        "public-catalog",
		Effect:      Allow,
		Description: "anonymous callers may read the menu and the franchise list",
		match: func(s *Subject, a Action, r Resource) bool {
			return s == nil && catalogRead(a, r)
		},
	},
}

func catalogRead(a Action, r Resource) bool {
	if a != ActionRead && a != ActionList {
		return false
	}
	return r.Kind == ResourceMenu || r.Kind == ResourceFranchise
}

// Rules returns a copy of the table for documentation.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}
