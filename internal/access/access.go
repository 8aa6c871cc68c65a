// Package access decides who may read, write and list which dictionary.
package access

import "github.com/example/derbot/pkg/models"

// Capability is a set of permitted actions on a dictionary.
type Capability uint8

const (
	Read Capability = 1 << iota
	Write
	List
)

// None grants nothing.
const None Capability = 0

// Has reports whether every capability in want is present.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

// Membership is the principal's standing in a shared dictionary. It is nil
// when the principal is not a member.
type Membership struct {
	IsAdmin bool
}

// Policy holds the process-wide administrator principal.
type Policy struct {
	AdminID int64
}

// IsAdmin reports whether userID is the administrator principal.
func (p Policy) IsAdmin(userID int64) bool {
	return p.AdminID != 0 && userID == p.AdminID
}

// Capabilities returns what userID may do with the dictionary named by
// scope. member is only consulted for shared dictionaries.
func (p Policy) Capabilities(userID int64, scope models.Scope, member *Membership) Capability {
	switch scope.Flavour {
	case models.FlavourPersonal:
		if scope.UserID == userID {
			return Read | Write | List
		}
		return None
	case models.FlavourGlobal:
		if p.IsAdmin(userID) {
			return Read | Write | List
		}
		return Read | List
	case models.FlavourShared:
		switch {
		case member == nil:
			return None
		case member.IsAdmin:
			return Read | Write | List
		default:
			return Read | List
		}
	}
	return None
}

// CanRead reports whether userID may drill the dictionary.
func (p Policy) CanRead(userID int64, scope models.Scope, member *Membership) bool {
	return p.Capabilities(userID, scope, member).Has(Read)
}

// CanWrite reports whether userID may add, remove or edit words.
func (p Policy) CanWrite(userID int64, scope models.Scope, member *Membership) bool {
	return p.Capabilities(userID, scope, member).Has(Write)
}
