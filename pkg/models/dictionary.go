package models

import (
	"fmt"
	"time"
)

// Flavour distinguishes the three kinds of dictionaries.
type Flavour int

const (
	FlavourPersonal Flavour = iota
	FlavourGlobal
	FlavourShared
)

func (f Flavour) String() string {
	switch f {
	case FlavourPersonal:
		return "personal"
	case FlavourGlobal:
		return "global"
	case FlavourShared:
		return "shared"
	}
	return fmt.Sprintf("flavour(%d)", int(f))
}

// Scope names the dictionary an operation works on together with the user
// acting on it.
type Scope struct {
	Flavour  Flavour
	UserID   int64
	SharedID int64
}

// PersonalScope is the user's own dictionary.
func PersonalScope(userID int64) Scope {
	return Scope{Flavour: FlavourPersonal, UserID: userID}
}

// GlobalScope is the whole catalogue as seen by userID.
func GlobalScope(userID int64) Scope {
	return Scope{Flavour: FlavourGlobal, UserID: userID}
}

// SharedScope is the shared dictionary dictID as seen by userID.
func SharedScope(userID, dictID int64) Scope {
	return Scope{Flavour: FlavourShared, UserID: userID, SharedID: dictID}
}

func (s Scope) String() string {
	if s.Flavour == FlavourShared {
		return fmt.Sprintf("shared:%d", s.SharedID)
	}
	return s.Flavour.String()
}

// SharedDictionary is a named word set joinable by a six character code
type SharedDictionary struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Code      string    `json:"code" db:"code"`
	CreatorID int64     `json:"creator_id" db:"creator_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SharedMembership links a user to a shared dictionary
type SharedMembership struct {
	UserID  int64 `json:"user_id" db:"user_id"`
	DictID  int64 `json:"dict_id" db:"dict_id"`
	IsAdmin bool  `json:"is_admin" db:"is_admin"`
}

// DictionaryStats summarises the ratings of one dictionary
type DictionaryStats struct {
	Total         int     `json:"total" db:"total"`
	Mastered      int     `json:"mastered" db:"mastered"`
	AverageRating float64 `json:"average_rating" db:"average_rating"`
}
