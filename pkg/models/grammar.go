package models

// PossessiveForm is one cell of the possessive pronoun paradigm
type PossessiveForm struct {
	Pronoun string `json:"pronoun" db:"pronoun"`
	Case    string `json:"case" db:"case_name"`
	Gender  string `json:"gender" db:"gender"`
	Number  string `json:"number" db:"number"`
	Form    string `json:"form" db:"form"`
}
