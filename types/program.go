package types

// Program is a catalog entry describing a graduate program. The catalog
// is read-only for this API; rows are loaded by external tooling.
type Program struct {
	// ID is the unique identifier of the program.
	ID int `json:"id" db:"id"`

	// University is the name of the institution offering the program.
	University string `json:"university" db:"university"`

	// Name is the name of the program itself (e.g., "MS Computer Science").
	Name string `json:"name" db:"name"`

	// Location is the country or region of the institution.
	Location string `json:"location" db:"location"`

	// School is the faculty or school within the institution.
	School string `json:"school" db:"school"`

	// Degree is the awarded degree (e.g., "MSc", "MEng").
	Degree string `json:"degree" db:"degree"`

	// Duration is a human-readable program length (e.g., "1 year").
	Duration string `json:"duration" db:"duration"`

	// ApplicationDeadline is the catalog-advertised deadline, if known.
	ApplicationDeadline *Date `json:"application_deadline" db:"application_deadline"`

	// Tuition is a human-readable estimated cost.
	Tuition string `json:"tuition" db:"tuition"`

	// Description summarizes objectives and entry requirements.
	Description string `json:"description" db:"description"`
}
