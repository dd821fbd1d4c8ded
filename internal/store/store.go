package store

// Store is the document-store surface the service needs: simple find, insert
// and update-by-filter operations over three collections. Not-found lookups
// return (nil, nil). Implemented by SQLiteStore and MemStore; the driver is
// selected by configuration.
type Store interface {
	FindStudentsByClassroom(classroom string, activeOnly bool) ([]StudentRecord, error)
	FindStudentByID(id string) (*StudentRecord, error)
	UpsertStudent(rec StudentRecord) error

	// UpsertMessage replaces the live message for (studentID, classroom), or
	// inserts one if none exists. Returns the stored record and whether a new
	// row was created.
	UpsertMessage(studentID, classroom, text, sender string) (*MessageRecord, bool, error)
	FindMessage(studentID, classroom string) (*MessageRecord, error)

	UpsertAssignment(classroom, description string) (*AssignmentRecord, bool, error)
	FindAssignment(classroom string) (*AssignmentRecord, error)

	Close() error
}
