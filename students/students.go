package students

import "time"

// Student is an enrolled student record served by the resource API
type Student struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId,omitempty"` // Login account, if the student has one
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	Program    string    `json:"program,omitempty"`
	Year       int       `json:"year,omitempty"`
	EnrolledAt time.Time `json:"enrolledAt,omitempty"`
}

type Repo interface {
	Upsert(student *Student) error
	Get(id string) (*Student, error)
	List(offset, limit int) ([]*Student, error)
}
