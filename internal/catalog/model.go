package catalog

import "time"

type Faculty struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Department struct {
	ID        int64  `json:"id"`
	FacultyID int64  `json:"faculty_id"`
	Name      string `json:"name"`
}

// SubjectRow is a subject joined with its department and faculty, the shape
// every listing page works with.
type SubjectRow struct {
	ID         int64     `json:"id"`
	Faculty    string    `json:"faculty"`
	Department string    `json:"department"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Semester   string    `json:"semester"`
	GradeLevel int       `json:"grade_level"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Professor struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	UserID *int64 `json:"user_id,omitempty"`
}

// ProfessorRow carries roster counts for the professors listing.
type ProfessorRow struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SubjectCount int    `json:"subject_count"`
	ExamCount    int    `json:"exam_count"`
}

// Assignment ties a professor to a subject for a given term.
type Assignment struct {
	ProfessorID   int64  `json:"professor_id"`
	ProfessorName string `json:"professor_name"`
	SubjectID     int64  `json:"subject_id"`
	Subject       string `json:"subject"`
	Faculty       string `json:"faculty"`
	Department    string `json:"department"`
	Year          int    `json:"year"`
	Semester      string `json:"semester"`
}
