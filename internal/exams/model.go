package exams

import "time"

type ExamType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Row is an exam joined across the catalog, the denormalized shape the
// listing and detail pages render.
type Row struct {
	ID           int64     `json:"id"`
	Faculty      string    `json:"faculty"`
	Department   string    `json:"department"`
	Subject      string    `json:"subject"`
	SubjectID    int64     `json:"subject_id"`
	ExamType     string    `json:"exam_type"`
	Year         int       `json:"year"`
	Instructions string    `json:"instructions"`
	Professors   string    `json:"professors"`
	CreatedAt    time.Time `json:"created_at"`
}

// Filter narrows the exam listing. Text fields match as substrings; Year
// matches exactly when non-zero. Every value is bound as a parameter.
type Filter struct {
	Faculty    string
	Department string
	Subject    string
	Year       int
}

// NewExam is the admin exam-creation input.
type NewExam struct {
	SubjectID    int64
	ExamTypeID   int64
	Year         int
	Instructions string
	ProfessorIDs []int64
	CreatedBy    int64
}

type Question struct {
	ID       int64     `json:"id"`
	ExamID   int64     `json:"exam_id"`
	FileName string    `json:"file_name"`
	Uploaded time.Time `json:"uploaded_at"`
}
