package catalog

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrSubjectNotFound   = errors.New("subject not found")
	ErrProfessorNotFound = errors.New("professor not found")
)

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) *Store {
	return &Store{db: database}
}

func (s *Store) ListSubjects(ctx context.Context) ([]SubjectRow, error) {
	const q = `
		SELECT s.id, f.name, d.name, s.name, s.subject_type, s.semester, s.grade_level,
		       s.created_at, s.updated_at
		FROM subjects s
		JOIN departments d ON s.department_id = d.id
		JOIN faculties f ON d.faculty_id = f.id
		ORDER BY f.name, d.name, s.grade_level, s.name
	`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubjects(rows)
}

func (s *Store) GetSubject(ctx context.Context, id int64) (*SubjectRow, error) {
	const q = `
		SELECT s.id, f.name, d.name, s.name, s.subject_type, s.semester, s.grade_level,
		       s.created_at, s.updated_at
		FROM subjects s
		JOIN departments d ON s.department_id = d.id
		JOIN faculties f ON d.faculty_id = f.id
		WHERE s.id = ?
	`
	row := s.db.QueryRowContext(ctx, q, id)
	var sub SubjectRow
	err := row.Scan(&sub.ID, &sub.Faculty, &sub.Department, &sub.Name,
		&sub.Type, &sub.Semester, &sub.GradeLevel, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// SubjectProfessors lists the professors assigned to a subject, newest
// assignment first.
func (s *Store) SubjectProfessors(ctx context.Context, subjectID int64) ([]Assignment, error) {
	const q = `
		SELECT p.id, p.name, s.id, s.name, f.name, d.name, sp.assignment_year, sp.assignment_semester
		FROM subject_professors sp
		JOIN professors p ON sp.professor_id = p.id
		JOIN subjects s ON sp.subject_id = s.id
		JOIN departments d ON s.department_id = d.id
		JOIN faculties f ON d.faculty_id = f.id
		WHERE sp.subject_id = ?
		ORDER BY sp.assignment_year DESC, sp.assignment_semester
	`
	return s.queryAssignments(ctx, q, subjectID)
}

// ProfessorSubjects lists the subjects a professor is assigned to.
func (s *Store) ProfessorSubjects(ctx context.Context, professorID int64) ([]Assignment, error) {
	const q = `
		SELECT p.id, p.name, s.id, s.name, f.name, d.name, sp.assignment_year, sp.assignment_semester
		FROM subject_professors sp
		JOIN professors p ON sp.professor_id = p.id
		JOIN subjects s ON sp.subject_id = s.id
		JOIN departments d ON s.department_id = d.id
		JOIN faculties f ON d.faculty_id = f.id
		WHERE sp.professor_id = ?
		ORDER BY sp.assignment_year DESC, f.name, d.name, s.name
	`
	return s.queryAssignments(ctx, q, professorID)
}

func (s *Store) ListProfessors(ctx context.Context) ([]ProfessorRow, error) {
	const q = `
		SELECT p.id, p.name,
		       COUNT(DISTINCT sp.subject_id),
		       COUNT(DISTINCT ep.exam_id)
		FROM professors p
		LEFT JOIN subject_professors sp ON p.id = sp.professor_id
		LEFT JOIN exam_professors ep ON p.id = ep.professor_id
		GROUP BY p.id, p.name
		ORDER BY p.name
	`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ProfessorRow
	for rows.Next() {
		var p ProfessorRow
		if err := rows.Scan(&p.ID, &p.Name, &p.SubjectCount, &p.ExamCount); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) GetProfessor(ctx context.Context, id int64) (*Professor, error) {
	const q = `SELECT id, name, user_id FROM professors WHERE id = ?`
	var p Professor
	var userID sql.NullInt64
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Name, &userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfessorNotFound
		}
		return nil, err
	}
	if userID.Valid {
		uid := userID.Int64
		p.UserID = &uid
	}
	return &p, nil
}

// CreateProfessorForUser adds a roster entry for a self-registered faculty
// account.
func (s *Store) CreateProfessorForUser(ctx context.Context, name string, userID int64) error {
	const q = `INSERT INTO professors (name, user_id) VALUES (?, ?)`
	_, err := s.db.ExecContext(ctx, q, name, userID)
	return err
}

// Counts returns the table sizes shown on the home page.
func (s *Store) Counts(ctx context.Context) (subjects, professors, faculties int, err error) {
	const q = `
		SELECT (SELECT COUNT(*) FROM subjects),
		       (SELECT COUNT(*) FROM professors),
		       (SELECT COUNT(*) FROM faculties)
	`
	err = s.db.QueryRowContext(ctx, q).Scan(&subjects, &professors, &faculties)
	return subjects, professors, faculties, err
}

func (s *Store) queryAssignments(ctx context.Context, q string, arg interface{}) ([]Assignment, error) {
	rows, err := s.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ProfessorID, &a.ProfessorName, &a.SubjectID, &a.Subject,
			&a.Faculty, &a.Department, &a.Year, &a.Semester); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func scanSubjects(rows *sql.Rows) ([]SubjectRow, error) {
	var result []SubjectRow
	for rows.Next() {
		var sub SubjectRow
		if err := rows.Scan(&sub.ID, &sub.Faculty, &sub.Department, &sub.Name,
			&sub.Type, &sub.Semester, &sub.GradeLevel, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}
