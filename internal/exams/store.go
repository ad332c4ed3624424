package exams

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

var (
	ErrExamNotFound = errors.New("exam not found")
	ErrExamExists   = errors.New("exam already exists for this subject, type and year")
)

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) *Store {
	return &Store{db: database}
}

const rowSelect = `
	SELECT e.id, f.name, d.name, s.name, s.id, t.name, e.exam_year, e.instructions,
	       COALESCE(GROUP_CONCAT(p.name, ', '), ''), e.created_at
	FROM exams e
	JOIN subjects s ON e.subject_id = s.id
	JOIN departments d ON s.department_id = d.id
	JOIN faculties f ON d.faculty_id = f.id
	JOIN exam_types t ON e.exam_type_id = t.id
	LEFT JOIN exam_professors ep ON ep.exam_id = e.id
	LEFT JOIN professors p ON p.id = ep.professor_id
`

const rowGroupOrder = `
	GROUP BY e.id
	ORDER BY e.exam_year DESC, f.name, d.name, s.name
`

func (s *Store) List(ctx context.Context, f Filter) ([]Row, error) {
	clauses := []string{"1=1"}
	args := []interface{}{}

	if f.Faculty != "" {
		clauses = append(clauses, "f.name LIKE ?")
		args = append(args, "%"+f.Faculty+"%")
	}
	if f.Department != "" {
		clauses = append(clauses, "d.name LIKE ?")
		args = append(args, "%"+f.Department+"%")
	}
	if f.Subject != "" {
		clauses = append(clauses, "s.name LIKE ?")
		args = append(args, "%"+f.Subject+"%")
	}
	if f.Year != 0 {
		clauses = append(clauses, "e.exam_year = ?")
		args = append(args, f.Year)
	}

	query := rowSelect + " WHERE " + strings.Join(clauses, " AND ") + rowGroupOrder
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func (s *Store) Get(ctx context.Context, id int64) (*Row, error) {
	query := rowSelect + " WHERE e.id = ? GROUP BY e.id"
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, ErrExamNotFound
	}
	return &result[0], nil
}

func (s *Store) ListBySubject(ctx context.Context, subjectID int64) ([]Row, error) {
	query := rowSelect + " WHERE s.id = ?" + rowGroupOrder
	rows, err := s.db.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func (s *Store) ListByProfessor(ctx context.Context, professorID int64) ([]Row, error) {
	query := rowSelect + `
		WHERE e.id IN (SELECT exam_id FROM exam_professors WHERE professor_id = ?)
	` + rowGroupOrder
	rows, err := s.db.QueryContext(ctx, query, professorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// Recent returns the newest exams for the home page.
func (s *Store) Recent(ctx context.Context, limit int) ([]Row, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}
	query := rowSelect + " GROUP BY e.id ORDER BY e.created_at DESC LIMIT ?"
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// Count returns the number of archived exams.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exams`).Scan(&n)
	return n, err
}

func (s *Store) ExamTypes(ctx context.Context) ([]ExamType, error) {
	const q = `SELECT id, name FROM exam_types ORDER BY name`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ExamType
	for rows.Next() {
		var t ExamType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// Create inserts an exam and its professor links in one transaction. A
// duplicate (subject, type, year) combination yields ErrExamExists.
func (s *Store) Create(ctx context.Context, e NewExam) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM exams WHERE subject_id = ? AND exam_type_id = ? AND exam_year = ?`,
		e.SubjectID, e.ExamTypeID, e.Year).Scan(&existing)
	if err == nil {
		return 0, ErrExamExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	var examID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO exams (subject_id, exam_type_id, exam_year, instructions, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`, e.SubjectID, e.ExamTypeID, e.Year, e.Instructions, nullableID(e.CreatedBy), time.Now().UTC()).Scan(&examID)
	if err != nil {
		return 0, err
	}
	for _, pid := range e.ProfessorIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO exam_professors (exam_id, professor_id) VALUES (?, ?)`, examID, pid); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return examID, nil
}

func (s *Store) Questions(ctx context.Context, examID int64) ([]Question, error) {
	const q = `
		SELECT id, exam_id, file_name, created_at
		FROM exam_questions
		WHERE exam_id = ?
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, q, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Question
	for rows.Next() {
		var question Question
		if err := rows.Scan(&question.ID, &question.ExamID, &question.FileName, &question.Uploaded); err != nil {
			return nil, err
		}
		result = append(result, question)
	}
	return result, rows.Err()
}

func (s *Store) AddQuestion(ctx context.Context, examID int64, fileName string, uploadedBy int64) error {
	const q = `
		INSERT INTO exam_questions (exam_id, file_name, uploaded_by, created_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, q, examID, fileName, nullableID(uploadedBy), time.Now().UTC())
	return err
}

func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	var result []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.Faculty, &r.Department, &r.Subject, &r.SubjectID,
			&r.ExamType, &r.Year, &r.Instructions, &r.Professors, &r.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
