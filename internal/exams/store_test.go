package exams

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"examhub/internal/db"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(ctx, filepath.Join(t.TempDir(), "examhub_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.RunMigrations(ctx, conn, filepath.Join("..", "..", "sql")))
	return conn
}

type seeded struct {
	subjectID   int64
	professorID int64
	typeID      int64
}

func seedExamFixtures(t *testing.T, conn *sql.DB) seeded {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	exec := func(q string, args ...interface{}) int64 {
		res, err := conn.ExecContext(ctx, q, args...)
		require.NoError(t, err)
		id, err := res.LastInsertId()
		require.NoError(t, err)
		return id
	}

	facultyID := exec(`INSERT INTO faculties (name) VALUES (?)`, "Science and Technology")
	deptID := exec(`INSERT INTO departments (faculty_id, name) VALUES (?, ?)`, facultyID, "Computer Science")
	subjectID := exec(`
		INSERT INTO subjects (department_id, name, subject_type, semester, grade_level, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		deptID, "Databases", "required", "spring", 2, now, now)
	professorID := exec(`INSERT INTO professors (name) VALUES (?)`, "Prof Tanaka")

	var typeID int64
	require.NoError(t, conn.QueryRowContext(ctx,
		`SELECT id FROM exam_types WHERE name = ?`, "Final").Scan(&typeID))

	return seeded{subjectID: subjectID, professorID: professorID, typeID: typeID}
}

func TestCreateAndGet(t *testing.T) {
	conn := newTestDB(t)
	fix := seedExamFixtures(t, conn)
	store := NewStore(conn)
	ctx := context.Background()

	id, err := store.Create(ctx, NewExam{
		SubjectID:    fix.subjectID,
		ExamTypeID:   fix.typeID,
		Year:         2024,
		Instructions: "No calculators",
		ProfessorIDs: []int64{fix.professorID},
	})
	require.NoError(t, err)

	exam, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Databases", exam.Subject)
	assert.Equal(t, "Final", exam.ExamType)
	assert.Equal(t, 2024, exam.Year)
	assert.Equal(t, "Prof Tanaka", exam.Professors)
	assert.Equal(t, "No calculators", exam.Instructions)
}

func TestCreateDuplicate(t *testing.T) {
	conn := newTestDB(t)
	fix := seedExamFixtures(t, conn)
	store := NewStore(conn)
	ctx := context.Background()

	e := NewExam{SubjectID: fix.subjectID, ExamTypeID: fix.typeID, Year: 2024, ProfessorIDs: []int64{fix.professorID}}
	_, err := store.Create(ctx, e)
	require.NoError(t, err)

	_, err = store.Create(ctx, e)
	assert.ErrorIs(t, err, ErrExamExists)
}

func TestGetNotFound(t *testing.T) {
	conn := newTestDB(t)
	store := NewStore(conn)

	_, err := store.Get(context.Background(), 999)
	assert.ErrorIs(t, err, ErrExamNotFound)
}

func TestListFilter(t *testing.T) {
	conn := newTestDB(t)
	fix := seedExamFixtures(t, conn)
	store := NewStore(conn)
	ctx := context.Background()

	for _, year := range []int{2023, 2024} {
		_, err := store.Create(ctx, NewExam{
			SubjectID:    fix.subjectID,
			ExamTypeID:   fix.typeID,
			Year:         year,
			ProfessorIDs: []int64{fix.professorID},
		})
		require.NoError(t, err)
	}

	all, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2024, all[0].Year, "listing is newest year first")

	byYear, err := store.List(ctx, Filter{Year: 2023})
	require.NoError(t, err)
	require.Len(t, byYear, 1)
	assert.Equal(t, 2023, byYear[0].Year)

	byFaculty, err := store.List(ctx, Filter{Faculty: "Science"})
	require.NoError(t, err)
	assert.Len(t, byFaculty, 2)

	noMatch, err := store.List(ctx, Filter{Subject: "Astrology"})
	require.NoError(t, err)
	assert.Empty(t, noMatch)
}

func TestQuestions(t *testing.T) {
	conn := newTestDB(t)
	fix := seedExamFixtures(t, conn)
	store := NewStore(conn)
	ctx := context.Background()

	id, err := store.Create(ctx, NewExam{
		SubjectID:    fix.subjectID,
		ExamTypeID:   fix.typeID,
		Year:         2024,
		ProfessorIDs: []int64{fix.professorID},
	})
	require.NoError(t, err)

	require.NoError(t, store.AddQuestion(ctx, id, "a1b2.png", 0))
	require.NoError(t, store.AddQuestion(ctx, id, "c3d4.pdf", 0))

	questions, err := store.Questions(ctx, id)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "a1b2.png", questions[0].FileName)
	assert.Equal(t, "c3d4.pdf", questions[1].FileName)
}

func TestExamTypesSeeded(t *testing.T) {
	conn := newTestDB(t)
	store := NewStore(conn)

	types, err := store.ExamTypes(context.Background())
	require.NoError(t, err)
	names := make([]string, 0, len(types))
	for _, ty := range types {
		names = append(names, ty.Name)
	}
	assert.ElementsMatch(t, []string{"Midterm", "Final", "Quiz", "Makeup"}, names)
}
