package analyses

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func sampleAnalysis() Analysis {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return Analysis{
		ID:                 "0b6f7a55-1111-4c1e-8d3e-2f2b9f0c1a00",
		CacheKey:           "abc123",
		ResumeText:         "resume",
		JobDescriptionText: "job",
		MissingSkills:      []string{"SQL", "Kafka"},
		LearningSteps:      []string{"one", "two", "three"},
		InterviewQuestions: []string{"q1", "q2", "q3"},
		RoadmapMarkdown:    "# Roadmap",
		AccessCount:        1,
		LastAccessedAt:     now,
		CreatedAt:          now,
	}
}

func TestPGRepoCreateEncodesArraysAsJSON(t *testing.T) {
	repo, mock := newMockRepo(t)
	a := sampleAnalysis()

	mock.ExpectExec("INSERT INTO analyses").
		WithArgs(
			a.ID,
			a.CacheKey,
			a.ResumeText,
			a.JobDescriptionText,
			[]byte(`["SQL","Kafka"]`),
			[]byte(`["one","two","three"]`),
			[]byte(`["q1","q2","q3"]`),
			a.RoadmapMarkdown,
			1,
			a.LastAccessedAt,
			a.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateMapsUniqueViolation(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO analyses").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "analyses_cache_key_key"})

	err := repo.Create(context.Background(), sampleAnalysis())
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestPGRepoGetByCacheKey(t *testing.T) {
	repo, mock := newMockRepo(t)
	a := sampleAnalysis()

	rows := sqlmock.NewRows([]string{
		"id", "cache_key", "resume_text", "job_description_text", "missing_skills", "learning_steps",
		"interview_questions", "roadmap_markdown", "access_count", "last_accessed_at", "created_at",
	}).AddRow(
		a.ID, a.CacheKey, a.ResumeText, a.JobDescriptionText,
		[]byte(`["SQL","Kafka"]`), []byte(`["one","two","three"]`), []byte(`["q1","q2","q3"]`),
		a.RoadmapMarkdown, 3, a.LastAccessedAt, a.CreatedAt,
	)
	mock.ExpectQuery("SELECT (.+) FROM analyses").WithArgs(a.CacheKey).WillReturnRows(rows)

	got, err := repo.GetByCacheKey(context.Background(), a.CacheKey)
	if err != nil {
		t.Fatalf("GetByCacheKey: %v", err)
	}
	if got.AccessCount != 3 || len(got.MissingSkills) != 2 || got.InterviewQuestions[2] != "q3" {
		t.Fatalf("unexpected analysis %+v", got)
	}
}

func TestPGRepoGetByCacheKeyNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM analyses").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := repo.GetByCacheKey(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoTouch(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Now().UTC()

	mock.ExpectExec("UPDATE analyses").WithArgs("abc123", at).WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.Touch(context.Background(), "abc123", at); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	mock.ExpectExec("UPDATE analyses").WithArgs("gone", at).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.Touch(context.Background(), "gone", at); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoStats(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery("SELECT COALESCE").WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(2.5))

	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalAnalyses != 4 || stats.AverageAccessCount != 2.5 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteUnusedBefore(t *testing.T) {
	repo, mock := newMockRepo(t)
	cutoff := time.Now().UTC().AddDate(0, 0, -90)

	mock.ExpectQuery("DELETE FROM analyses").WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"cache_key"}).AddRow("k1").AddRow("k2"))

	deleted, err := repo.DeleteUnusedBefore(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("DeleteUnusedBefore: %v", err)
	}
	if len(deleted) != 2 || deleted[0] != "k1" {
		t.Fatalf("unexpected deleted keys %v", deleted)
	}
}
