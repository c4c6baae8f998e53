package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"
)

const pgUniqueViolation = "23505"

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) GetByCacheKey(ctx context.Context, cacheKey string) (Analysis, error) {
	const query = `
SELECT id, cache_key, resume_text, job_description_text, missing_skills, learning_steps,
       interview_questions, roadmap_markdown, access_count, last_accessed_at, created_at
FROM analyses
WHERE cache_key = $1
LIMIT 1`
	var a Analysis
	var missingSkills, learningSteps, interviewQuestions []byte
	var lastAccessedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, cacheKey).Scan(
		&a.ID,
		&a.CacheKey,
		&a.ResumeText,
		&a.JobDescriptionText,
		&missingSkills,
		&learningSteps,
		&interviewQuestions,
		&a.RoadmapMarkdown,
		&a.AccessCount,
		&lastAccessedAt,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, err
	}
	if err := unmarshalJSONB(missingSkills, &a.MissingSkills); err != nil {
		return Analysis{}, err
	}
	if err := unmarshalJSONB(learningSteps, &a.LearningSteps); err != nil {
		return Analysis{}, err
	}
	if err := unmarshalJSONB(interviewQuestions, &a.InterviewQuestions); err != nil {
		return Analysis{}, err
	}
	if lastAccessedAt.Valid {
		a.LastAccessedAt = lastAccessedAt.Time
	}
	return a, nil
}

func (r *PGRepo) Create(ctx context.Context, analysis Analysis) error {
	const query = `
INSERT INTO analyses (
	id, cache_key, resume_text, job_description_text, missing_skills, learning_steps,
	interview_questions, roadmap_markdown, access_count, last_accessed_at, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	missingSkills, err := json.Marshal(analysis.MissingSkills)
	if err != nil {
		return err
	}
	learningSteps, err := json.Marshal(analysis.LearningSteps)
	if err != nil {
		return err
	}
	interviewQuestions, err := json.Marshal(analysis.InterviewQuestions)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		analysis.ID,
		analysis.CacheKey,
		analysis.ResumeText,
		analysis.JobDescriptionText,
		missingSkills,
		learningSteps,
		interviewQuestions,
		analysis.RoadmapMarkdown,
		analysis.AccessCount,
		analysis.LastAccessedAt,
		analysis.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateKey
	}
	return err
}

func (r *PGRepo) Touch(ctx context.Context, cacheKey string, at time.Time) error {
	const query = `
UPDATE analyses
SET access_count = access_count + 1, last_accessed_at = $2
WHERE cache_key = $1`
	res, err := r.DB.ExecContext(ctx, query, cacheKey, at)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats runs the count and the average as independent queries.
func (r *PGRepo) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.DB.QueryRowContext(gctx, `SELECT COUNT(*) FROM analyses`).Scan(&stats.TotalAnalyses)
	})
	g.Go(func() error {
		return r.DB.QueryRowContext(gctx, `SELECT COALESCE(AVG(access_count), 0)::float8 FROM analyses`).Scan(&stats.AverageAccessCount)
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (r *PGRepo) DeleteUnusedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	const query = `
DELETE FROM analyses
WHERE created_at < $1 AND access_count = 1
RETURNING cache_key`
	rows, err := r.DB.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deleted []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		deleted = append(deleted, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return deleted, nil
}

func unmarshalJSONB(data []byte, target *[]string) error {
	if len(data) == 0 {
		*target = nil
		return nil
	}
	return json.Unmarshal(data, target)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
