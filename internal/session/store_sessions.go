package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ytframes/internal/services"
)

// ErrInvalidTransition is returned when a status change is not an edge of the
// session lifecycle or the stored status moved underneath the caller.
var ErrInvalidTransition = errors.New("invalid session transition")

// ErrNotFound is returned when no session has the requested id.
var ErrNotFound = fmt.Errorf("%w: session", services.ErrNotFound)

// Create inserts s as a new idle session, assigning its id and timestamps.
func (s *Store) Create(ctx context.Context, sess *Session) error {
	if sess == nil {
		return errors.New("session is nil")
	}
	if strings.TrimSpace(sess.URL) == "" {
		return services.Wrap(services.ErrValidation, "session", "create", "url is required", nil)
	}
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sess.Status = StatusIdle
	sess.CreatedAt = now
	sess.UpdatedAt = now
	stamp := now.Format(time.RFC3339Nano)

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO sessions (
            id, url, title, video_path, work_dir, status, trigger_word, dataset_name,
            interval_seconds, frame_step, min_brightness, max_brightness,
            sampled_count, rejected_count, warning, error_message, archive_path, archive_url,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID,
		sess.URL,
		nullableString(sess.Title),
		nullableString(sess.VideoPath),
		nullableString(sess.WorkDir),
		sess.Status,
		nullableString(sess.TriggerWord),
		nullableString(sess.DatasetName),
		sess.IntervalSeconds,
		sess.FrameStep,
		sess.MinBrightness,
		sess.MaxBrightness,
		sess.SampledCount,
		sess.RejectedCount,
		nullableString(sess.Warning),
		nullableString(sess.ErrorMessage),
		nullableString(sess.ArchivePath),
		nullableString(sess.ArchiveURL),
		stamp,
		stamp,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Get fetches a session by id. It returns ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// Resolve finds a session by full id or by a unique id prefix of at least
// four characters, as printed by the CLI.
func (s *Store) Resolve(ctx context.Context, idOrPrefix string) (*Session, error) {
	idOrPrefix = strings.ToLower(strings.TrimSpace(idOrPrefix))
	if sess, err := s.Get(ctx, idOrPrefix); err == nil || !errors.Is(err, ErrNotFound) {
		return sess, err
	}
	if len(idOrPrefix) < 4 {
		return nil, fmt.Errorf("%w %s", ErrNotFound, idOrPrefix)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id LIKE ? ORDER BY created_at LIMIT 2`, idOrPrefix+"%")
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	matches, err := collectSessions(rows)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w %s", ErrNotFound, idOrPrefix)
	case 1:
		return matches[0], nil
	default:
		return nil, services.Wrap(services.ErrValidation, "session", "resolve", fmt.Sprintf("prefix %q matches more than one session", idOrPrefix), nil)
	}
}

// List returns sessions filtered by status set (or all sessions when no
// status is provided), oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Session, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + sessionColumns + ` FROM sessions`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return collectSessions(rows)
}

// Update persists every mutable field of sess except its status.
func (s *Store) Update(ctx context.Context, sess *Session) error {
	if sess == nil {
		return errors.New("session is nil")
	}
	sess.UpdatedAt = time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE sessions
         SET title = ?, video_path = ?, work_dir = ?, trigger_word = ?, dataset_name = ?,
             interval_seconds = ?, frame_step = ?, min_brightness = ?, max_brightness = ?,
             sampled_count = ?, rejected_count = ?, warning = ?, error_message = ?,
             archive_path = ?, archive_url = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(sess.Title),
		nullableString(sess.VideoPath),
		nullableString(sess.WorkDir),
		nullableString(sess.TriggerWord),
		nullableString(sess.DatasetName),
		sess.IntervalSeconds,
		sess.FrameStep,
		sess.MinBrightness,
		sess.MaxBrightness,
		sess.SampledCount,
		sess.RejectedCount,
		nullableString(sess.Warning),
		nullableString(sess.ErrorMessage),
		nullableString(sess.ArchivePath),
		nullableString(sess.ArchiveURL),
		sess.UpdatedAt.Format(time.RFC3339Nano),
		sess.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w %s", ErrNotFound, sess.ID)
	}
	return nil
}

// Transition moves sess to the next status and persists its other fields in
// the same statement. The update only applies while the stored status still
// equals sess.Status.
func (s *Store) Transition(ctx context.Context, sess *Session, to Status) error {
	if sess == nil {
		return errors.New("session is nil")
	}
	from := sess.Status
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	now := time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE sessions
         SET status = ?, title = ?, video_path = ?, work_dir = ?,
             sampled_count = ?, rejected_count = ?, warning = ?, error_message = ?,
             archive_path = ?, archive_url = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		to,
		nullableString(sess.Title),
		nullableString(sess.VideoPath),
		nullableString(sess.WorkDir),
		sess.SampledCount,
		sess.RejectedCount,
		nullableString(sess.Warning),
		nullableString(sess.ErrorMessage),
		nullableString(sess.ArchivePath),
		nullableString(sess.ArchiveURL),
		now.Format(time.RFC3339Nano),
		sess.ID,
		from,
	)
	if err != nil {
		return fmt.Errorf("transition session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		if _, getErr := s.Get(ctx, sess.ID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: %s -> %s (stored status changed)", ErrInvalidTransition, from, to)
	}
	sess.Status = to
	sess.UpdatedAt = now
	return nil
}

// FailWorking moves sessions left in a working status (for example by a
// crash) to failed with reason. It returns the number of sessions changed.
func (s *Store) FailWorking(ctx context.Context, reason string) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE sessions SET status = ?, error_message = ?, updated_at = ?
         WHERE status IN (?, ?, ?)`,
		StatusFailed,
		reason,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusDownloading,
		StatusSampling,
		StatusBuilding,
	)
	if err != nil {
		return 0, fmt.Errorf("fail working sessions: %w", err)
	}
	return res.RowsAffected()
}

// Delete removes a session and its candidate rows.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns a count of sessions grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM sessions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates session counts for status output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(pingCtx); err != nil {
		return HealthSummary{}, fmt.Errorf("ping session database: %w", err)
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch {
		case status == StatusAwaitingSelection:
			health.AwaitingSelection += count
		case status == StatusDone:
			health.Done += count
		case status == StatusFailed:
			health.Failed += count
		case status.Working():
			health.Working += count
		}
	}
	return health, nil
}

const sessionColumns = "id, url, title, video_path, work_dir, status, trigger_word, dataset_name, interval_seconds, frame_step, min_brightness, max_brightness, sampled_count, rejected_count, warning, error_message, archive_path, archive_url, created_at, updated_at"

func collectSessions(rows *sql.Rows) ([]*Session, error) {
	defer rows.Close()
	var out []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		sess        Session
		status      string
		title       sql.NullString
		videoPath   sql.NullString
		workDir     sql.NullString
		triggerWord sql.NullString
		datasetName sql.NullString
		warning     sql.NullString
		errorMsg    sql.NullString
		archivePath sql.NullString
		archiveURL  sql.NullString
		createdRaw  string
		updatedRaw  string
	)
	if err := scanner.Scan(
		&sess.ID,
		&sess.URL,
		&title,
		&videoPath,
		&workDir,
		&status,
		&triggerWord,
		&datasetName,
		&sess.IntervalSeconds,
		&sess.FrameStep,
		&sess.MinBrightness,
		&sess.MaxBrightness,
		&sess.SampledCount,
		&sess.RejectedCount,
		&warning,
		&errorMsg,
		&archivePath,
		&archiveURL,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	sess.Status = Status(status)
	sess.Title = title.String
	sess.VideoPath = videoPath.String
	sess.WorkDir = workDir.String
	sess.TriggerWord = triggerWord.String
	sess.DatasetName = datasetName.String
	sess.Warning = warning.String
	sess.ErrorMessage = errorMsg.String
	sess.ArchivePath = archivePath.String
	sess.ArchiveURL = archiveURL.String
	if created, err := parseTimeString(createdRaw); err == nil {
		sess.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		sess.UpdatedAt = updated
	}
	return &sess, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}
