package db

import (
	"fmt"
	"time"

	"bookmark-podcaster/internal/models"
)

// ClearedJob records an orphaned job id that was removed from an episode
// because the TTS service no longer knows about it.
type ClearedJob struct {
	EpisodeID string
	JobID     string
}

// InsertEpisodeIfAbsent persists a new episode. Inserting an id that
// already exists is a no-op; the return value reports whether a row was
// actually written.
func (s *Store) InsertEpisodeIfAbsent(episode models.Episode) (bool, error) {
	res, err := s.db.Exec(`
		INSERT INTO episodes (id, title, description, text, authors, url, created_at, crawled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		episode.ID, episode.Title, episode.Description, episode.Text,
		episode.Authors, episode.URL, episode.CreatedAt, episode.CrawledAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert episode %s: %w", episode.ID, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return inserted > 0, nil
}

// KnownEpisodeIDs returns the ids of every stored episode. Computed once
// per poll so ingestion can dedup before running extraction.
func (s *Store) KnownEpisodeIDs() (map[string]bool, error) {
	var ids []string
	if err := s.db.Select(&ids, "SELECT id FROM episodes"); err != nil {
		return nil, fmt.Errorf("failed to list episode ids: %w", err)
	}
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	return known, nil
}

// PendingNarration returns episodes that have neither a job id nor an mp3,
// oldest first, capped at limit.
func (s *Store) PendingNarration(limit int) ([]models.Episode, error) {
	var episodes []models.Episode
	err := s.db.Select(&episodes, `
		SELECT * FROM episodes
		WHERE tts_job_id IS NULL AND mp3 IS NULL
		ORDER BY created_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending episodes: %w", err)
	}
	return episodes, nil
}

// JobIDsInFlight returns every job id currently recorded on an episode.
func (s *Store) JobIDsInFlight() (map[string]bool, error) {
	var ids []string
	err := s.db.Select(&ids, "SELECT tts_job_id FROM episodes WHERE tts_job_id IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("failed to list job ids: %w", err)
	}
	inFlight := make(map[string]bool, len(ids))
	for _, id := range ids {
		inFlight[id] = true
	}
	return inFlight, nil
}

// ClearOrphanedJobs nulls the job id of every episode still waiting on a
// job the TTS service no longer tracks, making those episodes eligible for
// resubmission. Returns the cleared pairs for logging.
func (s *Store) ClearOrphanedJobs(knownJobIDs map[string]bool) ([]ClearedJob, error) {
	var waiting []struct {
		ID       string `db:"id"`
		TTSJobID string `db:"tts_job_id"`
	}
	err := s.db.Select(&waiting, `
		SELECT id, tts_job_id FROM episodes
		WHERE tts_job_id IS NOT NULL AND mp3 IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting episodes: %w", err)
	}

	var cleared []ClearedJob
	for _, row := range waiting {
		if knownJobIDs[row.TTSJobID] {
			continue
		}
		if _, err := s.db.Exec("UPDATE episodes SET tts_job_id = NULL WHERE id = $1", row.ID); err != nil {
			return cleared, fmt.Errorf("failed to clear job for episode %s: %w", row.ID, err)
		}
		cleared = append(cleared, ClearedJob{EpisodeID: row.ID, JobID: row.TTSJobID})
	}
	return cleared, nil
}

// CompleteJob records the downloaded mp3 on the episode that owns jobID.
// A job id no episode owns is a no-op; the store may have purged the row
// after the job was submitted.
func (s *Store) CompleteJob(jobID, filename string) error {
	_, err := s.db.Exec("UPDATE episodes SET mp3 = $1 WHERE tts_job_id = $2", filename, jobID)
	if err != nil {
		return fmt.Errorf("failed to complete job %s: %w", jobID, err)
	}
	return nil
}

// AssignJob records a freshly submitted job id on an episode.
func (s *Store) AssignJob(episodeID, jobID string) error {
	_, err := s.db.Exec("UPDATE episodes SET tts_job_id = $1 WHERE id = $2", jobID, episodeID)
	if err != nil {
		return fmt.Errorf("failed to assign job to episode %s: %w", episodeID, err)
	}
	return nil
}

// LatestCreatedAt returns the newest created_at across all episodes, or
// the Unix epoch when the table is empty.
func (s *Store) LatestCreatedAt() (time.Time, error) {
	var latest time.Time
	err := s.db.Get(&latest, "SELECT COALESCE(MAX(created_at), to_timestamp(0)) FROM episodes")
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest episode date: %w", err)
	}
	return latest.UTC(), nil
}

// EpisodesWithAudio returns feed-eligible episodes, oldest first.
func (s *Store) EpisodesWithAudio() ([]models.Episode, error) {
	var episodes []models.Episode
	err := s.db.Select(&episodes, "SELECT * FROM episodes WHERE mp3 IS NOT NULL ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes with audio: %w", err)
	}
	return episodes, nil
}

// AllEpisodes returns every episode, newest first when newestFirst is set.
func (s *Store) AllEpisodes(newestFirst bool) ([]models.Episode, error) {
	query := "SELECT * FROM episodes"
	if newestFirst {
		query += " ORDER BY created_at DESC"
	}
	var episodes []models.Episode
	if err := s.db.Select(&episodes, query); err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	return episodes, nil
}

// GetEpisode returns one episode by id. sql.ErrNoRows when unknown.
func (s *Store) GetEpisode(id string) (models.Episode, error) {
	var episode models.Episode
	err := s.db.Get(&episode, "SELECT * FROM episodes WHERE id = $1", id)
	return episode, err
}

// DeleteEpisode removes a row and reports how many rows were deleted.
func (s *Store) DeleteEpisode(id string) (int64, error) {
	res, err := s.db.Exec("DELETE FROM episodes WHERE id = $1", id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete episode %s: %w", id, err)
	}
	return res.RowsAffected()
}

// ResetTTS clears both the job id and the mp3 so the episode is picked up
// again on the next poll.
func (s *Store) ResetTTS(id string) error {
	_, err := s.db.Exec("UPDATE episodes SET tts_job_id = NULL, mp3 = NULL WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to reset tts state for episode %s: %w", id, err)
	}
	return nil
}
