// Package poller runs the reconciliation tick: pull new bookmarks, settle
// the episode store against the TTS service's job list, submit the next
// batch of narrations. One tick runs at a time; the worker enforces that
// by processing poll tasks with concurrency 1.
package poller

import (
	"log"
	"net/url"
	"path/filepath"
	"time"

	"bookmark-podcaster/internal/config"
	"bookmark-podcaster/internal/db"
	"bookmark-podcaster/internal/extract"
	"bookmark-podcaster/internal/hoarder"
	"bookmark-podcaster/internal/models"
)

// EpisodeStore is the durable episode table. Implemented by *db.Store.
type EpisodeStore interface {
	KnownEpisodeIDs() (map[string]bool, error)
	InsertEpisodeIfAbsent(models.Episode) (bool, error)
	PendingNarration(limit int) ([]models.Episode, error)
	JobIDsInFlight() (map[string]bool, error)
	ClearOrphanedJobs(knownJobIDs map[string]bool) ([]db.ClearedJob, error)
	CompleteJob(jobID, filename string) error
	AssignJob(episodeID, jobID string) error
	LatestCreatedAt() (time.Time, error)
}

// BookmarkIterator yields bookmarks newest first until its bounds stop it.
type BookmarkIterator interface {
	Next() bool
	Bookmark() hoarder.Bookmark
	Err() error
}

// BookmarkSource streams bookmarks from the bookmarking service.
type BookmarkSource interface {
	Bookmarks(since time.Time, max int) BookmarkIterator
}

// TTSGateway is the narration service. Implemented by *tts.Client.
type TTSGateway interface {
	Submit(text string) (string, error)
	ListJobs() (completed, inProgress []string, err error)
	DownloadMP3(jobID string) (string, error)
	DeleteJob(jobID string) error
	CheckHealth() bool
}

// ArchiveResolver finds or requests archive snapshots for paywalled URLs.
type ArchiveResolver interface {
	LatestSnapshot(target string) (string, error)
	RequestSnapshot(target string) error
}

// ContentExtractor resolves speakable content for a bookmark.
type ContentExtractor interface {
	Extract(bookmark hoarder.Bookmark, fetchURL string) extract.Result
}

// Poller holds every collaborator the tick needs. All dependencies are
// injected so tests can substitute fakes.
type Poller struct {
	store          EpisodeStore
	source         BookmarkSource
	tts            TTSGateway
	archive        ArchiveResolver
	extractor      ContentExtractor
	cutoffDate     *time.Time
	pullMax        int
	batchSize      int
	archiveDomains map[string]bool
}

func New(store EpisodeStore, source BookmarkSource, gateway TTSGateway, resolver ArchiveResolver, extractor ContentExtractor, cfg *config.Config) *Poller {
	return &Poller{
		store:          store,
		source:         source,
		tts:            gateway,
		archive:        resolver,
		extractor:      extractor,
		cutoffDate:     cfg.CutoffDate,
		pullMax:        cfg.PullMax,
		batchSize:      cfg.TTSBatchSize,
		archiveDomains: cfg.ArchiveDomains,
	}
}

// hoarderSource adapts *hoarder.Client to the BookmarkSource interface.
type hoarderSource struct {
	client *hoarder.Client
}

func (s hoarderSource) Bookmarks(since time.Time, max int) BookmarkIterator {
	return s.client.Bookmarks(since, max)
}

func NewHoarderSource(client *hoarder.Client) BookmarkSource {
	return hoarderSource{client: client}
}

// Poll runs one reconciliation tick. Store failures abort the tick;
// failures of any single bookmark or job are logged and skipped.
func (p *Poller) Poll() error {
	cutoff, err := p.effectiveCutoff()
	if err != nil {
		return err
	}
	log.Printf("Polling bookmarks created after %s", cutoff.Format(time.RFC3339))

	if err := p.ingestNewEpisodes(cutoff); err != nil {
		return err
	}

	if !p.tts.CheckHealth() {
		log.Println("TTS service is not healthy, skipping TTS reconciliation")
		return nil
	}

	completed, inProgress, err := p.tts.ListJobs()
	if err != nil {
		log.Printf("Failed to list TTS jobs, deferring TTS reconciliation: %v", err)
		return nil
	}

	if err := p.processCompletedJobs(completed); err != nil {
		return err
	}

	cleared, err := p.store.ClearOrphanedJobs(toSet(inProgress))
	if err != nil {
		return err
	}
	for _, orphan := range cleared {
		log.Printf("Episode %s had job %s but the TTS service doesn't know about it", orphan.EpisodeID, orphan.JobID)
	}

	return p.submitPending()
}

// effectiveCutoff is the later of the configured cutoff date and the
// newest stored episode, so already-ingested history is never re-scanned.
func (p *Poller) effectiveCutoff() (time.Time, error) {
	latest, err := p.store.LatestCreatedAt()
	if err != nil {
		return time.Time{}, err
	}
	if p.cutoffDate != nil && p.cutoffDate.After(latest) {
		return *p.cutoffDate, nil
	}
	return latest, nil
}

func (p *Poller) ingestNewEpisodes(cutoff time.Time) error {
	known, err := p.store.KnownEpisodeIDs()
	if err != nil {
		return err
	}

	it := p.source.Bookmarks(cutoff, p.pullMax)
	for it.Next() {
		bookmark := it.Bookmark()
		content := bookmark.Content

		// Not crawled yet; the bookmark stays unknown and is retried
		// on the next poll.
		if content.CrawledAt == nil || content.URL == "" {
			continue
		}
		if known[bookmark.ID] {
			continue
		}

		fetchURL, ready := p.resolveFetchURL(content.URL)
		if !ready {
			continue
		}

		result := p.extractor.Extract(bookmark, fetchURL)
		if result.Text == "" {
			log.Printf("No text extracted for bookmark %s (%s), skipping", bookmark.ID, content.URL)
			continue
		}

		inserted, err := p.store.InsertEpisodeIfAbsent(models.Episode{
			ID:          bookmark.ID,
			Title:       result.Title,
			Description: result.Description,
			Text:        result.Text,
			Authors:     result.Authors,
			URL:         fetchURL,
			CreatedAt:   bookmark.CreatedAt.Time,
			CrawledAt:   content.CrawledAt.Time,
		})
		if err != nil {
			return err
		}
		if inserted {
			log.Printf("Added episode %s: %s", bookmark.ID, result.Title)
		}
	}
	if err := it.Err(); err != nil {
		// Source errors are transient; keep the tick going so TTS
		// reconciliation still happens.
		log.Printf("Bookmark listing failed mid-poll: %v", err)
	}
	return nil
}

// resolveFetchURL maps allowlisted domains to their latest archive
// snapshot. When no snapshot exists yet one is requested without waiting,
// and the bookmark is skipped until a later poll finds the snapshot.
func (p *Poller) resolveFetchURL(rawURL string) (fetchURL string, ready bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, true
	}
	if !p.archiveDomains[config.RemoveWWW(parsed.Hostname())] {
		return rawURL, true
	}

	snapshotURL, err := p.archive.LatestSnapshot(rawURL)
	if err != nil {
		log.Printf("Archive lookup failed for %s: %v", rawURL, err)
		return "", false
	}
	if snapshotURL == "" {
		log.Printf("No archive snapshot for %s yet, requesting one", rawURL)
		go func() {
			if err := p.archive.RequestSnapshot(rawURL); err != nil {
				log.Printf("Archive snapshot request failed for %s: %v", rawURL, err)
			}
		}()
		return "", false
	}
	return snapshotURL, true
}

func (p *Poller) processCompletedJobs(completed []string) error {
	inFlight, err := p.store.JobIDsInFlight()
	if err != nil {
		return err
	}

	for _, jobID := range completed {
		// A completed job no episode owns is left over from a deleted
		// row; clean it up on the service side.
		if !inFlight[jobID] {
			log.Printf("Removing unknown tts job %s", jobID)
			if err := p.tts.DeleteJob(jobID); err != nil {
				log.Printf("Failed to delete unknown tts job %s: %v", jobID, err)
			}
			continue
		}

		savedPath, err := p.tts.DownloadMP3(jobID)
		if err != nil {
			log.Printf("Failed to download mp3 for job %s: %v", jobID, err)
			continue
		}
		if err := p.tts.DeleteJob(jobID); err != nil {
			log.Printf("Failed to delete tts job %s after download: %v", jobID, err)
		}
		if err := p.store.CompleteJob(jobID, filepath.Base(savedPath)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Poller) submitPending() error {
	episodes, err := p.store.PendingNarration(p.batchSize)
	if err != nil {
		return err
	}

	for _, episode := range episodes {
		jobID, err := p.tts.Submit(NarrationText(episode))
		if err != nil {
			log.Printf("Failed to submit episode %s for narration: %v", episode.ID, err)
			continue
		}
		if err := p.store.AssignJob(episode.ID, jobID); err != nil {
			return err
		}
		log.Printf("Submitted episode %s for narration as job %s", episode.ID, jobID)
	}
	return nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
