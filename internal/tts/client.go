// Package tts talks to the external text-to-speech service. TTS jobs are
// ephemeral: the service forgets them when it restarts, so callers treat
// its job list as the truth of the moment, not as history.
package tts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client submits narration jobs and manages their lifecycle.
type Client struct {
	rootURL        string
	mp3StoragePath string
	httpClient     *http.Client
}

func NewClient(rootURL, mp3StoragePath string) (*Client, error) {
	if err := os.MkdirAll(mp3StoragePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create mp3 storage path: %w", err)
	}
	return &Client{
		rootURL:        strings.TrimSuffix(rootURL, "/"),
		mp3StoragePath: mp3StoragePath,
		httpClient:     &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// MP3StoragePath is where downloaded audio lands; the HTTP server serves
// files from the same directory.
func (c *Client) MP3StoragePath() string {
	return c.mp3StoragePath
}

// Submit sends text for narration and returns the service's job id.
func (c *Client) Submit(text string) (string, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Post(c.rootURL+"/tts/synthesize", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to submit tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("tts submit returned status %d", resp.StatusCode)
	}

	var result struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode tts submit response: %w", err)
	}
	return result.JobID, nil
}

// ListJobs returns the completed and in-progress job ids the service
// currently knows about. Any status other than "completed" (case
// insensitive) counts as in progress.
func (c *Client) ListJobs() (completed, inProgress []string, err error) {
	resp, err := c.httpClient.Get(c.rootURL + "/tts/jobs")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list tts jobs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("tts job listing returned status %d", resp.StatusCode)
	}

	var result struct {
		Jobs []struct {
			JobID  string `json:"job_id"`
			Status string `json:"status"`
		} `json:"jobs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, nil, fmt.Errorf("failed to decode tts job listing: %w", err)
	}

	for _, job := range result.Jobs {
		if strings.EqualFold(job.Status, "completed") {
			completed = append(completed, job.JobID)
		} else {
			inProgress = append(inProgress, job.JobID)
		}
	}
	return completed, inProgress, nil
}

// DownloadMP3 fetches the finished audio for a job and writes it to the
// storage path as "<job id>.mp3". Returns the saved path.
func (c *Client) DownloadMP3(jobID string) (string, error) {
	resp, err := c.httpClient.Get(fmt.Sprintf("%s/tts/jobs/%s/download", c.rootURL, jobID))
	if err != nil {
		return "", fmt.Errorf("failed to download mp3 for job %s: %w", jobID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mp3 download for job %s returned status %d", jobID, resp.StatusCode)
	}

	savedPath := filepath.Join(c.mp3StoragePath, jobID+".mp3")
	out, err := os.Create(savedPath)
	if err != nil {
		return "", fmt.Errorf("failed to create mp3 file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("failed to write mp3 file: %w", err)
	}
	return savedPath, nil
}

// DeleteJob removes a job from the service. Done after download, and for
// jobs the store does not recognize.
func (c *Client) DeleteJob(jobID string) error {
	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/tts/jobs/%s", c.rootURL, jobID), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete tts job %s: %w", jobID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("tts job delete returned status %d", resp.StatusCode)
	}
	return nil
}

// CheckHealth reports whether the service answered its health endpoint
// with a 200. Network errors count as unhealthy rather than failing.
func (c *Client) CheckHealth() bool {
	resp, err := c.httpClient.Get(c.rootURL + "/health/check")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
