package tts

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create tts client: %v", err)
	}
	return client
}

func TestSubmit(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tts/synthesize", r.URL.Path)

		var payload map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "read me", payload["text"])

		json.NewEncoder(w).Encode(map[string]string{"job_id": "test-job-123"})
	}))

	jobID, err := client.Submit("read me")
	assert.NoError(t, err)
	assert.Equal(t, "test-job-123", jobID)
}

func TestSubmitError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.Submit("read me")
	assert.Error(t, err)
}

func TestListJobsSplitsByStatus(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tts/jobs", r.URL.Path)
		fmt.Fprint(w, `{"jobs": [
			{"job_id": "job1", "status": "completed"},
			{"job_id": "job2", "status": "processing"},
			{"job_id": "job3", "status": "COMPLETED"},
			{"job_id": "job4", "status": "queued"}
		]}`)
	}))

	completed, inProgress, err := client.ListJobs()
	assert.NoError(t, err)
	assert.Equal(t, []string{"job1", "job3"}, completed)
	assert.Equal(t, []string{"job2", "job4"}, inProgress)
}

func TestDownloadMP3(t *testing.T) {
	content := []byte("fake mp3 content")
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tts/jobs/test-job-123/download", r.URL.Path)
		w.Write(content)
	}))

	savedPath, err := client.DownloadMP3("test-job-123")
	assert.NoError(t, err)
	assert.Equal(t, "test-job-123.mp3", filepath.Base(savedPath))

	written, err := os.ReadFile(savedPath)
	assert.NoError(t, err)
	assert.Equal(t, content, written)
}

func TestDeleteJob(t *testing.T) {
	var gotMethod, gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
	}))

	assert.NoError(t, client.DeleteJob("test-job-123"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/tts/jobs/test-job-123", gotPath)
}

func TestCheckHealth(t *testing.T) {
	healthy := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health/check", r.URL.Path)
	}))
	assert.True(t, healthy.CheckHealth())

	unhealthy := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	assert.False(t, unhealthy.CheckHealth())

	unreachable, err := NewClient("http://127.0.0.1:1", t.TempDir())
	assert.NoError(t, err)
	assert.False(t, unreachable.CheckHealth())
}
