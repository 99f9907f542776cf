package handlers

import (
	"bytes"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"bookmark-podcaster/internal/test"
	"bookmark-podcaster/pkg/tasks"
)

func newTestHandlers(t *testing.T) (*Handlers, sqlmock.Sqlmock, *test.MockTaskEnqueuer) {
	store, mock := test.NewMockStore(t)
	enqueuer := &test.MockTaskEnqueuer{}
	return New(store, enqueuer, t.TempDir(), 50), mock, enqueuer
}

func episodeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "description", "text", "authors", "url", "created_at", "crawled_at", "tts_job_id", "mp3"})
}

func TestDeleteEpisodeNotFound(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	mock.ExpectExec(`DELETE FROM episodes WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	req := mux.SetURLVars(httptest.NewRequest(http.MethodDelete, "/episodes/missing", nil), map[string]string{"id": "missing"})
	rec := httptest.NewRecorder()
	h.DeleteEpisode(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEpisode(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	mock.ExpectExec(`DELETE FROM episodes WHERE id = \$1`).
		WithArgs("b1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := mux.SetURLVars(httptest.NewRequest(http.MethodDelete, "/episodes/b1", nil), map[string]string{"id": "b1"})
	rec := httptest.NewRecorder()
	h.DeleteEpisode(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetEpisodeTTSNotFound(t *testing.T) {
	h, mock, enqueuer := newTestHandlers(t)

	mock.ExpectQuery(`SELECT \* FROM episodes WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	req := mux.SetURLVars(httptest.NewRequest(http.MethodDelete, "/episodes/tts/missing", nil), map[string]string{"id": "missing"})
	rec := httptest.NewRecorder()
	h.ResetEpisodeTTS(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, enqueuer.EnqueuedTasks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetEpisodeTTSEnqueuesAPoll(t *testing.T) {
	h, mock, enqueuer := newTestHandlers(t)

	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := episodeRows().
		AddRow("b1", "Title", "", "text", []byte("{}"), "u1", created, created.Add(time.Minute), "job-1", "job-1.mp3")
	mock.ExpectQuery(`SELECT \* FROM episodes WHERE id = \$1`).
		WithArgs("b1").
		WillReturnRows(rows)
	mock.ExpectExec(`UPDATE episodes SET tts_job_id = NULL, mp3 = NULL WHERE id = \$1`).
		WithArgs("b1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := mux.SetURLVars(httptest.NewRequest(http.MethodDelete, "/episodes/tts/b1", nil), map[string]string{"id": "b1"})
	rec := httptest.NewRecorder()
	h.ResetEpisodeTTS(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	if assert.Len(t, enqueuer.EnqueuedTasks, 1) {
		assert.Equal(t, tasks.TypePollBookmarks, enqueuer.EnqueuedTasks[0].Type())
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForcePoll(t *testing.T) {
	h, _, enqueuer := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.ForcePoll(rec, httptest.NewRequest(http.MethodGet, "/episodes/force_update", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	if assert.Len(t, enqueuer.EnqueuedTasks, 1) {
		assert.Equal(t, tasks.TypePollBookmarks, enqueuer.EnqueuedTasks[0].Type())
	}
}

func TestGetRSSFeed(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := episodeRows().
		AddRow("b1", "Published", "desc", "text", []byte("{}"), "https://example.org/b1", created, created.Add(time.Minute), "job-1", "job-1.mp3")
	mock.ExpectQuery(`WHERE mp3 IS NOT NULL ORDER BY created_at ASC`).
		WillReturnRows(rows)

	rec := httptest.NewRecorder()
	h.GetRSSFeed(rec, httptest.NewRequest(http.MethodGet, "https://pod.example.com/feed", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/rss+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Published")
	assert.Contains(t, rec.Body.String(), "/audio/job-1.mp3")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServeCoverArt(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.ServeCoverArt(rec, httptest.NewRequest(http.MethodGet, "/cover.png", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG\r\n\x1a\n")))
}

func TestListEpisodes(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := episodeRows().
		AddRow("b1", "Title", "", "text", []byte("{}"), "u1", created, created.Add(time.Minute), nil, nil)
	mock.ExpectQuery(`SELECT \* FROM episodes ORDER BY created_at DESC`).
		WillReturnRows(rows)

	rec := httptest.NewRecorder()
	h.ListEpisodes(rec, httptest.NewRequest(http.MethodGet, "/episodes", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"id":"b1"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
