package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAnswer(t *testing.T) {
	m := NewMetrics()

	m.ObserveAnswer("question", nil, 200*time.Millisecond)
	m.ObserveAnswer("question", errors.New("boom"), time.Second)
	m.ObserveAnswer("remember", nil, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnswersTotal.WithLabelValues("question", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnswersTotal.WithLabelValues("question", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnswersTotal.WithLabelValues("remember", "ok")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.AnswerDuration))
}

func TestObserveIndex(t *testing.T) {
	m := NewMetrics()

	m.ObserveIndex(true, 12)
	m.ObserveIndex(false, 12)
	m.ObserveIndex(false, 13)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexBuildsTotal.WithLabelValues("rebuilt")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.IndexBuildsTotal.WithLabelValues("loaded")))
	assert.Equal(t, 13.0, testutil.ToFloat64(m.IndexChunks))
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.ObserveAnswer("question", nil, time.Second)
	m.SetSessions(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ragchat_answers_total")
	assert.Contains(t, string(body), "ragchat_answer_duration_seconds")
	assert.Contains(t, string(body), "ragchat_sessions_active 3")
}
