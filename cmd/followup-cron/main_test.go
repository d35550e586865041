package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu    sync.Mutex
	paths []string
}

func (f *fakeAPI) handler(secret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Authorization") != "Bearer "+secret {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		f.mu.Lock()
		f.paths = append(f.paths, r.URL.Path)
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"success":true}`))
	})
}

func TestTriggerPost(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler("s3cret"))
	defer srv.Close()

	body, err := newTrigger(srv.URL+"/", "s3cret", time.Second).post(context.Background(), syncPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true}`, string(body))
	assert.Equal(t, []string{syncPath}, api.paths)

	_, err = newTrigger(srv.URL, "wrong", time.Second).post(context.Background(), syncPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestOnceFiresBothJobs(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler("s3cret"))
	defer srv.Close()

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--api-url", srv.URL, "--secret", "s3cret", "--once"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, []string{syncPath, followUpsPath}, api.paths)
}

func TestOnceReportsFailures(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler("s3cret"))
	defer srv.Close()

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--api-url", srv.URL, "--secret", "nope", "--once"})
	assert.Error(t, cmd.Execute())
}

func TestSecretRequired(t *testing.T) {
	t.Setenv("CRON_SECRET", "")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--once"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret")
}

func TestInvalidSchedule(t *testing.T) {
	tr := newTrigger("http://localhost", "s", time.Second)
	_, err := newCron(context.Background(), tr, &options{syncSchedule: "every now and then", followUpSchedule: "0 * * * *"})
	assert.Error(t, err)

	c, err := newCron(context.Background(), tr, &options{syncSchedule: "*/30 * * * *", followUpSchedule: "0 * * * *"})
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 2)
}
