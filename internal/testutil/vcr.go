// Package testutil holds shared test helpers.
package testutil

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/dnaeon/go-vcr.v2/cassette"
	"gopkg.in/dnaeon/go-vcr.v2/recorder"
)

// NewRecorder opens the named cassette under testdata/fixtures in replay
// mode. Set VCR_MODE=record against a live backend to re-record it.
func NewRecorder(t *testing.T, cassetteName string) *recorder.Recorder {
	t.Helper()

	mode := recorder.ModeReplaying
	if os.Getenv("VCR_MODE") == "record" {
		mode = recorder.ModeRecording
	}

	r, err := recorder.NewAsMode(filepath.Join("testdata", "fixtures", cassetteName), mode, nil)
	if err != nil {
		t.Fatalf("failed to open cassette %s: %v", cassetteName, err)
	}

	// GraphQL sends every operation to the same URL, so interactions are
	// matched in recorded order rather than by request body.
	r.SetMatcher(func(req *http.Request, i cassette.Request) bool {
		return req.Method == i.Method && req.URL.String() == i.URL
	})

	t.Cleanup(func() {
		if err := r.Stop(); err != nil {
			t.Errorf("failed to stop recorder: %v", err)
		}
	})
	return r
}

// HTTPClient returns a client whose transport replays through r.
func HTTPClient(r *recorder.Recorder) *http.Client {
	return &http.Client{Transport: r}
}
