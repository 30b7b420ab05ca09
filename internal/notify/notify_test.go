package notify

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		report RunReport
		check  func(t *testing.T, att slack.Attachment)
	}{
		{
			name: "Successful run",
			report: RunReport{
				Topic:       "Volcanoes",
				Succeeded:   true,
				Duration:    3*time.Minute + 12*time.Second + 400*time.Millisecond,
				VideoURL:    "https://www.youtube.com/watch?v=vid-42",
				ArtifactURL: "https://bucket.s3.us-east-1.amazonaws.com/run",
			},
			check: func(t *testing.T, att slack.Attachment) {
				require.Equal(t, "good", att.Color)
				require.Equal(t, "Video pipeline succeeded: Volcanoes", att.Title)
				require.Len(t, att.Fields, 3)
				require.Equal(t, "Duration", att.Fields[0].Title)
				require.Equal(t, "3m12s", att.Fields[0].Value)
				require.Equal(t, "Video", att.Fields[1].Title)
				require.Equal(t, "https://www.youtube.com/watch?v=vid-42", att.Fields[1].Value)
				require.Equal(t, "Artifacts", att.Fields[2].Title)
			},
		},
		{
			name: "Failed run",
			report: RunReport{
				Topic:     "Volcanoes",
				Succeeded: false,
				Duration:  40 * time.Second,
				Err:       errors.New("voice synthesis failed"),
			},
			check: func(t *testing.T, att slack.Attachment) {
				require.Equal(t, "danger", att.Color)
				require.Equal(t, "Video pipeline failed: Volcanoes", att.Title)
				require.Len(t, att.Fields, 2)
				require.Equal(t, "Duration", att.Fields[0].Title)
				require.Equal(t, "40s", att.Fields[0].Value)
				require.Equal(t, "Error", att.Fields[1].Title)
				require.Equal(t, "voice synthesis failed", att.Fields[1].Value)
			},
		},
		{
			name: "Minimal report",
			report: RunReport{
				Topic:     "Volcanoes",
				Succeeded: true,
			},
			check: func(t *testing.T, att slack.Attachment) {
				require.Len(t, att.Fields, 1, "only the duration field is always present")
				require.Equal(t, "0s", att.Fields[0].Value)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg := BuildMessage(tt.report)
			require.Len(t, msg.Attachments, 1)
			tt.check(t, msg.Attachments[0])
		})
	}
}

func TestNotify(t *testing.T) {
	t.Parallel()

	log := logger.With("test", t.Name())

	received := make(chan slack.WebhookMessage, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var msg slack.WebhookMessage
		require.NoError(t, json.Unmarshal(body, &msg))
		received <- msg
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	n := New(log, server.URL)
	n.Notify(t.Context(), RunReport{Topic: "Volcanoes", Succeeded: true, Duration: time.Minute})

	select {
	case msg := <-received:
		require.Len(t, msg.Attachments, 1)
		require.Equal(t, "Video pipeline succeeded: Volcanoes", msg.Attachments[0].Title)
	default:
		t.Fatal("no webhook request received")
	}
}

func TestNotify_NoWebhookConfigured(t *testing.T) {
	t.Parallel()

	log := logger.With("test", t.Name())

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	n := New(log, "")
	n.Notify(t.Context(), RunReport{Topic: "Volcanoes"})
	require.Zero(t, requests)
}

func TestNotify_DeliveryFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	log := logger.With("test", t.Name())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "channel_not_found", http.StatusNotFound)
	}))
	defer server.Close()

	// Notify has no error return; a failed delivery must not panic.
	n := New(log, server.URL)
	n.Notify(t.Context(), RunReport{Topic: "Volcanoes"})
}
