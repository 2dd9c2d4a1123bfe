package logsink

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models/events"
)

func TestSinkLogsEvent(t *testing.T) {
	var buf bytes.Buffer
	s := New(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, s.Notify(context.Background(), events.RecordEvent{
		OrganizationKey: "o1",
		RecordID:        "r1",
		Type:            events.DeletionRequested,
	}))
	assert.Contains(t, buf.String(), `"event":"deletion_requested"`)
	assert.Contains(t, buf.String(), `"record_id":"r1"`)
}
