// ABOUTME: Tests for the SQLite audit trail
// ABOUTME: Covers entry defaulting, round-trip, ordering, and limits

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuditStore(t *testing.T) *AuditStore {
	t.Helper()
	s, err := NewAuditStore(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAuditStore_AppendGeneratesDefaults(t *testing.T) {
	s := setupAuditStore(t)
	ctx := context.Background()

	e := &AuditEntry{Action: AuditAddExample, Domain: DomainCognos, ExampleID: "c-1"}
	require.NoError(t, s.Append(ctx, e))
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
}

func TestAuditStore_RoundTrip(t *testing.T) {
	s := setupAuditStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, &AuditEntry{
		Action:    AuditUpdateCorrection,
		Domain:    DomainTableau,
		ExampleID: "t-7",
	}))

	entries, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, AuditUpdateCorrection, entries[0].Action)
	assert.Equal(t, DomainTableau, entries[0].Domain)
	assert.Equal(t, "t-7", entries[0].ExampleID)
}

func TestAuditStore_ListNewestFirst(t *testing.T) {
	s := setupAuditStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Append(ctx, &AuditEntry{
			Action:    AuditAddExample,
			Domain:    DomainCognos,
			ExampleID: "c-" + string(rune('a'+i)),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "c-c", entries[0].ExampleID)
	assert.Equal(t, "c-a", entries[2].ExampleID)
}

func TestAuditStore_ListLimit(t *testing.T) {
	s := setupAuditStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, &AuditEntry{Action: AuditResetExamples, Domain: DomainCognos}))
	}

	entries, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
