package csvstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devnest/devnest/core/registration"
	"github.com/devnest/devnest/tests"
)

func setup(t *testing.T) (*submissionRepository, *registration.EventSchema) {
	schema := testutil.Schema(t, testutil.LoadCatalog(t), "hackverse")
	dir := filepath.Join(t.TempDir(), "server", "data")
	return NewSubmissionRepository(dir, schema).(*submissionRepository), schema
}

func record(roll, p2Roll string) registration.Record {
	rec := registration.Record{
		SubmittedAt:      "2026-01-02T03:04:05Z",
		FullName:         `Jane "JJ" Doe`,
		RollNumber:       roll,
		Participant2Roll: p2Roll,
		Notes:            "veg, no onions",
	}
	rec.SetValue(registration.ColPaymentProofFile, "server/uploads/hackverse/1-a.jpg")
	rec.SetValue(registration.ColPaymentProofType, "image/jpeg")
	return rec
}

func TestSubmissionRepository_Append(t *testing.T) {
	ctx := context.Background()
	repo, schema := setup(t)

	require.NoError(t, repo.Append(ctx, record("AB123", "cd456")))
	require.NoError(t, repo.Append(ctx, record("ef789", "")))

	content, err := os.ReadFile(repo.path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(schema.Columns, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `"2026-01-02T03:04:05Z","Jane ""JJ"" Doe","AB123",`))
	assert.Len(t, registration.DecodeRow(lines[1]), len(schema.Columns))

	recs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []registration.Record{record("AB123", "cd456"), record("ef789", "")}, recs)
}

func TestSubmissionRepository_FindConflicts(t *testing.T) {
	ctx := context.Background()
	repo, _ := setup(t)

	// no file yet
	conflicts, err := repo.FindConflicts(ctx, []string{"ab123"})
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	require.NoError(t, repo.Append(ctx, record("AB123", "cd456")))
	require.NoError(t, repo.Append(ctx, record("ef789", "")))

	tests := []struct {
		name  string
		rolls []string
		want  []string
	}{
		{name: "case and whitespace", rolls: []string{" ab123 "}, want: []string{"ab123"}},
		{name: "participant roll", rolls: []string{"CD456", "zz"}, want: []string{"cd456"}},
		{name: "detection order", rolls: []string{"ef789", "ab123"}, want: []string{"ab123", "ef789"}},
		{name: "no conflict", rolls: []string{"nope"}, want: []string{}},
		{name: "blank rolls ignored", rolls: []string{"", " "}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindConflicts(ctx, tt.rolls)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubmissionRepository_FindConflicts_emptyCandidatesReadNothing(t *testing.T) {
	repo, _ := setup(t)

	// an unreadable path would fail any read
	require.NoError(t, os.MkdirAll(repo.path, 0o755))

	got, err := repo.FindConflicts(context.Background(), []string{"  "})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = repo.FindConflicts(context.Background(), []string{"x"})
	assert.Error(t, err)
}
