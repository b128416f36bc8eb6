package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/invoice-assistant/internal/core/corrections"
	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

func openTestRepo(t *testing.T) *CorrectionRepository {
	t.Helper()
	repo, err := Open(context.Background(), filepath.Join(t.TempDir(), "corrections.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func candidate(t *testing.T, original, corrected string, field domain.FieldType, company string) domain.CorrectionRecord {
	t.Helper()
	rec, ok := corrections.Candidate(original, corrected, field, company, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	require.True(t, ok)
	return rec
}

func TestUpsertCorrectionIncrementsPerKey(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	first, err := repo.UpsertCorrection(ctx, candidate(t, "RG-2024-0099", "RG-2024-0009", domain.FieldInvoiceNumber, "Tausendkraut GmbH"))
	require.NoError(t, err)
	assert.Equal(t, 1, first.OccurrenceCount)
	assert.InDelta(t, 0.7, first.ConfidenceScore, 1e-9)

	second, err := repo.UpsertCorrection(ctx, candidate(t, "rg-2024-0099", "RG-2024-00099", domain.FieldInvoiceNumber, ""))
	require.NoError(t, err)
	assert.Equal(t, 2, second.OccurrenceCount)
	assert.InDelta(t, 0.95, second.ConfidenceScore, 1e-9)
	assert.Equal(t, "RG-2024-00099", second.CorrectedText)
	assert.Equal(t, "RG-2024-0099", second.OriginalText)
	assert.Equal(t, "Tausendkraut GmbH", second.CompanyContext)

	third, err := repo.UpsertCorrection(ctx, candidate(t, "RG-2024-0099", "RG-2024-00099", domain.FieldInvoiceNumber, ""))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, third.ConfidenceScore, 1e-9)

	records, err := repo.ListCorrections(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].OccurrenceCount)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), records[0].LastUpdated)
}

func TestUpsertCorrectionKeepsFieldTypesApart(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	_, err := repo.UpsertCorrection(ctx, candidate(t, "42,00", "42,50", domain.FieldTotalAmount, ""))
	require.NoError(t, err)
	_, err = repo.UpsertCorrection(ctx, candidate(t, "42,00", "40,00", domain.FieldNetAmount, ""))
	require.NoError(t, err)

	records, err := repo.ListCorrections(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, domain.FieldTotalAmount, records[0].FieldType)
	assert.Equal(t, "42.00", records[0].OriginalText)
	assert.Equal(t, domain.FieldNetAmount, records[1].FieldType)
}

func TestUpsertCorrectionConcurrentWriters(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	rec := candidate(t, "Netto", "Nettobetrag", domain.FieldDescription, "")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.UpsertCorrection(ctx, rec)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	records, err := repo.ListCorrections(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 20, records[0].OccurrenceCount)
}
