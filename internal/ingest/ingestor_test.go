package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refurbd/palletflow/internal/model"
	"github.com/refurbd/palletflow/internal/service"
	"github.com/refurbd/palletflow/internal/testutil"
)

// stubReader returns canned rows or a canned error.
type stubReader struct {
	headers []string
	rows    []model.RawRow
	err     error
}

func (s *stubReader) Read() ([]string, []model.RawRow, error) {
	return s.headers, s.rows, s.err
}

func TestIngestorUpload(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	ingestor := New(db.Storage)

	t.Run("creates a pending manifest", func(t *testing.T) {
		manifest, err := ingestor.Upload(ctx, UploadOptions{
			Name:      "pallet 42",
			FileType:  "csv",
			Reference: "PO-1001",
		})
		require.NoError(t, err)
		assert.Equal(t, model.ManifestPending, manifest.Status)
		assert.Equal(t, "PO-1001", manifest.Reference)
		assert.NotZero(t, manifest.ID)
	})

	t.Run("requires a name", func(t *testing.T) {
		_, err := ingestor.Upload(ctx, UploadOptions{})
		require.Error(t, err)
	})
}

func TestIngestorIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("stores rows and advances to mapping", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		ingestor := New(db.Storage)
		manifest, err := ingestor.Upload(ctx, UploadOptions{Name: "pallet", FileType: "csv"})
		require.NoError(t, err)

		reader := &stubReader{
			headers: []string{"Serial", "Model"},
			rows: []model.RawRow{
				{"Serial": "S1", "Model": "T490"},
				{"Serial": "S2", "Model": "T480"},
			},
		}
		count, err := ingestor.Ingest(ctx, manifest, reader)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Equal(t, model.ManifestMapping, manifest.Status)
		assert.Equal(t, 2, manifest.RowCount)

		items, err := db.Storage.GetItems(ctx, manifest.ID, service.ItemFilter{})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, 1, items[0].RowNumber)
		assert.Equal(t, "S1", items[0].RawData["Serial"])
		assert.Equal(t, model.ItemPending, items[0].Status)

		stored, err := db.Storage.GetManifest(ctx, manifest.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ManifestMapping, stored.Status)
		assert.Equal(t, 2, stored.RowCount)
	})

	t.Run("parse failure marks the manifest failed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		ingestor := New(db.Storage)
		manifest, err := ingestor.Upload(ctx, UploadOptions{Name: "pallet", FileType: "csv"})
		require.NoError(t, err)

		_, err = ingestor.Ingest(ctx, manifest, &stubReader{err: errors.New("csv file is empty")})
		require.Error(t, err)

		stored, err := db.Storage.GetManifest(ctx, manifest.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ManifestFailed, stored.Status)
		assert.Contains(t, stored.Notes, "csv file is empty")

		items, err := db.Storage.GetItems(ctx, manifest.ID, service.ItemFilter{})
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("rejects a manifest past pending", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		ingestor := New(db.Storage)
		manifest := db.SeedManifest(model.ManifestMapping, nil)

		_, err := ingestor.Ingest(ctx, manifest, &stubReader{headers: []string{"Serial"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected pending")
	})

	t.Run("reports progress", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		ingestor := New(db.Storage)
		manifest, err := ingestor.Upload(ctx, UploadOptions{Name: "pallet", FileType: "csv"})
		require.NoError(t, err)

		var calls int
		ingestor.OnProgress = func(done, total int) {
			calls++
			assert.Equal(t, 3, total)
		}
		_, err = ingestor.Ingest(ctx, manifest, &stubReader{
			headers: []string{"Serial"},
			rows:    []model.RawRow{{"Serial": "S1"}, {"Serial": "S2"}, {"Serial": "S3"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})
}

func TestPreview(t *testing.T) {
	reader := &stubReader{
		headers: []string{"Serial"},
		rows:    []model.RawRow{{"Serial": "S1"}, {"Serial": "S2"}, {"Serial": "S3"}},
	}

	headers, rows, err := Preview(reader, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Serial"}, headers)
	assert.Len(t, rows, 2)

	_, rows, err = Preview(reader, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
