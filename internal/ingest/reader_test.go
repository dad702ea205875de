package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestOpenFile(t *testing.T) {
	t.Run("csv", func(t *testing.T) {
		reader, fileType, err := OpenFile("lot.csv")
		require.NoError(t, err)
		assert.Equal(t, "csv", fileType)
		assert.IsType(t, &CSVReader{}, reader)
	})

	t.Run("xlsx", func(t *testing.T) {
		reader, fileType, err := OpenFile("lot.XLSX")
		require.NoError(t, err)
		assert.Equal(t, "xlsx", fileType)
		assert.IsType(t, &XLSXReader{}, reader)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, _, err := OpenFile("lot.pdf")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported manifest file type")
	})
}

func TestCSVReader(t *testing.T) {
	t.Run("parses header and rows", func(t *testing.T) {
		path := writeCSV(t, "Serial,Manufacturer,Model\nS1,Lenovo,T490\nS2,Dell,Latitude 5490\n")

		headers, rows, err := (&CSVReader{Path: path}).Read()
		require.NoError(t, err)
		assert.Equal(t, []string{"Serial", "Manufacturer", "Model"}, headers)
		require.Len(t, rows, 2)
		assert.Equal(t, "Lenovo", rows[0]["Manufacturer"])
		assert.Equal(t, "Latitude 5490", rows[1]["Model"])
	})

	t.Run("strips byte order mark", func(t *testing.T) {
		path := writeCSV(t, "\ufeffSerial,Model\nS1,T490\n")

		headers, _, err := (&CSVReader{Path: path}).Read()
		require.NoError(t, err)
		assert.Equal(t, "Serial", headers[0])
	})

	t.Run("pads short rows and drops extras", func(t *testing.T) {
		path := writeCSV(t, "Serial,Manufacturer,Model\nS1,Lenovo\nS2,Dell,Latitude,overflow\n")

		_, rows, err := (&CSVReader{Path: path}).Read()
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Nil(t, rows[0]["Model"])
		assert.Equal(t, "Latitude", rows[1]["Model"])
		assert.NotContains(t, rows[1], "overflow")
	})

	t.Run("empty cells become nil", func(t *testing.T) {
		path := writeCSV(t, "Serial,Model\nS1,\n")

		_, rows, err := (&CSVReader{Path: path}).Read()
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Contains(t, rows[0], "Model")
		assert.Nil(t, rows[0]["Model"])
	})

	t.Run("empty file errors", func(t *testing.T) {
		path := writeCSV(t, "")

		_, _, err := (&CSVReader{Path: path}).Read()
		require.Error(t, err)
	})

	t.Run("header only yields no rows", func(t *testing.T) {
		path := writeCSV(t, "Serial,Model\n")

		headers, rows, err := (&CSVReader{Path: path}).Read()
		require.NoError(t, err)
		assert.Len(t, headers, 2)
		assert.Empty(t, rows)
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, _, err := (&CSVReader{Path: filepath.Join(t.TempDir(), "nope.csv")}).Read()
		require.Error(t, err)
	})
}
