package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dunderai/auditcore/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoader_Load_File(t *testing.T) {
	loader := NewLoader(nil)

	t.Run("parses comma separated file", func(t *testing.T) {
		path := writeTempCSV(t, " employee ,date,amount\nJim,2024-01-15,100.50\nPam,2024-01-16,\n")

		rs, err := loader.Load(context.Background(), path)
		require.NoError(t, err)

		assert.Equal(t, []string{"employee", "date", "amount"}, rs.Columns)
		assert.Equal(t, 2, rs.Len())
		assert.Equal(t, "Jim", rs.Rows[0]["employee"])
		assert.Equal(t, 100.50, rs.Rows[0]["amount"])
		assert.Nil(t, rs.Rows[1]["amount"])
	})

	t.Run("sniffs semicolon delimiter", func(t *testing.T) {
		path := writeTempCSV(t, "employee;amount\nDwight;42\n")

		rs, err := loader.Load(context.Background(), path)
		require.NoError(t, err)

		assert.Equal(t, []string{"employee", "amount"}, rs.Columns)
		assert.Equal(t, 42.0, rs.Rows[0]["amount"])
	})

	t.Run("missing file is a data source error", func(t *testing.T) {
		_, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
		require.Error(t, err)
		assert.True(t, services.IsDataSourceError(err))
	})

	t.Run("empty file is a data source error", func(t *testing.T) {
		path := writeTempCSV(t, "   \n")

		_, err := loader.Load(context.Background(), path)
		require.Error(t, err)
		assert.True(t, services.IsDataSourceError(err))
	})
}

func TestLoader_Load_HTTP(t *testing.T) {
	t.Run("fetches remote CSV", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("vendor,amount\nOffice Depot,250\n"))
		}))
		defer srv.Close()

		loader := NewLoader(srv.Client())
		rs, err := loader.Load(context.Background(), srv.URL+"/data.csv")
		require.NoError(t, err)
		assert.Equal(t, 1, rs.Len())
		assert.Equal(t, "Office Depot", rs.Rows[0]["vendor"])
	})

	t.Run("non-200 status is a data source error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		loader := NewLoader(srv.Client())
		_, err := loader.Load(context.Background(), srv.URL+"/missing.csv")
		require.Error(t, err)
		assert.True(t, services.IsDataSourceError(err))
	})
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ',', sniffDelimiter("a,b,c\n1,2,3"))
	assert.Equal(t, ';', sniffDelimiter("a;b;c\n1;2;3"))
	assert.Equal(t, '\t', sniffDelimiter("a\tb\tc"))
	assert.Equal(t, ',', sniffDelimiter("single_column"))
}
