package qst

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func headerLine(canton, created, text string) string {
	return fmt.Sprintf("00%-2s%-15s%8s%-40s%-40s%-3s", canton, "", created, text, "", "")
}

func tariffLine(code string, incomeFrom, step int64, children int, minimum int64, rate int) string {
	return fmt.Sprintf("06%2s%2s%-10s%8s%09d%09d%1s%02d%09d%05d%3s",
		"01", "ZH", code, "20230101", incomeFrom, step, " ", children, minimum, rate, "")
}

func sampleFile() string {
	return strings.Join([]string{
		headerLine("ZH", "20221125", "Quellensteuertarife Z\xfcrich"),
		tariffLine("A0N", 0, 100000, 0, 2500, 10),
		tariffLine("A0N", 795000, 5000, 0, 0, 995),
		tariffLine("A0N", 800005, 5000, 0, 0, 1000),
		tariffLine("B2N", 795000, 10000, 2, 0, 450),
		"99 trailing record",
	}, "\r\n")
}

func TestParseTable(t *testing.T) {
	table, err := ParseTable(strings.NewReader(sampleFile()))
	require.NoError(t, err)

	assert.Equal(t, "ZH", table.Header.Canton)
	assert.Equal(t, 2022, table.Header.Created.Year())
	assert.Equal(t, "Quellensteuertarife Zürich", table.Header.Text)
	require.Len(t, table.Tariffs, 4)

	b2n := table.Tariffs[3]
	assert.Equal(t, "B2N", b2n.Code)
	assert.Equal(t, 2, b2n.Children)
	assert.True(t, decimal.RequireFromString("7950").Equal(b2n.IncomeFrom))
	assert.True(t, decimal.RequireFromString("100").Equal(b2n.Step))
	assert.True(t, decimal.RequireFromString("0.045").Equal(b2n.Rate))
}

func TestTableCalculate(t *testing.T) {
	table, err := ParseTable(strings.NewReader(sampleFile()))
	require.NoError(t, err)

	tests := []struct {
		code   string
		income string
		want   string
	}{
		{"A0N", "500", "25"},
		{"A0N", "8000", "796"},
		{"A0N", "8020", "802"},
		{"B2N", "8000", "360"},
	}
	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.income, func(t *testing.T) {
			got, err := table.Calculate(tt.code, decimal.RequireFromString(tt.income))
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}

	_, err = table.Calculate("A0N", decimal.NewFromInt(20000))
	assert.ErrorIs(t, err, ErrNoBracket)
	_, err = table.Calculate("H0N", decimal.NewFromInt(8000))
	assert.ErrorIs(t, err, ErrUnsupportedCode)
}

func TestCalculator(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tar23zh.txt"), []byte(sampleFile()), 0o600))

	calc := NewCalculator(dir)
	tax, err := calc.Calculate(2023, "ZH", "A0N", decimal.NewFromInt(8000), false)
	require.NoError(t, err)
	assert.Equal(t, "796.00", tax.StringFixed(2))

	_, err = calc.Calculate(2023, "GE", "A0N", decimal.NewFromInt(8000), false)
	assert.ErrorIs(t, err, ErrAnnualModel)

	_, err = calc.Calculate(2024, "ZH", "A0N", decimal.NewFromInt(8000), false)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCodes(t *testing.T) {
	assert.Equal(t, "A0N", BuildCode(false, false, 0, false))
	assert.Equal(t, "B2Y", BuildCode(true, true, 2, true))
	assert.Equal(t, "C9N", BuildCode(true, false, 12, false))

	text, err := Explain("B2N")
	require.NoError(t, err)
	assert.Equal(t, "Married Single-Earner, Children: 2, Church Tax: No", text)

	assert.True(t, IsSupported("C1Y"))
	assert.False(t, IsSupported("D0N"))
	assert.False(t, IsSupported("A0X"))
	assert.False(t, IsSupported("A0"))

	assert.True(t, HasAnnualModel("vd"))
	assert.False(t, HasAnnualModel("ZH"))
	assert.Equal(t, "tar23zh.txt", FileName(2023, "ZH"))
}

func zipOf(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDownload(t *testing.T) {
	inner := zipOf(t, map[string][]byte{"tar23zh.txt": []byte(sampleFile())})
	outer := zipOf(t, map[string][]byte{"tar23zh.zip": inner})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/qst-ch-tar2023-de.zip.download.zip/qst-ch-tar2023-de.zip" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(outer)
	}))
	defer srv.Close()

	d := &Downloader{Client: srv.Client(), BaseURL: srv.URL, Logger: zap.NewNop()}
	dir := t.TempDir()
	files, err := d.Download(context.Background(), 2023, dir)
	require.NoError(t, err)

	require.Equal(t, []string{filepath.Join(dir, "tar23zh.txt")}, files)
	content, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, sampleFile(), string(content))
}

func TestDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	d := &Downloader{Client: srv.Client(), BaseURL: srv.URL, Logger: zap.NewNop()}
	_, err := d.Download(context.Background(), 2024, t.TempDir())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, d.ArchiveURL(2024), "/tar2024.zip.download.zip/tar2024.zip")
}
