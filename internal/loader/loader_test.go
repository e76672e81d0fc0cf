package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ephcli/internal/errors"
	"ephcli/pkg/contracts/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRawDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "batch_t1.txt", "ANO4;TRIMESTRE;AGLOMERADO\n2025;1;31\n2025;1;34\n")
	writeFile(t, dir, "batch_t2.csv", "ano4,trimestre,aglomerado\n2025,2,31\n")
	writeFile(t, dir, "notes.md", "ignored\n")

	l := NewLoader(nil)
	rows, err := l.LoadRawDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Lower-case headers from the second batch align with the first.
	assert.Equal(t, "2025", rows[0]["ANO4"])
	assert.Equal(t, "31", rows[0]["AGLOMERADO"])
	assert.Equal(t, "2", rows[2]["TRIMESTRE"])
}

func TestLoadRawDir_SemicolonWithDecimalCommas(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "batch.txt", "ANO4;PONDERA\n2025;103,5\n")

	l := NewLoader(nil)
	rows, err := l.LoadRawDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "103,5", rows[0]["PONDERA"])
}

func TestLoadRawDir_Empty(t *testing.T) {
	l := NewLoader(nil)
	_, err := l.LoadRawDir(context.Background(), t.TempDir())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeNotFound, appErr.Type)
}

func TestLoadRawDir_MissingDir(t *testing.T) {
	l := NewLoader(nil)
	_, err := l.LoadRawDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestLoadPriceIndex(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ipc.csv", "ANO4,TRIMESTRE,IPC_INDEX\n2024,4,95.0\n2025,1,100.0\n2025,2,103.5\n")

	l := NewLoader(nil)
	series, err := l.LoadPriceIndex(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, series, 3)

	v := series.Lookup(domain.Period{Year: 2025, Quarter: 2})
	require.True(t, v.Valid)
	assert.InDelta(t, 103.5, v.Value, 1e-9)
}

func TestLoadPriceIndex_IPCAlias(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ipc.csv", "ANO4;TRIMESTRE;IPC\n2025;1;100,0\n")

	l := NewLoader(nil)
	series, err := l.LoadPriceIndex(context.Background(), path)
	require.NoError(t, err)

	v := series.Lookup(domain.Period{Year: 2025, Quarter: 1})
	require.True(t, v.Valid)
	assert.InDelta(t, 100.0, v.Value, 1e-9)
}

func TestLoadPriceIndex_MissingColumnsFatal(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ipc.csv", "ANO4,VALUE\n2025,100\n")

	l := NewLoader(nil)
	_, err := l.LoadPriceIndex(context.Background(), path)
	require.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
}

func TestLoadPriceIndex_DuplicatePeriod(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ipc.csv", "ANO4,TRIMESTRE,IPC_INDEX\n2025,1,100\n2025,1,101\n")

	l := NewLoader(nil)
	_, err := l.LoadPriceIndex(context.Background(), path)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeValidation, appErr.Type)
}

func TestLoadPriceIndex_BadValue(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ipc.csv", "ANO4,TRIMESTRE,IPC_INDEX\n2025,1,abc\n")

	l := NewLoader(nil)
	_, err := l.LoadPriceIndex(context.Background(), path)
	require.Error(t, err)
}
