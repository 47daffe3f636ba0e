package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/andresuchdata/inventory-balance/internal/balance"
	"github.com/andresuchdata/inventory-balance/internal/domain"
)

func writeLatin1(t *testing.T, dir, name, content string) string {
	t.Helper()
	encoded, err := charmap.ISO8859_1.NewEncoder().String(content)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(encoded), 0o644))
	return path
}

func TestLoadLatin1CSV(t *testing.T) {
	dir := t.TempDir()
	path := writeLatin1(t, dir, "Balance.csv", strings.Join([]string{
		"Codigo,Clave,Descripcion,Matriz,Matriz.1,Adelitas,Adelitas.1",
		"1,K1,Cañería 1/2,5,A,x,Sin movimiento",
		"2,K2,Jabón,,C",
	}, "\n"))

	ds, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Adelitas", "Matriz"}, ds.WarehouseNames())
	require.Len(t, ds.Records, 2)
	assert.Equal(t, "Cañería 1/2", ds.Records[0].Description)
	assert.Equal(t, 0, ds.Records[0].Quantity("Adelitas"))
	assert.Equal(t, "Sin movimiento", ds.Records[0].Classes["Adelitas"])
	assert.Equal(t, "Jabón", ds.Records[1].Description)
	assert.Equal(t, 0, ds.Records[1].Quantity("Matriz"))
	assert.Equal(t, path, ds.Source.Path)
	assert.False(t, ds.Source.ModTime.IsZero())
}

func TestLoadRepeatedWarehouseHeader(t *testing.T) {
	dir := t.TempDir()
	path := writeLatin1(t, dir, "Balance.csv", strings.Join([]string{
		"Codigo,Clave,Descripcion,Matriz,Matriz,Adelitas,Adelitas",
		"1,K1,Foco,5,A,3,C",
	}, "\n"))

	ds, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)

	w, ok := ds.Warehouse("Matriz")
	require.True(t, ok)
	assert.Equal(t, "Matriz.1", w.ClassColumn)
	assert.Equal(t, "C", ds.Records[0].Classes["Adelitas"])
}

func TestLoadFailures(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(context.Background(), filepath.Join(dir, "missing.csv"), Options{})
	assert.ErrorIs(t, err, domain.ErrLoad)

	_, err = Load(context.Background(), dir, Options{})
	assert.ErrorIs(t, err, domain.ErrLoad)

	empty := writeLatin1(t, dir, "empty.csv", "")
	_, err = Load(context.Background(), empty, Options{})
	assert.ErrorIs(t, err, domain.ErrLoad)

	noKey := writeLatin1(t, dir, "nokey.csv", "Codigo,Descripcion,Matriz\n1,x,3\n")
	_, err = Load(context.Background(), noKey, Options{})
	assert.ErrorIs(t, err, domain.ErrLoad)
	assert.ErrorIs(t, err, balance.ErrMissingBaseColumn)

	badQuote := writeLatin1(t, dir, "bad.csv", "Codigo,Clave,Descripcion\n1,\"K1,x\n")
	_, err = Load(context.Background(), badQuote, Options{})
	assert.ErrorIs(t, err, domain.ErrLoad)

	_, err = Load(context.Background(), noKey, Options{Encoding: "ebcdic"})
	assert.ErrorIs(t, err, domain.ErrLoad)
}

func TestReadCSVStripsUTF8BOM(t *testing.T) {
	content := "\ufeffCodigo,Clave,Descripcion,Matriz\n1,K1,Acción,2\n"
	header, rows, err := ReadCSV(context.Background(), strings.NewReader(content), "utf-8")
	require.NoError(t, err)
	assert.Equal(t, "Codigo", header[0])
	assert.Equal(t, "Acción", rows[0][2])
}

func TestDedupeHeader(t *testing.T) {
	got := DedupeHeader([]string{" Matriz ", "Matriz", "Matriz", "Patio.1", "Patio", "Patio"})
	assert.Equal(t, []string{"Matriz", "Matriz.1", "Matriz.2", "Patio.1", "Patio", "Patio.2"}, got)
}

func TestLoadXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Balance.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Codigo", "Clave", "Descripcion", "Matriz", "Matriz.1"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"1", "K1", "Foco", 7, "B"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ds, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	require.Len(t, ds.Records, 1)
	assert.Equal(t, 7, ds.Records[0].Quantity("Matriz"))
	assert.Equal(t, "B", ds.Records[0].Classes["Matriz"])
}
