package export

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	dataset := NewDataset("ID", "Title", "Stage")
	dataset.Append(map[string]string{"ID": "sub-1", "Title": "Liputan HUT", "Stage": "completed"})
	dataset.Append(map[string]string{"ID": "sub-2", "Title": "Pengumuman PPDB"})

	content, err := NewCSVExporter().Render(dataset)
	require.NoError(t, err)
	require.Equal(t, 2, dataset.Len())
	require.Equal(t, "ID,Title,Stage\nsub-1,Liputan HUT,completed\nsub-2,Pengumuman PPDB,\n", string(content))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestCSVExporterQuotesEmbeddedCommas(t *testing.T) {
	dataset := NewDataset("Title")
	dataset.Append(map[string]string{"Title": `Rapat, sesi "pagi"`})

	content, err := NewCSVExporter().Render(dataset)
	require.NoError(t, err)
	require.Equal(t, "Title\n\"Rapat, sesi \"\"pagi\"\"\"\n", string(content))
}
