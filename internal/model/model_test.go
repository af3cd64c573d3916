package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	require.Equal(t, "b1_a.jpg", DocKey("b1", "a.jpg"))
	require.Equal(t, "b1/input/a.jpg", InputKey("b1", "a.jpg"))
	require.Equal(t, "b1/output/a.jpg", OutputKey("b1", "a.jpg"))
	// одинаковые входы - одинаковый ключ
	require.Equal(t, DocKey("b1", "a.jpg"), DocKey("b1", "a.jpg"))
}

func TestNameFromKey(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
		wantOK bool
	}{
		{"plain", "b1/input/", "b1/input/a.jpg", "a.jpg", true},
		{"nested name", "b1/input/", "b1/input/dir/a.jpg", "dir/a.jpg", true},
		{"directory marker", "b1/input/", "b1/input/", "", false},
		{"nested marker", "b1/input/", "b1/input/dir/", "", false},
		{"other prefix", "b1/input/", "b1/output/a.jpg", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NameFromKey(tt.prefix, tt.key)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestContentTypeByName(t *testing.T) {
	require.Equal(t, JPEG, ContentTypeByName("a.JPG"))
	require.Equal(t, JPEG, ContentTypeByName("a.jpeg"))
	require.Equal(t, PNG, ContentTypeByName("a.png"))
	require.Equal(t, GIF, ContentTypeByName("a.gif"))
	require.Equal(t, OctetStream, ContentTypeByName("a.bmp"))
	require.Equal(t, OctetStream, ContentTypeByName("noext"))
}

func TestFilters_ScanValue(t *testing.T) {
	var f Filters
	require.NoError(t, f.Scan(nil))
	require.Empty(t, f)

	require.NoError(t, f.Scan([]byte(`[{"type":"blur","radius":2}]`)))
	require.Len(t, f, 1)
	require.JSONEq(t, `{"type":"blur","radius":2}`, string(f[0]))

	require.NoError(t, f.Scan(`[]`))
	require.NotNil(t, f)

	require.Error(t, f.Scan(42))
	require.Error(t, f.Scan([]byte(`{broken`)))

	v, err := Filters(nil).Value()
	require.NoError(t, err)
	require.Equal(t, []byte(`[]`), v)
}

func TestFilters_PassThroughVerbatim(t *testing.T) {
	raw := `[{"type":"blur","seed":12345678901234567890},"grayscale",7,null,["nested",1.50]]`

	var meta ImageMetadata
	require.NoError(t, json.Unmarshal([]byte(`{"filters":`+raw+`}`), &meta))
	require.Len(t, meta.Filters, 5)
	require.Equal(t, `{"type":"blur","seed":12345678901234567890}`, string(meta.Filters[0]))
	require.Equal(t, `"grayscale"`, string(meta.Filters[1]))

	// в базу и обратно
	v, err := meta.Filters.Value()
	require.NoError(t, err)
	require.Equal(t, raw, string(v.([]byte)))

	var scanned Filters
	require.NoError(t, scanned.Scan(v))
	require.Equal(t, meta.Filters, scanned)

	// в задачу для очереди
	task, err := json.Marshal(NewProcessingTask(&ImageRecord{DocID: "b1_a.jpg", BatchID: "b1", ImageName: "a.jpg", Filters: scanned}))
	require.NoError(t, err)
	require.Contains(t, string(task), `"FilterJson":`+raw)
}

func TestImageRecord_JSON(t *testing.T) {
	rec := ImageRecord{DocID: "b1_a.jpg", BatchID: "b1", ImageName: "a.jpg"}

	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	require.JSONEq(t, `{"doc_id":"b1_a.jpg","UUID":"b1","ImageName":"a.jpg","FilterJson":[],"IsProcessed":false}`, string(raw))
}
