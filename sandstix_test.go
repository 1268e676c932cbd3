package sandstix

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/threatgraph/sandstix/convert"
)

func TestConvert(t *testing.T) {
	raw, err := json.Marshal(map[string]any{
		"target": map[string]any{
			"category": "file",
			"file":     map[string]any{"name": "sample.exe"},
		},
	})
	require.NoError(t, err)

	bundle, err := Convert(context.Background(), raw, convert.Options{})
	require.NoError(t, err)
	require.NoError(t, bundle.Validate())
	require.NotEmpty(t, bundle.Objects)
}

func TestConvertFile(t *testing.T) {
	raw := `{"target": {"category": "file", "file": {"name": "sample.exe"}}}`
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	bundle, err := ConvertFile(context.Background(), path, convert.Options{})
	require.NoError(t, err)
	require.NoError(t, bundle.Validate())
}

func TestConvertRejectsBadInput(t *testing.T) {
	_, err := Convert(context.Background(), []byte("not json"), convert.Options{})
	require.Error(t, err)
}
