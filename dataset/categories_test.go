package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCategories(t *testing.T) {
	path := writeFile(t, "classes.txt", "cat\n dog \n\nbird\n")

	classes, err := LoadCategories(path)
	require.NoError(t, err, "LoadCategories()")
	require.Equal(t, []string{"cat", "dog", "bird"}, classes,
		"lines trimmed, blanks skipped, order kept")
}

func TestLoadCategoriesMissingFile(t *testing.T) {
	_, err := LoadCategories(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}
