package storage

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/furkansenharputlu/f-keyfile/lcs"
)

func newLicenseFs(t *testing.T, content string) *lcs.Locator {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, lcs.DefaultLicensePath, []byte(content), 0644))

	l := lcs.NewLocator(fs)
	l.Getenv = func(string) string { return "" }
	return l
}
