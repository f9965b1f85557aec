package lcs

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingOpener struct {
	Opener
	opens int
}

func (o *countingOpener) Open() (*Source, error) {
	o.opens++
	return o.Opener.Open()
}

func fixedClock(y int, m time.Month, d int) Option {
	return WithClock(func() time.Time {
		return time.Date(y, m, d, 9, 0, 0, 0, time.Local)
	})
}

func TestChecker_Check(t *testing.T) {
	l := memLocator(t, SampleLicenseFile(SampleBody))
	opener := &countingOpener{Opener: l}
	c := NewChecker(opener, fixedClock(2024, 1, 1))

	assert.Nil(t, c.License())
	assert.False(t, c.HasFeature(TagCloud))

	o := c.Check()
	require.Equal(t, StatusValid, o.Status, o.Message)
	assert.True(t, o.OK())
	assert.Equal(t, SourceFile, o.Source)
	assert.Equal(t, SampleBody, o.License.Body())
	assert.Equal(t, SampleBody, c.License().Body())
	assert.True(t, c.HasFeature(TagCloud))

	t.Run("Second call does not read again", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(l.Fs, l.Path, []byte("garbage"), 0644))

		o := c.Check()
		assert.Equal(t, StatusAlreadyChecked, o.Status)
		assert.True(t, o.OK())
		assert.Equal(t, "f-keyfile license key already checked.", o.Message)
		assert.Equal(t, 1, opener.opens)
		assert.Equal(t, SampleBody, c.License().Body())
	})

	t.Run("Reset", func(t *testing.T) {
		c.Reset()
		assert.Nil(t, c.License())

		o := c.Check()
		assert.Equal(t, StatusInvalid, o.Status)
		assert.Equal(t, KindFormatCorrupt, o.Kind())
		assert.Equal(t, 2, opener.opens)
	})
}

func TestChecker_ExpiredOverride(t *testing.T) {
	body := "Expires after: 1999-12-31\n"
	l := memLocator(t, "")
	l.Getenv = env(map[string]string{DefaultOverrideEnv: body + HexDigest(body) + "\n"})
	opener := &countingOpener{Opener: l}

	c := NewChecker(opener, fixedClock(2024, 1, 1))

	o := c.Check()
	assert.Equal(t, StatusInvalid, o.Status)
	assert.Equal(t, KindExpired, o.Kind())
	assert.Equal(t, SourceOverride, o.Source)
	assert.Contains(t, o.Message, "expired since 1999-12-31.")
	assert.Contains(t, o.Message, DefaultExpiredAppeal)
	assert.Nil(t, c.License())

	o = c.Check()
	assert.Equal(t, StatusInvalid, o.Status, "a failed check is attempted again")
	assert.Equal(t, KindExpired, o.Kind())
	assert.Equal(t, 2, opener.opens)
}

func TestChecker_Failures(t *testing.T) {
	t.Run("Missing file", func(t *testing.T) {
		c := NewChecker(memLocator(t, ""))
		o := c.Check()
		assert.Equal(t, KindSourceUnavailable, o.Kind())
		assert.Contains(t, o.Message, "Could not open the f-keyfile license file.")
		assert.Contains(t, o.Message, DefaultAppeal)
	})

	t.Run("Corrupt", func(t *testing.T) {
		c := NewChecker(memLocator(t, "no terminator"))
		o := c.Check()
		assert.Equal(t, KindFormatCorrupt, o.Kind())
		assert.Contains(t, o.Message, "appears to be corrupted. Please reinstall it.")
	})

	t.Run("Invalid", func(t *testing.T) {
		c := NewChecker(memLocator(t, SampleLicenseFile(SampleBody)), WithSecret("rotated"))
		o := c.Check()
		assert.Equal(t, KindIntegrityMismatch, o.Kind())
		assert.Contains(t, o.Message, "The f-keyfile license file is invalid.\n")
		assert.False(t, o.OK())
	})

	t.Run("Temporary file", func(t *testing.T) {
		l := NewLocator(afero.NewReadOnlyFs(afero.NewMemMapFs()))
		l.Materialize = MaterializeTempFile
		l.TempDir = "/tmp"
		l.Getenv = env(map[string]string{DefaultOverrideEnv: "x"})

		o := NewChecker(l).Check()
		assert.Equal(t, KindSourceUnavailable, o.Kind())
		assert.Contains(t, o.Message, "environment variable LICENSE_DATA_OVERRIDE, but unable to create a temporary file")
	})

	t.Run("Custom messages", func(t *testing.T) {
		c := NewChecker(memLocator(t, ""), WithMessages(Messages{Product: "Acme Server", Appeal: "Call us."}))
		o := c.Check()
		assert.Equal(t, "Could not open the Acme Server license file. "+
			"Please check whether it's installed correctly and whether it's world-readable.\nCall us.", o.Message)
	})
}

func TestChecker_Observers(t *testing.T) {
	var seen []Status
	c := NewChecker(memLocator(t, SampleLicenseFile(SampleBody)), WithObserver(func(o Outcome) {
		seen = append(seen, o.Status)
	}))

	c.Check()
	c.Check()

	assert.Equal(t, []Status{StatusValid, StatusAlreadyChecked}, seen)
}
