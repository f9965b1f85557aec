package lcs

import (
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		body := "hello\nworld\n"
		l, err := Parse(strings.NewReader(SampleLicenseFile(body)), licenseSecret)
		require.NoError(t, err)
		assert.Equal(t, body, l.Body())
	})

	t.Run("Digest without spaces", func(t *testing.T) {
		body := "hello\nworld\n"
		file := body + strings.ReplaceAll(HexDigest(body), " ", "") + "\n"

		l, err := Parse(strings.NewReader(file), licenseSecret)
		require.NoError(t, err)
		assert.Equal(t, body, l.Body())
	})

	t.Run("Only digest line", func(t *testing.T) {
		l, err := Parse(strings.NewReader(SampleLicenseFile("")), licenseSecret)
		require.NoError(t, err)
		assert.Equal(t, "", l.Body())
	})

	t.Run("Zero digest", func(t *testing.T) {
		file := "hello\nworld\n" + strings.Repeat("0", 2*DigestSize) + "\n"
		_, err := Parse(strings.NewReader(file), licenseSecret)
		assert.Equal(t, KindIntegrityMismatch, KindOf(err))
	})

	t.Run("Tampered body", func(t *testing.T) {
		file := strings.Replace(SampleLicenseFile(SampleBody), "ACME", "ACNE", 1)
		_, err := Parse(strings.NewReader(file), licenseSecret)
		assert.Equal(t, KindIntegrityMismatch, KindOf(err))
	})

	t.Run("Wrong secret", func(t *testing.T) {
		_, err := Parse(strings.NewReader(SampleLicenseFile(SampleBody)), "another secret")
		assert.Equal(t, KindIntegrityMismatch, KindOf(err))
	})

	t.Run("Lowercase digest", func(t *testing.T) {
		file := SampleBody + strings.ToLower(HexDigest(SampleBody)) + "\n"
		_, err := Parse(strings.NewReader(file), licenseSecret)
		assert.Equal(t, KindIntegrityMismatch, KindOf(err))
	})

	t.Run("Short digest", func(t *testing.T) {
		digest := HexDigest(SampleBody)
		file := SampleBody + digest[:len(digest)-3] + "\n"
		_, err := Parse(strings.NewReader(file), licenseSecret)
		assert.Equal(t, KindIntegrityMismatch, KindOf(err))
	})

	t.Run("Trailing text after digest", func(t *testing.T) {
		file := SampleBody + HexDigest(SampleBody) + " 0102\n"
		l, err := Parse(strings.NewReader(file), licenseSecret)
		require.NoError(t, err)
		assert.Equal(t, SampleBody, l.Body())
	})
}

func TestParse_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"Empty", ""},
		{"No terminator", "hello"},
		{"Last line without terminator", "hello\n" + HexDigest("hello\n")},
		{"Too many lines", SampleLicenseFile(strings.Repeat("x\n", MaxLicenseLines))},
		{"Line too long", SampleLicenseFile(strings.Repeat("x", MaxLineLength) + "\n")},
		{"NUL byte", SampleLicenseFile("hel\x00lo\n")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.file), licenseSecret)
			assert.Equal(t, KindFormatCorrupt, KindOf(err))
		})
	}
}

func TestParse_Limits(t *testing.T) {
	t.Run("Max lines", func(t *testing.T) {
		body := strings.Repeat("x\n", MaxLicenseLines-1)
		l, err := Parse(strings.NewReader(SampleLicenseFile(body)), licenseSecret)
		require.NoError(t, err)
		assert.Equal(t, body, l.Body())
	})

	t.Run("Max line length", func(t *testing.T) {
		body := strings.Repeat("x", MaxLineLength-1) + "\n"
		l, err := Parse(strings.NewReader(SampleLicenseFile(body)), licenseSecret)
		require.NoError(t, err)
		assert.Equal(t, body, l.Body())
	})
}

// endlessReader yields 'x' forever and counts what it handed out.
type endlessReader struct {
	n int64
}

func (r *endlessReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'x'
	}
	r.n += int64(len(p))
	return len(p), nil
}

func TestParse_UnterminatedLongLine(t *testing.T) {
	r := &endlessReader{}

	_, err := Parse(r, licenseSecret)
	assert.Equal(t, KindFormatCorrupt, KindOf(err))
	assert.LessOrEqual(t, r.n, int64(MaxLineLength+1), "reading must stop at the line limit")
}

func TestParse_LongLineAfterValidLines(t *testing.T) {
	r := io.MultiReader(strings.NewReader("hello\nworld\n"), &endlessReader{})

	_, err := Parse(r, licenseSecret)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3 is longer than")
}

func TestParse_ReadError(t *testing.T) {
	boom := errors.New("boom")
	r := io.MultiReader(strings.NewReader("hello\n"), iotest.ErrReader(boom))

	_, err := Parse(r, licenseSecret)
	require.Error(t, err)
	assert.Equal(t, KindIOFailure, KindOf(err))
	assert.Equal(t, boom, errors.Cause(err))
}

func TestDecodeDigest(t *testing.T) {
	const hex = "000102030405060708090A0B0C0D0E0F"
	want := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}

	t.Run("Spaced and compact are equal", func(t *testing.T) {
		compact, ok := decodeDigest([]byte(hex + "\n"))
		require.True(t, ok)

		spaced, ok := decodeDigest([]byte("00 01 02 03 04 05 06 07 08 09 0A 0B 0C 0D 0E 0F\n"))
		require.True(t, ok)

		assert.Equal(t, want, compact)
		assert.Equal(t, compact, spaced)
	})

	t.Run("AB CD", func(t *testing.T) {
		a, _ := decodeDigest([]byte("AB CD" + hex[4:] + "\n"))
		b, _ := decodeDigest([]byte("ABCD" + hex[4:] + "\n"))
		assert.Equal(t, []byte{0xAB, 0xCD}, a[:2])
		assert.Equal(t, a, b)
	})

	t.Run("Leading spaces", func(t *testing.T) {
		got, ok := decodeDigest([]byte("   " + hex + "\n"))
		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("Stops at digest size", func(t *testing.T) {
		got, ok := decodeDigest([]byte(hex + "FFFF\n"))
		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("Rejects lowercase", func(t *testing.T) {
		_, ok := decodeDigest([]byte(strings.ToLower(hex) + "\n"))
		assert.False(t, ok)
	})

	t.Run("Rejects odd nibble", func(t *testing.T) {
		_, ok := decodeDigest([]byte(hex[:31]))
		assert.False(t, ok)
	})
}

func TestValidate(t *testing.T) {
	today := time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)

	t.Run("No expiration", func(t *testing.T) {
		l, err := Validate(strings.NewReader(SampleLicenseFile(SampleBody)), licenseSecret, today)
		require.NoError(t, err)
		assert.Equal(t, SampleBody, l.Body())
	})

	t.Run("Expired", func(t *testing.T) {
		_, err := Validate(strings.NewReader(SampleExpiringLicenseFile("2023-12-31")), licenseSecret, today)
		assert.Equal(t, KindExpired, KindOf(err))
	})

	t.Run("Integrity is checked before expiration", func(t *testing.T) {
		file := SampleBody + "Expires after: 2000-01-01\n" + strings.Repeat("0", 32) + "\n"
		_, err := Validate(strings.NewReader(file), licenseSecret, today)
		assert.Equal(t, KindIntegrityMismatch, KindOf(err))
	})
}
