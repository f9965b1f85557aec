package lcs

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"crypto/subtle"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// MaxLicenseLines bounds the number of physical lines, digest line included.
	MaxLicenseLines = 30
	// MaxLineLength bounds a physical line, terminator included.
	MaxLineLength = 1023
	// DigestSize is the width of the keyed digest in bytes.
	DigestSize = md5.Size
)

// licenseSecret salts the keyed digest. Release builds set it with
// -ldflags "-X github.com/furkansenharputlu/f-keyfile/lcs.licenseSecret=...".
var licenseSecret = "f-keyfile-development-secret"

// Validate parses and verifies r and then enforces the expiration date against today.
func Validate(r io.Reader, secret string, today time.Time) (*License, error) {
	l, err := Parse(r, secret)
	if err != nil {
		return nil, err
	}

	if err := CheckExpiration(l.body, today); err != nil {
		return nil, err
	}

	return l, nil
}

// Parse reads the license lines from r and verifies the digest line.
// Expiration is not checked.
func Parse(r io.Reader, secret string) (*License, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	body := lines[:len(lines)-1]
	computed := KeyedDigest(body, secret)

	claimed, ok := decodeDigest(lines[len(lines)-1])
	if !ok || subtle.ConstantTimeCompare(computed[:], claimed) != 1 {
		logrus.Debug("License digest does not match")
		return nil, newError(KindIntegrityMismatch, "digest mismatch")
	}

	return newLicense(string(bytes.Join(body, nil))), nil
}

func readLines(r io.Reader) ([][]byte, error) {
	// The buffer holds exactly one line of the maximum length, so a longer
	// line is rejected without reading past it.
	br := bufio.NewReaderSize(r, MaxLineLength+1)
	var lines [][]byte

	for {
		n := len(lines) + 1

		line, err := br.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			return nil, newError(KindFormatCorrupt, fmt.Sprintf("line %d is longer than %d bytes", n, MaxLineLength))
		}
		if err != nil && err != io.EOF {
			return nil, &Error{Kind: KindIOFailure, Detail: fmt.Sprintf("read line %d", n), Err: err}
		}
		if len(line) == 0 && err == io.EOF {
			break
		}

		switch {
		case line[len(line)-1] != '\n':
			return nil, newError(KindFormatCorrupt, fmt.Sprintf("line %d has no terminator", n))
		case len(line) > MaxLineLength:
			return nil, newError(KindFormatCorrupt, fmt.Sprintf("line %d is longer than %d bytes", n, MaxLineLength))
		case bytes.IndexByte(line, 0) >= 0:
			return nil, newError(KindFormatCorrupt, fmt.Sprintf("line %d contains a NUL byte", n))
		case len(lines) >= MaxLicenseLines:
			return nil, newError(KindFormatCorrupt, fmt.Sprintf("more than %d lines", MaxLicenseLines))
		}

		// ReadSlice returns a view into the reader's buffer.
		lines = append(lines, append([]byte(nil), line...))
	}

	if len(lines) == 0 {
		return nil, newError(KindFormatCorrupt, "empty license")
	}

	return lines, nil
}

// KeyedDigest computes the digest of the body lines followed by secret.
func KeyedDigest(lines [][]byte, secret string) [DigestSize]byte {
	h := md5.New()
	for _, line := range lines {
		h.Write(line)
	}
	h.Write([]byte(secret))

	var sum [DigestSize]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// decodeDigest reads up to DigestSize bytes of uppercase hex from line.
// Spaces between byte pairs are skipped. Anything outside 0-9A-F makes the
// digest undecodable.
func decodeDigest(line []byte) ([]byte, bool) {
	digest := make([]byte, 0, DigestSize)

	i := 0
	for i < len(line) && line[i] != '\n' && len(digest) < DigestSize {
		for i < len(line) && line[i] == ' ' {
			i++
		}
		if i >= len(line) || line[i] == '\n' {
			break
		}
		if i+1 >= len(line) {
			return nil, false
		}

		hi, ok1 := hexNibble(line[i])
		lo, ok2 := hexNibble(line[i+1])
		if !ok1 || !ok2 {
			return nil, false
		}

		digest = append(digest, hi<<4|lo)
		i += 2
	}

	return digest, len(digest) == DigestSize
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
