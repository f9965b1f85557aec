package lcs

import (
	"bytes"
	"fmt"
	"strings"
)

const SampleBody = "Licensee: ACME Corporation\n" +
	"Contact: ops@acme.example\n" +
	"Edition: Enterprise\n" +
	"Cloud license\n"

// HexDigest renders the keyed digest of body the way license files carry it:
// uppercase byte pairs separated by spaces.
func HexDigest(body string) string {
	sum := KeyedDigest(splitLines(body), licenseSecret)

	pairs := make([]string, 0, len(sum))
	for _, b := range sum {
		pairs = append(pairs, fmt.Sprintf("%02X", b))
	}
	return strings.Join(pairs, " ")
}

// SampleLicenseFile returns body followed by its digest line.
func SampleLicenseFile(body string) string {
	return body + HexDigest(body) + "\n"
}

// SampleExpiringLicenseFile returns a license file expiring after date.
func SampleExpiringLicenseFile(date string) string {
	return SampleLicenseFile(SampleBody + ExpiresAfterKey + " " + date + "\n")
}

func splitLines(body string) [][]byte {
	var lines [][]byte
	rest := []byte(body)
	for len(rest) > 0 {
		i := bytes.IndexByte(rest, '\n')
		if i < 0 {
			lines = append(lines, rest)
			break
		}
		lines = append(lines, rest[:i+1])
		rest = rest[i+1:]
	}
	return lines
}
