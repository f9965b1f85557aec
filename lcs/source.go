package lcs

import (
	"bytes"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	DefaultOverrideEnv = "LICENSE_DATA_OVERRIDE"
	DefaultLicensePath = "/etc/f-keyfile-license"
)

// SourceKind tells where the license bytes came from.
type SourceKind string

const (
	SourceFile     SourceKind = "file"
	SourceOverride SourceKind = "override"
)

// Materialization selects how override data is turned into a seekable stream.
type Materialization string

const (
	MaterializeMemory   Materialization = "memory"
	MaterializeTempFile Materialization = "tempfile"
)

// Source is an opened license stream. It must be closed by its owner.
type Source struct {
	Kind SourceKind
	Name string

	r io.ReadSeeker
	c io.Closer
}

func (s *Source) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

func (s *Source) Seek(offset int64, whence int) (int64, error) {
	return s.r.Seek(offset, whence)
}

func (s *Source) Close() error {
	if s.c == nil {
		return nil
	}
	return s.c.Close()
}

// Opener opens a license source for one validation pass.
type Opener interface {
	Open() (*Source, error)
}

// Locator decides whether the license comes from the environment override or
// from the installation-wide license file.
type Locator struct {
	Fs          afero.Fs
	Path        string
	OverrideEnv string
	Materialize Materialization
	// TempDir is used with MaterializeTempFile; empty means the OS default.
	TempDir string
	Getenv  func(string) string
}

func NewLocator(fs afero.Fs) *Locator {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Locator{
		Fs:          fs,
		Path:        DefaultLicensePath,
		OverrideEnv: DefaultOverrideEnv,
		Materialize: MaterializeMemory,
		Getenv:      os.Getenv,
	}
}

func (l *Locator) Open() (*Source, error) {
	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	env := l.OverrideEnv
	if env == "" {
		env = DefaultOverrideEnv
	}
	fs := l.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	if data := getenv(env); data != "" {
		logrus.WithField("env", env).Debug("License data found in environment")
		return l.openOverride(fs, env, data)
	}

	path := l.Path
	if path == "" {
		path = DefaultLicensePath
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, &Error{Kind: KindSourceUnavailable, Detail: "open " + path, Err: err}
	}

	return &Source{Kind: SourceFile, Name: path, r: f, c: f}, nil
}

func (l *Locator) openOverride(fs afero.Fs, env, data string) (*Source, error) {
	content := []byte(data)
	if content[len(content)-1] != '\n' {
		content = append(content, '\n')
	}

	if l.Materialize != MaterializeTempFile {
		return &Source{Kind: SourceOverride, Name: "env:" + env, r: bytes.NewReader(content)}, nil
	}

	dir := l.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := afero.TempFile(fs, dir, "f-keyfile.")
	if err != nil {
		return nil, &Error{Kind: KindSourceUnavailable, Detail: "create temporary file", Override: true, Err: err}
	}

	// The file is unlinked before anything is written to it.
	if err := fs.Remove(f.Name()); err != nil {
		_ = f.Close()
		return nil, &Error{Kind: KindSourceUnavailable, Detail: "unlink temporary file", Override: true, Err: err}
	}

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return nil, &Error{Kind: KindSourceUnavailable, Detail: "write temporary file", Override: true, Err: err}
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, &Error{Kind: KindSourceUnavailable, Detail: "rewind temporary file", Override: true, Err: err}
	}

	return &Source{Kind: SourceOverride, Name: "env:" + env, r: f, c: f}, nil
}
