package storage

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// FileHandler keeps one JSON file per check record in Dir.
type FileHandler struct {
	Dir string
}

func NewFileHandler(dir string) FileHandler {
	return FileHandler{Dir: dir}
}

func (f FileHandler) Add(r *CheckRecord) error {
	if _, err := os.Stat(f.withJSONExtension(r.ID)); !os.IsNotExist(err) {
		return fmt.Errorf("there is already such check with ID: %s", r.ID)
	}

	return f.write(r)
}

func (f FileHandler) Get(id string) (*CheckRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	recordInBytes, err := ioutil.ReadFile(f.withJSONExtension(id))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't read check with ID: %s", id)
	}

	var r CheckRecord
	if err := json.Unmarshal(recordInBytes, &r); err != nil {
		return nil, errors.Wrapf(err, "couldn't unmarshal check with ID: %s", id)
	}

	return &r, nil
}

func (f FileHandler) GetAll(limit int) ([]*CheckRecord, error) {
	records := make([]*CheckRecord, 0)

	files, err := ioutil.ReadDir(f.Dir)
	if os.IsNotExist(err) {
		return records, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read checks")
	}

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}

		r, err := f.Get(removeExtension(file.Name()))
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

func (f FileHandler) DeleteByID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	err := os.Remove(f.withJSONExtension(id))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}

func (f FileHandler) DropDatabase() error {
	return os.RemoveAll(f.Dir)
}

func (f FileHandler) Close() error {
	return nil
}

func (f FileHandler) write(r *CheckRecord) error {
	bytes, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "couldn't marshal check")
	}

	if err := os.MkdirAll(f.Dir, 0755); err != nil {
		return errors.Wrap(err, "couldn't create checks directory")
	}

	if err := ioutil.WriteFile(f.withJSONExtension(r.ID), bytes, 0644); err != nil {
		return errors.Wrap(err, "couldn't write check to file")
	}

	return nil
}

func (f FileHandler) withJSONExtension(id string) string {
	return filepath.Join(f.Dir, id+".json")
}

func removeExtension(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
