package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type stagedFile struct {
	tmp  string
	path string
}

// staging collects output files written to temp files beside their
// destinations. Nothing is visible at a destination until commit.
type staging struct {
	files []stagedFile
}

func (s *staging) stage(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	s.files = append(s.files, stagedFile{tmp: tmp.Name(), path: path})
	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	return tmp.Close()
}

func (s *staging) stageBytes(path string, data []byte) error {
	return s.stage(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// commit renames every staged file into place. Destinations that are
// directories fail the commit before anything is renamed. A rename failure
// leaves the remaining temp files for abort to remove.
func (s *staging) commit() ([]string, error) {
	for _, f := range s.files {
		if st, err := os.Stat(f.path); err == nil && st.IsDir() {
			return nil, fmt.Errorf("%s is a directory", f.path)
		}
	}
	paths := make([]string, 0, len(s.files))
	for i, f := range s.files {
		if err := os.Rename(f.tmp, f.path); err != nil {
			s.files = s.files[i:]
			return paths, err
		}
		paths = append(paths, f.path)
	}
	s.files = nil
	return paths, nil
}

func (s *staging) abort() {
	for _, f := range s.files {
		os.Remove(f.tmp)
	}
	s.files = nil
}
