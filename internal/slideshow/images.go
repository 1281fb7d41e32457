// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package slideshow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmptyImageSet is returned when no images are available at startup.
var ErrEmptyImageSet = errors.New("image set is empty")

// ImageSet is the fixed, ordered list of raw frame files shown by the slideshow.
type ImageSet struct {
	paths []string
}

// LoadImageSet enumerates the regular files of dir once, following symlinks.
// Directories, hidden files and dangling links are skipped; order is the
// directory listing order.
func LoadImageSet(dir string) (*ImageSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read image dir %q: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		p := filepath.Join(dir, e.Name())
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%q: %w", dir, ErrEmptyImageSet)
	}
	return &ImageSet{paths: paths}, nil
}

// NewImageSet builds a set from explicit paths.
func NewImageSet(paths []string) (*ImageSet, error) {
	if len(paths) == 0 {
		return nil, ErrEmptyImageSet
	}
	return &ImageSet{paths: append([]string(nil), paths...)}, nil
}

// Len returns the number of images.
func (s *ImageSet) Len() int { return len(s.paths) }

// Path returns the file of image i.
func (s *ImageSet) Path(i int) string { return s.paths[i] }

// Names returns the base names in order.
func (s *ImageSet) Names() []string {
	names := make([]string, len(s.paths))
	for i, p := range s.paths {
		names[i] = filepath.Base(p)
	}
	return names
}
