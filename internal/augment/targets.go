package augment

import (
	"errors"
	"io/fs"
	"log/slog"
)

// Target selects documents under one directory of the content root.
type Target struct {
	Dir         string
	Pattern     string
	Recursive   bool
	SkipMissing bool
}

// Collect lists the documents selected by targets, in target order, without
// duplicates. A missing directory is fatal unless its target allows skipping.
func (s *Service) Collect(targets []Target) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range targets {
		metas, err := s.store.List(t.Dir, t.Pattern, t.Recursive)
		if err != nil {
			if t.SkipMissing && errors.Is(err, fs.ErrNotExist) {
				s.logger.Warn("target directory missing, skipped", slog.String("dir", t.Dir))
				continue
			}
			return nil, err
		}
		for _, m := range metas {
			if _, dup := seen[m.Path]; dup {
				continue
			}
			seen[m.Path] = struct{}{}
			out = append(out, m.Path)
		}
	}
	return out, nil
}
