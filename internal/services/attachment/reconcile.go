// File: internal/services/attachment/reconcile.go
package attachment

import (
	"os"
	"path/filepath"
	"regexp"
)

// Browsers save name collisions as "name (N).ext".
var duplicatePattern = regexp.MustCompile(`^(.+) \((\d+)\)(\.[^.]+)?$`)

// ReconcileDuplicates collapses browser-suffixed duplicates back onto
// their canonical names: when the canonical file already exists the
// duplicate is removed, otherwise it is renamed into place. Run after
// a sync pass so re-downloaded attachments do not accumulate copies.
func (c *Correlator) ReconcileDuplicates() error {
	entries, err := os.ReadDir(c.config.Dir)
	if err != nil {
		return &AttachmentError{Type: ErrTypeDir, Operation: "reconcile", Message: "could not read download dir", Cause: err}
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := duplicatePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		canonical := match[1] + match[3]
		duplicatePath := filepath.Join(c.config.Dir, entry.Name())
		canonicalPath := filepath.Join(c.config.Dir, canonical)

		if _, err := os.Stat(canonicalPath); err == nil {
			if err := os.Remove(duplicatePath); err != nil {
				c.logger.Warn("could not remove duplicate download", "filename", entry.Name(), "error", err)
				continue
			}
			c.logger.Debug("removed duplicate download", "filename", entry.Name(), "canonical", canonical)
			continue
		}

		if err := os.Rename(duplicatePath, canonicalPath); err != nil {
			c.logger.Warn("could not rename duplicate download", "filename", entry.Name(), "error", err)
			continue
		}
		c.logger.Debug("renamed duplicate download to canonical", "filename", entry.Name(), "canonical", canonical)
	}
	return nil
}
