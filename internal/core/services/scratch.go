package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ragdesk/ragdesk/internal/logger"
)

// writeScratchFile stages uploaded bytes under dir. The file name embeds
// the conversation id, a timestamp and the original name so concurrent
// uploads never collide.
func writeScratchFile(dir, conversationID, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	base := fmt.Sprintf("%s_%d_%s", sanitize(conversationID), time.Now().UnixNano(), sanitize(filepath.Base(name)))
	path := filepath.Join(dir, base)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("write scratch file: %w", err)
	}
	return path, nil
}

// removeScratchFile deletes a staged upload. Removal is best-effort;
// a failure is logged, never propagated.
func removeScratchFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("remove scratch file %s: %v", path, err)
	}
}

// sanitize keeps scratch file names portable.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}
