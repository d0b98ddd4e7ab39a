// Package slug derives URL slugs from post titles.
package slug

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"gorm.io/gorm"
)

// Generate derives a slug from a title: lowercase, keeping only ASCII
// letters, digits and CJK ideographs. Every other run of characters
// collapses to a single hyphen, and leading/trailing hyphens are
// trimmed. Deterministic: the same title always yields the same slug.
func Generate(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	hyphenPending := false
	wrote := false
	for _, r := range strings.ToLower(title) {
		if keep(r) {
			if hyphenPending && wrote {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			hyphenPending = false
			wrote = true
		} else {
			hyphenPending = true
		}
	}

	return b.String()
}

func keep(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r >= 0x4E00 && r <= 0x9FA5: // CJK unified ideographs
		return true
	}
	return false
}

// EnsureUnique returns s, or s with a short random suffix when another
// post (excluding excludeID) already owns it. Soft-deleted posts count
// too: the unique index on the slug column spans dead rows, so a slug
// is never handed out twice.
func EnsureUnique(db *gorm.DB, s, excludeID string) (string, error) {
	if s == "" {
		s = "untitled"
	}
	for {
		q := db.Table("posts").Where("slug = ?", s)
		if excludeID != "" {
			q = q.Where("id <> ?", excludeID)
		}
		var count int64
		if err := q.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return s, nil
		}
		s = s + "-" + randomSuffix()
	}
}

func randomSuffix() string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand does not fail on supported platforms
		return "000000"
	}
	return hex.EncodeToString(buf)
}
