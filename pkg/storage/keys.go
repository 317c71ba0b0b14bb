package storage

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DatedKey groups objects by month: prefix/2024/03/<uuid>.png
func DatedKey(prefix, ext string, now time.Time) string {
	ext = strings.ToLower(ext)
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}
	month := fmt.Sprintf("%04d/%02d", now.Year(), int(now.Month()))
	return path.Join(prefix, month, uuid.NewString()+ext)
}
