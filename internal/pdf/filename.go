package pdf

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

const fallbackFileStem = "proposal"

// FileName derives the storage file name from the submitter's name. The
// millisecond timestamp keeps two people with the same normalized name from
// overwriting each other inside one owner's folder.
func FileName(name string, at time.Time) string {
	return slug(name) + "-" + strconv.FormatInt(at.UnixMilli(), 10) + ".pdf"
}

func slug(name string) string {
	var b strings.Builder
	pendingSep := false

	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}

	if b.Len() == 0 {
		return fallbackFileStem
	}

	return b.String()
}
