package extract

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9 ]`)

// SafeName keeps ASCII letters, digits and spaces, then turns spaces into
// underscores. An empty result becomes a timestamped placeholder.
func SafeName(s string) string {
	s = unsafeChars.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " ", "_")
	if s == "" {
		s = "no_name_" + strconv.FormatInt(time.Now().UnixMicro(), 10)
	}
	return s
}

// FileStem is the sanitised input file name without its extension.
func FileStem(path string) string {
	base := filepath.Base(path)
	return SafeName(strings.TrimSuffix(base, filepath.Ext(base)))
}

// partName is the per-channel output name. Labels that would escape the
// output directory are sanitised.
func partName(label string) string {
	if label == "" || label == "." || label == ".." || strings.ContainsAny(label, `/\`) {
		return SafeName(label)
	}
	return label
}
