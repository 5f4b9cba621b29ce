package book

import "strings"

// SanitizeFileName strips any directory prefix from a client supplied file name.
// Both separators are honoured and the last one wins, so "/c:\test.txt" becomes "test.txt".
func SanitizeFileName(path string) string {
	pos := strings.LastIndexAny(path, `/\`)
	if pos < 0 {
		return path
	}
	return path[pos+1:]
}
