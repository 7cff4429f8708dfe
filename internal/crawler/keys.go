package crawler

import "fmt"

const (
	DefaultKeyStart = 0
	DefaultKeyCount = 6000
	DefaultKeyWidth = 6
)

// Keys returns `count` institution keys starting at `start`, zero-padded to `width` digits.
// ex. Keys(0, 3, 6) -> "000000", "000001", "000002"
func Keys(start, count, width int) []string {
	if count <= 0 {
		return nil
	}
	keys := make([]string, count)
	for i := range keys {
		keys[i] = fmt.Sprintf("%0*d", width, start+i)
	}
	return keys
}
