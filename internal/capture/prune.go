package capture

import (
	"fmt"
	"os"
)

// Prune deletes captured images oldest-first until at most retain remain
// on disk and returns the surviving images in capture order. Deletion is
// immediate and irreversible; on failure the images deleted so far stay
// deleted and the remainder is returned alongside the error.
func Prune(images []Image, retain int) ([]Image, error) {
	if retain < 0 {
		retain = 0
	}
	if len(images) <= retain {
		return images, nil
	}

	excess := len(images) - retain
	for i := 0; i < excess; i++ {
		if err := os.Remove(images[i].Path); err != nil {
			return images[i:], fmt.Errorf("removing %s: %w", images[i].Path, err)
		}
	}

	return images[excess:], nil
}
