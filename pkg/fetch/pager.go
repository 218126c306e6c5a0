package fetch

import (
	"os"
	"os/exec"
)

// DisplayInPager hands a file to the user's pager, falling back to less.
func DisplayInPager(path string) error {
	pager := os.Getenv("PAGER")
	if pager == "" {
		pager = "less"
	}

	cmd := exec.Command(pager, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
