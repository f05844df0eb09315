// Package browser opens URLs in the user's default browser, used for
// book cover links.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Open launches the platform opener for url and does not wait for it.
func Open(url string) error {
	var name string
	var args []string
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "linux":
		name = "xdg-open"
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return fmt.Errorf("browser.Open: unsupported OS %s", runtime.GOOS)
	}
	return exec.Command(name, append(args, url)...).Start()
}
