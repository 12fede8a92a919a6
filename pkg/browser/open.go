package browser

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// commandRunner allows tests to intercept the launch commands.
var commandRunner = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// OpenURL opens the target URL in the default browser. Best effort: tries
// each platform launcher in order and reports failure only when none start.
func OpenURL(target string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return fmt.Errorf("empty url")
	}

	var cmds [][]string
	switch runtime.GOOS {
	case "darwin":
		cmds = [][]string{{"open", target}}
	case "windows":
		cmds = [][]string{{"rundll32", "url.dll,FileProtocolHandler", target}}
	default:
		cmds = [][]string{{"xdg-open", target}, {"gio", "open", target}}
	}

	for _, args := range cmds {
		if err := commandRunner(args[0], args[1:]...); err == nil {
			return nil
		}
	}

	return fmt.Errorf("no open command available")
}
