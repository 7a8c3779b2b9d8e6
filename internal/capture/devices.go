package capture

import (
	"bufio"
	"io"
	"strings"
)

// parseKeyboards lists event handlers of keyboard-like devices from the
// /proc/bus/input/devices format. A device counts when it reports key
// capabilities and an EV bitmap with repeat support (EV=120013 on most keyboards).
func parseKeyboards(r io.Reader) ([]string, error) {
	var devices []string
	var handler string
	var hasKeys, repeats bool

	end := func() {
		if handler != "" && hasKeys && repeats {
			devices = append(devices, "/dev/input/"+handler)
		}
		handler, hasKeys, repeats = "", false, false
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			end()
		case strings.HasPrefix(line, "H: Handlers="):
			for _, part := range strings.Fields(strings.TrimPrefix(line, "H: Handlers=")) {
				if strings.HasPrefix(part, "event") {
					handler = part
				}
			}
		case strings.HasPrefix(line, "B: EV="):
			repeats = strings.HasSuffix(strings.TrimPrefix(line, "B: EV="), "13")
		case strings.HasPrefix(line, "B: KEY="):
			hasKeys = len(strings.Fields(strings.TrimPrefix(line, "B: KEY="))) >= 4
		}
	}
	end()
	return devices, scanner.Err()
}
