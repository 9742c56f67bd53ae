package connect

import (
	"fmt"
	"regexp"
	"strings"
)

// comPortPattern matches Windows COM port names. POSIX device paths are
// matched separately by their /dev/ prefix.
var comPortPattern = regexp.MustCompile(`^COM[1-9][0-9]*$`)

// ValidatePort checks a user-supplied port name before any I/O is
// attempted. COM1 is rejected: it is the host's own console UART on the
// lab machines and opening it wedges the port until reboot.
func ValidatePort(name string) error {
	if strings.HasPrefix(name, "/dev/") && len(name) > len("/dev/") {
		return nil
	}

	upper := strings.ToUpper(name)
	if !comPortPattern.MatchString(upper) {
		return fmt.Errorf("%w: %q", ErrMalformedPort, name)
	}
	if upper == "COM1" {
		return fmt.Errorf("%w: %s", ErrReservedPort, upper)
	}
	return nil
}
