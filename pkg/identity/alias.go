package identity

// descriptionAliases corrects raw device descriptions that the OS or
// boot marker reports in an unhelpful form.
var descriptionAliases = map[string]string{
	"adafruit_qtpy_esp32s3":       "Adafruit QT Py ESP32-S3",
	"adafruit_qtpy_esp32s2":       "Adafruit QT Py ESP32-S2",
	"adafruit_qtpy_rp2040":        "Adafruit QT Py RP2040",
	"USB Serial Device":           "Adafruit QT Py",
	"USB-Massenspeichergerät":     "Adafruit QT Py",
	"USB Mass Storage Device":     "Adafruit QT Py",
	"CircuitPython CDC control":   "Adafruit QT Py",
}

// CorrectDescription maps a raw device description through the static
// alias table. Unknown descriptions pass through unchanged.
func CorrectDescription(raw string) string {
	if corrected, ok := descriptionAliases[raw]; ok {
		return corrected
	}
	return raw
}
