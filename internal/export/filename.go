package export

import "time"

// Filename builds the timestamped document name used in download headers,
// "<name>_<YYYYMMDDHHmm>.<ext>".
func Filename(name, ext string, at time.Time) string {
	return name + "_" + at.Format("200601021504") + "." + ext
}
