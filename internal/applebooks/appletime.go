package applebooks

import "time"

// Apple timestamps count seconds from 2001-01-01 instead of the Unix
// epoch.
const appleEpochOffset = 978307200

// formatAppleTime converts an Apple-epoch timestamp to a local
// "YYYY-MM-DD HH:MM:SS" string. Zero timestamps format as "".
func formatAppleTime(ts float64) string {
	if ts == 0 {
		return ""
	}
	return time.Unix(int64(ts)+appleEpochOffset, 0).Format("2006-01-02 15:04:05")
}
