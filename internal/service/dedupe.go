package service

import "strings"

const roomNameMarker = "房型名稱："

// RemoveDuplicateRoomNames drops repeated room entries from a composed
// recommendation. A line starting with 房型名稱： whose name was already
// seen is removed together with the line after it, which is assumed to be
// that room's single 推薦理由 line. This is a plain forward scan, not a
// block parser: a blank line or a multi-line justification after a repeated
// header will make it skip the wrong line. Known gap, kept as-is.
func RemoveDuplicateRoomNames(conclusion string) string {
	seen := make(map[string]bool)
	result := []string{}
	skipNext := false

	for _, line := range strings.Split(conclusion, "\n") {
		if skipNext {
			skipNext = false
			continue
		}
		if strings.HasPrefix(line, roomNameMarker) {
			parts := strings.Split(line, "：")
			name := strings.TrimSpace(parts[len(parts)-1])
			if seen[name] {
				skipNext = true
				continue
			}
			seen[name] = true
		}
		result = append(result, line)
	}

	return strings.Join(result, "\n")
}
