package security

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Vegeta420Blaze/buzzer-app/internal/config"
)

var (
	// Room codes are fixed-length, drawn from an alphabet without
	// visually confusable characters.
	roomCodeRegex = regexp.MustCompile(fmt.Sprintf(`^[%s]{%d}$`, config.RoomCodeAlphabet, config.RoomCodeLength))
	// Name validation regex - Unicode letters, digits, spaces, apostrophes, hyphens, underscores, dots
	// \p{L} matches any Unicode letter (includes accented characters)
	// \p{N} matches any Unicode number
	nameRegex = regexp.MustCompile(`^[\p{L}\p{N}\s'\-_.]+$`)
	// Dangerous characters that could be used for injection attacks
	dangerousCharsRegex = regexp.MustCompile(`[<>{}[\]\\;|&$()` + "`" + `]`)
)

// ValidatePlayerName sanitizes a display name: trims whitespace, falls
// back to the default for an empty input, and caps the length in runes.
// Names with dangerous or control characters are rejected.
func ValidatePlayerName(name string) (string, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return config.DefaultPlayerName, nil
	}

	if runes := []rune(name); len(runes) > config.MaxPlayerNameLength {
		name = strings.TrimSpace(string(runes[:config.MaxPlayerNameLength]))
		if name == "" {
			return config.DefaultPlayerName, nil
		}
	}

	if dangerousCharsRegex.MatchString(name) {
		return "", fmt.Errorf("name contains potentially dangerous characters")
	}

	if !nameRegex.MatchString(name) {
		return "", fmt.Errorf("name contains invalid characters (allowed: letters, numbers, spaces, apostrophes, hyphens, underscores, dots)")
	}

	// Check for control characters (belt-and-suspenders with regex)
	for _, r := range name {
		if r < 32 || r == 127 {
			return "", fmt.Errorf("name contains control characters")
		}
	}

	return name, nil
}

// ValidateRoomCode normalizes a room code to upper case and checks its
// shape before any registry lookup.
func ValidateRoomCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	if code == "" {
		return "", fmt.Errorf("room code cannot be empty")
	}

	if !roomCodeRegex.MatchString(code) {
		return "", fmt.Errorf("invalid room code format (expected %d characters)", config.RoomCodeLength)
	}

	return code, nil
}
