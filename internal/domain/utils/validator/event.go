package validator

import (
	"strings"
	"unicode/utf8"
)

const MaxDurationMinutes uint = 180

func runes(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

func ClassName(name string) bool {
	return runes(name) >= 1 && runes(name) <= 50
}

func EventName(name string) bool {
	return runes(name) >= 1 && runes(name) <= 100
}

func EventDescription(description string) bool {
	return runes(description) <= 1000
}

func EventLocation(location string) bool {
	return runes(location) >= 1 && runes(location) <= 150
}

func MaxCapacity(capacity uint) bool {
	return capacity >= 1
}

// Duration bounds the slot length to 1..MaxDurationMinutes.
func Duration(minutes uint) bool {
	return minutes >= 1 && minutes <= MaxDurationMinutes
}

func Tags(tags []string) bool {
	if len(tags) > 10 {
		return false
	}
	for _, tag := range tags {
		if runes(tag) == 0 || runes(tag) > 30 {
			return false
		}
	}
	return true
}
