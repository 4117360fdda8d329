package broker

import "strings"

// Messages venues return when a setting is already at the requested value.
var alreadySetMessages = []string{
	"no need to change margin type",
	"no need to change leverage",
	"not modified",
}

// IsAlreadySet reports whether err only says the requested setting is
// already in place.
func IsAlreadySet(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range alreadySetMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
