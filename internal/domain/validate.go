package domain

import (
	"fmt"
	"strings"
)

func oneOf(field, value string, allowed []string, optional bool) error {
	if value == "" && optional {
		return nil
	}
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q (use %s)", field, value, strings.Join(allowed, ", "))
}
