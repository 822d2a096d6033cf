package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func NewID() string {
	return uuid.NewString()
}

// MeetingLink builds "<base>/tourbook-<12 hex chars>".
func MeetingLink(baseURL string) string {
	slug := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s/tourbook-%s", strings.TrimRight(baseURL, "/"), slug)
}
