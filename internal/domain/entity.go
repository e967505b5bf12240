package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// Entity is implemented by every backend-owned record the dashboard caches.
type Entity interface {
	EntityID() int64
}

func setString(values url.Values, name, value string) {
	if strings.TrimSpace(value) != "" {
		values.Set(name, strings.TrimSpace(value))
	}
}

func setID(values url.Values, name string, id *int64) {
	if id != nil {
		values.Set(name, strconv.FormatInt(*id, 10))
	}
}
