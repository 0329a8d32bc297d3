package domain

import (
	"strconv"
	"strings"
)

// Identity is the platform user behind an event.
type Identity struct {
	UserID    int64  `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Key derives the session key. It prefers the lower-cased username, then the
// display name with spaces replaced by underscores, then "id_<user id>".
// The result depends only on the identity fields, so repeated calls agree.
func (i Identity) Key() string {
	if u := strings.TrimSpace(i.Username); u != "" {
		return strings.ToLower(u)
	}
	if name := i.fullName(); name != "" {
		return strings.ReplaceAll(name, " ", "_")
	}
	return "id_" + strconv.FormatInt(i.UserID, 10)
}

// DisplayName is the name shown in logs: the username if set, else the full name.
func (i Identity) DisplayName() string {
	if u := strings.TrimSpace(i.Username); u != "" {
		return u
	}
	return i.fullName()
}

func (i Identity) fullName() string {
	name := strings.TrimSpace(i.FirstName)
	if last := strings.TrimSpace(i.LastName); last != "" {
		name = strings.TrimSpace(name + " " + last)
	}
	return name
}
