package auth

import (
	"net/url"
	"sort"
	"strings"

	"github.com/goliatone/go-apiclient/core"
)

// FormLoginEncoder posts the login as application/x-www-form-urlencoded.
type FormLoginEncoder struct {
	// LoginField names the form field carrying the login. Defaults to "login".
	LoginField string
}

func (FormLoginEncoder) ContentType() string {
	return "application/x-www-form-urlencoded"
}

func (e FormLoginEncoder) Encode(login string, parameters map[string]string) ([]byte, error) {
	field := strings.TrimSpace(e.LoginField)
	if field == "" {
		field = core.LoginField
	}
	if _, clash := parameters[field]; clash {
		return nil, core.LoginFieldCollisionError(field)
	}
	values := url.Values{}
	values.Set(field, login)
	for _, key := range sortedKeys(parameters) {
		if strings.TrimSpace(key) == "" {
			continue
		}
		values.Set(key, parameters[key])
	}
	return []byte(values.Encode()), nil
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

var _ core.LoginEncoder = FormLoginEncoder{}
