package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LoginField is the body key carrying the login.
const LoginField = "login"

// JSONLoginEncoder posts {"login": ..., <parameters>} as application/json.
// A parameter named "login" is rejected rather than overwritten.
type JSONLoginEncoder struct{}

func (JSONLoginEncoder) ContentType() string {
	return "application/json"
}

func (JSONLoginEncoder) Encode(login string, parameters map[string]string) ([]byte, error) {
	if _, clash := parameters[LoginField]; clash {
		return nil, LoginFieldCollisionError(LoginField)
	}
	payload := make(map[string]string, len(parameters)+1)
	for key, value := range parameters {
		payload[key] = value
	}
	payload[LoginField] = login
	return json.Marshal(payload)
}

var tokenKeys = []string{"token", "access_token", "accessToken"}

func decodeToken(body []byte, now time.Time) (Token, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return Token{}, err
	}
	token := Token{Raw: raw}
	for _, key := range tokenKeys {
		if value := stringValue(raw[key]); value != "" {
			token.AccessToken = value
			break
		}
	}
	if token.AccessToken == "" {
		return Token{}, fmt.Errorf("core: decode token: response has no token field")
	}
	token.RefreshToken = firstString(raw, "refresh_token", "refreshToken")
	token.TokenType = firstString(raw, "token_type", "tokenType")
	if token.TokenType == "" {
		token.TokenType = "Bearer"
	}
	if expiresIn, ok := int64Value(raw["expires_in"]); ok && expiresIn > 0 {
		token.ExpiresIn = expiresIn
		expiresAt := now.Add(time.Duration(expiresIn) * time.Second).UTC()
		token.ExpiresAt = &expiresAt
	}
	if token.ExpiresAt == nil {
		if value := firstString(raw, "expires_at", "expiresAt"); value != "" {
			if parsed, err := time.Parse(time.RFC3339, value); err == nil {
				parsed = parsed.UTC()
				token.ExpiresAt = &parsed
			}
		}
	}
	return token, nil
}

// decodeLogoutStatus treats an empty body as a successful logout.
func decodeLogoutStatus(body []byte) (LogoutStatus, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return LogoutStatus{Success: true, Raw: map[string]any{}}, nil
	}
	raw, err := decodeObject(body)
	if err != nil {
		return LogoutStatus{}, err
	}
	status := LogoutStatus{Success: true, Raw: raw}
	if value, ok := raw["success"].(bool); ok {
		status.Success = value
	}
	if value := firstString(raw, "status"); value != "" {
		switch strings.ToLower(value) {
		case "ok", "success", "logged_out":
		default:
			status.Success = false
		}
		status.Message = value
	}
	if value := firstString(raw, "message"); value != "" {
		status.Message = value
	}
	return status, nil
}

func decodeObject(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("core: decode response: empty body")
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	raw := map[string]any{}
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("core: decode response: %w", err)
	}
	return raw, nil
}

func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if value := stringValue(raw[key]); value != "" {
			return value
		}
	}
	return ""
}

func stringValue(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	default:
		return ""
	}
}

func int64Value(value any) (int64, bool) {
	switch typed := value.(type) {
	case json.Number:
		if parsed, err := typed.Int64(); err == nil {
			return parsed, true
		}
		if parsed, err := typed.Float64(); err == nil {
			return int64(parsed), true
		}
	case string:
		if parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64); err == nil {
			return parsed, true
		}
	case float64:
		return int64(typed), true
	}
	return 0, false
}
