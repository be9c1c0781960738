// Package telegram parses and verifies the init data string that the
// Telegram client hands to an embedded Web App.
package telegram

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	initdata "github.com/telegram-mini-apps/init-data-golang"
)

// ErrNoBotToken is returned by Verify when no bot token is configured;
// without it no init data can be trusted.
var ErrNoBotToken = errors.New("bot token is not configured")

// User is the Telegram account that opened the Web App
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// DisplayName joins first and last name, skipping empty parts
func (u User) DisplayName() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{u.FirstName, u.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// InitData is the decoded init data
type InitData struct {
	QueryID  string
	AuthDate time.Time
	User     *User
}

// Parse decodes init data without checking its signature
func Parse(raw string) (*InitData, error) {
	parsed, err := initdata.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse init data: %w", err)
	}

	data := &InitData{
		QueryID:  parsed.QueryID,
		AuthDate: parsed.AuthDate(),
	}
	if parsed.User.ID != 0 {
		data.User = &User{
			ID:        parsed.User.ID,
			FirstName: parsed.User.FirstName,
			LastName:  parsed.User.LastName,
			Username:  parsed.User.Username,
		}
	}
	return data, nil
}

// Verify checks the init data signature against the bot token and decodes
// it. Init data signed more than maxAge ago is rejected; zero disables the
// age check.
func Verify(raw, botToken string, maxAge time.Duration) (*InitData, error) {
	if botToken == "" {
		return nil, ErrNoBotToken
	}
	if err := initdata.Validate(raw, botToken, maxAge); err != nil {
		return nil, fmt.Errorf("invalid init data: %w", err)
	}
	return Parse(raw)
}

// Sign returns values encoded as init data signed now
func Sign(values url.Values, botToken string) string {
	return SignAt(values, botToken, time.Now())
}

// SignAt returns values encoded as init data with auth_date set to
// authDate and a matching hash
func SignAt(values url.Values, botToken string, authDate time.Time) string {
	payload := make(map[string]string, len(values))
	signed := url.Values{}
	for k := range values {
		if k == "hash" || k == "auth_date" {
			continue
		}
		payload[k] = values.Get(k)
		signed.Set(k, values.Get(k))
	}

	signed.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	signed.Set("hash", initdata.Sign(payload, botToken, authDate))
	return signed.Encode()
}
