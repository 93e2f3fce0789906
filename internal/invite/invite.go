// Package invite encodes a profile as a shareable URI and renders it as a
// terminal QR code.
package invite

import (
	"errors"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/matheus3301/chatwave/internal/model"
)

// Scheme is the URI scheme of invite links.
const Scheme = "chatwave"

var ErrInvalid = errors.New("invalid invite")

// Invite identifies the profile to start a conversation with.
type Invite struct {
	ProfileID string
	Username  string
}

// URI returns chatwave://profile/<id>?u=<username>.
func URI(p *model.Profile) string {
	u := url.URL{
		Scheme:   Scheme,
		Host:     "profile",
		Path:     "/" + p.ID,
		RawQuery: url.Values{"u": {p.Username}}.Encode(),
	}
	return u.String()
}

// Parse decodes an invite URI.
func Parse(s string) (Invite, error) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Scheme != Scheme || u.Host != "profile" {
		return Invite{}, ErrInvalid
	}
	id := strings.Trim(u.Path, "/")
	if id == "" || strings.Contains(id, "/") {
		return Invite{}, ErrInvalid
	}
	return Invite{ProfileID: id, Username: u.Query().Get("u")}, nil
}

// Render draws content as a QR code with half-block characters, two
// bitmap rows per line. Each line is prefixed with indent.
func Render(content, indent string) (string, error) {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "", err
	}

	bitmap := qr.Bitmap()
	rows := len(bitmap)
	cols := 0
	if rows > 0 {
		cols = len(bitmap[0])
	}

	var sb strings.Builder
	for y := 0; y < rows; y += 2 {
		sb.WriteString(indent)
		for x := 0; x < cols; x++ {
			top := bitmap[y][x] // true = black module
			bot := false
			if y+1 < rows {
				bot = bitmap[y+1][x]
			}
			switch {
			case top && bot:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bot:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String(), nil
}
