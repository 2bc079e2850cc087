// Package tablelink builds and parses the per-table links printed on QR codes.
package tablelink

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"
)

const (
	ParamSession    = "session"
	ParamTable      = "table"
	ParamRestaurant = "restaurant"

	menuPath       = "/menu"
	DefaultQRSize  = 256
	maxQRSize      = 1024
	minTableNumber = 1
)

// Link carries the identity parameters a diner's browser arrives with. Zero
// fields were absent from the URL.
type Link struct {
	RestaurantID int64
	TableNumber  int
	SessionID    string
}

// HasTable reports whether the link names a restaurant table (a fresh scan).
func (l Link) HasTable() bool {
	return l.RestaurantID > 0 && l.TableNumber >= minTableNumber
}

// IsEmpty reports whether no identity parameter was present.
func (l Link) IsEmpty() bool {
	return l.RestaurantID == 0 && l.TableNumber == 0 && l.SessionID == ""
}

// Build renders the menu URL for l under baseURL.
func Build(baseURL string, l Link) (string, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if !l.HasTable() {
		return "", fmt.Errorf("link requires restaurant and table number >= %d", minTableNumber)
	}
	base.Path += menuPath
	q := url.Values{}
	q.Set(ParamRestaurant, strconv.FormatInt(l.RestaurantID, 10))
	q.Set(ParamTable, strconv.Itoa(l.TableNumber))
	if l.SessionID != "" {
		q.Set(ParamSession, l.SessionID)
	}
	base.RawQuery = q.Encode()
	return base.String(), nil
}

// Parse reads identity parameters from a full URL or a bare query string.
func Parse(raw string) (Link, error) {
	query := raw
	if u, err := url.Parse(raw); err == nil && (u.Scheme != "" || u.RawQuery != "") {
		query = u.RawQuery
	}
	values, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return Link{}, fmt.Errorf("parse link query: %w", err)
	}
	return FromValues(values)
}

// FromValues reads identity parameters from parsed query values.
func FromValues(values url.Values) (Link, error) {
	var l Link
	l.SessionID = strings.TrimSpace(values.Get(ParamSession))

	if raw := strings.TrimSpace(values.Get(ParamRestaurant)); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			return Link{}, fmt.Errorf("invalid restaurant %q", raw)
		}
		l.RestaurantID = id
	}
	if raw := strings.TrimSpace(values.Get(ParamTable)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minTableNumber {
			return Link{}, fmt.Errorf("invalid table %q", raw)
		}
		l.TableNumber = n
	}
	return l, nil
}

// QRCode renders the table link as a PNG.
func QRCode(baseURL string, l Link, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}
	link, err := Build(baseURL, l)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
