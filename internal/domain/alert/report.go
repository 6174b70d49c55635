package alert

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// MinPhoneDigits is the shortest accepted phone number.
	MinPhoneDigits = 9
	// MaxPhoneDigits is the longest accepted phone number (E.164).
	MaxPhoneDigits = 15
)

// Coordinates is a GPS position in decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// mapsURLPrefix is the Google Maps search link every alert carries.
const mapsURLPrefix = "https://maps.google.com/?q="

// String renders the position with six decimals, e.g. "38.500000, -0.150000".
func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f, %.6f", c.Latitude, c.Longitude)
}

// Query renders the shortest exact form used in links and the journal, e.g. "38.5,-0.15".
func (c Coordinates) Query() string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

// MapsURL returns a Google Maps link centered on the position.
func (c Coordinates) MapsURL() string {
	return mapsURLPrefix + c.Query()
}

// Report is a lost-person location report.
type Report struct {
	// Name of the person who needs help.
	Name string
	// Phone is the contact number, digits only once normalized.
	Phone string
	// Location is where the person is.
	Location Coordinates
	// ReceivedAt is set by the boundary when the report arrives.
	ReceivedAt time.Time
}

// NewReport normalizes and validates the raw boundary values.
// Nil coordinates mean the field was absent from the request.
func NewReport(name, phone string, lat, lng *float64) (*Report, error) {
	// Collapsing whitespace keeps the journal one line per report.
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "is required"}
	}

	if strings.TrimSpace(phone) == "" {
		return nil, &ValidationError{Field: "phone", Reason: "is required"}
	}

	digits, err := normalizePhone(phone)
	if err != nil {
		return nil, err
	}

	switch {
	case lat == nil:
		return nil, &ValidationError{Field: "location.lat", Reason: "is required"}
	case lng == nil:
		return nil, &ValidationError{Field: "location.lng", Reason: "is required"}
	case *lat < -90 || *lat > 90:
		return nil, &ValidationError{Field: "location.lat", Reason: "must be within [-90, 90]"}
	case *lng < -180 || *lng > 180:
		return nil, &ValidationError{Field: "location.lng", Reason: "must be within [-180, 180]"}
	}

	return &Report{
		Name:  name,
		Phone: digits,
		Location: Coordinates{
			Latitude:  *lat,
			Longitude: *lng,
		},
	}, nil
}

// normalizePhone drops separators and a leading plus sign, then checks the digit count.
func normalizePhone(raw string) (string, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "+")

	var b strings.Builder

	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
			// Separator.
		default:
			return "", &ValidationError{Field: "phone", Reason: fmt.Sprintf("unexpected character %q", r)}
		}
	}

	digits := b.String()
	if len(digits) < MinPhoneDigits || len(digits) > MaxPhoneDigits {
		return "", &ValidationError{
			Field:  "phone",
			Reason: fmt.Sprintf("must have %d-%d digits", MinPhoneDigits, MaxPhoneDigits),
		}
	}

	return digits, nil
}

// CanonicalPhone drops spaces, dashes and a leading plus sign, so
// "+34 641-305-623" and "34641305623" name the same recipient.
func CanonicalPhone(raw string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimPrefix(strings.TrimSpace(raw), "+"))
}

// AuditLine renders the journal entry for the report.
func (r *Report) AuditLine() string {
	return fmt.Sprintf(
		"%s | Name: %s | Phone: %s | Location: %s",
		r.ReceivedAt.UTC().Format(ISOTimestampLayout),
		r.Name,
		r.Phone,
		r.Location.Query(),
	)
}

// ISOTimestampLayout matches JavaScript's Date.toISOString output.
const ISOTimestampLayout = "2006-01-02T15:04:05.000Z07:00"

const (
	// Headline opens every composed alert.
	Headline = "ALERTA: PERSONA PERDIDA"
	// CallToAction closes every composed alert.
	CallToAction = "Por favor, contacta con esta persona lo antes posible para ayudarla."
)
