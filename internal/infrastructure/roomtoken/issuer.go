package roomtoken

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrBadRequest    = errors.New("roomtoken: room and participant name are required")
	ErrNotConfigured = errors.New("roomtoken: API key and secret are not configured")
)

// DefaultTTL is the validity window of an issued room token.
const DefaultTTL = time.Hour

// VideoGrant is the room permission block embedded in the token.
type VideoGrant struct {
	Room         string `json:"room"`
	RoomJoin     bool   `json:"roomJoin"`
	CanPublish   bool   `json:"canPublish"`
	CanSubscribe bool   `json:"canSubscribe"`
}

// Claims is the payload of a room-access token.
type Claims struct {
	Name  string     `json:"name"`
	Video VideoGrant `json:"video"`
	jwt.RegisteredClaims
}

// Issuer mints signed, time-bounded room access tokens for the media service.
type Issuer struct {
	apiKey    string
	apiSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewIssuer returns an issuer. A non-positive ttl means DefaultTTL. Missing
// credentials are reported on Issue rather than here so the gateway can start
// without a media service.
func NewIssuer(apiKey, apiSecret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{apiKey: strings.TrimSpace(apiKey), apiSecret: []byte(apiSecret), ttl: ttl, now: time.Now}
}

// Issue returns a token allowing participant to join room.
func (i *Issuer) Issue(room, participant string) (string, error) {
	room = strings.TrimSpace(room)
	participant = strings.TrimSpace(participant)
	if room == "" || participant == "" {
		return "", ErrBadRequest
	}
	if i.apiKey == "" || len(i.apiSecret) == 0 {
		return "", ErrNotConfigured
	}

	now := i.now()
	claims := Claims{
		Name: participant,
		Video: VideoGrant{
			Room:         room,
			RoomJoin:     true,
			CanPublish:   true,
			CanSubscribe: true,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.apiKey,
			Subject:   participant,
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.apiSecret)
}
