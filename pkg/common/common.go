package common

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/labstack/gommon/random"
	"golang.org/x/crypto/bcrypt"
)

const (
	NA       = "N/A"
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

// Wire formats for booking dates and slot times.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var snowflakeNode *snowflake.Node

func init() {
	var err error
	snowflakeNode, err = snowflake.NewNode(time.Now().UnixNano() % 1023)
	if err != nil {
		panic(fmt.Sprintf("snowflake node init: %v", err))
	}
}

// UUIDint64 returns a snowflake ID suitable for primary keys.
func UUIDint64() int64 {
	return snowflakeNode.Generate().Int64()
}

// UUID returns a snowflake ID in string form.
func UUID() string {
	return snowflakeNode.Generate().String()
}

// IfEmptyStr returns defval when src is empty.
func IfEmptyStr(src string, defval string) string {
	if strings.TrimSpace(src) == "" {
		return defval
	}
	return src
}

// GetSecretSalt reads the instance salt from the environment, falling back to
// a fixed development value.
func GetSecretSalt() string {
	salt := os.Getenv("BARBERDESK_SECRET_SALT")
	if salt == "" {
		salt = "barberdesk-secret"
	}
	return salt
}

// Sha256HashWithSalt hashes src with the given salt. Used for webhook payload
// signatures, not for account passwords.
func Sha256HashWithSalt(src string, salt string) string {
	h := sha256.New()
	h.Write([]byte(src + salt))
	return hex.EncodeToString(h.Sum(nil))
}

// HashPassword hashes an account password with bcrypt.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword compares a bcrypt hash against a candidate password.
func CheckPassword(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// GenerateOrderNo builds a human readable order number: date prefix plus a
// random uppercase suffix.
func GenerateOrderNo() string {
	return fmt.Sprintf("SO%s%s", time.Now().Format("20060102150405"), random.String(6, random.Uppercase, random.Numeric))
}

// ParseSlot combines a booking date (2006-01-02) and slot time (15:04) into a
// minute precision UTC instant.
func ParseSlot(date, clock string) (time.Time, error) {
	t, err := time.Parse(DateLayout+" "+TimeLayout, date+" "+clock)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// DayRange returns the UTC [start, end) bounds of the day containing t.
func DayRange(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
