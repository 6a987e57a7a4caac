package common

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var snowflakeNode *snowflake.Node

func init() {
	rand.Seed(time.Now().UnixNano())
	var err error
	snowflakeNode, err = snowflake.NewNode(int64(rand.Intn(1023)))
	if err != nil {
		panic(err)
	}
}

// UUIDint64 returns a time-ordered int64 identifier.
func UUIDint64() int64 {
	return snowflakeNode.Generate().Int64()
}

// UUID returns the string form of a snowflake identifier.
func UUID() string {
	return snowflakeNode.Generate().String()
}

func Sha256Hash(src string) string {
	h := sha256.New()
	h.Write([]byte(src))
	return hex.EncodeToString(h.Sum(nil))
}

func Sha256HashWithSalt(src string, salt string) string {
	h := sha256.New()
	h.Write([]byte(src + salt))
	return hex.EncodeToString(h.Sum(nil))
}

func GetSecretSalt() string {
	salt := os.Getenv("BREWPOS_SECRET_SALT")
	if salt == "" {
		salt = "brewpos"
	}
	return salt
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FmtMoney renders an amount with two decimals for receipts and reports.
func FmtMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
