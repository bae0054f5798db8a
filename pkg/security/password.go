package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/angelmondragon/tableorder-backend/pkg/config"
)

// Keypad-friendly: no 0/O, 1/I/L.
const tempPasswordAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

var ErrInvalidHash = errors.New("invalid password hash")

// ArgonParams are the Argon2id costs recorded in every PHC string.
type ArgonParams struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// phcHash is a decoded "$argon2id$v=19$m=..,t=..,p=..$salt$key" string.
type phcHash struct {
	params ArgonParams
	salt   []byte
	key    []byte
}

func (h phcHash) String() string {
	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Time, h.params.Parallelism,
		b64.EncodeToString(h.salt), b64.EncodeToString(h.key))
}

func parsePHC(encoded string) (phcHash, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return phcHash{}, ErrInvalidHash
	}
	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return phcHash{}, ErrInvalidHash
	}
	var h phcHash
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &h.params.Memory, &h.params.Time, &h.params.Parallelism); err != nil {
		return phcHash{}, ErrInvalidHash
	}
	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(fields[4]); err != nil {
		return phcHash{}, ErrInvalidHash
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(fields[5]); err != nil || len(h.key) == 0 {
		return phcHash{}, ErrInvalidHash
	}
	h.params.SaltLen = uint32(len(h.salt))
	h.params.KeyLen = uint32(len(h.key))
	return h, nil
}

// HashPassword derives an Argon2id PHC string using cfg's costs.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	h := phcHash{params: paramsFromConfig(cfg)}
	h.salt = make([]byte, h.params.SaltLen)
	if _, err := rand.Read(h.salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	h.key = derive(password, h.salt, h.params)
	return h.String(), nil
}

// VerifyPassword compares password against an Argon2id or legacy bcrypt
// hash in constant time.
func VerifyPassword(password, encoded string) (bool, error) {
	if isBcrypt(encoded) {
		switch err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)); {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, ErrInvalidHash
		}
	}
	h, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(h.key, derive(password, h.salt, h.params)) == 1, nil
}

// NeedsRehash is true for bcrypt hashes, unparseable hashes and Argon2id
// hashes whose costs differ from cfg.
func NeedsRehash(encoded string, cfg config.PasswordConfig) bool {
	if isBcrypt(encoded) {
		return true
	}
	h, err := parsePHC(encoded)
	if err != nil {
		return true
	}
	want := paramsFromConfig(cfg)
	return h.params.Memory != want.Memory || h.params.Time != want.Time || h.params.Parallelism != want.Parallelism
}

func derive(password string, salt []byte, p ArgonParams) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
}

func isBcrypt(encoded string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(encoded, prefix) {
			return true
		}
	}
	return false
}

func paramsFromConfig(cfg config.PasswordConfig) ArgonParams {
	return ArgonParams{
		Memory:      uint32(clamp(cfg.ArgonMemoryKB, 8, 512*1024)),
		Time:        uint32(clamp(cfg.ArgonTime, 1, 10)),
		Parallelism: uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		SaltLen:     uint32(clamp(cfg.ArgonSaltLen, 8, 64)),
		KeyLen:      uint32(clamp(cfg.ArgonKeyLen, 16, 64)),
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// GenerateTempPassword returns length characters drawn uniformly from a
// keypad-friendly alphabet.
func GenerateTempPassword(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("length must be positive")
	}
	limit := big.NewInt(int64(len(tempPasswordAlphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("random index: %w", err)
		}
		b.WriteByte(tempPasswordAlphabet[n.Int64()])
	}
	return b.String(), nil
}
