package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	HashBcrypt   = "bcrypt"
	HashArgon2id = "argon2id"
)

type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024, // 64 MiB
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// PasswordHasher — односторонний хеш паролей. Verify понимает оба формата
// (bcrypt и argon2id PHC), независимо от того, какой выбран для новых хешей.
type PasswordHasher struct {
	algo       string
	bcryptCost int
	argon      Argon2Params
}

func NewPasswordHasher(algo string, bcryptCost int) *PasswordHasher {
	if algo != HashArgon2id {
		algo = HashBcrypt
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &PasswordHasher{algo: algo, bcryptCost: bcryptCost, argon: DefaultArgon2Params()}
}

// WithArgon2Params — для тестов, где 64 MiB на хеш не нужны.
func (h *PasswordHasher) WithArgon2Params(p Argon2Params) *PasswordHasher {
	h.argon = p
	return h
}

func (h *PasswordHasher) Hash(plain string) (string, error) {
	if h.algo == HashArgon2id {
		return h.hashArgon2(plain)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify никогда не паникует: битый хеш из базы — просто false.
func (h *PasswordHasher) Verify(plain, digest string) bool {
	if strings.HasPrefix(digest, "$argon2id$") {
		return verifyArgon2(plain, digest)
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

// NeedsRehash — хеш сделан другим алгоритмом или с другими параметрами.
func (h *PasswordHasher) NeedsRehash(digest string) bool {
	if h.algo == HashArgon2id {
		p, _, _, err := decodeArgon2(digest)
		if err != nil {
			return true
		}
		return p.Memory != h.argon.Memory || p.Iterations != h.argon.Iterations || p.Parallelism != h.argon.Parallelism
	}
	cost, err := bcrypt.Cost([]byte(digest))
	return err != nil || cost != h.bcryptCost
}

func (h *PasswordHasher) hashArgon2(plain string) (string, error) {
	salt := make([]byte, h.argon.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(plain), salt, h.argon.Iterations, h.argon.Memory, h.argon.Parallelism, h.argon.KeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.argon.Memory, h.argon.Iterations, h.argon.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func verifyArgon2(plain, digest string) bool {
	p, salt, key, err := decodeArgon2(digest)
	if err != nil {
		return false
	}
	other := argon2.IDKey([]byte(plain), salt, p.Iterations, p.Memory, p.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, other) == 1
}

func decodeArgon2(digest string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != HashArgon2id {
		return p, nil, nil, errors.New("invalid argon2 hash format")
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errors.New("unsupported argon2 version")
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, err
	}
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return p, nil, nil, errors.New("invalid argon2 params")
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, err
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, errors.New("invalid argon2 key")
	}
	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))
	return p, salt, key, nil
}
