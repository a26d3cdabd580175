package recording

import (
	"crypto/rand"
	"fmt"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"

	"huddle/domain"
)

// Keyring holds one symmetric key per room, created on first use.
// Keys live in memory only: a sealed entry outlives the process but
// its key does not, which keeps recordings unreadable at rest.
type Keyring struct {
	mu   sync.Mutex
	keys map[domain.RoomID][]byte
}

func NewKeyring() *Keyring {
	return &Keyring{keys: make(map[domain.RoomID][]byte)}
}

func (k *Keyring) keyFor(room domain.RoomID) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if key, ok := k.keys[room]; ok {
		return key, nil
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	k.keys[room] = key
	return key, nil
}

// Seal encrypts plain with the room key. The random nonce is prefixed
// to the ciphertext so Open needs nothing but the sealed bytes.
func (k *Keyring) Seal(room domain.RoomID, plain []byte) ([]byte, error) {
	key, err := k.keyFor(room)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	// 1. Generate a random nonce
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	// 2. Seal and prefix the nonce for later opening
	return aead.Seal(nonce, nonce, plain, nil), nil
}

// Open decrypts a sealed entry produced by Seal with the same room key.
func (k *Keyring) Open(room domain.RoomID, sealed []byte) ([]byte, error) {
	key, err := k.keyFor(room)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("sealed entry too short: %d bytes", len(sealed))
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, nil)
}

// Forget drops the room key, typically once its room retired.
func (k *Keyring) Forget(room domain.RoomID) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.keys, room)
}
