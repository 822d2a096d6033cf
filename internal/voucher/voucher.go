package voucher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/skip2/go-qrcode"

	"tourbook/internal/models"
)

const qrSize = 256

// Payload is what the QR code carries, encrypted, for the tour operator to
// scan at departure.
type Payload struct {
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	TourID    string    `json:"tourId"`
	Travelers int       `json:"travelers"`
	IssuedAt  time.Time `json:"issuedAt"`
}

type Generator struct {
	aead cipher.AEAD
}

func NewGenerator(secret string) (*Generator, error) {
	if secret == "" {
		return nil, errors.New("voucher secret is empty")
	}
	key := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Generator{aead: aead}, nil
}

// PNG renders the voucher QR code for a paid order.
func (g *Generator) PNG(order *models.Order) ([]byte, error) {
	if !order.Status.Paid() {
		return nil, fmt.Errorf("%w: voucher requires a paid deposit", models.ErrInvalidState)
	}
	token, err := g.Encrypt(Payload{
		OrderID:   order.ID,
		UserID:    order.UserID,
		TourID:    order.TourID,
		Travelers: order.TravelersCount,
		IssuedAt:  time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(token, qrcode.Medium, qrSize)
}

func (g *Generator) Encrypt(p Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, g.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := g.aead.Seal(nonce, nonce, data, nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt; tampered tokens fail authentication.
func (g *Generator) Decrypt(token string) (Payload, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Payload{}, fmt.Errorf("decode voucher: %w", err)
	}
	n := g.aead.NonceSize()
	if len(raw) < n {
		return Payload{}, errors.New("voucher token too short")
	}
	data, err := g.aead.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return Payload{}, fmt.Errorf("open voucher: %w", err)
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, err
	}
	return p, nil
}
