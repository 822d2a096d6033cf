package voucher

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourbook/internal/models"
)

func TestPNGForPaidOrder(t *testing.T) {
	g, err := NewGenerator("voucher-secret")
	require.NoError(t, err)

	img, err := g.PNG(&models.Order{ID: "o-1", UserID: "u-1", TourID: "japan-classic", TravelersCount: 2, Status: models.StatusDepositPaid})
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, 256, decoded.Bounds().Dx())
}

func TestPNGRefusesUnpaidOrder(t *testing.T) {
	g, err := NewGenerator("voucher-secret")
	require.NoError(t, err)

	_, err = g.PNG(&models.Order{ID: "o-1", Status: models.StatusReadyForDeposit})
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestTokenIsEncryptedAndAuthenticated(t *testing.T) {
	g, err := NewGenerator("voucher-secret")
	require.NoError(t, err)

	token, err := g.Encrypt(Payload{OrderID: "o-1", UserID: "u-1", Travelers: 3})
	require.NoError(t, err)
	assert.NotContains(t, token, "o-1")

	p, err := g.Decrypt(token)
	require.NoError(t, err)
	assert.Equal(t, "o-1", p.OrderID)
	assert.Equal(t, 3, p.Travelers)

	other, err := NewGenerator("different-secret")
	require.NoError(t, err)
	_, err = other.Decrypt(token)
	assert.Error(t, err)
}

func TestNewGeneratorRequiresSecret(t *testing.T) {
	_, err := NewGenerator("")
	assert.Error(t, err)
}
