package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codecs(t *testing.T) map[string]TokenService {
	t.Helper()

	p, err := NewPasetoService(testKey)
	require.NoError(t, err)

	j, err := NewJWTService(append(append([]byte{}, testKey...), testKey...))
	require.NoError(t, err)

	return map[string]TokenService{"paseto": p, "jwt": j}
}

func TestCodec_RoundTrip(t *testing.T) {
	for name, codec := range codecs(t) {
		t.Run(name, func(t *testing.T) {
			id := uuid.New()

			tok, err := codec.CreateToken(id, "a@b.com", TokenKindAccess, time.Minute)
			require.NoError(t, err)

			claims, err := codec.VerifyToken(tok, TokenKindAccess)
			require.NoError(t, err)
			assert.Equal(t, id.String(), claims.UserID)
			assert.Equal(t, "a@b.com", claims.Email)
			assert.Equal(t, TokenKindAccess, claims.Kind)
			assert.WithinDuration(t, time.Now().Add(time.Minute), claims.ExpiresAt, 2*time.Second)
		})
	}
}

func TestCodec_WrongKind(t *testing.T) {
	for name, codec := range codecs(t) {
		t.Run(name, func(t *testing.T) {
			tok, err := codec.CreateToken(uuid.New(), "a@b.com", TokenKindRefresh, time.Minute)
			require.NoError(t, err)

			_, err = codec.VerifyToken(tok, TokenKindAccess)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestCodec_Expired(t *testing.T) {
	for name, codec := range codecs(t) {
		t.Run(name, func(t *testing.T) {
			tok, err := codec.CreateToken(uuid.New(), "a@b.com", TokenKindAccess, -time.Minute)
			require.NoError(t, err)

			_, err = codec.VerifyToken(tok, TokenKindAccess)
			assert.ErrorIs(t, err, ErrExpiredToken)
		})
	}
}

func TestCodec_Tampered(t *testing.T) {
	for name, codec := range codecs(t) {
		t.Run(name, func(t *testing.T) {
			tok, err := codec.CreateToken(uuid.New(), "a@b.com", TokenKindAccess, time.Minute)
			require.NoError(t, err)

			// flip a character inside the signature/tag, away from the padding bits
			i := len(tok) - 10
			replacement := byte('A')
			if tok[i] == 'A' {
				replacement = 'B'
			}
			tampered := tok[:i] + string(replacement) + tok[i+1:]

			_, err = codec.VerifyToken(tampered, TokenKindAccess)
			assert.ErrorIs(t, err, ErrInvalidToken)

			_, err = codec.VerifyToken("garbage", TokenKindAccess)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestCodec_ForeignKey(t *testing.T) {
	other, err := NewPasetoService([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)
	tok, err := other.CreateToken(uuid.New(), "a@b.com", TokenKindAccess, time.Minute)
	require.NoError(t, err)

	mine, err := NewPasetoService(testKey)
	require.NoError(t, err)

	_, err = mine.VerifyToken(tok, TokenKindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewCodec_KeyLength(t *testing.T) {
	_, err := NewPasetoService([]byte("short"))
	assert.Error(t, err)

	_, err = NewJWTService([]byte("short"))
	assert.Error(t, err)
}
