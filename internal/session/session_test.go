package session

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123")

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestStore_CreateGetDelete(t *testing.T) {
	s := NewStore(time.Hour)

	sess := s.Create(7, "alice")
	require.NotEmpty(t, sess.ID)

	got, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(7), got.UserID)
	assert.Equal(t, "alice", got.Username)

	s.Delete(sess.ID)
	_, err = s.Get(sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UniqueIDs(t *testing.T) {
	s := NewStore(time.Hour)
	assert.NotEqual(t, s.Create(1, "a").ID, s.Create(1, "a").ID)
}

func TestStore_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 4, 3, 0, 0, 0, time.UTC)}
	s := NewStore(time.Hour)
	s.now = clock.now

	sess := s.Create(1, "alice")
	clock.advance(59 * time.Minute)
	_, err := s.Get(sess.ID)
	require.NoError(t, err)

	clock.advance(time.Minute)
	_, err = s.Get(sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, s.Len(), "expired session is dropped on read")
}

func TestStore_Sweep(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 4, 3, 0, 0, 0, time.UTC)}
	s := NewStore(time.Hour)
	s.now = clock.now

	s.Create(1, "alice")
	s.Create(2, "bob")
	clock.advance(30 * time.Minute)
	live := s.Create(3, "carol")
	clock.advance(45 * time.Minute)

	assert.Equal(t, 2, s.Sweep())
	assert.Equal(t, 1, s.Len())
	_, err := s.Get(live.ID)
	assert.NoError(t, err)
}

func TestNewStore_DefaultTTL(t *testing.T) {
	assert.Equal(t, 24*time.Hour, NewStore(0).TTL())
}

func TestCodec_RoundTrip(t *testing.T) {
	c, err := NewCodec(testSecret)
	require.NoError(t, err)
	sess := NewStore(time.Hour).Create(1, "alice")

	token, err := c.Encode(sess)
	require.NoError(t, err)

	id, err := c.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, id)
}

func TestCodec_RejectsTampered(t *testing.T) {
	c, err := NewCodec(testSecret)
	require.NoError(t, err)
	token, err := c.Encode(NewStore(time.Hour).Create(1, "alice"))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = c.Decode(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_RejectsOtherSecret(t *testing.T) {
	c1, err := NewCodec(testSecret)
	require.NoError(t, err)
	c2, err := NewCodec([]byte("another-secret-of-length"))
	require.NoError(t, err)

	token, err := c1.Encode(NewStore(time.Hour).Create(1, "alice"))
	require.NoError(t, err)

	_, err = c2.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_RejectsExpired(t *testing.T) {
	c, err := NewCodec(testSecret)
	require.NoError(t, err)
	sess := NewStore(time.Hour).Create(1, "alice")
	token, err := c.Encode(sess)
	require.NoError(t, err)

	c.now = func() time.Time { return sess.ExpiresAt.Add(time.Minute) }
	_, err = c.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_RejectsNoneAlgorithm(t *testing.T) {
	c, err := NewCodec(testSecret)
	require.NoError(t, err)

	claims := jwt.RegisteredClaims{
		ID:        "abc",
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = c.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_RejectsGarbage(t *testing.T) {
	c, err := NewCodec(testSecret)
	require.NoError(t, err)

	_, err = c.Decode("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewCodec_ShortSecret(t *testing.T) {
	_, err := NewCodec([]byte("short"))
	assert.Error(t, err)
}
