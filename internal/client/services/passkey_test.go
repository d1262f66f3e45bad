package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cipherdesk/cipherdesk/internal/common"
	"github.com/cipherdesk/cipherdesk/internal/cryptox"
	"github.com/cipherdesk/cipherdesk/internal/session"
	"github.com/cipherdesk/cipherdesk/internal/webauthn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPasskeyFixture(t *testing.T) (*PasskeyService, *fakeStore, *webauthn.SoftAuthenticator, *session.Session) {
	t.Helper()
	store := newFakeStore()
	authn := webauthn.NewSoftAuthenticator()
	sess := session.New(session.Config{})
	svc := NewPasskeyService(store, authn, sess, testLogger())
	return svc, store, authn, sess
}

func TestRegisterFirstPasskey_UnlocksSession(t *testing.T) {
	svc, store, _, sess := newPasskeyFixture(t)
	ctx := context.Background()

	res, err := svc.RegisterFirstPasskey(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, res.OK)
	require.NotEmpty(t, res.CredentialID)

	assert.True(t, sess.IsUnlocked())
	assert.Len(t, store.wrappedKeys, 1)
	assert.Len(t, store.prfParams, 1)
}

func TestRegisterFirstPasskey_SecondRegistrationRefused(t *testing.T) {
	svc, _, _, _ := newPasskeyFixture(t)
	ctx := context.Background()

	_, err := svc.RegisterFirstPasskey(ctx, "user-1")
	require.NoError(t, err)

	_, err = svc.RegisterFirstPasskey(ctx, "user-1")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestRegisterFirstPasskey_Cancelled(t *testing.T) {
	svc, store, authn, sess := newPasskeyFixture(t)

	authn.CancelNext = true
	res, err := svc.RegisterFirstPasskey(context.Background(), "user-1")
	require.NoError(t, err, "user cancellation is not an error")
	assert.False(t, res.OK)
	assert.False(t, sess.IsUnlocked())
	assert.Empty(t, store.wrappedKeys)
}

func TestRegisterFirstPasskey_PRFUnsupported(t *testing.T) {
	svc, _, authn, _ := newPasskeyFixture(t)

	authn.PRFDisabled = true
	_, err := svc.RegisterFirstPasskey(context.Background(), "user-1")
	assert.ErrorIs(t, err, common.ErrPRFUnsupported, "must be distinguishable so the UI can fall back")
}

func TestRegisterFirstPasskey_PersistenceFailureLeavesNothingEnrolled(t *testing.T) {
	svc, store, _, sess := newPasskeyFixture(t)
	store.putWrappedKeyErr = errors.New("disk full")

	_, err := svc.RegisterFirstPasskey(context.Background(), "user-1")
	require.Error(t, err)

	assert.False(t, sess.IsUnlocked(), "a failed persist must not leave an unlocked session")
	assert.Empty(t, store.wrappedKeys)
}

func TestUnlockWithPasskey_RoundTrip(t *testing.T) {
	svc, _, _, sess := newPasskeyFixture(t)
	ctx := context.Background()

	res, err := svc.RegisterFirstPasskey(ctx, "user-1")
	require.NoError(t, err)

	keyBefore, err := sess.MasterKey()
	require.NoError(t, err)

	svc.Lock()
	require.False(t, sess.IsUnlocked())

	ok, err := svc.UnlockWithPasskey(ctx, res.CredentialID)
	require.NoError(t, err)
	require.True(t, ok)

	keyAfter, err := sess.MasterKey()
	require.NoError(t, err)
	assert.Equal(t, keyBefore, keyAfter, "unlock must restore the identical master key")
}

func TestUnlockWithPasskey_UnknownCredential(t *testing.T) {
	svc, _, _, sess := newPasskeyFixture(t)
	ctx := context.Background()

	res, err := svc.RegisterFirstPasskey(ctx, "user-1")
	require.NoError(t, err)
	_ = res
	svc.Lock()

	ok, err := svc.UnlockWithPasskey(ctx, "never-enrolled")
	require.Error(t, err, "missing keyring rows are a systemic failure")
	assert.False(t, ok)
	assert.False(t, sess.IsUnlocked())
}

func TestUnlockWithPasskey_Cancelled(t *testing.T) {
	svc, _, authn, sess := newPasskeyFixture(t)
	ctx := context.Background()

	res, err := svc.RegisterFirstPasskey(ctx, "user-1")
	require.NoError(t, err)
	svc.Lock()

	authn.CancelNext = true
	ok, err := svc.UnlockWithPasskey(ctx, res.CredentialID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, sess.IsUnlocked())
}

func TestUnlockWithPasskey_CorruptedWrappedKey(t *testing.T) {
	svc, store, _, sess := newPasskeyFixture(t)
	ctx := context.Background()

	res, err := svc.RegisterFirstPasskey(ctx, "user-1")
	require.NoError(t, err)
	svc.Lock()

	// corrupt the stored record; unwrap must fail closed as "try another
	// passkey", not as garbage key material
	w := store.wrappedKeys[res.CredentialID]
	w.Ciphertext = "AAAA" + w.Ciphertext[4:]

	ok, err := svc.UnlockWithPasskey(ctx, res.CredentialID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, sess.IsUnlocked())
}

func TestEnrollAdditionalPasskey_RequiresUnlocked(t *testing.T) {
	svc, _, _, _ := newPasskeyFixture(t)
	ctx := context.Background()

	res, err := svc.RegisterFirstPasskey(ctx, "user-1")
	require.NoError(t, err)
	_ = res
	svc.Lock()

	_, err = svc.EnrollAdditionalPasskey(ctx, "user-1")
	assert.ErrorIs(t, err, common.ErrSessionLocked)
}

func TestMultiPasskey_EndToEnd(t *testing.T) {
	svc, store, _, sess := newPasskeyFixture(t)
	ctx := context.Background()

	// register passkey A and encrypt data under the session key
	resA, err := svc.RegisterFirstPasskey(ctx, "user-1")
	require.NoError(t, err)

	masterKey, err := sess.MasterKey()
	require.NoError(t, err)
	secret, err := cryptox.EncryptField(map[string]string{"note": "pre-B data"}, masterKey)
	require.NoError(t, err)

	// enroll passkey B while unlocked
	resB, err := svc.EnrollAdditionalPasskey(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, resB.OK)
	require.NotEqual(t, resA.CredentialID, resB.CredentialID)
	assert.Len(t, store.wrappedKeys, 2)

	// lock, then unlock with B alone
	svc.Lock()
	ok, err := svc.UnlockWithPasskey(ctx, resB.CredentialID)
	require.NoError(t, err)
	require.True(t, ok)

	// data encrypted before B existed decrypts: both passkeys wrap the
	// identical master key
	keyViaB, err := sess.MasterKey()
	require.NoError(t, err)
	var out map[string]string
	require.NoError(t, cryptox.DecryptField(secret, keyViaB, &out))
	assert.Equal(t, "pre-B data", out["note"])
}

func TestConcurrentUnlock_SingleCeremony(t *testing.T) {
	store := newFakeStore()
	sess := session.New(session.Config{})

	countingAuthn := &countingAuthenticator{inner: webauthn.NewSoftAuthenticator()}
	svc := NewPasskeyService(store, countingAuthn, sess, testLogger())
	ctx := context.Background()

	res, err := svc.RegisterFirstPasskey(ctx, "user-1")
	require.NoError(t, err)
	svc.Lock()
	countingAuthn.asserts.Store(0)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := svc.UnlockWithPasskey(ctx, res.CredentialID)
			require.NoError(t, err)
			results[i] = ok
		}(i)
	}
	wg.Wait()

	for i, ok := range results {
		assert.True(t, ok, "caller %d must observe the shared outcome", i)
	}
	assert.LessOrEqual(t, countingAuthn.asserts.Load(), int64(1), "ceremonies must not run concurrently per user")
}

type countingAuthenticator struct {
	inner   *webauthn.SoftAuthenticator
	asserts atomic.Int64
}

func (c *countingAuthenticator) Register(ctx context.Context, userID string, salt []byte) (string, webauthn.CeremonyResult, error) {
	return c.inner.Register(ctx, userID, salt)
}

func (c *countingAuthenticator) Assert(ctx context.Context, credentialID string, salt []byte) (webauthn.CeremonyResult, error) {
	c.asserts.Add(1)
	return c.inner.Assert(ctx, credentialID, salt)
}

func TestPassphraseFallback_EndToEnd(t *testing.T) {
	svc, _, _, sess := newPasskeyFixture(t)
	ctx := context.Background()

	res, err := svc.EnrollPassphrase(ctx, []byte("correct horse battery staple"))
	require.NoError(t, err)
	require.True(t, res.OK)
	require.True(t, sess.IsUnlocked())

	keyBefore, err := sess.MasterKey()
	require.NoError(t, err)

	svc.Lock()

	// wrong passphrase: recoverable false, not an error
	ok, err := svc.UnlockWithPassphrase(ctx, res.CredentialID, []byte("wrong"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.UnlockWithPassphrase(ctx, res.CredentialID, []byte("correct horse battery staple"))
	require.NoError(t, err)
	require.True(t, ok)

	keyAfter, err := sess.MasterKey()
	require.NoError(t, err)
	assert.Equal(t, keyBefore, keyAfter)
}

func TestRevokePasskey(t *testing.T) {
	svc, store, _, _ := newPasskeyFixture(t)
	ctx := context.Background()

	resA, err := svc.RegisterFirstPasskey(ctx, "user-1")
	require.NoError(t, err)

	// the only credential cannot be revoked
	err = svc.RevokePasskey(ctx, resA.CredentialID)
	assert.ErrorIs(t, err, common.ErrLastCredential)

	resB, err := svc.EnrollAdditionalPasskey(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, svc.RevokePasskey(ctx, resA.CredentialID))
	assert.Len(t, store.wrappedKeys, 1)

	// the revoked credential can no longer unlock
	svc.Lock()
	_, err = svc.UnlockWithPasskey(ctx, resA.CredentialID)
	assert.Error(t, err)

	ok, err := svc.UnlockWithPasskey(ctx, resB.CredentialID)
	require.NoError(t, err)
	assert.True(t, ok)
}
