package githubapp

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/navikt/deployment-cli/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) (*rsa.PrivateKey, []byte, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der := x509.MarshalPKCS1PrivateKey(key)
	pemText := string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}))
	return key, der, pemText
}

func TestNormalizeKey_FormatAgnostic(t *testing.T) {
	_, der, pemText := generateKey(t)
	windows := strings.ReplaceAll(pemText, "\n", "\r\n")

	inputs := map[string][]byte{
		"der":              der,
		"unix newlines":    []byte(pemText),
		"windows newlines": []byte(windows),
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			got, err := NormalizeKey(input)
			require.NoError(t, err)
			assert.Equal(t, der, got)

			again, err := NormalizeKey(got)
			require.NoError(t, err)
			assert.Equal(t, der, again)
		})
	}
}

func TestNormalizeKey_PassThrough(t *testing.T) {
	raw := []byte("not a pem key")
	got, err := NormalizeKey(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	invalidUTF8 := []byte{0xff, 0xfe, 0x30}
	got, err = NormalizeKey(invalidUTF8)
	require.NoError(t, err)
	assert.Equal(t, invalidUTF8, got)
}

func TestNormalizeKey_Truncated(t *testing.T) {
	_, err := NormalizeKey([]byte(pemHeader + "\n"))
	assert.Error(t, err)
}

func TestLoadKey(t *testing.T) {
	_, der, pemText := generateKey(t)

	path := filepath.Join(t.TempDir(), "testkey_windows_newlines")
	require.NoError(t, os.WriteFile(path, []byte(strings.ReplaceAll(pemText, "\n", "\r\n")), 0o600))

	fromFile, err := LoadKey(path, "")
	require.NoError(t, err)
	assert.Equal(t, der, fromFile)

	fromBase64, err := LoadKey("", base64.StdEncoding.EncodeToString([]byte(pemText))+"\n")
	require.NoError(t, err)
	assert.Equal(t, der, fromBase64)

	_, err = LoadKey("", "")
	assert.ErrorIs(t, err, ErrMissingKey)

	_, err = LoadKey(filepath.Join(t.TempDir(), "missing"), "")
	assert.Error(t, err)

	_, err = LoadKey("", "%%% not base64")
	assert.Error(t, err)
}

func TestSignAssertion_RoundTrip(t *testing.T) {
	key, der, _ := generateKey(t)

	signed, err := SignAssertion("abcd", der, time.Now())
	require.NoError(t, err)

	token, err := jwt.ParseWithClaims(signed, &Claims{}, func(_ *jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"RS256"}), jwt.WithExpirationRequired())
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(*Claims)
	require.True(t, ok)
	assert.Equal(t, "abcd", claims.Issuer)
	assert.Equal(t, int64(300), claims.ExpiresAt.Unix()-claims.IssuedAt.Unix())
}

func TestSignAssertion_PKCS8(t *testing.T) {
	key, _, _ := generateKey(t)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	_, err = SignAssertion("abcd", der, time.Now())
	assert.NoError(t, err)
}

func TestSignAssertion_MalformedKey(t *testing.T) {
	_, err := SignAssertion("abcd", []byte("garbage"), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate JWT")
}

type fakeAppsAPI struct {
	installations    []models.Installation
	installationsErr error
	token            *models.InstallationToken
	tokenErr         error

	assertions      []string
	tokenRequestFor uint64
}

func (f *fakeAppsAPI) FetchInstallations(_ context.Context, jwt string) ([]models.Installation, error) {
	f.assertions = append(f.assertions, jwt)
	return f.installations, f.installationsErr
}

func (f *fakeAppsAPI) FetchInstallationToken(_ context.Context, installationID uint64, jwt string) (*models.InstallationToken, error) {
	f.assertions = append(f.assertions, jwt)
	f.tokenRequestFor = installationID
	return f.token, f.tokenErr
}

func TestExchanger_InstallationToken(t *testing.T) {
	_, der, _ := generateKey(t)
	api := &fakeAppsAPI{
		installations: []models.Installation{
			{ID: 7, Account: models.Account{Login: "NAVIKT"}},
			{ID: 123, Account: models.Account{Login: "navikt"}},
			{ID: 9, Account: models.Account{Login: "navikt"}},
		},
		token: &models.InstallationToken{Token: "abcde", ExpiresAt: "2016-07-11T22:14:10Z"},
	}

	token, err := NewExchanger(api, nil).InstallationToken(context.Background(), "1234", der, "navikt")
	require.NoError(t, err)
	assert.Equal(t, "abcde", token.Token)
	assert.Equal(t, uint64(123), api.tokenRequestFor)

	require.Len(t, api.assertions, 2)
	assert.Equal(t, api.assertions[0], api.assertions[1])
}

func TestExchanger_AccountNotFound(t *testing.T) {
	_, der, _ := generateKey(t)
	api := &fakeAppsAPI{
		installations: []models.Installation{{ID: 1, Account: models.Account{Login: "other"}}},
	}

	_, err := NewExchanger(api, nil).InstallationToken(context.Background(), "1234", der, "navikt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInstallationNotFound))
	assert.Contains(t, err.Error(), "navikt")
	assert.Zero(t, api.tokenRequestFor)
}

func TestExchanger_StepFailures(t *testing.T) {
	_, der, _ := generateKey(t)
	boom := errors.New("boom")

	t.Run("installations", func(t *testing.T) {
		api := &fakeAppsAPI{installationsErr: boom}
		_, err := NewExchanger(api, nil).InstallationToken(context.Background(), "1234", der, "navikt")
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "failed to fetch installations")
	})

	t.Run("token", func(t *testing.T) {
		api := &fakeAppsAPI{
			installations: []models.Installation{{ID: 1, Account: models.Account{Login: "navikt"}}},
			tokenErr:      boom,
		}
		_, err := NewExchanger(api, nil).InstallationToken(context.Background(), "1234", der, "navikt")
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "failed to fetch installation token")
	})

	t.Run("signing", func(t *testing.T) {
		api := &fakeAppsAPI{}
		_, err := NewExchanger(api, nil).InstallationToken(context.Background(), "1234", []byte("bad"), "navikt")
		require.Error(t, err)
		assert.Empty(t, api.assertions)
	})
}
