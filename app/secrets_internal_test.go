package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/advdv/bserve"
	"github.com/advdv/bserve/session"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

// mockSecretReader implements SecretReader for testing.
type mockSecretReader struct {
	secrets map[string]string
	err     error
}

func (m *mockSecretReader) GetSecretString(_ context.Context, secretID string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	secret, ok := m.secrets[secretID]
	if !ok {
		return "", errors.Errorf("secret %q not found", secretID)
	}
	return secret, nil
}

// fakeSSM implements SSMParameterAPI over a map.
type fakeSSM struct {
	params    map[string]string
	decrypted bool
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.decrypted = aws.ToBool(in.WithDecryption)

	v, ok := f.params[aws.ToString(in.Name)]
	if !ok {
		return nil, errors.New("ParameterNotFound")
	}
	if v == "" {
		return &ssm.GetParameterOutput{Parameter: &types.Parameter{}}, nil
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String(v)}}, nil
}

func TestRuntime_Secret(t *testing.T) {
	tests := []struct {
		name      string
		secrets   map[string]string
		readerErr error
		secretID  string
		jsonPath  []string
		want      string
		wantErr   string
	}{
		{
			name:     "read raw string secret",
			secrets:  map[string]string{"my-api-key": "secret-key-value"},
			secretID: "my-api-key",
			want:     "secret-key-value",
		},
		{
			name:     "read JSON secret with simple path",
			secrets:  map[string]string{"my-db-creds": `{"database": {"password": "secret123"}}`},
			secretID: "my-db-creds",
			jsonPath: []string{"database.password"},
			want:     "secret123",
		},
		{
			name:     "read JSON secret with nested array",
			secrets:  map[string]string{"my-config": `{"items": [{"name": "first"}, {"name": "second"}]}`},
			secretID: "my-config",
			jsonPath: []string{"items.1.name"},
			want:     "second",
		},
		{
			name:     "path not found in JSON secret",
			secrets:  map[string]string{"my-secret": `{"foo": "bar"}`},
			secretID: "my-secret",
			jsonPath: []string{"missing.path"},
			wantErr:  `secret path "missing.path" not found in secret "my-secret"`,
		},
		{
			name:      "secret reader error",
			secrets:   map[string]string{},
			readerErr: errors.New("AWS error"),
			secretID:  "any-secret",
			wantErr:   "AWS error",
		},
		{
			name:     "too many jsonPath arguments",
			secrets:  map[string]string{"my-secret": `{"foo": "bar"}`},
			secretID: "my-secret",
			jsonPath: []string{"one", "two"},
			wantErr:  "app: Secret accepts at most one jsonPath argument",
		},
		{
			name:     "read numeric value from JSON as string",
			secrets:  map[string]string{"my-config": `{"port": 5432}`},
			secretID: "my-config",
			jsonPath: []string{"port"},
			want:     "5432",
		},
		{
			name:     "empty jsonPath returns raw secret",
			secrets:  map[string]string{"my-secret": `{"foo": "bar"}`},
			secretID: "my-secret",
			jsonPath: []string{""},
			want:     `{"foo": "bar"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := NewRuntime(BaseEnvironment{}, bserve.NewMux(), RuntimeParams{
				SecretReader: &mockSecretReader{secrets: tt.secrets, err: tt.readerErr},
			})

			got, err := rt.Secret(t.Context(), tt.secretID, tt.jsonPath...)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRuntime_SecretWithoutReader(t *testing.T) {
	rt := NewRuntime(BaseEnvironment{}, bserve.NewMux(), RuntimeParams{})

	_, err := rt.Secret(t.Context(), "x")
	require.EqualError(t, err, "app: secret reader not configured")
}

func TestSSMParameterReader(t *testing.T) {
	api := &fakeSSM{params: map[string]string{"/app/key": "s3cr3t", "/app/empty": ""}}
	r := NewSSMParameterReader(api)

	v, err := r.GetSecretString(t.Context(), "/app/key")
	require.NoError(t, err)
	require.Equal(t, "s3cr3t", v)
	require.True(t, api.decrypted)

	_, err = r.GetSecretString(t.Context(), "/app/missing")
	require.EqualError(t, err, `failed to get parameter "/app/missing": ParameterNotFound`)

	_, err = r.GetSecretString(t.Context(), "/app/empty")
	require.EqualError(t, err, `parameter "/app/empty" has no value`)
}

func TestSessionSecret(t *testing.T) {
	readers := SecretReaders{
		SecretsManager: &mockSecretReader{secrets: map[string]string{
			"sm-raw":   "from-sm",
			"sm-json":  `{"session": {"key": "nested"}}`,
			"sm-empty": "",
		}},
		SSM: NewSSMParameterReader(&fakeSSM{params: map[string]string{"/p": "from-ssm"}}),
	}

	for _, tt := range []struct {
		name    string
		cfg     SessionConfig
		want    string
		wantErr string
	}{
		{name: "env", cfg: SessionConfig{SecretSource: "env", Secret: "inline"}, want: "inline"},
		{name: "env unsigned", cfg: SessionConfig{SecretSource: "env"}, want: ""},
		{name: "default source", cfg: SessionConfig{Secret: "inline"}, want: "inline"},
		{name: "secretsmanager", cfg: SessionConfig{SecretSource: "secretsmanager", SecretID: "sm-raw"}, want: "from-sm"},
		{
			name: "secretsmanager json path",
			cfg:  SessionConfig{SecretSource: "secretsmanager", SecretID: "sm-json", SecretPath: "session.key"},
			want: "nested",
		},
		{name: "ssm", cfg: SessionConfig{SecretSource: "ssm", SecretID: "/p"}, want: "from-ssm"},
		{
			name:    "missing id",
			cfg:     SessionConfig{SecretSource: "ssm"},
			wantErr: `BSERVE_SESSION_SECRET_ID is required for secret source "ssm"`,
		},
		{
			name:    "empty secret",
			cfg:     SessionConfig{SecretSource: "secretsmanager", SecretID: "sm-empty"},
			wantErr: `session secret "sm-empty" is empty`,
		},
		{
			name:    "read failure",
			cfg:     SessionConfig{SecretSource: "secretsmanager", SecretID: "nope"},
			wantErr: `read session secret: secret "nope" not found`,
		},
		{
			name:    "unknown source",
			cfg:     SessionConfig{SecretSource: "vault"},
			wantErr: `unsupported BSERVE_SESSION_SECRET_SOURCE: "vault" (supported: env, secretsmanager, ssm)`,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sessionSecret(t.Context(), tt.cfg, readers)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNewSessionCodec(t *testing.T) {
	t.Run("signed", func(t *testing.T) {
		codec, err := NewSessionCodec(BaseEnvironment{Session: SessionConfig{
			CookieName: "sid", Secure: true, SecretSource: "env", Secret: "k",
		}}, SecretReaders{})
		require.NoError(t, err)
		require.Equal(t, "sid", codec.Name())

		sess := session.New()
		sess.Set("user", "bob")
		c, ok := codec.Cookie(sess)
		require.True(t, ok)
		require.True(t, c.Secure)

		sig, data, found := strings.Cut(c.Value, "-")
		require.True(t, found)
		require.Equal(t, "user=bob", data)
		require.Equal(t, session.NewHMACSigner([]byte("k")).Sign(data), sig)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: "forged-user=eve"})
		_, found = codec.Load(req).Get("user")
		require.False(t, found)
	})

	t.Run("unsigned", func(t *testing.T) {
		codec, err := NewSessionCodec(BaseEnvironment{}, SecretReaders{})
		require.NoError(t, err)
		require.Equal(t, session.DefaultCookieName, codec.Name())
		require.Equal(t, map[string]string{"a": "1"}, codec.Parse("a=1").Map())
	})

	t.Run("secret error", func(t *testing.T) {
		_, err := NewSessionCodec(BaseEnvironment{Session: SessionConfig{SecretSource: "ssm"}}, SecretReaders{})
		require.Error(t, err)
	})
}
