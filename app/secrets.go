package app

import (
	"context"
	"time"

	"github.com/advdv/bserve/session"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-secretsmanager-caching-go/v2/secretcache"
	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
	"go.uber.org/fx"
)

// Secret sources understood by BSERVE_SESSION_SECRET_SOURCE.
const (
	SecretSourceEnv            = "env"
	SecretSourceSecretsManager = "secretsmanager"
	SecretSourceSSM            = "ssm"
)

// SecretReader abstracts secret retrieval for testability and flexibility.
type SecretReader interface {
	GetSecretString(ctx context.Context, secretID string) (string, error)
}

// AWSSecretReader implements SecretReader using AWS Secrets Manager caching client.
type AWSSecretReader struct {
	cache *secretcache.Cache
}

// NewAWSSecretReader creates a new AWSSecretReader using the provided AWS config.
func NewAWSSecretReader(cfg aws.Config) (*AWSSecretReader, error) {
	client := secretsmanager.NewFromConfig(cfg)
	cache, err := secretcache.New(
		func(c *secretcache.Cache) {
			c.Client = client
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create secret cache")
	}
	return &AWSSecretReader{cache: cache}, nil
}

// GetSecretString retrieves a secret value from AWS Secrets Manager with caching.
func (r *AWSSecretReader) GetSecretString(ctx context.Context, secretID string) (string, error) {
	secret, err := r.cache.GetSecretStringWithContext(ctx, secretID)
	if err != nil {
		return "", errors.Wrapf(err, "failed to get secret %q", secretID)
	}
	return secret, nil
}

// SSMParameterAPI is the part of the SSM client the parameter reader uses.
type SSMParameterAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMParameterReader implements SecretReader with SSM Parameter Store, decrypting SecureString
// parameters.
type SSMParameterReader struct {
	api SSMParameterAPI
}

// NewSSMParameterReader creates a reader around an SSM client.
func NewSSMParameterReader(api SSMParameterAPI) *SSMParameterReader {
	return &SSMParameterReader{api: api}
}

// GetSecretString reads the named parameter.
func (r *SSMParameterReader) GetSecretString(ctx context.Context, name string) (string, error) {
	out, err := r.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to get parameter %q", name)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", errors.Newf("parameter %q has no value", name)
	}
	return *out.Parameter.Value, nil
}

// secretFromReader retrieves a secret value, optionally extracting a JSON path.
// If jsonPath is provided, the secret is parsed as JSON and the path is extracted.
// If jsonPath is empty, the raw secret string is returned.
func secretFromReader(ctx context.Context, reader SecretReader, secretID string, jsonPath ...string) (string, error) {
	if len(jsonPath) > 1 {
		return "", errors.New("app: Secret accepts at most one jsonPath argument")
	}

	secret, err := reader.GetSecretString(ctx, secretID)
	if err != nil {
		return "", err
	}

	if len(jsonPath) == 0 || jsonPath[0] == "" {
		return secret, nil
	}

	path := jsonPath[0]
	result := gjson.Get(secret, path)
	if !result.Exists() {
		return "", errors.Errorf("secret path %q not found in secret %q", path, secretID)
	}

	return result.String(), nil
}

// SecretReaders holds the readers for each secret source.
type SecretReaders struct {
	fx.In

	SecretsManager SecretReader
	SSM            *SSMParameterReader
}

// sessionSecret resolves the session signing key. An empty key means sessions are not signed.
func sessionSecret(ctx context.Context, cfg SessionConfig, readers SecretReaders) (string, error) {
	var reader SecretReader
	switch cfg.SecretSource {
	case SecretSourceEnv, "":
		return cfg.Secret, nil
	case SecretSourceSecretsManager:
		reader = readers.SecretsManager
	case SecretSourceSSM:
		reader = readers.SSM
	default:
		return "", errors.Newf("unsupported BSERVE_SESSION_SECRET_SOURCE: %q (supported: env, secretsmanager, ssm)",
			cfg.SecretSource)
	}

	if cfg.SecretID == "" {
		return "", errors.Newf("BSERVE_SESSION_SECRET_ID is required for secret source %q", cfg.SecretSource)
	}

	secret, err := secretFromReader(ctx, reader, cfg.SecretID, cfg.SecretPath)
	if err != nil {
		return "", errors.Wrap(err, "read session secret")
	}
	if secret == "" {
		return "", errors.Newf("session secret %q is empty", cfg.SecretID)
	}

	return secret, nil
}

const secretTimeout = 10 * time.Second

// NewSessionCodec builds the session cookie codec from the environment, signing cookies with
// HMAC-SHA1 when a secret is configured.
func NewSessionCodec(env Environment, readers SecretReaders) (*session.Codec, error) {
	ctx, cancel := context.WithTimeout(context.Background(), secretTimeout)
	defer cancel()

	cfg := env.sessionConfig()
	secret, err := sessionSecret(ctx, cfg, readers)
	if err != nil {
		return nil, err
	}

	opts := []session.Option{session.WithSecure(cfg.Secure)}
	if cfg.CookieName != "" {
		opts = append(opts, session.WithCookieName(cfg.CookieName))
	}
	if secret != "" {
		opts = append(opts, session.WithSigner(session.NewHMACSigner([]byte(secret))))
	}

	return session.NewCodec(opts...), nil
}
