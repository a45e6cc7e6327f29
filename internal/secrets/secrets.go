// Package secrets resolves the GitHub token, optionally from AWS Secrets Manager.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/dwsmith1983/workflow-conclusion/internal/config"
)

// ErrEmptySecret is returned when the secret holds no usable token.
var ErrEmptySecret = errors.New("secret holds no token")

// SecretsAPI is the subset of the Secrets Manager client used by Resolve.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, input *secretsmanager.GetSecretValueInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// secretPayload is the JSON shape accepted besides a raw token string.
type secretPayload struct {
	Token string `json:"token"`
}

// Resolve returns token when set. Otherwise it reads secretID; the secret may
// be a raw token or a JSON object {"token": "..."}. A nil client is created
// from the default AWS configuration on first use.
func Resolve(ctx context.Context, token, secretID string, client SecretsAPI) (string, error) {
	if t := strings.TrimSpace(token); t != "" {
		return t, nil
	}
	if secretID == "" {
		return "", config.ErrMissingToken
	}

	if client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return "", fmt.Errorf("loading AWS config: %w", err)
		}
		client = secretsmanager.NewFromConfig(cfg)
	}

	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", fmt.Errorf("reading secret %s: %w", secretID, err)
	}

	raw := strings.TrimSpace(aws.ToString(out.SecretString))
	if strings.HasPrefix(raw, "{") {
		var p secretPayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return "", fmt.Errorf("decoding secret %s: %w", secretID, err)
		}
		raw = strings.TrimSpace(p.Token)
	}
	if raw == "" {
		return "", fmt.Errorf("%s: %w", secretID, ErrEmptySecret)
	}
	return raw, nil
}
