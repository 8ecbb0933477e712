package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

const secretsTimeout = 10 * time.Second

// fetchSecret is a seam for tests.
var fetchSecret = func(ctx context.Context, secretID, region string) (string, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return "", err
	}

	out, err := secretsmanager.NewFromConfig(cfg).GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", err
	}

	switch {
	case out.SecretString != nil:
		return *out.SecretString, nil
	case len(out.SecretBinary) > 0:
		return string(out.SecretBinary), nil
	default:
		return "", fmt.Errorf("secret %s has no payload", secretID)
	}
}

// parseSecrets overlays keys from the JSON secret named by AWS_SECRET_ID.
// The secret uses the same keys as the environment (JWT_SECRET,
// DATABASE_URL, ...). Without AWS_SECRET_ID nothing happens; a configured
// secret that cannot be read panics.
func parseSecrets(config *Config) {
	secretID := os.Getenv("AWS_SECRET_ID")
	if secretID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), secretsTimeout)
	defer cancel()

	payload, err := fetchSecret(ctx, secretID, os.Getenv("AWS_SECRETS_MANAGER_REGION"))
	if err != nil {
		panic(fmt.Errorf("fetching secret %s: %w", secretID, err))
	}

	var kv map[string]any
	if err := json.Unmarshal([]byte(payload), &kv); err != nil {
		panic(fmt.Errorf("parsing secret %s as JSON: %w", secretID, err))
	}

	lookup := func(key string) (string, bool) {
		v, ok := kv[key]
		if !ok || v == nil {
			return "", false
		}
		return fmt.Sprint(v), true
	}

	if err := applyEnv(config, lookup); err != nil {
		panic(fmt.Errorf("applying secret %s: %w", secretID, err))
	}
}
