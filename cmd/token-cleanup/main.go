// token-cleanup es una Lambda programada (EventBridge) que purga enlaces de invitación/recuperación
// y refresh tokens que ya no sirven, y publica las filas borradas en CloudWatch.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/thepoolbud/poolbud-api/internal/infrastructure/postgres"
	"github.com/thepoolbud/poolbud-api/pkg/logger"
)

const defaultNamespace = "ThePoolBud/TokenCleanup"

type secretsAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type secretPayload struct {
	DatabaseURL string `json:"DATABASE_URL"`
}

// databaseURL lee DATABASE_URL del secreto JSON indicado por SECRET_ARN.
func databaseURL(ctx context.Context, sm secretsAPI, secretArn string) (string, error) {
	out, err := sm.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(secretArn)})
	if err != nil {
		return "", fmt.Errorf("leer secreto: %w", err)
	}
	var payload secretPayload
	if err := json.Unmarshal([]byte(aws.ToString(out.SecretString)), &payload); err != nil {
		return "", fmt.Errorf("secreto no es JSON: %w", err)
	}
	if payload.DatabaseURL == "" {
		return "", fmt.Errorf("el secreto no trae DATABASE_URL")
	}
	return payload.DatabaseURL, nil
}

// metricData una métrica RowsDeleted por tabla y criterio.
func metricData(r postgres.CleanupResult, now time.Time) []cwtypes.MetricDatum {
	rows := []struct {
		table string
		n     int64
	}{
		{"auth_tokens_used", r.AuthTokensUsed},
		{"auth_tokens_expired", r.AuthTokensExpired},
		{"refresh_tokens_revoked", r.RefreshTokensRevoked},
		{"refresh_tokens_expired", r.RefreshTokensExpired},
	}
	out := make([]cwtypes.MetricDatum, 0, len(rows))
	for _, row := range rows {
		out = append(out, cwtypes.MetricDatum{
			MetricName: aws.String("RowsDeleted"),
			Timestamp:  aws.Time(now),
			Unit:       cwtypes.StandardUnitCount,
			Value:      aws.Float64(float64(row.n)),
			Dimensions: []cwtypes.Dimension{{Name: aws.String("Table"), Value: aws.String(row.table)}},
		})
	}
	return out
}

func envInt(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func handler(ctx context.Context) (postgres.CleanupResult, error) {
	log := logger.New(logger.Config{
		Env:     envString("APP_ENV", "production"),
		Level:   envString("LOG_LEVEL", "info"),
		Service: "token-cleanup",
	})
	var res postgres.CleanupResult

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(envString("AWS_REGION", "us-east-1")))
	if err != nil {
		return res, fmt.Errorf("configuración AWS: %w", err)
	}

	dsn := os.Getenv("DATABASE_URL")
	if arn := os.Getenv("SECRET_ARN"); arn != "" {
		if dsn, err = databaseURL(ctx, secretsmanager.NewFromConfig(awsCfg), arn); err != nil {
			return res, err
		}
	}
	if dsn == "" {
		return res, fmt.Errorf("se requiere SECRET_ARN o DATABASE_URL")
	}

	pool, err := postgres.NewPoolFromURL(ctx, dsn)
	if err != nil {
		return res, err
	}
	defer pool.Close()

	stmtTimeout := time.Duration(envInt("STATEMENT_TIMEOUT_MS", 10000)) * time.Millisecond
	now := time.Now().UTC()
	res, err = postgres.NewTokenJanitor(pool).Purge(ctx, now, stmtTimeout)
	if err != nil {
		return res, err
	}
	log.Info().
		Int64("auth_tokens_used", res.AuthTokensUsed).
		Int64("auth_tokens_expired", res.AuthTokensExpired).
		Int64("refresh_tokens_revoked", res.RefreshTokensRevoked).
		Int64("refresh_tokens_expired", res.RefreshTokensExpired).
		Msg("limpieza de tokens")

	ns := envString("METRIC_NAMESPACE", defaultNamespace)
	_, err = cloudwatch.NewFromConfig(awsCfg).PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(ns),
		MetricData: metricData(res, now),
	})
	if err != nil {
		// Las métricas no invalidan la limpieza ya hecha.
		log.Warn().Err(err).Str("namespace", ns).Msg("PutMetricData falló")
	}
	return res, nil
}

func main() {
	lambda.Start(handler)
}
