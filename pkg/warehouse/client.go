package warehouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/pulso-data/pulso-etl/pkg/retry"
	"github.com/pulso-data/pulso-etl/pkg/utils"
)

// Client wraps the warehouse connection that raw extractions read from.
// Queries run behind a circuit breaker so a degraded warehouse fails the
// run fast instead of piling up slow extractions.
type Client struct {
	Logger  *zap.Logger
	Db      driver.Conn
	breaker *gobreaker.CircuitBreaker
}

// New connects to the warehouse with retries and returns a ready client.
func New(ctx context.Context, logger *zap.Logger) (*Client, error) {
	connCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dsn := utils.Env("WAREHOUSE_ADDR", "clickhouse://localhost:9000?sslmode=disable")
	username, password := extractCredentials(dsn)
	replicas := extractReplicas(dsn)

	options := &clickhouse.Options{
		Addr:             replicas,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
		Auth: clickhouse.Auth{
			Database: utils.Env("WAREHOUSE_DATABASE", "raw"),
			Username: username,
			Password: password,
		},
		DialTimeout:     30 * time.Second,
		MaxOpenConns:    utils.EnvInt("WAREHOUSE_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    utils.EnvInt("WAREHOUSE_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: utils.EnvDuration("WAREHOUSE_CONN_MAX_LIFETIME", time.Hour),
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		Settings: clickhouse.Settings{
			"prefer_column_name_to_alias": 1,
		},
	}

	client := &Client{Logger: logger}
	err := retry.WithBackoff(connCtx, retry.DefaultConfig(), logger, "warehouse_connection", func() error {
		conn, err := clickhouse.Open(options)
		if err != nil {
			return fmt.Errorf("failed to open warehouse connection: %w", err)
		}
		if err := conn.Ping(connCtx); err != nil {
			return fmt.Errorf("failed to ping warehouse: %w", err)
		}
		client.Db = conn
		client.Logger.Info("Warehouse connection configured",
			zap.Strings("replicas", replicas),
			zap.Int("max_open_conns", options.MaxOpenConns),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	client.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "warehouse",
		Timeout: utils.EnvDuration("WAREHOUSE_BREAKER_COOLDOWN", 30*time.Second),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Warehouse breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return client, nil
}

// Query runs a read query through the breaker.
func (c *Client) Query(ctx context.Context, query string, args ...interface{}) (driver.Rows, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.Db.Query(ctx, query, args...)
	})
	if err != nil {
		return nil, err
	}
	return res.(driver.Rows), nil
}

// QueryRow runs a single-row query. Row errors surface on Scan so the
// breaker only guards the dispatch.
func (c *Client) QueryRow(ctx context.Context, query string, args ...interface{}) driver.Row {
	return c.Db.QueryRow(ctx, query, args...)
}

// Health pings the warehouse.
func (c *Client) Health(ctx context.Context) error {
	return c.Db.Ping(ctx)
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.Db.Close()
}

// extractReplicas parses comma-separated replica addresses from a DSN.
// Supports single and multi-host forms, with or without credentials and
// query params.
func extractReplicas(dsn string) []string {
	cleaned := strings.TrimPrefix(dsn, "clickhouse://")
	cleaned = strings.TrimPrefix(cleaned, "tcp://")

	hostPart := cleaned
	if idx := strings.Index(cleaned, "@"); idx != -1 {
		hostPart = cleaned[idx+1:]
	}
	if idx := strings.IndexAny(hostPart, "/?"); idx != -1 {
		hostPart = hostPart[:idx]
	}

	replicas := strings.Split(hostPart, ",")
	result := make([]string, 0, len(replicas))
	for _, r := range replicas {
		r = strings.TrimSpace(r)
		if r != "" {
			result = append(result, r)
		}
	}
	if len(result) == 0 {
		return []string{"localhost:9000"}
	}
	return result
}

// extractCredentials extracts username and password from a DSN string.
// Defaults to "default" with no password when the DSN carries none.
func extractCredentials(dsn string) (string, string) {
	dsn = strings.TrimPrefix(dsn, "clickhouse://")
	dsn = strings.TrimPrefix(dsn, "tcp://")

	atIdx := strings.Index(dsn, "@")
	if atIdx == -1 {
		return "default", ""
	}
	credentials := dsn[:atIdx]
	colonIdx := strings.Index(credentials, ":")
	if colonIdx == -1 {
		return credentials, ""
	}
	return credentials[:colonIdx], credentials[colonIdx+1:]
}
