package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/rs/zerolog"

	"viewcounter/api/config"
)

type ClickHouseClient struct {
	Conn clickhouse.Conn
	log  zerolog.Logger
}

// NewClickHouseDB opens a native TCP connection to the analytics database
// and pings it. The org id selects the database and the token is the
// password.
func NewClickHouseDB(cfg *config.Config, lg zerolog.Logger) (*ClickHouseClient, error) {
	options := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.CHHost, cfg.CHPort)},
		Auth: clickhouse.Auth{
			Database: cfg.OrgID,
			Username: cfg.Username,
			Password: cfg.Token,
		},
		ClientInfo: clickhouse.ClientInfo{
			Products: []struct {
				Name    string
				Version string
			}{{Name: "viewcounter", Version: "1.0.0"}},
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout: time.Second * 5,
		ReadTimeout: cfg.QueryTimeout,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse via Native TCP: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	lg.Info().Str("addr", options.Addr[0]).Str("database", cfg.OrgID).Msg("connected to ClickHouse")
	return &ClickHouseClient{Conn: conn, log: lg}, nil
}

func (c *ClickHouseClient) Close() error {
	if c.Conn == nil {
		return nil
	}
	if err := c.Conn.Close(); err != nil {
		return fmt.Errorf("failed to close ClickHouse connection: %w", err)
	}
	c.log.Info().Msg("ClickHouse connection closed")
	return nil
}
