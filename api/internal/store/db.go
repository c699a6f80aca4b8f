package store

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
)

// Open подключается к Postgres через pgx и проверяет соединение.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	// журнал пишет по одной строке на решение, большой пул не нужен
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	return db, nil
}

// ResolveDSN берёт DATABASE_URL, иначе собирает DSN из POSTGRES_*/PG*.
// Пустая строка — журнал выключен.
func ResolveDSN(databaseURL string) string {
	if v := strings.TrimSpace(databaseURL); v != "" {
		return v
	}
	pass := os.Getenv("POSTGRES_PASSWORD")
	if pass == "" {
		return ""
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getenvDefault("POSTGRES_USER", "tasksolver"), pass),
		Host:     net.JoinHostPort(getenvDefault("PGHOST", "db"), getenvDefault("PGPORT", "5432")),
		Path:     "/" + getenvDefault("POSTGRES_DB", "tasksolver"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func getenvDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// SafeDSNSummary — DSN без пароля, для логов.
func SafeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "dsn: parse error"
	}
	user := u.User.Username()
	host := u.Host
	port := ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	db := strings.TrimPrefix(u.Path, "/")
	if port == "" {
		return fmt.Sprintf("host=%s db=%s user=%s", host, db, user)
	}
	return fmt.Sprintf("host=%s port=%s db=%s user=%s", host, port, db, user)
}
