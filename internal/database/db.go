// Package database owns the MySQL connection and the schema the auth
// subsystem needs to run.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const (
	maxOpenConns = 25
	maxIdleConns = 25
	connLifetime = 30 * time.Minute
	pingTimeout  = 5 * time.Second
)

// Open connects to MySQL, verifies the connection and makes sure the auth
// tables exist. DATETIME columns round-trip as UTC time.Time values.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

// ensureSchema creates the accounts and sessions tables if they are missing.
// The refresh_token column is unique: the literal signed token is the session
// lookup key, and the constraint is what makes rotation collisions visible.
// Tokens are base64url ASCII and embed the account email, so the column is
// sized for the longest storable email (a 255-char email signs to well under
// 1024 bytes); ascii/ascii_bin keeps the unique index byte-exact and within
// InnoDB's 3072-byte key limit.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id                CHAR(32)     NOT NULL,
			email             VARCHAR(255) NOT NULL,
			password_hash     VARCHAR(255) NOT NULL,
			display_name      VARCHAR(120) NOT NULL,
			role              VARCHAR(16)  NOT NULL,
			is_active         TINYINT(1)   NOT NULL DEFAULT 1,
			is_approved       TINYINT(1)   NOT NULL DEFAULT 0,
			linked_profile_id CHAR(32)     NULL,
			last_login_at     DATETIME     NULL,
			created_at        DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at        DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY uq_accounts_email (email)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id            CHAR(32)     NOT NULL,
			account_id    CHAR(32)     NOT NULL,
			refresh_token VARCHAR(1024) CHARACTER SET ascii COLLATE ascii_bin NOT NULL,
			client_ip     VARCHAR(45)  NOT NULL DEFAULT '',
			client_agent  VARCHAR(255) NOT NULL DEFAULT '',
			expires_at    DATETIME     NOT NULL,
			created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY uq_sessions_token (refresh_token),
			KEY idx_sessions_account (account_id),
			KEY idx_sessions_expiry (expires_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
