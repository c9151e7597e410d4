package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is the shared foundation embedded by domain repositories. It owns
// the GORM handle and binds request contexts onto queries.
type Base struct {
	conn *gorm.DB
}

// NewBase wraps a GORM connection (or an open transaction) for repository use.
func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// DB returns the connection scoped to ctx. A nil context returns the raw
// handle, which transaction helpers rely on.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.conn
	}
	return b.conn.WithContext(ctx)
}
