package inmemdb

import (
	"sync"

	"github.com/pioneiros/colina/core/user"
)

type (
	// DB keeps rows in maps guarded by a lock. It backs fast tests that need no SQL.
	DB struct {
		user *userTable
	}

	userTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*user.User
	}
)

func Open() *DB {
	return &DB{
		user: &userTable{table: make(map[int]*user.User)},
	}
}
