package database

import (
	"database/sql"
)

type PgQuizRepository struct {
	conn *sql.DB
}

func NewPgQuizRepository(dsn string) (*PgQuizRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgQuizRepository{conn: db}, nil
}

func (db *PgQuizRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgQuizRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
