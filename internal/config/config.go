package config

import (
	"encoding/base64"
	"fmt"
	"time"
)

type Config struct {
	ServerAddr     string
	DatabaseDSN    string
	MigrationsURL  string
	SigningKey     []byte
	AllowedOrigins []string
	// RoomGracePeriod is how long a finished room is kept around to
	// serve reconnects and result queries before it is unloaded.
	RoomGracePeriod time.Duration
}

const defaultRoomGracePeriod = 2 * time.Minute

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}
	return base64.StdEncoding.DecodeString(base64Secret)
}

func NewConfig(serverAddr, databaseDSN, base64Secret string, allowedOrigins []string, roomGracePeriod time.Duration) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}

	signingKey, err := decodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	if roomGracePeriod <= 0 {
		roomGracePeriod = defaultRoomGracePeriod
	}

	return &Config{
		ServerAddr:      serverAddr,
		DatabaseDSN:     databaseDSN,
		MigrationsURL:   "file://migrations",
		SigningKey:      signingKey,
		AllowedOrigins:  allowedOrigins,
		RoomGracePeriod: roomGracePeriod,
	}, nil
}
