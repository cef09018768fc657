package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "postgres://u:p@localhost:5432/agro?sslmode=disable", want: "pgx5://u:p@localhost:5432/agro?sslmode=disable"},
		{in: "postgresql://u@db/agro", want: "pgx5://u@db/agro"},
		{in: "pgx5://u@db/agro", want: "pgx5://u@db/agro"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MigrationURL(tt.in))
		})
	}
}
