package dsn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplyconnect/supplyconnect/internal/config"
)

func TestCreate(t *testing.T) {
	testCases := []struct {
		name     string
		db       config.DB
		expected string
	}{
		{
			name: "mysql",
			db: config.DB{
				GormEngine: config.EngineMySQL, User: "sc", Password: "pw", Host: "db", Port: 3306,
				Name: "supplyconnect", Extras: "parseTime=true",
			},
			expected: "sc:pw@tcp(db:3306)/supplyconnect?parseTime=true",
		},
		{
			name: "postgres",
			db: config.DB{
				GormEngine: config.EnginePostgres, User: "sc", Password: "pw", Host: "db", Port: 5432,
				Name: "supplyconnect", Extras: "sslmode=disable",
			},
			expected: "host=db port=5432 user=sc password=pw dbname=supplyconnect sslmode=disable",
		},
		{
			name:     "sqlite",
			db:       config.DB{GormEngine: config.EngineSQLite, Name: "./data/sc.db"},
			expected: "./data/sc.db",
		},
		{
			name:     "sqlite with pragmas",
			db:       config.DB{GormEngine: config.EngineSQLite, Name: "sc.db", Extras: "_pragma=foreign_keys(1)"},
			expected: "sc.db?_pragma=foreign_keys(1)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Create(&config.Config{DB: tc.db}))
		})
	}
}

func TestDialector(t *testing.T) {
	for _, engine := range []string{config.EngineMySQL, config.EnginePostgres, config.EngineSQLite} {
		d, err := Dialector(&config.Config{DB: config.DB{GormEngine: engine, Name: "x"}})
		require.NoError(t, err)
		assert.Equal(t, engine, d.Name())
	}

	_, err := Dialector(&config.Config{DB: config.DB{GormEngine: "oracle"}})
	require.ErrorIs(t, err, ErrUnknownEngine)
}
