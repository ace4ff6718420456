package shared

import (
	"context"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"hbnb_api/internal/domain"
	"hbnb_api/internal/storage/file"
	redisad "hbnb_api/internal/storage/redis"
	"hbnb_api/internal/storage/sqldb"
)

// MySQLDSN builds the driver DSN from the HBNB_MYSQL_* settings. A host
// without a port gets 3306.
func (c Config) MySQLDSN() string {
	addr := c.MySQLHost
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "3306")
	}
	mc := mysql.NewConfig()
	mc.User = c.MySQLUser
	mc.Passwd = c.MySQLPwd
	mc.Net = "tcp"
	mc.Addr = addr
	mc.DBName = c.MySQLDB
	return mc.FormatDSN()
}

// OpenEngine connects the storage backend named by StorageType.
func OpenEngine(ctx context.Context, c Config) (domain.Engine, error) {
	log.Info().Str("storage", c.StorageType).Msg("opening storage engine")
	switch c.StorageType {
	case StorageFile:
		return file.New(c.FilePath), nil
	case StorageMySQL, StorageSQLite:
		driver, dsn := "mysql", c.MySQLDSN()
		if c.StorageType == StorageSQLite {
			driver, dsn = "sqlite", c.SQLitePath
		}
		e, err := sqldb.Open(ctx, driver, dsn)
		if err != nil {
			return nil, err
		}
		return e, nil
	case StorageRedis:
		e := redisad.New(c.RedisAddr, c.RedisPassword, c.RedisDB)
		if err := e.Ping(ctx); err != nil {
			_ = e.Close()
			return nil, err
		}
		return e, nil
	}
	return nil, fmt.Errorf("unknown storage type %q", c.StorageType)
}
