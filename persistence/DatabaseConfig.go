package persistence

import (
	"database/sql"
	"errors"
	"os"
	"strings"
)

type DatabaseConfig struct {
	DriverType string
	DriverArgs string
}

// ParseDatabaseConfigFromEnv reads DATABASE_DRIVER (default mysql) and
// DATABASE_URL, e.g. "root:root@(127.0.0.1:3306)/bantay?charset=utf8mb4&parseTime=True&loc=Local".
func ParseDatabaseConfigFromEnv() (*DatabaseConfig, error) {
	driver := os.Getenv("DATABASE_DRIVER")
	if driver == "" {
		driver = "mysql"
	}
	args := os.Getenv("DATABASE_URL")
	if args == "" {
		return nil, errors.New("environment variable DATABASE_URL is not set")
	}
	return &DatabaseConfig{DriverType: driver, DriverArgs: args}, nil
}

// PrepareMysqlDatabase creates the database named in driverArgs when it does
// not exist yet, by connecting to the server without a schema selected.
func PrepareMysqlDatabase(driverArgs string) error {
	slashIdx := strings.Index(driverArgs, "/")
	if slashIdx < 0 {
		return errors.New("invalid database connect string: " + driverArgs)
	}
	serverArgs := driverArgs[0 : slashIdx+1]
	databaseName := driverArgs[slashIdx+1:]
	if queryIdx := strings.Index(databaseName, "?"); queryIdx >= 0 {
		databaseName = databaseName[0:queryIdx]
	}
	if databaseName == "" {
		return errors.New("database name is missing in connect string: " + driverArgs)
	}

	db, err := sql.Open("mysql", serverArgs)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec("CREATE DATABASE IF NOT EXISTS `" + databaseName + "` CHARACTER SET utf8mb4")
	return err
}
