package config

import (
	"dwhload/internal/catalog"
	"dwhload/internal/storage"
	"dwhload/internal/warehouse"
	"dwhload/pkg/models"
)

// WarehouseConfig maps cfg onto the warehouse connection settings
func WarehouseConfig(cfg *models.Config) (warehouse.Config, error) {
	timeout, err := StatementTimeout(cfg)
	if err != nil {
		return warehouse.Config{}, err
	}
	return warehouse.Config{
		Dialect:    cfg.Warehouse.Dialect,
		Host:       cfg.Cluster.Host,
		Port:       cfg.Cluster.DBPort,
		Database:   cfg.Cluster.DBName,
		User:       cfg.Cluster.DBUser,
		Password:   cfg.Cluster.DBPassword,
		SSLMode:    cfg.Cluster.SSLMode,
		Account:    cfg.Snowflake.Account,
		Warehouse:  cfg.Snowflake.Warehouse,
		Role:       cfg.Snowflake.Role,
		Schema:     cfg.Snowflake.Schema,
		SQLitePath: cfg.Warehouse.SQLitePath,
		Timeout:    timeout,
	}, nil
}

// CatalogOptions maps cfg onto the copy statement options
func CatalogOptions(cfg *models.Config) catalog.Options {
	return catalog.Options{
		RoleARN:     cfg.IAMRole.ARN,
		LogData:     cfg.S3.LogData,
		LogJSONPath: cfg.S3.LogJSONPath,
		SongData:    cfg.S3.SongData,
		Region:      cfg.S3.Region,
	}
}

// Sources lists the copy sources of cfg
func Sources(cfg *models.Config) storage.Sources {
	return storage.Sources{
		LogData:     cfg.S3.LogData,
		LogJSONPath: cfg.S3.LogJSONPath,
		SongData:    cfg.S3.SongData,
	}
}
