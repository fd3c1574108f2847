package config

import (
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"dwhload/pkg/errors"
	"dwhload/pkg/models"
)

const (
	keyringService = "dwhload"
	// KeyringMarker as db_password means the password lives in the keyring
	KeyringMarker = "keyring"
)

// KeyringAccount names the keyring entry holding cfg's password
func KeyringAccount(cfg *models.Config) string {
	host := cfg.Cluster.Host
	if strings.EqualFold(cfg.Warehouse.Dialect, "snowflake") {
		host = cfg.Snowflake.Account
	}
	return fmt.Sprintf("%s@%s", cfg.Cluster.DBUser, host)
}

// ResolvePassword replaces the keyring marker with the stored password
func ResolvePassword(cfg *models.Config) error {
	if cfg.Cluster.DBPassword != KeyringMarker {
		return nil
	}
	account := KeyringAccount(cfg)
	secret, err := keyring.Get(keyringService, account)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigMissing, "Failed to read the cluster password from the keyring").
			WithContext("account", account).
			WithSuggestions(fmt.Sprintf("Store it with 'dwhload config set-password' for %s", account))
	}
	cfg.Cluster.DBPassword = secret
	return nil
}

// StorePassword saves password in the keyring under cfg's account
func StorePassword(cfg *models.Config, password string) error {
	if err := keyring.Set(keyringService, KeyringAccount(cfg), password); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "Failed to store the password in the keyring")
	}
	return nil
}
