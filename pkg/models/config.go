package models

// Config is the resolved configuration of a load run. Section and key names
// follow the dwh.cfg layout so the same keys work in INI, YAML and DWH_* env.
type Config struct {
	Warehouse Warehouse `yaml:"warehouse" mapstructure:"warehouse"`
	Cluster   Cluster   `yaml:"cluster" mapstructure:"cluster"`
	IAMRole   IAMRole   `yaml:"iam_role" mapstructure:"iam_role"`
	S3        S3        `yaml:"s3" mapstructure:"s3"`
	Snowflake Snowflake `yaml:"snowflake" mapstructure:"snowflake"`
	Metrics   Metrics   `yaml:"metrics" mapstructure:"metrics"`
	Logging   Logging   `yaml:"logging" mapstructure:"logging"`
}

// Warehouse selects the engine and execution limits
type Warehouse struct {
	Dialect          string `yaml:"dialect" mapstructure:"dialect"`                     // redshift, snowflake or sqlite
	StatementTimeout string `yaml:"statement_timeout" mapstructure:"statement_timeout"` // e.g. "30m"
	SQLitePath       string `yaml:"sqlite_path" mapstructure:"sqlite_path"`             // sqlite database file
}

// Cluster holds the Redshift endpoint. DBPassword "keyring" resolves the
// password from the OS keyring.
type Cluster struct {
	Host       string `yaml:"host" mapstructure:"host"`
	DBName     string `yaml:"db_name" mapstructure:"db_name"`
	DBUser     string `yaml:"db_user" mapstructure:"db_user"`
	DBPassword string `yaml:"db_password" mapstructure:"db_password"`
	DBPort     int    `yaml:"db_port" mapstructure:"db_port"`
	SSLMode    string `yaml:"sslmode" mapstructure:"sslmode"`
}

// IAMRole is the storage-access role the copy statements authenticate with
type IAMRole struct {
	ARN string `yaml:"arn" mapstructure:"arn"`
}

// S3 lists the bulk load sources
type S3 struct {
	LogData     string `yaml:"log_data" mapstructure:"log_data"`
	LogJSONPath string `yaml:"log_jsonpath" mapstructure:"log_jsonpath"`
	SongData    string `yaml:"song_data" mapstructure:"song_data"`
	Region      string `yaml:"region" mapstructure:"region"`
	Anonymous   bool   `yaml:"anonymous" mapstructure:"anonymous"`
}

// Snowflake holds the connection settings used by the snowflake dialect.
// User, password and database come from the cluster section.
type Snowflake struct {
	Account   string `yaml:"account" mapstructure:"account"`
	Warehouse string `yaml:"warehouse" mapstructure:"warehouse"`
	Role      string `yaml:"role" mapstructure:"role"`
	Schema    string `yaml:"schema" mapstructure:"schema"`
}

// Metrics configures the optional Pushgateway export
type Metrics struct {
	PushgatewayURL string `yaml:"pushgateway_url" mapstructure:"pushgateway_url"`
	Job            string `yaml:"job" mapstructure:"job"`
}

// Logging configures the zap logger
type Logging struct {
	Level string `yaml:"level" mapstructure:"level"`
	Mode  string `yaml:"mode" mapstructure:"mode"` // development or production
}
