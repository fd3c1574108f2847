package ui

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"dwhload/pkg/errors"
	"dwhload/pkg/models"
)

// Asker runs survey prompts
type Asker interface {
	Ask(qs []*survey.Question, response interface{}, opts ...survey.AskOpt) error
}

type surveyAsker struct{}

func (surveyAsker) Ask(qs []*survey.Question, response interface{}, opts ...survey.AskOpt) error {
	return survey.Ask(qs, response, opts...)
}

// ConfigWizard collects a configuration interactively
type ConfigWizard struct {
	asker Asker
}

// NewConfigWizard creates a wizard prompting on the terminal. A nil asker
// uses survey directly.
func NewConfigWizard(asker Asker) *ConfigWizard {
	if asker == nil {
		asker = surveyAsker{}
	}
	return &ConfigWizard{asker: asker}
}

// WizardAnswers are the values the wizard asks for
type WizardAnswers struct {
	Dialect  string
	Host     string
	Account  string
	DBName   string
	DBUser   string
	RoleARN  string
	LogData  string
	SongData string
	Keyring  bool
}

// Run asks for the settings of base's dialect and fills them into base
func (w *ConfigWizard) Run(base *models.Config) (*models.Config, error) {
	answers := WizardAnswers{}

	if err := w.asker.Ask(w.dialectQuestions(base), &answers); err != nil {
		return nil, wizardError(err)
	}

	cfg := *base
	cfg.Warehouse.Dialect = answers.Dialect

	if err := w.asker.Ask(w.connectionQuestions(&cfg), &answers); err != nil {
		return nil, wizardError(err)
	}

	cfg.S3.LogData = answers.LogData
	cfg.S3.SongData = answers.SongData
	if answers.Dialect == "sqlite" {
		cfg.S3.LogJSONPath = ""
		return &cfg, nil
	}

	cfg.Cluster.DBName = answers.DBName
	cfg.Cluster.DBUser = answers.DBUser
	cfg.IAMRole.ARN = answers.RoleARN
	if answers.Dialect == "snowflake" {
		cfg.Snowflake.Account = answers.Account
	} else {
		cfg.Cluster.Host = answers.Host
	}
	if answers.Keyring {
		cfg.Cluster.DBPassword = "keyring"
	}
	return &cfg, nil
}

func (w *ConfigWizard) dialectQuestions(base *models.Config) []*survey.Question {
	def := base.Warehouse.Dialect
	if def == "" {
		def = "redshift"
	}
	return []*survey.Question{{
		Name: "dialect",
		Prompt: &survey.Select{
			Message: "Warehouse engine:",
			Options: []string{"redshift", "snowflake", "sqlite"},
			Default: def,
		},
	}}
}

func (w *ConfigWizard) connectionQuestions(cfg *models.Config) []*survey.Question {
	var qs []*survey.Question
	switch cfg.Warehouse.Dialect {
	case "redshift":
		qs = append(qs, &survey.Question{
			Name:     "host",
			Prompt:   &survey.Input{Message: "Cluster endpoint:", Default: cfg.Cluster.Host},
			Validate: survey.Required,
		})
	case "snowflake":
		qs = append(qs, &survey.Question{
			Name:     "account",
			Prompt:   &survey.Input{Message: "Snowflake account:", Default: cfg.Snowflake.Account},
			Validate: survey.Required,
		})
	}

	if cfg.Warehouse.Dialect != "sqlite" {
		qs = append(qs,
			&survey.Question{
				Name:     "dbname",
				Prompt:   &survey.Input{Message: "Database:", Default: cfg.Cluster.DBName},
				Validate: survey.Required,
			},
			&survey.Question{
				Name:     "dbuser",
				Prompt:   &survey.Input{Message: "User:", Default: cfg.Cluster.DBUser},
				Validate: survey.Required,
			},
			&survey.Question{
				Name:     "rolearn",
				Prompt:   &survey.Input{Message: "IAM role ARN for COPY:", Default: cfg.IAMRole.ARN, Help: "arn:aws:iam::<account>:role/<name>"},
				Validate: survey.Required,
			},
			&survey.Question{
				Name:   "keyring",
				Prompt: &survey.Confirm{Message: "Read the password from the OS keyring?", Default: true},
			},
		)
	}

	qs = append(qs,
		&survey.Question{
			Name:     "logdata",
			Prompt:   &survey.Input{Message: "Event log source:", Default: cfg.S3.LogData},
			Validate: survey.Required,
		},
		&survey.Question{
			Name:     "songdata",
			Prompt:   &survey.Input{Message: "Song data source:", Default: cfg.S3.SongData},
			Validate: survey.Required,
		},
	)
	return qs
}

func wizardError(err error) error {
	if err == terminal.InterruptErr {
		return errors.New(errors.ErrCodeUserAborted, "Configuration cancelled")
	}
	return errors.Wrap(err, errors.ErrCodeInvalidInput, fmt.Sprintf("Prompt failed: %v", err))
}
