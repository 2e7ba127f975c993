package stageflow

import (
	"os"

	"github.com/spf13/viper"
)

// StageFlowConfig is the external definition of the canonical stage flow:
// the ordered stage names, the minimum field set per stage and display labels.
// Stage identity is the stage NAME, never a storage id or sequence column.
type StageFlowConfig struct {
	Stages         []string            `mapstructure:"stages" json:"stages"`
	RequiredFields map[string][]string `mapstructure:"requiredFields" json:"requiredFields"`
	FieldLabels    map[string]string   `mapstructure:"fieldLabels" json:"fieldLabels"`
}

// PROJECT_WORKFLOW_CONFIG points to an optional yaml file overriding the defaults.
func LoadConfig() (*StageFlowConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("stages", []string{
		"Proposal", "Evaluation", "Approval", "Implementation",
		"Construction", "Operation", "Completion", "Divestment",
	})
	v.SetDefault("requiredFields", map[string][]string{
		"Proposal":       {"title", "description", "project_type_id", "industry_id", "sector_id", "proposal_date"},
		"Evaluation":     {"title", "project_type_id", "industry_id", "sector_id", "proposal_date"},
		"Approval":       {"title", "project_type_id", "industry_id", "sector_id", "proposal_date"},
		"Implementation": {"start_date", "target_completion_date", "estimated_cost", "currency"},
		"Construction":   {"start_date", "target_completion_date", "location_address"},
		"Operation":      {"start_date"},
		"Completion":     {"actual_completion_date"},
		"Divestment":     {"actual_completion_date"},
	})
	v.SetDefault("fieldLabels", map[string]string{
		"title":                  "project title",
		"description":            "project description",
		"project_type_id":        "project type",
		"industry_id":            "industry",
		"sector_id":              "sector",
		"proposal_date":          "proposal date",
		"start_date":             "start date",
		"target_completion_date": "target completion date",
		"actual_completion_date": "actual completion date",
		"estimated_cost":         "estimated cost",
		"currency":               "currency",
		"location_address":       "location address",
	})

	if path := os.Getenv("PROJECT_WORKFLOW_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	config := StageFlowConfig{}
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
