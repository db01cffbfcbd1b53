package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/momentum-ia/momentum/internal/flagx"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It is an intermediate DTO used only for reading JSON
// configuration files; after unmarshalling, its fields are copied into the
// runtime Config struct. Durations are accepted as integer minutes.
type JsonConfig struct {
	EndpointAddr            string `json:"endpoint_addr"`
	DatabaseDSN             string `json:"database_dsn"`
	SecretKey               string `json:"secret_key"`
	AdminTokenValidityMins  int    `json:"admin_token_validity_minutes"`
	TwilioAccountSID        string `json:"twilio_account_sid"`
	TwilioAuthToken         string `json:"twilio_auth_token"`
	TwilioWhatsAppNumber    string `json:"twilio_whatsapp_number"`
	WhatsAppFlowSID         string `json:"whatsapp_flow_sid"`
	OpenAIAPIKey            string `json:"openai_api_key"`
	PlannerModel            string `json:"planner_model"`
	OracleModel             string `json:"oracle_model"`
	S3RootUser              string `json:"s3_root_user"`
	S3RootPassword          string `json:"s3_root_password"`
	S3Bucket                string `json:"s3_bucket"`
	S3Region                string `json:"s3_region"`
	S3BaseEndpoint          string `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The JSON file path is taken from the -c or -config command-line flags.
// If neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics. Empty JSON fields leave the
// corresponding Config values untouched.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setIfNotEmpty(&config.EndpointAddr, c.EndpointAddr)
	setIfNotEmpty(&config.DatabaseDSN, c.DatabaseDSN)
	setIfNotEmpty(&config.SecretKey, c.SecretKey)
	if c.AdminTokenValidityMins > 0 {
		config.AdminTokenValidity = time.Duration(c.AdminTokenValidityMins) * time.Minute
	}
	setIfNotEmpty(&config.TwilioAccountSID, c.TwilioAccountSID)
	setIfNotEmpty(&config.TwilioAuthToken, c.TwilioAuthToken)
	setIfNotEmpty(&config.TwilioWhatsAppNumber, c.TwilioWhatsAppNumber)
	setIfNotEmpty(&config.WhatsAppFlowSID, c.WhatsAppFlowSID)
	setIfNotEmpty(&config.OpenAIAPIKey, c.OpenAIAPIKey)
	setIfNotEmpty(&config.PlannerModel, c.PlannerModel)
	setIfNotEmpty(&config.OracleModel, c.OracleModel)
	setIfNotEmpty(&config.S3RootUser, c.S3RootUser)
	setIfNotEmpty(&config.S3RootPassword, c.S3RootPassword)
	setIfNotEmpty(&config.S3Bucket, c.S3Bucket)
	setIfNotEmpty(&config.S3Region, c.S3Region)
	setIfNotEmpty(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
