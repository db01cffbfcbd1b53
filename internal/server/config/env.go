package config

import "os"

// parseEnv overlays credentials and connection settings from environment
// variables. Only non-empty values override what defaults/JSON set, so a
// partially configured environment never blanks out a field.
func parseEnv(config *Config) {
	overlay := []struct {
		key string
		dst *string
	}{
		{"ENDPOINT_ADDR", &config.EndpointAddr},
		{"DATABASE_DSN", &config.DatabaseDSN},
		{"SECRET_KEY", &config.SecretKey},
		{"TWILIO_ACCOUNT_SID", &config.TwilioAccountSID},
		{"TWILIO_AUTH_TOKEN", &config.TwilioAuthToken},
		{"TWILIO_WHATSAPP_NUMBER", &config.TwilioWhatsAppNumber},
		{"WHATSAPP_FLOW_SID", &config.WhatsAppFlowSID},
		{"OPENAI_API_KEY", &config.OpenAIAPIKey},
		{"PLANNER_MODEL", &config.PlannerModel},
		{"ORACLE_MODEL", &config.OracleModel},
		{"S3_ROOT_USER", &config.S3RootUser},
		{"S3_ROOT_PASSWORD", &config.S3RootPassword},
		{"S3_BUCKET", &config.S3Bucket},
		{"S3_REGION", &config.S3Region},
		{"S3_BASE_ENDPOINT", &config.S3BaseEndpoint},
	}

	for _, e := range overlay {
		if v := os.Getenv(e.key); v != "" {
			*e.dst = v
		}
	}
}
