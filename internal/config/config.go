package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"
	"github.com/poofware/locshare-service/internal/utils"
)

// Config holds all application configuration, including secrets, flags, etc.
type Config struct {
	OrganizationName string
	AppName          string
	AppPort          string
	AppUrl           string
	DBUrl            string
	DBEncryptionKey  []byte
	UniqueRunNumber  string
	UniqueRunnerID   string
	SendGridAPIKey   string

	ChallengeTTL time.Duration
	SessionTTL   time.Duration
	LocationTTL  time.Duration

	ChallengeLimitPerIPPerHour          int
	ChallengeLimitPerFingerprintPerHour int
	GlobalChallengeLimitPerHour         int
	RateLimitWindow                     time.Duration

	// Static flags fetched once from LaunchDarkly
	LDFlag_ShortTokenTTL              bool
	LDFlag_ValidateEmailWithSendGrid  bool
	LDFlag_UsingIsolatedSchema        bool
	LDFlag_CORSHighSecurity           bool
	LDFlag_EnforceChallengeRateLimits bool
}

const (
	OrganizationName = utils.OrganizationName

	DefaultChallengeTTL = 15 * time.Minute
	DefaultSessionTTL   = 24 * time.Hour
	DefaultLocationTTL  = 24 * time.Hour

	TestShortChallengeTTL = 3 * time.Second
	TestShortSessionTTL   = 8 * time.Second

	DefaultChallengeLimitPerIPPerHour          = 30
	DefaultChallengeLimitPerFingerprintPerHour = 10
	DefaultGlobalChallengeLimitPerHour         = 5000
	TestShortGlobalChallengeLimit              = 200
	DefaultRateLimitWindow                     = 1 * time.Hour

	LDConnectionTimeout = 5 * time.Second
)

// Global compile-time overrides.
var (
	AppName             string
	UniqueRunNumber     string
	UniqueRunnerID      string
	LDServerContextKey  string
	LDServerContextKind string
)

// Defaults returns a Config carrying only the built-in TTLs and limits.
// LoadConfig starts from it; tests use it directly.
func Defaults() *Config {
	return &Config{
		OrganizationName:                    OrganizationName,
		AppName:                             AppName,
		ChallengeTTL:                        DefaultChallengeTTL,
		SessionTTL:                          DefaultSessionTTL,
		LocationTTL:                         DefaultLocationTTL,
		ChallengeLimitPerIPPerHour:          DefaultChallengeLimitPerIPPerHour,
		ChallengeLimitPerFingerprintPerHour: DefaultChallengeLimitPerFingerprintPerHour,
		GlobalChallengeLimitPerHour:         DefaultGlobalChallengeLimitPerHour,
		RateLimitWindow:                     DefaultRateLimitWindow,
	}
}

// LoadConfig fetches secrets from Bitwarden, reads flags from LaunchDarkly,
// and returns a *Config. Any missing input is fatal.
func LoadConfig() *Config {
	//----------------------------------------------------------------------
	// Check for required ldflags.
	//----------------------------------------------------------------------
	if AppName == "" {
		utils.Logger.Fatal("AppName was not overridden with ldflags at build time (or is empty)")
	}
	if UniqueRunNumber == "" {
		utils.Logger.Fatal("UniqueRunNumber was not overridden with ldflags at build time (or is empty)")
	}
	if UniqueRunnerID == "" {
		utils.Logger.Fatal("UniqueRunnerID was not overridden with ldflags at build time (or is empty)")
	}
	if LDServerContextKey == "" {
		utils.Logger.Fatal("LDServerContextKey was not overridden with ldflags at build time (or is empty)")
	}
	if LDServerContextKind == "" {
		utils.Logger.Fatal("LDServerContextKind was not overridden with ldflags at build time (or is empty)")
	}

	utils.Logger.Info("Loading config for app: ", AppName)

	//----------------------------------------------------------------------
	// Load environment variables.
	//----------------------------------------------------------------------
	env := os.Getenv("ENV")
	if env == "" {
		utils.Logger.Fatal("ENV env var is missing")
	}
	appUrl := os.Getenv("APP_URL_FROM_ANYWHERE")
	if appUrl == "" {
		utils.Logger.Fatal("APP_URL_FROM_ANYWHERE env var is missing")
	}
	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}

	utils.Logger.Debugf("App can be accessed at: %s", appUrl)

	//----------------------------------------------------------------------
	// Fetch app-specific (appName-env) and shared (shared-env) secrets.
	//----------------------------------------------------------------------
	client, err := utils.NewBWSSecretsClient()
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to initialize BWSSecretsClient")
	}
	defer client.Close()

	appProject := fmt.Sprintf("%s-%s", AppName, env)
	sharedProject := fmt.Sprintf("shared-%s", env)
	utils.Logger.Debugf("Fetching secrets for projects %s and %s", appProject, sharedProject)

	secrets, err := client.GetProjectSecrets(appProject, sharedProject)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to fetch secrets from Bitwarden")
	}
	appSecrets := secrets[appProject]
	sharedSecrets := secrets[sharedProject]

	dbUrl, ok := appSecrets["DB_URL"]
	if !ok || dbUrl == "" {
		utils.Logger.Fatal("DB_URL not found in Bitwarden secrets (appName-env)")
	}
	sendGridAPIKey, ok := appSecrets["SENDGRID_API_KEY"]
	if !ok || sendGridAPIKey == "" {
		utils.Logger.Fatal("SENDGRID_API_KEY not found in Bitwarden secrets (appName-env)")
	}
	ldSDKKey, ok := appSecrets["LD_SDK_KEY"]
	if !ok || ldSDKKey == "" {
		utils.Logger.Fatal("LD_SDK_KEY not found in Bitwarden secrets (appName-env)")
	}

	dbEncryptionKeyBase64, ok := sharedSecrets["DB_ENCRYPTION_KEY_BASE64"]
	if !ok || dbEncryptionKeyBase64 == "" {
		utils.Logger.Fatal("DB_ENCRYPTION_KEY_BASE64 not found in Bitwarden secrets (shared-env)")
	}
	decodedKey, err := base64.StdEncoding.DecodeString(dbEncryptionKeyBase64)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to decode DB_ENCRYPTION_KEY_BASE64 from base64")
	}
	if len(decodedKey) != 32 {
		utils.Logger.Fatal("DBEncryptionKey must be 32 bytes for AES-256 encryption")
	}

	//----------------------------------------------------------------------
	// Initialize the LaunchDarkly client with the LD_SDK_KEY.
	//----------------------------------------------------------------------
	ldClient, err := ld.MakeClient(ldSDKKey, LDConnectionTimeout)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
	}
	if !ldClient.Initialized() {
		ldClient.Close()
		utils.Logger.Fatal("LaunchDarkly client failed to initialize")
	}
	defer ldClient.Close()

	ldCtx := ldcontext.NewWithKind(ldcontext.Kind(LDServerContextKind), LDServerContextKey)
	boolFlag := func(name string) bool {
		v, err := ldClient.BoolVariation(name, ldCtx, false)
		if err != nil {
			ldClient.Close()
			utils.Logger.WithError(err).Fatalf("Error retrieving %s flag", name)
		}
		utils.Logger.Debugf("%s flag: %t", name, v)
		return v
	}

	cfg := Defaults()
	cfg.AppPort = appPort
	cfg.AppUrl = appUrl
	cfg.DBUrl = dbUrl
	cfg.DBEncryptionKey = decodedKey
	cfg.UniqueRunNumber = UniqueRunNumber
	cfg.UniqueRunnerID = UniqueRunnerID
	cfg.SendGridAPIKey = sendGridAPIKey

	cfg.LDFlag_ShortTokenTTL = boolFlag("short_token_ttl")
	cfg.LDFlag_ValidateEmailWithSendGrid = boolFlag("validate_email_with_sendgrid")
	cfg.LDFlag_UsingIsolatedSchema = boolFlag("using_isolated_schema")
	cfg.LDFlag_CORSHighSecurity = boolFlag("cors_high_security")
	cfg.LDFlag_EnforceChallengeRateLimits = boolFlag("enforce_challenge_rate_limits")

	if cfg.LDFlag_ShortTokenTTL {
		cfg.ApplyShortTTL()
	}

	return cfg
}

// ApplyShortTTL swaps in the test expiries and global limit so suites can
// watch challenges and sessions lapse.
func (c *Config) ApplyShortTTL() {
	c.ChallengeTTL = TestShortChallengeTTL
	c.SessionTTL = TestShortSessionTTL
	c.GlobalChallengeLimitPerHour = TestShortGlobalChallengeLimit
}

// Close cleans up any resources used by Config.
func (c *Config) Close() {
}
