package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName          string
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		SecretKey        string
		FrontendBaseURL  string
		WorkDir          string
		RollbarToken     string
		SendgridApiKey   string
		StorageDriver    string // firestore | inmem
		defaultFromEmail string

		Server   ServerConfig
		Database DatabaseConfig
		Firebase FirebaseConfig
		Redis    RedisConfig
		Tenancy  TenancyConfig
		Quiz     QuizConfig
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		ShutdownTimeout           time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	FirebaseConfig struct {
		ProjectID       string
		CredentialsFile string
	}

	RedisConfig struct {
		Address  string
		Password string
		DB       int
		TTL      time.Duration
	}

	TenancyConfig struct {
		OwnerEmails    []string
		DemoMode       bool
		DemoSchoolID   string
		DefaultClassID string
		B2CPlanPrice   string
	}

	QuizConfig struct {
		MixedSize          int
		UnlockThreshold    int
		MasteryDifficulty  string
		DefaultDifficulty  string
		WhitelistBatchSize int
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
}

// IsOwnerEmail reports whether `email` is one of the platform owners.
func (c *Config) IsOwnerEmail(email string) bool {
	email = CleanString(email, true /* lower */)
	if email == "" {
		return false
	}
	for _, e := range c.Tenancy.OwnerEmails {
		if CleanString(e, true /* lower */) == email {
			return true
		}
	}
	return false
}

func (d DatabaseConfig) Address() string {
	return d.Host + ":" + d.Port
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Ready4Exam")
	conf.SetDefault("build", "dev")
	conf.SetDefault("secretKey", "r4e-9d#k2@pq+7m!zx(w0)8hb$3vj&ny^fs_6tq1lc*gu5oe")
	conf.SetDefault("frontendBaseURL", "http://localhost:8080")
	conf.SetDefault("defaultFromEmail", "noreply@ready4exam.com")
	conf.SetDefault("storageDriver", "firestore")

	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.address", ":8000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("server.jwtRefreshExpirationDelta", 30*24*time.Hour)
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)

	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.name", "postgres")
	conf.SetDefault("database.user", "postgres")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.disableTLS", false)

	conf.SetDefault("firebase.projectID", "ready4exam")
	conf.SetDefault("redis.address", "")
	conf.SetDefault("redis.db", 0)
	conf.SetDefault("redis.ttl", 10*time.Minute)

	conf.SetDefault("tenancy.ownerEmails", "keshav.karn@gmail.com,ready4urexam@gmail.com")
	conf.SetDefault("tenancy.demoMode", false)
	conf.SetDefault("tenancy.demoSchoolID", "DPS_001")
	conf.SetDefault("tenancy.defaultClassID", "9")
	conf.SetDefault("tenancy.b2cPlanPrice", "₹499")

	conf.SetDefault("quiz.mixedSize", 20)
	conf.SetDefault("quiz.unlockThreshold", 85)
	conf.SetDefault("quiz.masteryDifficulty", "Medium")
	conf.SetDefault("quiz.defaultDifficulty", "Simple")
	conf.SetDefault("quiz.whitelistBatchSize", 400)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		AppName:          conf.GetString("appName"),
		Env:              env,
		Build:            conf.GetString("build"),
		Debug:            conf.GetBool("debug"),
		TestMode:         conf.GetBool("testMode"),
		SecretKey:        conf.GetString("secretKey"),
		FrontendBaseURL:  conf.GetString("frontendBaseURL"),
		WorkDir:          workDir,
		RollbarToken:     conf.GetString("rollbarToken"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		StorageDriver:    conf.GetString("storageDriver"),
		defaultFromEmail: conf.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Host:                      conf.GetString("server.host"),
			Address:                   conf.GetString("server.address"),
			DebugHost:                 conf.GetString("server.debugHost"),
			JWTExpirationDelta:        conf.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("server.jwtRefreshExpirationDelta"),
			ShutdownTimeout:           conf.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("database.engine"),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetString("database.port"),
			Name:          conf.GetString("database.name"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			DisableTLS:    conf.GetBool("database.disableTLS"),
		},
		Firebase: FirebaseConfig{
			ProjectID:       conf.GetString("firebase.projectID"),
			CredentialsFile: conf.GetString("firebase.credentialsFile"),
		},
		Redis: RedisConfig{
			Address:  conf.GetString("redis.address"),
			Password: conf.GetString("redis.password"),
			DB:       conf.GetInt("redis.db"),
			TTL:      conf.GetDuration("redis.ttl"),
		},
		Tenancy: TenancyConfig{
			OwnerEmails:    splitList(conf.GetString("tenancy.ownerEmails")),
			DemoMode:       conf.GetBool("tenancy.demoMode"),
			DemoSchoolID:   conf.GetString("tenancy.demoSchoolID"),
			DefaultClassID: conf.GetString("tenancy.defaultClassID"),
			B2CPlanPrice:   conf.GetString("tenancy.b2cPlanPrice"),
		},
		Quiz: QuizConfig{
			MixedSize:          conf.GetInt("quiz.mixedSize"),
			UnlockThreshold:    conf.GetInt("quiz.unlockThreshold"),
			MasteryDifficulty:  conf.GetString("quiz.masteryDifficulty"),
			DefaultDifficulty:  conf.GetString("quiz.defaultDifficulty"),
			WhitelistBatchSize: conf.GetInt("quiz.whitelistBatchSize"),
		},
	}
}

// NewTestConfig returns a Config with the defaults used across package tests.
func NewTestConfig() *Config {
	return &Config{
		AppName:          "Ready4Exam",
		Env:              "TEST",
		Build:            "test",
		TestMode:         true,
		SecretKey:        "test-secret",
		FrontendBaseURL:  "http://localhost:8080",
		StorageDriver:    "inmem",
		defaultFromEmail: "noreply@ready4exam.com",
		Server: ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
			ShutdownTimeout:           time.Second,
		},
		Tenancy: TenancyConfig{
			OwnerEmails:    []string{"owner@ready4exam.com"},
			DemoMode:       true,
			DemoSchoolID:   "DPS_001",
			DefaultClassID: "9",
			B2CPlanPrice:   "₹499",
		},
		Quiz: QuizConfig{
			MixedSize:          20,
			UnlockThreshold:    85,
			MasteryDifficulty:  "Medium",
			DefaultDifficulty:  "Simple",
			WhitelistBatchSize: 400,
		},
	}
}

func splitList(s string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
