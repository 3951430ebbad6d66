package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // academy time zones inside minimal containers

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName          string
		Build            string
		Env              string // DEV (local; default), TEST, QA, PROD
		Debug            bool
		TestMode         bool
		SecretKey        string
		Timezone         string
		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string
		LogLevel         string

		Server       ServerConfig
		Database     DatabaseConfig
		Notification NotificationConfig
		WhatsApp     WhatsAppConfig
	}

	ServerConfig struct {
		Host                      string
		Port                      string
		DebugHost                 string
		ReadTimeout               time.Duration
		WriteTimeout              time.Duration
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		LoginRateLimit            int // attempts per minute and IP; 0 disables it
		AllowedOrigins            []string
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

	NotificationConfig struct {
		Enabled     bool
		CronSpec    string // evaluated in the academy's time zone
		DueSoonDays int
		OverdueDays int
		ReportEmail string // receives the daily run summary when set
	}

	WhatsAppConfig struct {
		URL      string
		APIKey   string
		Instance string
	}
)

func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Location returns the academy's local time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("appName", "AquaFlow")
	conf.SetDefault("build", "dev")
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("secretKey", "x!7k2@aqf-0d9w$l6v3p_(m8y#zq1hn4&c5rj+e)tu")
	conf.SetDefault("timezone", "America/Sao_Paulo")
	conf.SetDefault("defaultFromName", "AquaFlow")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("logLevel", "info")

	conf.SetDefault("serverHost", "")
	conf.SetDefault("serverPort", "8000")
	conf.SetDefault("serverDebugHost", "0.0.0.0:4000")
	conf.SetDefault("serverReadTimeout", 5*time.Second)
	conf.SetDefault("serverWriteTimeout", 5*time.Second)
	conf.SetDefault("serverShutdownTimeout", 5*time.Second)
	conf.SetDefault("jwtExpirationDelta", 24*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("loginRateLimit", 5)
	conf.SetDefault("allowedOrigins", "*")

	conf.SetDefault("dbEngine", "postgres")
	conf.SetDefault("dbHost", "localhost")
	conf.SetDefault("dbPort", "5432")
	conf.SetDefault("dbName", "aquaflow")
	conf.SetDefault("dbUser", "aquaflow")
	conf.SetDefault("dbPassword", "aquaflow")
	conf.SetDefault("dbAdminUser", "postgres")
	conf.SetDefault("dbAdminPassword", "postgres")
	conf.SetDefault("dbDisableTLS", true)

	conf.SetDefault("notificationEnabled", true)
	conf.SetDefault("notificationCronSpec", "0 9 * * *")
	conf.SetDefault("notificationDueSoonDays", 3)
	conf.SetDefault("notificationOverdueDays", 5)
	conf.SetDefault("notificationReportEmail", "")

	conf.SetDefault("whatsappUrl", "http://localhost:8080")
	conf.SetDefault("whatsappApiKey", "")
	conf.SetDefault("whatsappInstance", "aquaflow")

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(ProjectRoot(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		AppName:   conf.GetString("appName"),
		Build:     conf.GetString("build"),
		Env:       env,
		Debug:     conf.GetBool("debug"),
		TestMode:  conf.GetBool("testMode"),
		SecretKey: conf.GetString("secretKey"),
		Timezone:  conf.GetString("timezone"),
		DefaultFromEmail: mail.Address{
			Name:    conf.GetString("defaultFromName"),
			Address: conf.GetString("defaultFromEmail"),
		},
		SendgridApiKey: conf.GetString("sendgridApiKey"),
		RollbarToken:   conf.GetString("rollbarToken"),
		LogLevel:       conf.GetString("logLevel"),
		Server: ServerConfig{
			Host:                      conf.GetString("serverHost"),
			Port:                      conf.GetString("serverPort"),
			DebugHost:                 conf.GetString("serverDebugHost"),
			ReadTimeout:               conf.GetDuration("serverReadTimeout"),
			WriteTimeout:              conf.GetDuration("serverWriteTimeout"),
			ShutdownTimeout:           conf.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
			LoginRateLimit:            conf.GetInt("loginRateLimit"),
			AllowedOrigins:            splitList(conf.GetString("allowedOrigins")),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("dbEngine"),
			Host:          conf.GetString("dbHost"),
			Port:          conf.GetString("dbPort"),
			Name:          conf.GetString("dbName"),
			User:          conf.GetString("dbUser"),
			Password:      conf.GetString("dbPassword"),
			AdminUser:     conf.GetString("dbAdminUser"),
			AdminPassword: conf.GetString("dbAdminPassword"),
			DisableTLS:    conf.GetBool("dbDisableTLS"),
		},
		Notification: NotificationConfig{
			Enabled:     conf.GetBool("notificationEnabled"),
			CronSpec:    conf.GetString("notificationCronSpec"),
			DueSoonDays: conf.GetInt("notificationDueSoonDays"),
			OverdueDays: conf.GetInt("notificationOverdueDays"),
			ReportEmail: conf.GetString("notificationReportEmail"),
		},
		WhatsApp: WhatsAppConfig{
			URL:      strings.TrimRight(conf.GetString("whatsappUrl"), "/"),
			APIKey:   conf.GetString("whatsappApiKey"),
			Instance: conf.GetString("whatsappInstance"),
		},
	}
}

// NewTestConfig returns the configuration used by tests: no .env, no external services.
func NewTestConfig() *Config {
	return &Config{
		AppName:          "AquaFlow",
		Build:            "test",
		Env:              "TEST",
		TestMode:         true,
		SecretKey:        "test-secret-key",
		Timezone:         "America/Sao_Paulo",
		DefaultFromEmail: mail.Address{Name: "AquaFlow", Address: "noreply@localhost"},
		LogLevel:         "error",
		Server: ServerConfig{
			Port:                      "8000",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        24 * time.Hour,
			JWTRefreshExpirationDelta: 7 * 24 * time.Hour,
			AllowedOrigins:            []string{"*"},
		},
		Notification: NotificationConfig{
			CronSpec:    "0 9 * * *",
			DueSoonDays: 3,
			OverdueDays: 5,
		},
	}
}

func splitList(s string) []string {
	var list []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

// ProjectRoot walks up from the working directory until it finds go.mod.
// go test runs from the package directory, so relative paths need an anchor.
func ProjectRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("%s(%s) env=%s debug=%v", c.AppName, c.Build, c.Env, c.Debug)
}
