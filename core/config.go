package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName   string
		Build     string
		Env       string // DEV (local; default), TEST, QA, PROD
		Debug     bool
		TestMode  bool
		SecretKey string
		SiteURL   string

		// WorkDir is the root every relative storage path is resolved against.
		WorkDir string

		Server   ServerConfig
		Storage  StorageConfig
		Database DatabaseConfig
		Sheets   SheetsConfig
		Admin    AdminConfig
		Telegram TelegramConfig
		Discord  DiscordConfig

		RollbarToken     string
		SendgridApiKey   string
		defaultFromEmail string
	}

	ServerConfig struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	StorageConfig struct {
		DataDir         string
		UploadDir       string
		AssetsDir       string
		EventsFile      string
		ClosedEvents    []string
		DocumentBackend string // postgres | sheets | memory
		PaymentQREvent  string
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

	SheetsConfig struct {
		SpreadsheetID   string
		CredentialsFile string
	}

	AdminConfig struct {
		PasswordHash    string
		ExpirationDelta time.Duration
	}

	TelegramConfig struct {
		Token   string
		ChatIDs []int64
	}

	DiscordConfig struct {
		WebhookID    string
		WebhookToken string
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, dbc.Port)
}

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
	}
	return *addr
}

// Path resolves p against WorkDir unless it is already absolute.
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.WorkDir, p)
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("build", "dev")
	conf.SetDefault("appName", "DevNest")
	conf.SetDefault("secretKey", "k3s!p9-dq^vn2w+f8#x)r0z4y&m1j6t@c7%b5h(e=ugoai")
	conf.SetDefault("siteURL", "http://localhost:3000")
	conf.SetDefault("defaultFromEmail", "DevNest <noreply@localhost>")
	conf.SetDefault("workDir", "")

	conf.SetDefault("server.host", ":8000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.shutdownTimeout", 10*time.Second)

	conf.SetDefault("dataDir", filepath.Join("server", "data"))
	conf.SetDefault("uploadDir", filepath.Join("server", "uploads"))
	conf.SetDefault("assetsDir", filepath.Join("server", "assets"))
	conf.SetDefault("eventsFile", "")
	conf.SetDefault("closedEvents", "")
	conf.SetDefault("documentBackend", "memory")
	conf.SetDefault("paymentQrEvent", "bytebloom")

	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.name", "devnest")
	conf.SetDefault("database.user", "devnest")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.adminUser", "")
	conf.SetDefault("database.adminPassword", "")
	conf.SetDefault("database.disableTLS", false)

	conf.SetDefault("sheets.spreadsheetId", "")
	conf.SetDefault("sheets.credentialsFile", "")

	conf.SetDefault("admin.passwordHash", "")
	conf.SetDefault("admin.expirationDelta", 12*time.Hour)

	conf.SetDefault("telegram.token", "")
	conf.SetDefault("telegram.chatIds", "")
	conf.SetDefault("discord.webhookId", "")
	conf.SetDefault("discord.webhookToken", "")

	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir := os.Getenv("WORK_DIR")
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			log.Fatalf("config.os.Getwd(): %v", err)
		}
		workDir = wd
	}

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

	if wd := conf.GetString("workDir"); wd != "" {
		workDir = wd
	}

	return &Config{
		AppName:   conf.GetString("appName"),
		Build:     conf.GetString("build"),
		Env:       env,
		Debug:     conf.GetBool("debug"),
		TestMode:  conf.GetBool("testMode"),
		SecretKey: conf.GetString("secretKey"),
		SiteURL:   strings.TrimRight(conf.GetString("siteURL"), "/"),
		WorkDir:   workDir,
		Server: ServerConfig{
			Host:            conf.GetString("server.host"),
			DebugHost:       conf.GetString("server.debugHost"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
		},
		Storage: StorageConfig{
			DataDir:         conf.GetString("dataDir"),
			UploadDir:       conf.GetString("uploadDir"),
			AssetsDir:       conf.GetString("assetsDir"),
			EventsFile:      conf.GetString("eventsFile"),
			ClosedEvents:    SplitList(conf.GetString("closedEvents")),
			DocumentBackend: strings.ToLower(conf.GetString("documentBackend")),
			PaymentQREvent:  conf.GetString("paymentQrEvent"),
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
		Sheets: SheetsConfig{
			SpreadsheetID:   conf.GetString("sheets.spreadsheetId"),
			CredentialsFile: conf.GetString("sheets.credentialsFile"),
		},
		Admin: AdminConfig{
			PasswordHash:    conf.GetString("admin.passwordHash"),
			ExpirationDelta: conf.GetDuration("admin.expirationDelta"),
		},
		Telegram: TelegramConfig{
			Token:   conf.GetString("telegram.token"),
			ChatIDs: parseChatIDs(conf.GetString("telegram.chatIds")),
		},
		Discord: DiscordConfig{
			WebhookID:    conf.GetString("discord.webhookId"),
			WebhookToken: conf.GetString("discord.webhookToken"),
		},
		RollbarToken:     conf.GetString("rollbarToken"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		defaultFromEmail: conf.GetString("defaultFromEmail"),
	}
}

// SplitList splits a comma separated value, dropping blank entries.
func SplitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseChatIDs(raw string) []int64 {
	var ids []int64
	for _, p := range SplitList(raw) {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			log.Print(fmt.Errorf("config: skipping telegram chat id %q: %v", p, err))
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
