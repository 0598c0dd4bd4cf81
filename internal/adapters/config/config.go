package config

import (
	"fmt"
	"log"
	"os"
	"time"

	postgresStorage "github.com/Badsnus/festival-booking/internal/adapters/database/postgres"
	"github.com/Badsnus/festival-booking/internal/adapters/database/redis"
	"github.com/Badsnus/festival-booking/internal/domain/utils/location"
	"github.com/Badsnus/festival-booking/pkg/logger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var configPath = pflag.String("config", "", "path to config.yaml (default: ./config.yaml)")

type Config struct {
	Database   *gorm.DB
	Redis      *redis.Client
	SMTPDialer *gomail.Dialer
}

func setDefaults() {
	viper.SetDefault("settings.timezone", "UTC")
	viper.SetDefault("settings.logs-dir", "logs")
	viper.SetDefault("settings.logging.channel-log-level", 2)

	viper.SetDefault("settings.booking.snapshot-event-details", true)
	viper.SetDefault("settings.booking.strict-codes", false)
	viper.SetDefault("settings.booking.code-attempts", 5)

	viper.SetDefault("settings.festival.open-hour", 10)
	viper.SetDefault("settings.festival.close-hour", 16)

	viper.SetDefault("settings.events.default-threshold", 5)

	viper.SetDefault("settings.auth.code-ttl", 10*time.Minute)
	viper.SetDefault("settings.auth.session-ttl", 7*24*time.Hour)
	viper.SetDefault("settings.auth.codes-per-minute", 3)

	viper.SetDefault("service.http.port", 8080)
	viper.SetDefault("service.http.public-url", "http://localhost:8080")
	viper.SetDefault("service.http.allowed-origins", []string{"*"})
	viper.SetDefault("service.database.port", 5432)
	viper.SetDefault("service.redis.port", 6379)
	viper.SetDefault("service.smtp.port", 587)
	viper.SetDefault("service.tracing.insecure", true)
}

func initConfig() {
	setDefaults()

	if *configPath != "" {
		viper.SetConfigFile(*configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		panic(err)
	}
}

func Get() *Config {
	initConfig()

	err := logger.Init(logger.Config{
		Debug:        viper.GetBool("settings.debug"),
		TimeLocation: location.Location(),
		LogToFile:    viper.GetBool("settings.log-to-file"),
		LogsDir:      viper.GetString("settings.logs-dir"),
	})
	if err != nil {
		panic(err)
	}

	var gormConfig *gorm.Config
	if viper.GetBool("settings.debug") {
		newLogger := gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold: time.Second,
				LogLevel:      gormLogger.Info,
				Colorful:      true,
			},
		)
		gormConfig = &gorm.Config{
			Logger: newLogger,
		}
	} else {
		gormConfig = &gorm.Config{}
	}

	dsn := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%d sslmode=disable TimeZone=%s",
		viper.GetString("service.database.user"),
		viper.GetString("service.database.password"),
		viper.GetString("service.database.name"),
		viper.GetString("service.database.host"),
		viper.GetInt("service.database.port"),
		location.Location().String(),
	)

	database, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		logger.Log.Panicf("Failed to connect to the database: %v", err)
	} else {
		logger.Log.Info("Successfully connected to the database")
	}

	errMigrate := database.AutoMigrate(postgresStorage.Migrations...)
	if errMigrate != nil {
		logger.Log.Panicf("Failed to migrate database: %v", errMigrate)
	}

	redisClient, err := redis.New(redis.Options{
		Host:     viper.GetString("service.redis.host"),
		Port:     viper.GetString("service.redis.port"),
		Password: viper.GetString("service.redis.password"),
	})
	if err != nil {
		logger.Log.Panicf("Failed to connect to redis: %v", err)
	} else {
		logger.Log.Info("Successfully connected to redis")
	}

	dialer := gomail.NewDialer(
		viper.GetString("service.smtp.host"),
		viper.GetInt("service.smtp.port"),
		viper.GetString("service.smtp.email"),
		viper.GetString("service.smtp.password"),
	)

	return &Config{
		Database:   database,
		Redis:      redisClient,
		SMTPDialer: dialer,
	}
}
