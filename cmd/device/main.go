package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/soundmesh/device/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	deviceID = configVar[string]{
		envKey:       "DEVICE_ID",
		flagKey:      "device-id",
		defaultValue: "",
	}
	deviceName = configVar[string]{
		envKey:       "DEVICE_NAME",
		flagKey:      "device-name",
		defaultValue: "",
	}
	username = configVar[string]{
		envKey:       "DEVICE_USERNAME",
		flagKey:      "username",
		defaultValue: "",
	}
	host = configVar[string]{
		envKey:       "DEVICE_HOST",
		flagKey:      "host",
		defaultValue: "127.0.0.1",
	}
	port = configVar[int]{
		envKey:       "DEVICE_PORT",
		flagKey:      "port",
		defaultValue: 4370,
	}
	logLevel = configVar[string]{
		envKey:       "DEVICE_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	trackLength = configVar[int]{
		envKey:       "DEVICE_TRACK_LENGTH_SEC",
		flagKey:      "track-length-sec",
		defaultValue: 180,
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.String(deviceID.flagKey, deviceID.defaultValue, "Stable device identity (generated if empty)")
	pflag.String(deviceName.flagKey, deviceName.defaultValue, "Device display name")
	pflag.String(username.flagKey, username.defaultValue, "User identity the sync topic is derived from")
	pflag.String(host.flagKey, host.defaultValue, "Local API host")
	pflag.Int(port.flagKey, port.defaultValue, "Local API port")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(trackLength.flagKey, trackLength.defaultValue, "Silent player track length in seconds")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(deviceID.flagKey, deviceID.envKey)
	viper.BindEnv(deviceName.flagKey, deviceName.envKey)
	viper.BindEnv(username.flagKey, username.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(trackLength.flagKey, trackLength.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)

	viper.SetDefault(deviceID.flagKey, deviceID.defaultValue)
	viper.SetDefault(deviceName.flagKey, deviceName.defaultValue)
	viper.SetDefault(username.flagKey, username.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(trackLength.flagKey, trackLength.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)

	config := &app.AppConfig{
		DeviceID:       viper.GetString(deviceID.flagKey),
		DeviceName:     viper.GetString(deviceName.flagKey),
		Username:       viper.GetString(username.flagKey),
		Host:           viper.GetString(host.flagKey),
		Port:           viper.GetInt(port.flagKey),
		LogLevel:       viper.GetString(logLevel.flagKey),
		TrackLengthSec: viper.GetInt(trackLength.flagKey),
		RedisPort:      viper.GetInt(redisPort.flagKey),
		RedisHost:      viper.GetString(redisHost.flagKey),
		RedisPassword:  viper.GetString(redisPassword.flagKey),
	}

	if config.DeviceID == "" {
		config.DeviceID = uuid.NewString()
	}
	if config.DeviceName == "" {
		hostname, _ := os.Hostname()
		config.DeviceName = hostname
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()
	if err := appConfig.Validate(); err != nil {
		log.Fatal(err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting device with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
