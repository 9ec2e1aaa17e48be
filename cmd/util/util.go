package util

import (
	"strings"
	"time"

	"github.com/driftkv/driftkv/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupClientFlags adds the common client connection flags to a command
func SetupClientFlags(cmd *cobra.Command) {
	key := "routing-ip"
	cmd.PersistentFlags().String(key, "127.0.0.1", WrapString("IP address of the routing tier"))

	key = "routing-port-base"
	cmd.PersistentFlags().Int(key, 12340, WrapString("First listener port of the routing tier, one port per routing thread with contiguous offsets"))

	key = "routing-threads"
	cmd.PersistentFlags().Int(key, 1, WrapString("Number of routing tier threads"))

	key = "timeout"
	cmd.PersistentFlags().Duration(key, 10*time.Second, WrapString("Per-attempt request timeout (e.g. 10s)"))

	key = "retries"
	cmd.PersistentFlags().Int(key, common.DefaultRetryCount, WrapString("How many extra attempts after the first one"))

	key = "connect-attempts"
	cmd.PersistentFlags().Int(key, common.DefaultConnectAttempts, WrapString("Low-level dial attempts per endpoint before it is reported unreachable"))

	key = "max-value-size"
	cmd.PersistentFlags().Int(key, common.DefaultMaxValueSize, WrapString("Maximum payload size of a single value in bytes"))

	key = "serializer"
	cmd.PersistentFlags().String(key, common.DefaultSerializer, WrapString("Wire serializer to use (binary, json)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("Log level (debug, info, warn, error)"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("driftkv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads the client configuration from viper
func GetClientConfig() *common.ClientConfig {
	return &common.ClientConfig{
		RoutingIP:       viper.GetString("routing-ip"),
		RoutingPortBase: viper.GetInt("routing-port-base"),
		RoutingThreads:  viper.GetInt("routing-threads"),
		Timeout:         viper.GetDuration("timeout"),
		RetryCount:      viper.GetInt("retries"),
		ConnectAttempts: viper.GetInt("connect-attempts"),
		MaxValueSize:    viper.GetInt("max-value-size"),
		Serializer:      viper.GetString("serializer"),
		LogLevel:        viper.GetString("log-level"),
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
