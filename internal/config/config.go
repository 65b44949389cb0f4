package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	APIBaseURL     string
	AgentID        string
	LanguageCode   string
	MonitorAddress string
	InputDevice    string
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	base := os.Getenv("API_BASE_URL")
	if base == "" {
		base = "http://127.0.0.1:5050"
	}

	agentID := os.Getenv("AGENT_ID")
	if agentID == "" {
		log.Println("Warning: AGENT_ID not set - pass an agent id on the command line or the client cannot start an interview")
	}

	lang := os.Getenv("LANGUAGE_CODE")
	if lang == "" {
		lang = "en"
	}

	// Monitor server is optional; empty address disables it.
	monitor := os.Getenv("MONITOR_ADDRESS")

	inputDevice := os.Getenv("INPUT_DEVICE")

	log.Printf("config: API_BASE_URL=%s", base)
	return Config{
		APIBaseURL:     base,
		AgentID:        agentID,
		LanguageCode:   lang,
		MonitorAddress: monitor,
		InputDevice:    inputDevice,
	}
}
