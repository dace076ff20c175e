package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"fuelserve/internal/shared/models"
)

const defaultCommissionRate = 0.10

// LoadConfig reads a two-level YAML file. Values may use ${ENV:-default}
// expansion.
func LoadConfig(filename string) (*models.Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := &models.Config{}
	cfg.Workflow.CommissionRate = defaultCommissionRate
	var section string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !strings.Contains(line, ":") {
			continue
		}

		if strings.HasSuffix(line, ":") {
			section = strings.TrimSuffix(line, ":")
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		val := expandEnv(strings.TrimSpace(parts[1]))

		switch section {
		case "database":
			switch key {
			case "host":
				cfg.Database.Host = val
			case "port":
				cfg.Database.Port = val
			case "user":
				cfg.Database.User = val
			case "password":
				cfg.Database.Password = val
			case "database":
				cfg.Database.Database = val
			}
		case "rabbitmq":
			switch key {
			case "host":
				cfg.RabbitMQ.Host = val
			case "port":
				cfg.RabbitMQ.Port = val
			case "user":
				cfg.RabbitMQ.User = val
			case "password":
				cfg.RabbitMQ.Password = val
			}
		case "http":
			if key == "port" {
				cfg.HTTP.Port = val
			}
		case "workflow":
			switch key {
			case "commission_rate":
				if rate, err := strconv.ParseFloat(val, 64); err == nil && rate >= 0 {
					cfg.Workflow.CommissionRate = rate
				}
			case "jwt_secret":
				cfg.Workflow.JWTSecret = val
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func expandEnv(val string) string {
	if !strings.HasPrefix(val, "${") {
		return val
	}

	inside := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
	parts := strings.SplitN(inside, ":-", 2)

	envVar := parts[0]
	defVal := ""
	if len(parts) == 2 {
		defVal = parts[1]
	}

	if v, ok := os.LookupEnv(envVar); ok {
		return v
	}
	return defVal
}
