package models

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

type RabbitMQConfig struct {
	Host     string
	Port     string
	User     string
	Password string
}

type HTTPConfig struct {
	Port string
}

type WorkflowConfig struct {
	CommissionRate float64
	JWTSecret      string
}

type Config struct {
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	HTTP     HTTPConfig
	Workflow WorkflowConfig
}
