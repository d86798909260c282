package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
		FullName string `env:"FULL_NAME" envDefault:"管理员"`
		Email    string `env:"EMAIL,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"1209600"` // 14 天
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Seed struct {
		User struct {
			Password string `env:"PASSWORD,required"`
		} `envPrefix:"USER_"`
		WardName         string `env:"WARD_NAME" envDefault:"心内科一病区"`
		NurseCount       int    `env:"NURSE_COUNT" envDefault:"20"`
		RequestsPerNurse int    `env:"REQUESTS_PER_NURSE" envDefault:"3"`
	} `envPrefix:"SEED_"`
	Email struct {
		UserDomain string `env:"USER_DOMAIN,required"`
		SMTP       struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN             string `env:"DSN,required"`
		PublishTimeout  int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
		EmailQueue      string `env:"EMAIL_QUEUE" envDefault:"email_queue"`
		GenerationQueue string `env:"GENERATION_QUEUE" envDefault:"roster_generation_queue"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD,required"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
		JobStatusTTL        int    `env:"JOB_STATUS_TTL" envDefault:"86400"` // 1 天
	} `envPrefix:"REDIS_"`
	NewUser struct {
		PasswordLength int `env:"PASSWORD_LENGTH" envDefault:"12"`
	} `envPrefix:"NEW_USER_"`
	Worker struct {
		Concurrency int    `env:"CONCURRENCY" envDefault:"2"`
		MetricsAddr string `env:"METRICS_ADDR" envDefault:":9100"`
	} `envPrefix:"WORKER_"`
	Scheduler struct {
		InitialTemperature  float64 `env:"INITIAL_TEMPERATURE" envDefault:"1000"`
		CoolingRate         float64 `env:"COOLING_RATE" envDefault:"0.995"`
		MaxIterations       int     `env:"MAX_ITERATIONS" envDefault:"150000"`
		MaxNoImprovement    int     `env:"MAX_NO_IMPROVEMENT" envDefault:"3000"`
		HardConstraintDelta float64 `env:"HARD_CONSTRAINT_DELTA" envDefault:"10000"`
		Timeout             int     `env:"TIMEOUT" envDefault:"120"`     // 秒，为 0 表示不限时
		MaxTimeout          int     `env:"MAX_TIMEOUT" envDefault:"600"` // 请求中可以指定的最长时限
		Weights             struct {
			Staffing    float64 `env:"STAFFING" envDefault:"20000"`
			Consecutive float64 `env:"CONSECUTIVE" envDefault:"15000"`
			Boundary    float64 `env:"BOUNDARY" envDefault:"10000"`
			Capability  float64 `env:"CAPABILITY" envDefault:"10000"`
			Requests    float64 `env:"REQUESTS" envDefault:"5000"`
			Patterns    float64 `env:"PATTERNS" envDefault:"5000"`
			NOD         float64 `env:"NOD" envDefault:"3000"`
			Workload    float64 `env:"WORKLOAD" envDefault:"1000"`
			Intensity   float64 `env:"INTENSITY" envDefault:"2000"`
			Alternating float64 `env:"ALTERNATING" envDefault:"500"`
			Consistency float64 `env:"CONSISTENCY" envDefault:"1000"`
		} `envPrefix:"WEIGHT_"`
	} `envPrefix:"SCHEDULER_"`
	Calendar struct {
		Holidays string `env:"HOLIDAYS"` // 以逗号分隔，如 2025-10-01,2025-10-02
	} `envPrefix:"CALENDAR_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}
