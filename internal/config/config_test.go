package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				// Verify some key fields are populated
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "token_jobs", cfg.Database.Database)
				assert.Equal(t, "token.tx", cfg.RabbitMQ.Exchange.Name)
				assert.Equal(t, "token.tx.jobs", cfg.RabbitMQ.Queue.Name)
				assert.Equal(t, "token.tx.dlx", cfg.RabbitMQ.DeadLetter.Exchange)
				assert.Equal(t, "testnet", cfg.Chain.Network)
				assert.Equal(t, uint64(1000), cfg.Chain.GasLimit)
				assert.Equal(t, time.Second, cfg.Chain.SealPollInterval)
				assert.Equal(t, 2*time.Minute, cfg.Chain.SealTimeout)
				assert.Equal(t, "0x9a0766d93b6608b7", cfg.Signer.Address)
				assert.Equal(t, uint32(0), cfg.Signer.KeyIndex)
				assert.Equal(t, 4, cfg.Worker.Concurrency)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "token_jobs",
		},
		RabbitMQ: RabbitMQConfig{
			Host:       "localhost",
			Port:       5672,
			Exchange:   ExchangeConfig{Name: "token.tx"},
			Queue:      QueueConfig{Name: "token.tx.jobs"},
			DeadLetter: DeadLetterConfig{Exchange: "token.tx.dlx"},
		},
		Chain: ChainConfig{
			AccessNodeURL: "https://rest-testnet.onflow.org",
			Network:       "testnet",
		},
		Signer: SignerConfig{Address: "0x9a0766d93b6608b7"},
		Worker: WorkerConfig{
			Concurrency:     4,
			JobTimeout:      5 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
		},
	}
}

func TestValidateAPIConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantErr   bool
		errString string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "invalid server port - too low",
			mutate:    func(c *Config) { c.Server.Port = 0 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "invalid server port - too high",
			mutate:    func(c *Config) { c.Server.Port = 70000 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "empty database host",
			mutate:    func(c *Config) { c.Database.Host = "" },
			wantErr:   true,
			errString: "database host is required",
		},
		{
			name:      "empty database name",
			mutate:    func(c *Config) { c.Database.Database = "" },
			wantErr:   true,
			errString: "database name is required",
		},
		{
			name:      "empty rabbitmq host",
			mutate:    func(c *Config) { c.RabbitMQ.Host = "" },
			wantErr:   true,
			errString: "rabbitmq host is required",
		},
		{
			name:      "empty exchange name",
			mutate:    func(c *Config) { c.RabbitMQ.Exchange.Name = "" },
			wantErr:   true,
			errString: "rabbitmq exchange name is required",
		},
		{
			name:      "empty queue name",
			mutate:    func(c *Config) { c.RabbitMQ.Queue.Name = "" },
			wantErr:   true,
			errString: "rabbitmq queue name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.ValidateAPIConfig()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateWorkerConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantErr   bool
		errString string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "zero concurrency",
			mutate:    func(c *Config) { c.Worker.Concurrency = 0 },
			wantErr:   true,
			errString: "worker concurrency must be greater than 0",
		},
		{
			name:      "zero job timeout",
			mutate:    func(c *Config) { c.Worker.JobTimeout = 0 },
			wantErr:   true,
			errString: "worker job_timeout must be greater than 0",
		},
		{
			name:      "zero shutdown timeout",
			mutate:    func(c *Config) { c.Worker.ShutdownTimeout = 0 },
			wantErr:   true,
			errString: "worker shutdown_timeout must be greater than 0",
		},
		{
			name:      "missing access node url",
			mutate:    func(c *Config) { c.Chain.AccessNodeURL = "" },
			wantErr:   true,
			errString: "chain access_node_url is required",
		},
		{
			name:      "missing network",
			mutate:    func(c *Config) { c.Chain.Network = "" },
			wantErr:   true,
			errString: "chain network is required",
		},
		{
			name:      "missing signer address",
			mutate:    func(c *Config) { c.Signer.Address = "" },
			wantErr:   true,
			errString: "signer address is required",
		},
		{
			name:      "missing dead letter exchange",
			mutate:    func(c *Config) { c.RabbitMQ.DeadLetter.Exchange = "" },
			wantErr:   true,
			errString: "rabbitmq dead_letter exchange is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.ValidateWorkerConfig()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSignerConfig_PrivateKeyFromEnv(t *testing.T) {
	t.Setenv(PrivateKeyEnv, "deadbeef")

	cfg := SignerConfig{Address: "0x9a0766d93b6608b7"}
	assert.Equal(t, "deadbeef", cfg.PrivateKey())
}

func TestLoad_ValidateIntegration(t *testing.T) {
	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	require.NoError(t, cfg.ValidateAPIConfig())
	require.NoError(t, cfg.ValidateWorkerConfig())
}
