package cdc_config

const (
	EnvBrokers = "CDC_BROKERS"

	EnvProducerMaxAttempts  = "CDC_PRODUCER_MAX_ATTEMPTS"
	EnvProducerBatchTimeout = "CDC_PRODUCER_BATCH_TIMEOUT"
	EnvProducerRequireAcks  = "CDC_PRODUCER_REQUIRE_ACKS"
	EnvProducerCompression  = "CDC_PRODUCER_COMPRESSION"
	EnvProducerAsync        = "CDC_PRODUCER_ASYNC"

	EnvConsumerStartOffset    = "CDC_CONSUMER_START_OFFSET"
	EnvConsumerMinBytes       = "CDC_CONSUMER_MIN_BYTES"
	EnvConsumerMaxBytes       = "CDC_CONSUMER_MAX_BYTES"
	EnvConsumerMaxWait        = "CDC_CONSUMER_MAX_WAIT"
	EnvConsumerCommitInterval = "CDC_CONSUMER_COMMIT_INTERVAL"
	EnvConsumerMaxRetries     = "CDC_CONSUMER_MAX_RETRIES"
)
