package constants

const (
	// config
	DEFAULT_CONFIG_DIR         = ".kvbench"
	DEFAULT_CONFIG_FILE        = "config.json"
	DEFAULT_BENCH_RUN_LOG_FILE = "run.log"

	// positional defaults of `kvbench run`
	DEFAULT_HOST              = "127.0.0.1"
	DEFAULT_PORT        int   = 8079
	DEFAULT_MODE              = "set"
	DEFAULT_NUM_WORKERS int   = 50
	DEFAULT_NUM_OPS     int   = 2_000_000 // 2 million operations
	DEFAULT_SEED        int64 = 0x207B096061CDA310

	// Operation modes accepted on the command line; anything else is mixed
	MODE_SET   = "set"
	MODE_GET   = "get"
	MODE_MIXED = "all"

	// Protocols the harness can speak
	PROTOCOL_NATIVE = "native" // etcd v3 client, framing done by the library
	PROTOCOL_RESP   = "resp"   // RESP array-of-bulk-strings frames
	PROTOCOL_LINE   = "line"   // newline-delimited, quote-escaped text commands

	// Size of the buffer a worker drains one reply into
	RESP_DRAIN_BUFFER_SIZE = 1024
	LINE_DRAIN_BUFFER_SIZE = 512

	// Values written by the harness are VALUE_PREFIX followed by the key
	VALUE_PREFIX = "m_value_"

	// native driver
	DEFAULT_DIAL_TIMEOUT_SECONDS = 5

	// demo
	DEFAULT_DEMO_LISTEN_ADDR = "127.0.0.1:8080"
	DEFAULT_DEMO_LIST_KEY    = "tweets"
)
