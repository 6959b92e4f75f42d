package config

import "time"

// defaults lists every configuration key. Secrets default to empty and are
// expected from the environment.
var defaults = map[string]any{
	"app.name":     "dpnk-backend",
	"app.env":      "development",
	"app.port":     "8080",
	"app.base_url": "http://localhost:8080",

	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "dpnk",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,

	"redis.enabled":  false,
	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"jwt.secret":                   "",
	"jwt.refresh_secret":           "",
	"jwt.access_token_expiration":  15 * time.Minute,
	"jwt.refresh_token_expiration": 7 * 24 * time.Hour,
	"jwt.issuer":                   "dpnk-backend",
	"jwt.max_refresh_count":        10,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":             15 * time.Second,
	"http.write_timeout":            30 * time.Second,
	"http.idle_timeout":             60 * time.Second,
	"http.max_header_bytes":         1 << 20,
	"http.max_body_size":            int64(1 << 20),
	"http.max_upload_size":          int64(10 << 20),
	"http.rate_limit_enabled":       false,
	"http.rate_limit_requests":      100,
	"http.rate_limit_window":        time.Minute,
	"http.auth_rate_limit_enabled":  false,
	"http.auth_rate_limit_requests": 5,
	"http.auth_rate_limit_window":   time.Minute,
	"http.slow_request_threshold":   2 * time.Second,

	// no origins means no cross-origin requests
	"http.cors_allow_origins":   []string{},
	"http.cors_allow_methods":   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
	"http.cors_allow_headers":   []string{"Content-Type", "Authorization", "X-Request-ID", "X-Campaign"},
	"http.trusted_proxies":      []string{},
	"http.swagger_enabled":      false,
	"http.swagger_require_auth": false,
	"http.swagger_allowed_ips":  []string{},

	"campaign.base_domain":  "dopracenakole.cz",
	"campaign.default_slug": "",

	"scheduler.enabled":             false,
	"scheduler.results_flush_cron":  "* * * * *",
	"scheduler.mailing_sync_cron":   "*/10 * * * *",
	"scheduler.outbox_cleanup_cron": "30 3 * * *",
	"scheduler.results_flush_batch": 500,
	"scheduler.mailing_sync_batch":  200,
	"scheduler.max_concurrent_jobs": 3,
	"scheduler.job_timeout":         10 * time.Minute,
	"scheduler.retry_attempts":      3,
	"scheduler.retry_delay":         30 * time.Second,

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "dpnk-backend",
	"telemetry.insecure":                false,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,
	"telemetry.metrics_enabled":         false,
	"telemetry.metrics_export_interval": 30 * time.Second,
	"telemetry.logs_enabled":            false,
	"telemetry.profiling_enabled":       false,
	"telemetry.profiling_server_url":    "",
	"telemetry.profiling_auth_user":     "",
	"telemetry.profiling_auth_password": "",
	"telemetry.span_profiles_enabled":   false,

	"payu.gateway_url":  "https://secure.payu.com/paygw",
	"payu.pos_id":       "",
	"payu.pos_auth_key": "",
	"payu.key1":         "",
	"payu.key2":         "",
	"payu.timeout":      30 * time.Second,
	"payu.node_id":      int64(0),

	"mailing.enabled": false,
	"mailing.api_url": "https://api2.ecomailapp.cz",
	"mailing.api_key": "",
	"mailing.timeout": 15 * time.Second,

	"sendgrid.enabled":    false,
	"sendgrid.api_key":    "",
	"sendgrid.from_email": "kontakt@dopracenakole.cz",
	"sendgrid.from_name":  "Do práce na kole",

	"storage.type":              "local",
	"storage.bucket":            "",
	"storage.region":            "eu-central-1",
	"storage.endpoint":          "",
	"storage.access_key_id":     "",
	"storage.secret_access_key": "",
	"storage.use_path_style":    false,
	"storage.local_path":        "./data",

	"printing.chrome_path": "",
	"printing.timeout":     time.Minute,
	"printing.max_workers": 2,

	"delivery.sender_code":    "",
	"delivery.sender_name":    "",
	"delivery.service_code":   "EC",
	"delivery.sender_street":  "",
	"delivery.sender_city":    "",
	"delivery.sender_zip":     "",
	"delivery.sender_phone":   "",
	"delivery.default_weight": 300,

	"invoicing.supplier_name": "Auto*Mat, z.s.",
	"invoicing.street":        "",
	"invoicing.city":          "",
	"invoicing.zip":           "",
	"invoicing.ico":           "",
	"invoicing.dic":           "",
	"invoicing.bank_account":  "",
	"invoicing.due_days":      14,
}
