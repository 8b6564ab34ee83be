package config

import (
	"testing"
	"time"
)

func setRequiredMailEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GOLDWATCHER_MAIL_HOST", "smtp.example.com")
	t.Setenv("GOLDWATCHER_MAIL_FROM_ADDR", "watcher@example.com")
	t.Setenv("GOLDWATCHER_MAIL_TO_ADDR", "operator@example.com")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredMailEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("加载默认配置失败: %v", err)
	}

	if cfg.Scheduler.Interval != 60*time.Second {
		t.Fatalf("默认轮询间隔应为 60s, 实际 %s", cfg.Scheduler.Interval)
	}
	if cfg.Scheduler.IdleBackoff != 5*time.Second {
		t.Fatalf("默认空闲退避应为 5s, 实际 %s", cfg.Scheduler.IdleBackoff)
	}
	if cfg.Feed.InstrumentCode != "glod" {
		t.Fatalf("默认品种代码应为 glod, 实际 %q", cfg.Feed.InstrumentCode)
	}
	if cfg.Feed.RequestTimeout != 5*time.Second {
		t.Fatalf("默认请求超时应为 5s, 实际 %s", cfg.Feed.RequestTimeout)
	}
	if cfg.Feed.MaxConcurrent != 2 {
		t.Fatalf("默认并发上限应为 2, 实际 %d", cfg.Feed.MaxConcurrent)
	}
	if cfg.Mail.Port != 465 {
		t.Fatalf("默认邮件端口应为 465, 实际 %d", cfg.Mail.Port)
	}
	if cfg.Database.MaxOpenConns != 10 {
		t.Fatalf("默认连接池上限应为 10, 实际 %d", cfg.Database.MaxOpenConns)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredMailEnv(t)
	t.Setenv("GOLDWATCHER_SCHEDULER_INTERVAL", "90s")
	t.Setenv("GOLDWATCHER_MAIL_PORT", "587")
	t.Setenv("GOLDWATCHER_MAIL_USERNAME", "bot")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if cfg.Scheduler.Interval != 90*time.Second {
		t.Fatalf("环境变量应覆盖轮询间隔, 实际 %s", cfg.Scheduler.Interval)
	}
	if cfg.Mail.Port != 587 {
		t.Fatalf("环境变量应覆盖邮件端口, 实际 %d", cfg.Mail.Port)
	}
	if cfg.Mail.Username != "bot" {
		t.Fatalf("环境变量应覆盖邮件用户名, 实际 %q", cfg.Mail.Username)
	}
}

func TestLoadRejectsMissingMailSettings(t *testing.T) {
	// Without mail addressing the daemon could never deliver an alert, so
	// startup must fail.
	if _, err := Load(""); err == nil {
		t.Fatal("缺少邮件配置时应拒绝启动")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		return &Config{
			Scheduler: SchedulerConfig{Interval: time.Minute, IdleBackoff: 5 * time.Second},
			Feed: FeedConfig{
				URL:            "http://example.com/feed",
				InstrumentCode: "glod",
				MaxConcurrent:  2,
			},
			Mail: MailConfig{
				Host:     "smtp.example.com",
				Port:     465,
				FromAddr: "a@example.com",
				ToAddr:   "b@example.com",
			},
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("基准配置应有效: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero interval", func(c *Config) { c.Scheduler.Interval = 0 }},
		{"zero idle backoff", func(c *Config) { c.Scheduler.IdleBackoff = 0 }},
		{"missing feed url", func(c *Config) { c.Feed.URL = "" }},
		{"missing instrument", func(c *Config) { c.Feed.InstrumentCode = "" }},
		{"zero concurrency", func(c *Config) { c.Feed.MaxConcurrent = 0 }},
		{"missing mail host", func(c *Config) { c.Mail.Host = "" }},
		{"zero mail port", func(c *Config) { c.Mail.Port = 0 }},
		{"missing from addr", func(c *Config) { c.Mail.FromAddr = "" }},
		{"missing to addr", func(c *Config) { c.Mail.ToAddr = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("应返回校验错误")
			}
		})
	}
}
