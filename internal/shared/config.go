package shared

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/Akharrat1991/AI-Property-Management/internal/domain"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	RedisAddr string
	RedisPass string
	RedisDB   int

	ScrapeBase  string
	ScrapeToken string
	MaxReviews  int

	OpenAIBase  string
	OpenAIKey   string
	OpenAIModel string

	SMTPHost     string
	SMTPPort     int
	SenderEmail  string
	SMTPPassword string
	DemoMode     bool

	CleaningTeamEmail string
	ManagerEmail      string

	IngestWorkers   int
	ClassifyWorkers int
	CacheTTL        time.Duration

	RateLimitCalls  int
	RateLimitWindow time.Duration
	MaxIterations   int
	MaxAdjustment   float64

	PortfolioPath string
}

// Load reads configuration from the environment. A .env file in the
// working directory is honored when present but never required.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg(".env loaded")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
		return def
	}

	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),

		RedisAddr: env("REDIS_ADDR", ""),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),

		ScrapeBase:  env("APIFY_BASE_URL", "https://api.apify.com"),
		ScrapeToken: env("APIFY_TOKEN", ""),
		MaxReviews:  atoi("MAX_REVIEWS_PER_LISTING", 10),

		OpenAIBase:  env("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIKey:   env("OPENAI_API_KEY", ""),
		OpenAIModel: env("OPENAI_MODEL", "gpt-4o"),

		SMTPHost:     env("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     atoi("SMTP_PORT", 587),
		SenderEmail:  env("SENDER_EMAIL", ""),
		SMTPPassword: env("SENDER_PASSWORD", ""),
		DemoMode:     env("DEMO_MODE", "false") == "true",

		CleaningTeamEmail: env("CLEANING_TEAM_EMAIL", ""),
		ManagerEmail:      env("MANAGER_EMAIL", ""),

		IngestWorkers:   atoi("INGEST_WORKERS", 3),
		ClassifyWorkers: atoi("CLASSIFY_WORKERS", 4),
		CacheTTL:        time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		RateLimitCalls:  atoi("RATE_LIMIT_CALLS", 20),
		RateLimitWindow: time.Duration(atoi("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		MaxIterations:   atoi("MAX_ITERATIONS", 10),
		MaxAdjustment:   atof("MAX_PRICE_ADJUSTMENT", 0.25),

		PortfolioPath: env("PORTFOLIO_FILE", ""),
	}
	return c
}

// Validate checks the settings a live run cannot do without. Demo mode
// relaxes the outbound-credential requirements.
func (c Config) Validate() error {
	if c.ScrapeToken == "" {
		return fmt.Errorf("%w: APIFY_TOKEN is required", domain.ErrConfig)
	}
	if c.OpenAIKey == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY is required", domain.ErrConfig)
	}
	if c.DemoMode {
		return nil
	}
	if c.SenderEmail == "" || c.SMTPPassword == "" {
		return fmt.Errorf("%w: SENDER_EMAIL and SENDER_PASSWORD are required outside demo mode", domain.ErrConfig)
	}
	if c.CleaningTeamEmail == "" || c.ManagerEmail == "" {
		return fmt.Errorf("%w: CLEANING_TEAM_EMAIL and MANAGER_EMAIL are required outside demo mode", domain.ErrConfig)
	}
	return nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// portfolioFile is the YAML shape of PORTFOLIO_FILE.
type portfolioFile struct {
	Properties []struct {
		ID    string  `yaml:"id"`
		Name  string  `yaml:"name"`
		URL   string  `yaml:"url"`
		Price float64 `yaml:"base_price"`
	} `yaml:"properties"`
}

// LoadPortfolio reads the property list from path, or returns the built-in
// portfolio when path is empty.
func LoadPortfolio(path string) ([]domain.PropertyRecord, error) {
	if path == "" {
		return DefaultPortfolio(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read portfolio: %v", domain.ErrConfig, err)
	}
	var pf portfolioFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("%w: parse portfolio: %v", domain.ErrConfig, err)
	}
	if len(pf.Properties) == 0 {
		return nil, fmt.Errorf("%w: portfolio %s lists no properties", domain.ErrConfig, path)
	}

	out := make([]domain.PropertyRecord, 0, len(pf.Properties))
	for i, p := range pf.Properties {
		if p.Name == "" || p.URL == "" || p.Price <= 0 {
			return nil, fmt.Errorf("%w: portfolio entry %d needs name, url and a positive base_price", domain.ErrConfig, i)
		}
		id := p.ID
		if id == "" {
			id = p.Name
		}
		out = append(out, domain.PropertyRecord{
			ID:          id,
			DisplayName: p.Name,
			BasePrice:   p.Price,
			ListingURL:  p.URL,
		})
	}
	return out, nil
}

// DefaultPortfolio is the Montreal room portfolio the pipeline was first
// operated against. Used whenever PORTFOLIO_FILE is unset.
func DefaultPortfolio() []domain.PropertyRecord {
	mk := func(name, slug string, price float64) domain.PropertyRecord {
		return domain.PropertyRecord{
			ID:          name,
			DisplayName: name,
			BasePrice:   price,
			ListingURL:  "https://www.booking.com/hotel/ca/" + slug + ".fr.html",
		}
	}
	return []domain.PropertyRecord{
		mk("Room N5 Downtown", "room-n5-in-a-shared-apartment-in-downtown-montreal", 200),
		mk("Room 1 Full Luxury", "room-1-full-equipped-in-big-luxury-apartment-in-downtown-montreal", 300),
		mk("Room 2 Luxury", "room-2-in-big-luxury-apartment-in-downtown-montreal", 280),
		mk("Room N3 Luxury", "room-n3-in-a-big-luxury-apartment-in-downtown-montreal", 290),
		mk("Room Shared A", "room-in-a-shared-apartment-in-downtown-montreal", 150),
		mk("Room Shared B", "room-in-shared-apartment-in-downtown-montreal", 160),
		mk("Room N7 Shared", "room-n7-in-a-shared-apartment-in-downtown-montreal", 155),
	}
}
