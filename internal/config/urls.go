package config

// ServiceURLs contains the navigation targets for the analysis pages.
// URLs are automatically configured based on the current environment setting.
type ServiceURLs struct {
	// OverviewURL is the page that renders GitHub stats and contributions.
	OverviewURL string
	// PredictionsURL is the page that renders contribution predictions.
	PredictionsURL string
}

// GetServiceURLs returns environment-appropriate navigation URLs.
// Calling code does not need to know about the environment - it's handled internally.
func (c *Config) GetServiceURLs() ServiceURLs {
	switch c.Environment.Environment {
	case NonProd:
		return ServiceURLs{
			OverviewURL:    "https://commitquest.nonprod.internal/overview",
			PredictionsURL: "https://commitquest.nonprod.internal/predictions",
		}
	case Prod:
		return ServiceURLs{
			OverviewURL:    "https://commitquest.app/overview",
			PredictionsURL: "https://commitquest.app/predictions",
		}
	case Local:
		fallthrough
	default:
		return ServiceURLs{
			OverviewURL:    "http://localhost:8501/overview",
			PredictionsURL: "http://localhost:8501/predictions",
		}
	}
}
