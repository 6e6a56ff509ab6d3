package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// UIConfig holds the display copy for the page chrome. It is loaded from
// defaults.yaml with an optional per-environment overlay.
type UIConfig struct {
	// Title is the heading shown in the title bar.
	Title string `mapstructure:"title"`
	// PageTitle is the browser tab title.
	PageTitle string `mapstructure:"page_title"`
	// PageIcon is the favicon path.
	PageIcon string `mapstructure:"page_icon"`
	// About is the text shown in the page footer.
	About string `mapstructure:"about"`
	// GuideTitle is the heading of the project guide panel.
	GuideTitle string `mapstructure:"guide_title"`
	// GuideSteps are the numbered instructions in the project guide panel.
	GuideSteps []GuideStep `mapstructure:"guide_steps"`
	// TokenHelpURL links to GitHub's personal access token documentation.
	TokenHelpURL string `mapstructure:"token_help_url"`
	// Overview describes the Overview navigation link.
	Overview NavLinkConfig `mapstructure:"overview"`
	// Predictions describes the Predictions navigation link.
	Predictions NavLinkConfig `mapstructure:"predictions"`
}

// GuideStep is one entry of the project guide.
type GuideStep struct {
	Title string `mapstructure:"title"`
	Body  string `mapstructure:"body"`
}

// NavLinkConfig describes a navigation link exposed once the trigger gate opens.
type NavLinkConfig struct {
	Label string `mapstructure:"label"`
	Icon  string `mapstructure:"icon"`
	Help  string `mapstructure:"help"`
}

// DefaultUIConfig returns the built-in display copy used when no YAML is present.
func DefaultUIConfig() UIConfig {
	return UIConfig{
		Title:      "GitHub Stats",
		PageTitle:  "CommitQuest - Monitor your GitHub Stats",
		PageIcon:   "/static/icon.png",
		About:      "This app tracks GitHub contributions and provides insights into activity.",
		GuideTitle: "❓ Project Guide",
		GuideSteps: []GuideStep{
			{Title: "Enter Username", Body: "Type any public GitHub username into the text box above."},
			{
				Title: "Add Token (Optional)",
				Body: "To see stats for your private repositories, toggle \"I have a GitHub Access Token\" " +
					"and paste your token into the password field. Leave it off for public stats only.",
			},
			{Title: "Analyze", Body: "Click the \"Analyze\" button to fetch the data."},
			{
				Title: "Explore",
				Body:  "Use the \"Overview\" and \"Predictions\" links (which appear after analysis) to see your contribution data.",
			},
		},
		TokenHelpURL: "https://docs.github.com/en/authentication/keeping-your-account-and-data-secure/" +
			"managing-your-personal-access-tokens#creating-a-personal-access-token-classic",
		Overview: NavLinkConfig{
			Label: "Overview",
			Icon:  "✨",
			Help:  "ℹ️ Check your GitHub stats and contributions.",
		},
		Predictions: NavLinkConfig{
			Label: "Predictions",
			Icon:  "⚡",
			Help:  "ℹ️ Predict your GitHub contributions.",
		},
	}
}

// loadUIConfig overlays defaults.yaml and then the environment file
// (local.yaml, nonprod.yaml or prod.yaml) from dir onto ui.
// Missing files are not an error; malformed ones are.
func loadUIConfig(env Environment, dir string, ui *UIConfig) error {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("defaults")
	v.AddConfigPath(dir)

	found, err := readOptional(v)
	if err != nil {
		return fmt.Errorf("failed to read defaults config: %w", err)
	}

	var envConfigFile string
	switch env {
	case NonProd:
		envConfigFile = "nonprod"
	case Prod:
		envConfigFile = "prod"
	case Local:
		fallthrough
	default:
		envConfigFile = "local"
	}

	envViper := viper.New()
	envViper.SetConfigType("yaml")
	envViper.SetConfigName(envConfigFile)
	envViper.AddConfigPath(dir)

	envFound, err := readOptional(envViper)
	if err != nil {
		return fmt.Errorf("failed to read %s config: %w", envConfigFile, err)
	}

	if !found && !envFound {
		return nil
	}

	if envFound {
		if mergeErr := v.MergeConfigMap(envViper.AllSettings()); mergeErr != nil {
			return fmt.Errorf("failed to merge environment config: %w", mergeErr)
		}
	}

	if !v.IsSet("ui") {
		return nil
	}

	if v.IsSet("ui.guide_steps") {
		ui.GuideSteps = nil
	}

	if err := v.UnmarshalKey("ui", ui); err != nil {
		return fmt.Errorf("failed to decode ui config: %w", err)
	}

	return nil
}

func readOptional(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
