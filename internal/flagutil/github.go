package flagutil

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/petr-muller/standup/internal/config"
	"github.com/petr-muller/standup/internal/github"
	"github.com/petr-muller/standup/internal/sequence"
)

const (
	tokenFileName string = "github-token"

	tokenEnvVar = "GITHUB_TOKEN"
)

// GitHubOptions holds the flags needed to build an authenticated GitHub
// client
type GitHubOptions struct {
	TokenPath string
	Host      string
}

// AddFlags injects GitHub options into the given FlagSet
func (o *GitHubOptions) AddFlags(fs *flag.FlagSet) {
	configDir := config.MustStandupConfigDir()
	defaultTokenPath := filepath.Join(configDir, tokenFileName)

	fs.StringVar(&o.TokenPath, "github-token-path", defaultTokenPath, "Path to the file containing the GitHub personal access token (GITHUB_TOKEN is consulted when the file does not exist)")
	fs.StringVar(&o.Host, "github-host", "github.com", "GitHub host to talk to")
}

// AddPFlags injects GitHub options into the given pflag.FlagSet
func (o *GitHubOptions) AddPFlags(fs *pflag.FlagSet) {
	configDir := config.MustStandupConfigDir()
	defaultTokenPath := filepath.Join(configDir, tokenFileName)

	fs.StringVar(&o.TokenPath, "github-token-path", defaultTokenPath, "Path to the file containing the GitHub personal access token (GITHUB_TOKEN is consulted when the file does not exist)")
	fs.StringVar(&o.Host, "github-host", "github.com", "GitHub host to talk to")
}

func (o *GitHubOptions) Validate() error {
	if o.TokenPath == "" {
		return fmt.Errorf("--github-token-path must not be empty")
	}
	if o.Host == "" {
		return fmt.Errorf("--github-host must not be empty")
	}
	return nil
}

// Token resolves the personal access token: the token file when it exists,
// the GITHUB_TOKEN environment variable otherwise. A .env file in the
// working directory is honored for the environment fallback.
func (o *GitHubOptions) Token() (string, error) {
	data, err := os.ReadFile(o.TokenPath)
	if err == nil {
		return strings.TrimSpace(string(data)), nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("cannot read token from %s: %w", o.TokenPath, err)
	}

	_ = godotenv.Load()
	if token := os.Getenv(tokenEnvVar); token != "" {
		return token, nil
	}
	return "", fmt.Errorf("no GitHub token: %s does not exist and %s is not set", o.TokenPath, tokenEnvVar)
}

// Client builds an authenticated GitHub client paced by the given throttle
func (o *GitHubOptions) Client(throttle *sequence.Throttle, logger *logrus.Entry) (*github.Client, error) {
	token, err := o.Token()
	if err != nil {
		return nil, err
	}
	return github.New(github.Options{
		Token:    token,
		Host:     o.Host,
		Throttle: throttle,
		Logger:   logger,
	})
}
