package deployer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/artpar/hajimi-deploy/internal/core/deploy"
	"github.com/artpar/hajimi-deploy/internal/core/envfile"
)

var (
	errNoCredential      = errors.New("no GitHub token supplied; set credentials.github_tokens")
	errUnrecognizedToken = errors.New("token does not start with ghp_ or github_pat_; set credentials.allow_unrecognized to accept it")
)

// =============================================================================
// Credentials
// =============================================================================

// ConfigureCredentials makes sure GITHUB_TOKENS holds a real credential.
// An existing value is only previewed, never printed in full.
func (d *Deployer) ConfigureCredentials(ctx context.Context) error {
	const op = "configure credentials"
	d.console.Step("Configuring credentials")

	f, err := d.loadEnv(op)
	if err != nil {
		return err
	}

	current := f.Value(envfile.KeyGitHubTokens)
	if !envfile.NeedsTokenInput(current) {
		tokens := envfile.PreviewTokens(current)
		d.console.Success("%s already configured (%d token(s))", envfile.KeyGitHubTokens, len(tokens))
		for _, preview := range tokens {
			d.console.KeyValue("token", preview)
		}
		return nil
	}

	var value string
	if d.config.NonInteractive {
		value, err = d.tokensFromConfig()
	} else {
		value, err = d.askTokens()
	}
	if err != nil {
		return deploy.NewError(deploy.KindConfigurationIncomplete, op, envfile.KeyGitHubTokens, err)
	}

	f.Set(envfile.KeyGitHubTokens, value)
	if err := d.flushEnv(f, op); err != nil {
		return err
	}

	d.console.Success("Saved %d token(s) to %s", len(envfile.SplitTokens(value)), d.layout.EnvFile)
	return nil
}

// askTokens loops until the operator enters a usable token list. Empty and
// placeholder answers are rejected; an unfamiliar shape needs confirmation.
func (d *Deployer) askTokens() (string, error) {
	d.console.Info("A GitHub personal access token is required (several may be comma separated).")
	for {
		answer, err := d.prompter.AskSecret("GitHub token(s): ")
		if err != nil {
			return "", err
		}

		value := envfile.NormalizeTokens(answer)
		if value == "" {
			d.console.Warn("A token is required.")
			continue
		}
		if envfile.NeedsTokenInput(value) {
			d.console.Warn("That is a placeholder, not a token.")
			continue
		}

		if !envfile.LooksLikeToken(value) {
			d.console.Warn("Token does not start with ghp_ or github_pat_.")
			ok, err := d.prompter.AskYesNo("Use it anyway?", false)
			if err != nil {
				return "", err
			}
			if !ok {
				continue
			}
		}
		return value, nil
	}
}

func (d *Deployer) tokensFromConfig() (string, error) {
	value := envfile.NormalizeTokens(d.config.GitHubTokens)
	if envfile.NeedsTokenInput(value) {
		return "", errNoCredential
	}
	if !envfile.LooksLikeToken(value) {
		if !d.config.AllowUnrecognizedTokens {
			return "", errUnrecognizedToken
		}
		d.console.Warn("Token does not start with ghp_ or github_pat_; using it as configured.")
	}
	return value, nil
}

// =============================================================================
// Optional Integrations
// =============================================================================

// ConfigureIntegrations offers to set up every optional sync target whose
// URL is still unset or a placeholder. Declining changes nothing.
func (d *Deployer) ConfigureIntegrations(ctx context.Context) error {
	const op = "configure integrations"
	d.console.Step("Optional integrations")

	if d.config.NonInteractive {
		d.console.Info("Non-interactive run; leaving integrations as configured.")
		return nil
	}

	f, err := d.loadEnv(op)
	if err != nil {
		return err
	}

	for _, in := range envfile.Integrations {
		if !in.NeedsSetup(f) {
			state := "disabled"
			if in.Enabled(f) {
				state = "enabled"
			}
			d.console.Info("%s at %s, sync %s", in.Name, f.Value(in.URLKey), state)
			continue
		}

		d.configureIntegration(f, in)
		if err := d.flushEnv(f, op); err != nil {
			return err
		}
	}
	return nil
}

// configureIntegration asks for one integration. A closed input or an
// incomplete answer is treated as declining.
func (d *Deployer) configureIntegration(f *envfile.File, in envfile.Integration) {
	ok, err := d.prompter.AskYesNo(fmt.Sprintf("Configure %s?", in.Name), false)
	if err != nil || !ok {
		d.logger.Debug("integration declined", "integration", in.Name, "error", err)
		d.console.Info("Skipping %s.", in.Name)
		return
	}

	url, err := d.prompter.AskLine(in.Name + " URL: ")
	if err != nil {
		url = ""
	}
	auth := ""
	if url != "" {
		if auth, err = d.prompter.AskSecret(in.Name + " auth: "); err != nil {
			auth = ""
		}
	}
	if url == "" || auth == "" {
		d.console.Warn("%s needs both a URL and an auth value; leaving it unchanged.", in.Name)
		return
	}

	extra := map[string]string{}
	for _, field := range in.Extra {
		answer, err := d.prompter.AskLine(fmt.Sprintf("%s %s [%s]: ", in.Name, field.Label, field.Default))
		if err == nil {
			extra[field.Key] = strings.TrimSpace(answer)
		}
	}

	in.Apply(f, url, auth, extra)
	d.console.Success("%s sync enabled.", in.Name)
}

// =============================================================================
// Environment File Access
// =============================================================================

func (d *Deployer) loadEnv(op string) (*envfile.File, error) {
	f, err := envfile.Load(d.layout.EnvFile)
	if err != nil {
		return nil, deploy.NewError(deploy.KindFilesystemWriteFailure, op, d.layout.EnvFile, err)
	}
	return f, nil
}

// flushEnv writes f back only when something changed, so an untouched file
// keeps its bytes and timestamps.
func (d *Deployer) flushEnv(f *envfile.File, op string) error {
	if !f.Dirty() {
		return nil
	}
	if err := f.WriteFile(d.layout.EnvFile); err != nil {
		return deploy.NewError(deploy.KindFilesystemWriteFailure, op, d.layout.EnvFile, err)
	}
	d.logger.Debug("environment file written", "path", d.layout.EnvFile, "op", op)
	return nil
}
