// Package git keeps an optional source checkout in sync before a pass
// scans it. The checkout is cloned on first use and pulled afterwards.
package git

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/tagindex/internal/config"
	"git.home.luguber.info/inful/tagindex/internal/errors"
	"git.home.luguber.info/inful/tagindex/internal/logfields"
	"git.home.luguber.info/inful/tagindex/internal/retry"
)

// Syncer mirrors a remote documentation repository into a local checkout.
type Syncer struct {
	cfg    config.GitSourceConfig
	policy retry.Policy
}

func NewSyncer(cfg config.GitSourceConfig) *Syncer {
	return &Syncer{
		cfg:    cfg,
		policy: retry.NewPolicy(retry.BackoffLinear, 0, 0, cfg.Retries),
	}
}

// Sync brings the checkout up to date with the configured branch and returns
// its path. When an existing checkout cannot be pulled the stale path is
// still returned alongside a retryable error, so callers can scan the last
// good state. A failed initial clone returns an empty path.
func (s *Syncer) Sync(ctx context.Context) (string, error) {
	if _, err := os.Stat(filepath.Join(s.cfg.Path, ".git")); err == nil {
		if err := s.update(ctx); err != nil {
			return s.cfg.Path, err
		}
		return s.cfg.Path, nil
	}
	if err := s.clone(ctx); err != nil {
		return "", err
	}
	return s.cfg.Path, nil
}

func (s *Syncer) clone(ctx context.Context) error {
	slog.Info("Cloning source repository",
		logfields.URL(s.cfg.URL),
		logfields.Name(s.cfg.Branch),
		logfields.Dir(s.cfg.Path))

	repo, err := git.PlainCloneContext(ctx, s.cfg.Path, false, &git.CloneOptions{
		URL:           s.cfg.URL,
		ReferenceName: plumbing.ReferenceName("refs/heads/" + s.cfg.Branch),
		SingleBranch:  true,
		Auth:          s.auth(),
	})
	if err != nil {
		return errors.GitCloneError(s.cfg.URL, err)
	}

	if head, err := repo.Head(); err == nil {
		slog.Info("Clone complete",
			logfields.Dir(s.cfg.Path),
			slog.String("commit", head.Hash().String()))
	}
	return nil
}

func (s *Syncer) update(ctx context.Context) error {
	repo, err := git.PlainOpen(s.cfg.Path)
	if err != nil {
		return errors.Wrap(err, errors.CategoryGit, errors.SeverityFatal, "existing checkout is not a git repository").
			WithContext("path", s.cfg.Path)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return errors.Wrap(err, errors.CategoryGit, errors.SeverityFatal, "checkout has no worktree").
			WithContext("path", s.cfg.Path)
	}

	err = retry.Do(ctx, s.policy, func() error {
		err := worktree.PullContext(ctx, &git.PullOptions{
			RemoteName:    "origin",
			ReferenceName: plumbing.ReferenceName("refs/heads/" + s.cfg.Branch),
			SingleBranch:  true,
			Auth:          s.auth(),
		})
		if err == git.NoErrAlreadyUpToDate {
			slog.Debug("Source checkout already up to date", logfields.Dir(s.cfg.Path))
			return nil
		}
		if err != nil {
			return errors.GitNetworkError(s.cfg.URL, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if head, err := repo.Head(); err == nil {
		slog.Info("Source checkout updated",
			logfields.Dir(s.cfg.Path),
			slog.String("commit", head.Hash().String()))
	}
	return nil
}

// auth builds token credentials when a token environment variable is
// configured and populated. Anonymous access otherwise.
func (s *Syncer) auth() transport.AuthMethod {
	if s.cfg.TokenEnv == "" {
		return nil
	}
	token := os.Getenv(s.cfg.TokenEnv)
	if token == "" {
		slog.Warn("Token environment variable is empty, using anonymous access",
			logfields.Name(s.cfg.TokenEnv))
		return nil
	}
	return &githttp.BasicAuth{Username: "token", Password: token}
}
