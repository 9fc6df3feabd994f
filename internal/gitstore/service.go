package gitstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/goliatone/go-capsulo/internal/content"
	"github.com/goliatone/go-capsulo/internal/logging"
	"github.com/goliatone/go-capsulo/pkg/interfaces"
)

const (
	pagesDir    = "pages"
	globalsFile = "globals.json"
)

var (
	ErrRepoDirRequired = errors.New("gitstore: repository directory is required")
	ErrInvalidKey      = errors.New("gitstore: invalid document key")
)

// Config locates the content repository and the commit identity.
type Config struct {
	RepoDir     string
	Branch      string
	AuthorName  string
	AuthorEmail string
}

// Revision is one commit touching a document.
type Revision struct {
	Hash      string
	Message   string
	Author    string
	CreatedAt time.Time
}

// Service publishes documents as JSON files committed to a git branch and
// serves the branch head as the baseline. Pages live at pages/<key>.json,
// globals at globals.json.
type Service struct {
	cfg    Config
	mu     sync.Mutex
	logger interfaces.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the commit timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// New opens the repository at cfg.RepoDir, initializing it when missing.
func New(cfg Config, opts ...Option) (*Service, error) {
	if strings.TrimSpace(cfg.RepoDir) == "" {
		return nil, ErrRepoDirRequired
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.AuthorName == "" {
		cfg.AuthorName = "Capsulo"
	}
	if cfg.AuthorEmail == "" {
		cfg.AuthorEmail = "capsulo@localhost"
	}
	s := &Service{cfg: cfg, logger: logging.NoOp(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.ensureRepo(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) ensureRepo() error {
	if err := os.MkdirAll(s.cfg.RepoDir, 0o755); err != nil {
		return fmt.Errorf("gitstore: create repo dir: %w", err)
	}
	_, err := git.PlainOpen(s.cfg.RepoDir)
	if err == nil {
		return nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return fmt.Errorf("gitstore: open repo: %w", err)
	}
	repo, err := git.PlainInit(s.cfg.RepoDir, false)
	if err != nil {
		return fmt.Errorf("gitstore: init repo: %w", err)
	}
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(s.cfg.Branch))
	if err := repo.Storer.SetReference(head); err != nil {
		return fmt.Errorf("gitstore: set HEAD to %s: %w", s.cfg.Branch, err)
	}
	s.logger.Info("gitstore.repo.initialized", "dir", s.cfg.RepoDir, "branch", s.cfg.Branch)
	return nil
}

// LoadBaseline returns the document committed at the branch head, or nil
// when the branch or the file does not exist yet.
func (s *Service) LoadBaseline(ctx context.Context, key string) (*content.Document, error) {
	file, err := documentPath(key)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	repo, err := git.PlainOpen(s.cfg.RepoDir)
	if err != nil {
		return nil, fmt.Errorf("gitstore: open repo: %w", err)
	}
	commit, err := s.headCommit(repo)
	if err != nil || commit == nil {
		return nil, err
	}
	entry, err := commit.File(file)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("gitstore: read %s: %w", file, err)
	}
	reader, err := entry.Reader()
	if err != nil {
		return nil, fmt.Errorf("gitstore: open %s: %w", file, err)
	}
	defer reader.Close()
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("gitstore: read %s: %w", file, err)
	}
	doc, err := content.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("gitstore: decode %s: %w", file, err)
	}
	return doc, nil
}

// SavePage commits the page document.
func (s *Service) SavePage(ctx context.Context, pageID string, doc *content.Document) error {
	if pageID == content.GlobalsKey {
		return fmt.Errorf("%w: %s is reserved", ErrInvalidKey, pageID)
	}
	return s.save(ctx, pageID, doc)
}

// SaveGlobals commits the globals document.
func (s *Service) SaveGlobals(ctx context.Context, doc *content.Document) error {
	return s.save(ctx, content.GlobalsKey, doc)
}

func (s *Service) save(ctx context.Context, key string, doc *content.Document) error {
	file, err := documentPath(key)
	if err != nil {
		return err
	}
	payload, err := encode(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	repo, err := git.PlainOpen(s.cfg.RepoDir)
	if err != nil {
		return fmt.Errorf("gitstore: open repo: %w", err)
	}
	if err := s.checkoutBranch(repo); err != nil {
		return err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("gitstore: open worktree: %w", err)
	}

	target := filepath.Join(worktree.Filesystem.Root(), filepath.FromSlash(file))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("gitstore: create %s: %w", path.Dir(file), err)
	}
	if err := os.WriteFile(target, payload, 0o644); err != nil {
		return fmt.Errorf("gitstore: write %s: %w", file, err)
	}
	if _, err := worktree.Add(file); err != nil {
		return fmt.Errorf("gitstore: git add %s: %w", file, err)
	}

	hash, err := worktree.Commit("content: update "+key, &git.CommitOptions{
		Author: &object.Signature{
			Name:  s.cfg.AuthorName,
			Email: s.cfg.AuthorEmail,
			When:  s.now(),
		},
	})
	if errors.Is(err, git.ErrEmptyCommit) {
		s.logger.Debug("gitstore.save.unchanged", "key", key)
		return nil
	}
	if err != nil {
		return fmt.Errorf("gitstore: commit %s: %w", file, err)
	}
	s.logger.Info("gitstore.save.committed", "key", key, "commit", hash.String()[:7])
	return nil
}

// History lists the commits that touched a document, newest first. A
// positive limit bounds the result.
func (s *Service) History(ctx context.Context, key string, limit int) ([]Revision, error) {
	file, err := documentPath(key)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repo, err := git.PlainOpen(s.cfg.RepoDir)
	if err != nil {
		return nil, fmt.Errorf("gitstore: open repo: %w", err)
	}
	commit, err := s.headCommit(repo)
	if err != nil || commit == nil {
		return nil, err
	}
	iter, err := repo.Log(&git.LogOptions{From: commit.Hash, FileName: &file})
	if err != nil {
		return nil, fmt.Errorf("gitstore: read log: %w", err)
	}
	defer iter.Close()

	var out []Revision
	err = iter.ForEach(func(c *object.Commit) error {
		out = append(out, Revision{
			Hash:      c.Hash.String(),
			Message:   strings.TrimSpace(c.Message),
			Author:    c.Author.Name,
			CreatedAt: c.Author.When,
		})
		if limit > 0 && len(out) >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("gitstore: iterate log: %w", err)
	}
	return out, nil
}

// headCommit returns the branch head, or nil before the first commit.
func (s *Service) headCommit(repo *git.Repository) (*object.Commit, error) {
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(s.cfg.Branch), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("gitstore: resolve branch %s: %w", s.cfg.Branch, err)
	}
	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("gitstore: load commit: %w", err)
	}
	return commit, nil
}

// checkoutBranch switches the worktree to the configured branch, creating
// it from HEAD when missing. Before the first commit HEAD is pointed at the
// branch instead.
func (s *Service) checkoutBranch(repo *git.Repository) error {
	branch := plumbing.NewBranchReferenceName(s.cfg.Branch)
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("gitstore: open worktree: %w", err)
	}
	if _, err := repo.Reference(branch, true); err == nil {
		head, headErr := repo.Head()
		if headErr == nil && head.Name() == branch {
			return nil
		}
		if err := worktree.Checkout(&git.CheckoutOptions{Branch: branch, Force: true}); err != nil {
			return fmt.Errorf("gitstore: checkout %s: %w", s.cfg.Branch, err)
		}
		return nil
	} else if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return fmt.Errorf("gitstore: resolve branch %s: %w", s.cfg.Branch, err)
	}

	if _, err := repo.Head(); errors.Is(err, plumbing.ErrReferenceNotFound) {
		head := plumbing.NewSymbolicReference(plumbing.HEAD, branch)
		if err := repo.Storer.SetReference(head); err != nil {
			return fmt.Errorf("gitstore: set HEAD to %s: %w", s.cfg.Branch, err)
		}
		return nil
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Branch: branch, Create: true}); err != nil {
		return fmt.Errorf("gitstore: create branch %s: %w", s.cfg.Branch, err)
	}
	return nil
}

// documentPath maps a document key to its repository path.
func documentPath(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == content.GlobalsKey {
		return globalsFile, nil
	}
	if key == "" || strings.Contains(key, "\\") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean(key)
	if cleaned != key || cleaned == "." || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return path.Join(pagesDir, key+".json"), nil
}

func encode(doc *content.Document) ([]byte, error) {
	raw, err := content.Encode(doc)
	if err != nil {
		return nil, fmt.Errorf("gitstore: encode document: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("gitstore: format document: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
