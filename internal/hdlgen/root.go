package hdlgen

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
	"git.home.luguber.info/inful/doctools/internal/logfields"
)

// FindRoot returns the top-level of the HDL repository containing input.
// Inputs inside the testbenches sub-repository resolve to their parent.
// Directories that are not part of a git repository are used as given.
func FindRoot(input string) (string, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return "", derrors.WrapError(err, derrors.CategoryFileSystem, "resolve input path").
			WithContext("path", input).Build()
	}

	root := abs
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	switch {
	case errors.Is(err, git.ErrRepositoryNotExists):
		slog.Debug("Input is not inside a git repository", logfields.Path(abs))
	case err != nil:
		return "", derrors.WrapError(err, derrors.CategoryGit, "open git repository").
			WithContext("path", abs).Build()
	default:
		wt, err := repo.Worktree()
		if err != nil {
			return "", derrors.WrapError(err, derrors.CategoryGit, "open git worktree").
				WithContext("path", abs).Build()
		}
		root = wt.Filesystem.Root()
	}

	root = filepath.Clean(root)
	if filepath.Base(root) == "testbenches" {
		root = filepath.Dir(root)
	}
	return strings.TrimSuffix(root, string(filepath.Separator)), nil
}
