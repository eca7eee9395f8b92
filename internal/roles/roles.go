package roles

import (
	"log/slog"
	"maps"
	"slices"
	"strings"

	"git.home.luguber.info/inful/doctools/internal/config"
)

// Kind selects how a resolved role is rendered.
type Kind int

const (
	// KindNone renders nothing.
	KindNone Kind = iota
	// KindSpan renders the text in a span with Classes.
	KindSpan
	// KindLink renders an anchor to URL.
	KindLink
)

// Reference is the outcome of a role.
type Reference struct {
	Kind    Kind
	Text    string
	URL     string
	Classes []string
}

// GitRepo is a repository with a git-<Path> role.
type GitRepo struct {
	Path string
	Name string
}

// GitRepos lists the repositories that have a git role.
var GitRepos = []GitRepo{
	{"hdl", "HDL"},
	{"testbenches", "Testbenches"},
	{"linux", "Linux"},
	{"no-OS", "no-OS"},
	{"libiio", "libiio"},
	{"scopy", "Scopy"},
	{"iio-oscilloscope", "IIO Oscilloscope"},
	{"doctools", "Doctools"},
	{"documentation", "System Level Documentation"},
	{"pyadi-iio", "PyADI-IIO"},
	{"meta-adi", "META-ADI"},
	{"wiki-scripts", "Wiki Scripts"},
}

// Vendors have a role linking into their website.
var Vendors = []string{"xilinx", "intel", "mw"}

// DefaultBranch is used for repositories without a configured branch.
const DefaultBranch = "main"

type roleFunc func(text string) Reference

// Resolver maps role names to references.
type Resolver struct {
	urls  map[string]string
	repos map[string]config.RepoConfig
	roles map[string]roleFunc
}

// New builds a resolver for the configured link targets. Missing URLs fall
// back to config.DefaultURLs.
func New(cfg config.RolesConfig) *Resolver {
	r := &Resolver{
		urls:  config.DefaultURLs(),
		repos: maps.Clone(cfg.Repos),
		roles: map[string]roleFunc{},
	}
	maps.Copy(r.urls, cfg.URLs)

	r.roles["red"] = color("red")
	r.roles["green"] = color("green")
	r.roles["datasheet"] = datasheet
	r.roles["dokuwiki"] = r.dokuwiki
	r.roles["ez"] = r.ez
	r.roles["adi"] = r.adi
	for _, v := range Vendors {
		r.roles[v] = r.vendor(v)
	}
	for _, repo := range GitRepos {
		r.roles["git-"+repo.Path] = r.git(repo)
	}
	return r
}

// Names returns the known role names in sorted order.
func (r *Resolver) Names() []string {
	return slices.Sorted(maps.Keys(r.roles))
}

// Resolve applies role to text. ok is false for unknown roles.
func (r *Resolver) Resolve(role, text string) (ref Reference, ok bool) {
	fn, ok := r.roles[role]
	if !ok {
		return Reference{}, false
	}
	return fn(text), true
}

func (r *Resolver) url(name string) string { return r.urls[name] }

// branch returns the configured default branch of repo.
func (r *Resolver) branch(repo string) string {
	if c, ok := r.repos[repo]; ok && c.Branch != "" {
		return c.Branch
	}
	return DefaultBranch
}

// outerInner splits `label <target>`. hasLabel is false when text has no
// target in angle brackets.
func outerInner(text string) (label, target string, hasLabel bool) {
	pos := strings.Index(text, "<")
	if pos == -1 || !strings.HasSuffix(text, ">") {
		return "", text, false
	}
	return strings.TrimSpace(text[:pos]), text[pos+1 : len(text)-1], true
}

func lastSegment(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}

func color(class string) roleFunc {
	return func(text string) Reference {
		return Reference{Kind: KindSpan, Text: text, Classes: []string{class}}
	}
}

func datasheet(string) Reference {
	slog.Info("The datasheet role has been deprecated, use the adi role instead.")
	return Reference{Kind: KindNone}
}

func (r *Resolver) dokuwiki(text string) Reference {
	label, path, ok := outerInner(text)
	if !ok {
		label = lastSegment(path)
	}
	return Reference{Kind: KindLink, Text: label, URL: r.url("dokuwiki") + "/" + path}
}

func (r *Resolver) ez(text string) Reference {
	label, path, ok := outerInner(text)
	if path == "/" {
		path = ""
	}
	if !ok {
		label = "EngineerZone"
	}
	return Reference{Kind: KindLink, Text: label, URL: r.url("ez") + "/" + path, Classes: []string{"icon", "ez"}}
}

func (r *Resolver) adi(text string) Reference {
	label, id, ok := outerInner(text)
	if !ok {
		label = id
	}
	return Reference{Kind: KindLink, Text: label, URL: r.url("adi") + "/" + id, Classes: []string{"icon", "adi"}}
}

func (r *Resolver) vendor(name string) roleFunc {
	return func(text string) Reference {
		label, path, ok := outerInner(text)
		if !ok {
			label = lastSegment(path)
		}
		return Reference{Kind: KindLink, Text: label, URL: r.url(name) + "/" + path}
	}
}

// git handles `[raw+][branch:]path`. The part before "+" selects the raw
// URL when it is "raw"; a leading ":" keeps the default branch.
func (r *Resolver) git(repo GitRepo) roleFunc {
	return func(text string) Reference {
		label, path, ok := outerInner(text)

		kind := "gui"
		if before, after, found := strings.Cut(path, "+"); found {
			if before == "raw" {
				kind = "raw"
			}
			path = after
		}

		branch := r.branch(repo.Path)
		if pos := strings.Index(path, ":"); pos > 0 {
			branch = path[:pos]
			path = path[pos+1:]
		} else if pos == 0 {
			path = path[1:]
		}

		if !ok {
			label = path
			if path == "/" {
				label = "ADI " + repo.Name + " repository"
			}
		}
		if path == "/" {
			path = ""
		}

		base := strings.ReplaceAll(r.url("git_"+kind), "{repo}", repo.Path)
		return Reference{
			Kind:    KindLink,
			Text:    label,
			URL:     base + "/" + branch + "/" + path,
			Classes: []string{"icon", "git"},
		}
	}
}
