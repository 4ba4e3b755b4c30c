package naming

import (
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"
	"unicode"
)

// EscalateFunc resolves a fully parsed buildspec for (software name,
// effective version) when a naming scheme cannot work from a partial
// record. The resolution pipeline provides this; it typically goes through
// the discovery/cache layer.
type EscalateFunc func(name, version string, hidden bool) (Subject, error)

// Service is the process-wide naming façade. The selected scheme is
// constructed lazily on first use and is immutable for the life of the
// process; concurrent first-use constructs it exactly once.
type Service struct {
	schemeName string
	registry   *Registry
	escalate   EscalateFunc
	logger     *slog.Logger

	once    sync.Once
	scheme  Scheme
	initErr error
}

// NewService returns a naming service for the scheme registered under
// schemeName. The scheme itself is not constructed until the first query.
func NewService(schemeName string, registry *Registry, escalate EscalateFunc, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		schemeName: schemeName,
		registry:   registry,
		escalate:   escalate,
		logger:     logger,
	}
}

func (s *Service) init() (Scheme, error) {
	s.once.Do(func() {
		s.scheme, s.initErr = s.registry.New(s.schemeName)
		if s.initErr == nil {
			s.logger.Debug("module naming scheme selected", "scheme", s.schemeName)
		}
	})
	return s.scheme, s.initErr
}

// subject returns a subject the scheme can work from, escalating to a fully
// parsed buildspec through the discovery layer when the scheme needs more
// than the partial record carries.
func (s *Service) subject(scheme Scheme, sub Subject) (Subject, error) {
	if sub.FullSpec() {
		return sub, nil
	}
	if !scheme.RequiresToolchainDetails() && scheme.Sufficient(sub.SpecKeys()) {
		return sub, nil
	}
	if s.escalate == nil {
		return nil, fmt.Errorf("naming scheme %q requires a fully parsed buildspec for %q, but none can be resolved",
			s.schemeName, StringValue(sub, "name"))
	}
	name := StringValue(sub, "name")
	version := EffectiveVersion(sub)
	s.logger.Debug("escalating to fully parsed buildspec for naming", "name", name, "version", version)
	full, err := s.escalate(name, version, sub.IsHidden())
	if err != nil {
		return nil, fmt.Errorf("resolving full buildspec for %s-%s: %w", name, version, err)
	}
	return full, nil
}

// moduleName runs one scheme name derivation with validation and hidden
// mangling applied.
func (s *Service) moduleName(derive func(Subject) (string, error), sub Subject, forceVisible bool) (string, error) {
	scheme, err := s.init()
	if err != nil {
		return "", err
	}
	full, err := s.subject(scheme, sub)
	if err != nil {
		return "", err
	}
	name, err := derive(full)
	if err != nil {
		return "", err
	}
	if err := ValidateModuleName(name); err != nil {
		return "", err
	}
	if sub.IsHidden() && !forceVisible {
		name = HiddenName(name)
	}
	return name, nil
}

// FullModuleName derives the unique full module name for a subject. With
// forceVisible set, the hidden-name mangling is skipped even for hidden
// subjects; the hidden-dependency reconciliation step relies on this.
func (s *Service) FullModuleName(sub Subject, forceVisible bool) (string, error) {
	scheme, err := s.init()
	if err != nil {
		return "", err
	}
	return s.moduleName(scheme.FullModuleName, sub, forceVisible)
}

// ShortModuleName derives the policy-visible short module name for a
// subject and sanity-checks it against the software name.
func (s *Service) ShortModuleName(sub Subject, forceVisible bool) (string, error) {
	scheme, err := s.init()
	if err != nil {
		return "", err
	}
	name, err := s.moduleName(scheme.ShortModuleName, sub, forceVisible)
	if err != nil {
		return "", err
	}
	software := StringValue(sub, "name")
	if !scheme.IsShortNameFor(name, software) {
		return "", &InvalidModuleNameError{
			Name:   name,
			Reason: fmt.Sprintf("not a valid short module name for software %q", software),
		}
	}
	return name, nil
}

// ModuleSubdir derives the module subdirectory for a subject.
func (s *Service) ModuleSubdir(sub Subject) (string, error) {
	scheme, err := s.init()
	if err != nil {
		return "", err
	}
	full, err := s.subject(scheme, sub)
	if err != nil {
		return "", err
	}
	return scheme.ModuleSubdir(full)
}

// SymlinkPaths derives the paths where symlinks to the module file must be
// created.
func (s *Service) SymlinkPaths(sub Subject) ([]string, error) {
	scheme, err := s.init()
	if err != nil {
		return nil, err
	}
	full, err := s.subject(scheme, sub)
	if err != nil {
		return nil, err
	}
	return scheme.SymlinkPaths(full)
}

// ModpathExtensions derives the modulepath extensions the subject's module
// provides.
func (s *Service) ModpathExtensions(sub Subject) ([]string, error) {
	scheme, err := s.init()
	if err != nil {
		return nil, err
	}
	full, err := s.subject(scheme, sub)
	if err != nil {
		return nil, err
	}
	return scheme.ModpathExtensions(full)
}

// InitModulePaths derives the initial modulepaths for the subject.
func (s *Service) InitModulePaths(sub Subject) ([]string, error) {
	scheme, err := s.init()
	if err != nil {
		return nil, err
	}
	full, err := s.subject(scheme, sub)
	if err != nil {
		return nil, err
	}
	return scheme.InitModulePaths(full)
}

// ExpandToolchainLoad reports the scheme's toolchain-load expansion policy.
func (s *Service) ExpandToolchainLoad() (bool, error) {
	scheme, err := s.init()
	if err != nil {
		return false, err
	}
	return scheme.ExpandToolchainLoad(), nil
}

// IsShortNameFor checks a short module name against a software name under
// the selected scheme.
func (s *Service) IsShortNameFor(shortName, softwareName string) (bool, error) {
	scheme, err := s.init()
	if err != nil {
		return false, err
	}
	return scheme.IsShortNameFor(shortName, softwareName), nil
}

// ValidateModuleName checks the well-formedness rules every derived module
// name must satisfy: non-empty, a relative path, printable characters only.
func ValidateModuleName(name string) error {
	if name == "" {
		return &InvalidModuleNameError{Name: name, Reason: "empty"}
	}
	if strings.HasPrefix(name, "/") || path.Clean(name) != name {
		return &InvalidModuleNameError{Name: name, Reason: "not a clean relative path"}
	}
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return &InvalidModuleNameError{Name: name, Reason: "contains non-printable characters"}
		}
	}
	return nil
}

// HiddenName applies the fixed hidden-module mangling: the trailing path
// segment is dot-prefixed, so "GCC/4.8.2" becomes "GCC/.4.8.2".
func HiddenName(name string) string {
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		return name[:idx+1] + "." + name[idx+1:]
	}
	return "." + name
}
