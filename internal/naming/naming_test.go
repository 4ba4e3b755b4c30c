package naming

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSubject is a map-backed Subject for tests.
type fakeSubject struct {
	params map[string]any
	full   bool
	hidden bool
}

func (f *fakeSubject) SpecValue(key string) (any, bool) {
	v, ok := f.params[key]
	return v, ok
}

func (f *fakeSubject) SpecKeys() []string {
	keys := make([]string, 0, len(f.params))
	for key := range f.params {
		keys = append(keys, key)
	}
	return keys
}

func (f *fakeSubject) FullSpec() bool { return f.full }
func (f *fakeSubject) IsHidden() bool { return f.hidden }

func depSubject(name, version string, tc map[string]any, hidden bool) *fakeSubject {
	return &fakeSubject{
		params: map[string]any{
			"name":          name,
			"version":       version,
			"versionsuffix": "",
			"toolchain":     tc,
		},
		hidden: hidden,
	}
}

func systemTC() map[string]any {
	return map[string]any{"name": SystemToolchainName, "version": SystemToolchainVersion}
}

func TestEffectiveVersion(t *testing.T) {
	tests := []struct {
		name    string
		subject Subject
		want    string
	}{
		{
			name:    "system toolchain omits qualifier",
			subject: depSubject("GCC", "4.8.2", systemTC(), false),
			want:    "4.8.2",
		},
		{
			name:    "real toolchain is embedded",
			subject: depSubject("zlib", "1.2.8", map[string]any{"name": "GCC", "version": "4.8.2"}, false),
			want:    "1.2.8-GCC-4.8.2",
		},
		{
			name: "version suffix is appended",
			subject: &fakeSubject{params: map[string]any{
				"name": "Python", "version": "2.7.10", "versionsuffix": "-bare",
				"toolchain": map[string]any{"name": "GCC", "version": "4.8.2"},
			}},
			want: "2.7.10-GCC-4.8.2-bare",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveVersion(tt.subject))
		})
	}
}

func TestFlatSchemeNames(t *testing.T) {
	scheme := FlatScheme{}
	sub := depSubject("zlib", "1.2.8", map[string]any{"name": "GCC", "version": "4.8.2"}, false)

	full, err := scheme.FullModuleName(sub)
	require.NoError(t, err)
	assert.Equal(t, "zlib/1.2.8-GCC-4.8.2", full)

	short, err := scheme.ShortModuleName(sub)
	require.NoError(t, err)
	assert.Equal(t, full, short, "flat scheme: short and full names coincide")

	subdir, err := scheme.ModuleSubdir(sub)
	require.NoError(t, err)
	assert.Empty(t, subdir)

	assert.True(t, scheme.IsShortNameFor("zlib/1.2.8", "zlib"))
	assert.False(t, scheme.IsShortNameFor("zlib2/1.2.8", "zlib"))
	assert.True(t, scheme.Sufficient([]string{"name", "version", "versionsuffix", "toolchain"}))
	assert.False(t, scheme.Sufficient([]string{"name", "version"}))
}

func TestHierarchicalSchemePlacement(t *testing.T) {
	scheme := HierarchicalScheme{}

	core := &fakeSubject{params: map[string]any{
		"name": "GCC", "version": "4.8.2", "versionsuffix": "",
		"toolchain": systemTC(), "moduleclass": "compiler",
	}, full: true}

	subdir, err := scheme.ModuleSubdir(core)
	require.NoError(t, err)
	assert.Equal(t, "Core", subdir)

	full, err := scheme.FullModuleName(core)
	require.NoError(t, err)
	assert.Equal(t, "Core/GCC/4.8.2", full)

	exts, err := scheme.ModpathExtensions(core)
	require.NoError(t, err)
	assert.Equal(t, []string{"Compiler/GCC/4.8.2"}, exts)

	lib := &fakeSubject{params: map[string]any{
		"name": "zlib", "version": "1.2.8", "versionsuffix": "",
		"toolchain": map[string]any{"name": "GCC", "version": "4.8.2"}, "moduleclass": "lib",
	}, full: true}

	subdir, err = scheme.ModuleSubdir(lib)
	require.NoError(t, err)
	assert.Equal(t, "Compiler/GCC/4.8.2", subdir)

	short, err := scheme.ShortModuleName(lib)
	require.NoError(t, err)
	assert.Equal(t, "zlib/1.2.8", short, "hierarchical short name drops the toolchain qualifier")

	exts, err = scheme.ModpathExtensions(lib)
	require.NoError(t, err)
	assert.Empty(t, exts)

	assert.True(t, scheme.ExpandToolchainLoad())
}

func TestValidateModuleName(t *testing.T) {
	assert.NoError(t, ValidateModuleName("GCC/4.8.2"))
	assert.NoError(t, ValidateModuleName("Core/GCC/4.8.2"))

	var invalid *InvalidModuleNameError
	assert.ErrorAs(t, ValidateModuleName(""), &invalid)
	assert.ErrorAs(t, ValidateModuleName("/abs/path"), &invalid)
	assert.ErrorAs(t, ValidateModuleName("a/../b"), &invalid)
	assert.ErrorAs(t, ValidateModuleName("bad\nname"), &invalid)
}

func TestHiddenName(t *testing.T) {
	assert.Equal(t, "GCC/.4.8.2", HiddenName("GCC/4.8.2"))
	assert.Equal(t, "Core/GCC/.4.8.2", HiddenName("Core/GCC/4.8.2"))
	assert.Equal(t, ".standalone", HiddenName("standalone"))
}

func TestServiceUnknownScheme(t *testing.T) {
	svc := NewService("no-such-scheme", DefaultRegistry(), nil, nil)

	_, err := svc.FullModuleName(depSubject("GCC", "4.8.2", systemTC(), false), false)
	var unknown *UnknownSchemeError
	require.ErrorAs(t, err, &unknown)
	assert.Contains(t, unknown.Available, FlatSchemeName)
	assert.Contains(t, unknown.Available, HierarchicalSchemeName)
}

func TestServiceFullModuleName(t *testing.T) {
	svc := NewService(FlatSchemeName, DefaultRegistry(), nil, nil)

	full, err := svc.FullModuleName(depSubject("GCC", "4.8.2", systemTC(), false), false)
	require.NoError(t, err)
	assert.Equal(t, "GCC/4.8.2", full)
}

func TestServiceHiddenMangling(t *testing.T) {
	svc := NewService(FlatSchemeName, DefaultRegistry(), nil, nil)
	hidden := depSubject("ncurses", "5.9", systemTC(), true)

	name, err := svc.FullModuleName(hidden, false)
	require.NoError(t, err)
	assert.Equal(t, "ncurses/.5.9", name)

	visible, err := svc.FullModuleName(hidden, true)
	require.NoError(t, err)
	assert.Equal(t, "ncurses/5.9", visible, "forceVisible skips the hidden mangling")
}

func TestServiceEscalatesForPartialSubjects(t *testing.T) {
	var escalated []string
	escalate := func(name, version string, hidden bool) (Subject, error) {
		escalated = append(escalated, name+"-"+version)
		return &fakeSubject{params: map[string]any{
			"name": name, "version": "4.8.2", "versionsuffix": "",
			"toolchain": systemTC(), "moduleclass": "compiler",
		}, full: true, hidden: hidden}, nil
	}
	svc := NewService(HierarchicalSchemeName, DefaultRegistry(), escalate, nil)

	full, err := svc.FullModuleName(depSubject("GCC", "4.8.2", systemTC(), false), false)
	require.NoError(t, err)
	assert.Equal(t, "Core/GCC/4.8.2", full)
	assert.Equal(t, []string{"GCC-4.8.2"}, escalated)
}

func TestServiceEscalationFailurePropagates(t *testing.T) {
	escalate := func(name, version string, hidden bool) (Subject, error) {
		return nil, errors.New("no buildspec found")
	}
	svc := NewService(HierarchicalSchemeName, DefaultRegistry(), escalate, nil)

	_, err := svc.FullModuleName(depSubject("GCC", "4.8.2", systemTC(), false), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no buildspec found")
}

func TestServiceInitializesOnce(t *testing.T) {
	registry := NewRegistry()
	var constructed int
	var mu sync.Mutex
	registry.Register("counting", func() Scheme {
		mu.Lock()
		constructed++
		mu.Unlock()
		return FlatScheme{}
	})

	svc := NewService("counting", registry, nil, nil)
	sub := depSubject("GCC", "4.8.2", systemTC(), false)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.FullModuleName(sub, false)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, constructed, "concurrent first use must construct one scheme instance")
}
