package resolve

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/forgelabs/modforge/internal/specfile"
)

// specCandidates generates the candidate paths for a (name, version) pair
// under one search root, in the order they are probed.
func specCandidates(root, name, version string) []string {
	return []string{
		filepath.Join(root, name, version+specfile.Ext),
		filepath.Join(root, name, name+"-"+version+specfile.Ext),
		filepath.Join(root, strings.ToLower(name[:1]), name, name+"-"+version+specfile.Ext),
		filepath.Join(root, name+"-"+version+specfile.Ext),
	}
}

// FindSpec locates the buildspec file for a software name and effective
// version on the configured robot paths. The first existing candidate wins;
// an empty path (not an error) means nothing was found. Hits and misses are
// both cached.
func (r *Resolver) FindSpec(name, version string) (string, error) {
	if name == "" {
		return "", nil
	}
	key := pathKey{name: name, version: version}
	if path, ok := r.cache.Path(key); ok {
		return path, nil
	}

	found := ""
	for _, root := range r.cfg.RobotPaths {
		for _, candidate := range specCandidates(root, name, version) {
			info, err := os.Stat(candidate)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			found = candidate
			break
		}
		if found != "" {
			break
		}
	}

	if found == "" {
		r.logger.Debug("no buildspec found", "name", name, "version", version)
	}
	r.cache.StorePath(key, found)
	return found, nil
}

// FindAllSpecs walks every robot path for buildspec files, sorted and
// deduplicated.
func (r *Resolver) FindAllSpecs() ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string
	for _, root := range r.cfg.RobotPaths {
		matches, err := doublestar.Glob(os.DirFS(root), "**/*"+specfile.Ext)
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			full := filepath.Join(root, match)
			if _, ok := seen[full]; ok {
				continue
			}
			seen[full] = struct{}{}
			paths = append(paths, full)
		}
	}
	sort.Strings(paths)
	return paths, nil
}
