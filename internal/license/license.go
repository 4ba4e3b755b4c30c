// Package license holds the catalog of recognized software licenses that
// the software_license parameter can name.
package license

import (
	"fmt"
	"sort"
)

// License describes a recognized software license and the distribution
// constraints it implies.
type License struct {
	Name        string
	Version     string
	Description string
	// DistributeSource is true when the license obliges distributing the
	// sources alongside binaries.
	DistributeSource bool
	// GroupSource restricts source distribution to a defined user group.
	GroupSource bool
	// GroupBinary restricts binary distribution to a defined user group.
	GroupBinary bool
}

func (l *License) String() string {
	if l.Version == "" {
		return l.Name
	}
	return l.Name + "-" + l.Version
}

// UnknownLicenseError reports a software_license value that names no
// registered license.
type UnknownLicenseError struct {
	Name      string
	Available []string
}

func (e *UnknownLicenseError) Error() string {
	return fmt.Sprintf("unknown software license %q (%d licenses known)", e.Name, len(e.Available))
}

var registered = map[string]*License{
	"Apache-2.0": {
		Name: "Apache", Version: "2.0",
		Description: "Apache License, Version 2.0",
	},
	"BSD-2-Clause": {
		Name: "BSD-2-Clause",
		Description: "BSD 2-Clause 'Simplified' license",
	},
	"BSD-3-Clause": {
		Name: "BSD-3-Clause",
		Description: "BSD 3-Clause 'New' or 'Revised' license",
	},
	"GPLv2": {
		Name: "GPL", Version: "2",
		Description:      "GNU General Public License, version 2",
		DistributeSource: true,
	},
	"GPLv3": {
		Name: "GPL", Version: "3",
		Description:      "GNU General Public License, version 3",
		DistributeSource: true,
	},
	"LGPLv2.1": {
		Name: "LGPL", Version: "2.1",
		Description:      "GNU Lesser General Public License, version 2.1",
		DistributeSource: true,
	},
	"LGPLv3": {
		Name: "LGPL", Version: "3",
		Description:      "GNU Lesser General Public License, version 3",
		DistributeSource: true,
	},
	"MIT": {
		Name: "MIT",
		Description: "MIT license",
	},
	"MPL-2.0": {
		Name: "MPL", Version: "2.0",
		Description: "Mozilla Public License, version 2.0",
	},
	"Proprietary": {
		Name:        "Proprietary",
		Description: "Proprietary license, not redistributable",
		GroupSource: true, GroupBinary: true,
	},
	"VeryRestrictive": {
		Name:        "VeryRestrictive",
		Description: "License forbidding any redistribution",
		GroupSource: true, GroupBinary: true,
	},
}

// Lookup returns the license registered under name.
func Lookup(name string) (*License, error) {
	if l, ok := registered[name]; ok {
		return l, nil
	}
	return nil, &UnknownLicenseError{Name: name, Available: Available()}
}

// Available returns the sorted names of all registered licenses.
func Available() []string {
	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
