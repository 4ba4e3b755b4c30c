package schema

// defaultSpecs is the base parameter table. Defaults() hands out copies so
// the table itself is never mutated after process start.
var defaultSpecs = map[string]ParameterSpec{
	// identity
	"name":          {Default: nil, Doc: "Name of software", Category: Mandatory},
	"version":       {Default: nil, Doc: "Version of software", Category: Mandatory},
	"versionprefix": {Default: "", Doc: "Additional prefix for software version", Category: Optional},
	"versionsuffix": {Default: "", Doc: "Additional suffix for software version", Category: Optional},

	// description
	"homepage":    {Default: nil, Doc: "The homepage of the software", Category: Mandatory},
	"description": {Default: nil, Doc: "A short description of the software", Category: Mandatory},

	// toolchain
	"toolchain":     {Default: nil, Doc: "Name and version of toolchain", Category: Mandatory},
	"toolchainopts": {Default: nil, Doc: "Extra options for compilers", Category: Optional},

	// builder selection
	"easyblock":   {Default: "", Doc: "Builder implementation to use for this software", Category: Optional},
	"moduleclass": {Default: "base", Doc: "Module class of the installed module", Category: Optional},

	// sources
	"sources":     {Default: []any{}, Doc: "List of source files", Category: Optional},
	"source_urls": {Default: []any{}, Doc: "List of URLs where sources can be downloaded", Category: Optional},
	"checksums":   {Default: []any{}, Doc: "Checksums for sources and patches", Category: Optional},

	// patches
	"patches": {Default: []any{}, Doc: "List of patches to apply", Category: Optional},

	// dependencies
	"dependencies":       {Default: []any{}, Doc: "List of dependencies", Category: Optional},
	"builddependencies":  {Default: []any{}, Doc: "List of build dependencies", Category: Optional},
	"hiddendependencies": {Default: []any{}, Doc: "List of dependencies available as hidden modules", Category: Optional},
	"osdependencies":     {Default: []any{}, Doc: "OS packages that should be present on the system", Category: Optional},
	"allow_system_deps":  {Default: []any{}, Doc: "Allow listed system versions of name/version pairs", Category: Optional},

	// iterated build options
	"preconfigopts":  {Default: "", Doc: "Extra options pre-passed to configure", Category: Optional},
	"configopts":     {Default: "", Doc: "Extra options passed to configure", Category: Optional},
	"prebuildopts":   {Default: "", Doc: "Extra options pre-passed to build command", Category: Optional},
	"buildopts":      {Default: "", Doc: "Extra options passed to build command", Category: Optional},
	"preinstallopts": {Default: "", Doc: "Extra prefix options for installation", Category: Optional},
	"installopts":    {Default: "", Doc: "Extra options for installation", Category: Optional},

	// build control
	"stop":        {Default: "", Doc: "Stop the installation after the given step", Category: Optional},
	"skipsteps":   {Default: []any{}, Doc: "Skip these steps", Category: Optional},
	"parallel":    {Default: nil, Doc: "Degree of parallelism for the build", Category: Optional},
	"maxparallel": {Default: nil, Doc: "Max degree of parallelism", Category: Optional},

	// sanity checking
	"sanity_check_paths":    {Default: map[string]any{}, Doc: "Paths that must exist after installation", Category: Optional},
	"sanity_check_commands": {Default: []any{}, Doc: "Commands that must run successfully after installation", Category: Optional},

	// licensing
	"software_license": {Default: nil, Doc: "Software license of this software", Category: Optional},
	"license_file":     {Default: nil, Doc: "Path to license file", Category: Optional},
	"group":            {Default: nil, Doc: "Unix group the installation should be restricted to", Category: Optional},

	// module generation
	"modextravars":  {Default: map[string]any{}, Doc: "Extra environment variables to set in the module", Category: Optional},
	"modextrapaths": {Default: map[string]any{}, Doc: "Extra paths to prepend in the module", Category: Optional},
	"hidden":        {Default: false, Doc: "Install the module file as a hidden module", Category: Optional},
}

// Defaults returns a fresh copy of the base parameter schema.
func Defaults() map[string]ParameterSpec {
	specs := make(map[string]ParameterSpec, len(defaultSpecs))
	for name, spec := range defaultSpecs {
		specs[name] = spec
	}
	return specs
}

// Default returns the default value for a known parameter, and whether the
// parameter is part of the base schema at all.
func Default(name string) (any, bool) {
	spec, ok := defaultSpecs[name]
	if !ok {
		return nil, false
	}
	return spec.Default, true
}
