package builders

import "github.com/forgelabs/modforge/internal/schema"

// ConfigureMake drives the classic configure/make/make-install cycle. It is
// the fallback builder when nothing more specific applies.
type ConfigureMake struct{}

func (ConfigureMake) Name() string { return "ConfigureMake" }

func (ConfigureMake) ExtraOptions() map[string]schema.ParameterSpec {
	return map[string]schema.ParameterSpec{
		"configure_cmd_prefix": {Default: "", Doc: "Prefix to be glued before ./configure", Category: schema.Custom},
		"prefix_opt":           {Default: "--prefix=", Doc: "Option to pass installation prefix to configure", Category: schema.Custom},
	}
}

// CMakeMake drives a CMake configure step followed by make.
type CMakeMake struct{}

func (CMakeMake) Name() string { return "CMakeMake" }

func (CMakeMake) ExtraOptions() map[string]schema.ParameterSpec {
	return map[string]schema.ParameterSpec{
		"separate_build_dir": {Default: false, Doc: "Perform the build in a separate directory", Category: schema.Custom},
		"srcdir":             {Default: "", Doc: "Source directory to point cmake at", Category: schema.Custom},
	}
}

// PythonPackage installs a Python package into its own prefix.
type PythonPackage struct{}

func (PythonPackage) Name() string { return "PythonPackage" }

func (PythonPackage) ExtraOptions() map[string]schema.ParameterSpec {
	return map[string]schema.ParameterSpec{
		"use_pip":           {Default: false, Doc: "Install using pip rather than setup.py", Category: schema.Custom},
		"download_dep_fail": {Default: true, Doc: "Fail if downloaded dependencies are detected", Category: schema.Custom},
		"runtest":           {Default: true, Doc: "Run the package test step", Category: schema.Custom},
	}
}

// Bundle groups several components into one installation without building
// anything itself.
type Bundle struct{}

func (Bundle) Name() string { return "Bundle" }

func (Bundle) ExtraOptions() map[string]schema.ParameterSpec {
	return map[string]schema.ParameterSpec{
		"altroot":    {Default: "", Doc: "Software name to use for the installation root", Category: schema.Custom},
		"altversion": {Default: "", Doc: "Software name to use for the installation version", Category: schema.Custom},
	}
}

// ToolchainBundle installs a toolchain definition: a bundle whose
// dependencies make up the compiler/library stack.
type ToolchainBundle struct{}

func (ToolchainBundle) Name() string { return "Toolchain" }

func (ToolchainBundle) ExtraOptions() map[string]schema.ParameterSpec {
	return map[string]schema.ParameterSpec{}
}
