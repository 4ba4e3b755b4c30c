package config

// DefaultModuleClasses is the allowed-value list for the moduleclass
// parameter when the tool configuration does not override it.
var DefaultModuleClasses = []string{
	"base",
	"ai",
	"astro",
	"bio",
	"cae",
	"chem",
	"compiler",
	"data",
	"debugger",
	"devel",
	"geo",
	"ide",
	"lang",
	"lib",
	"math",
	"mpi",
	"numlib",
	"perf",
	"phys",
	"quantum",
	"system",
	"toolchain",
	"tools",
	"vis",
}

// DefaultStops is the allowed-value list for the stop parameter: the build
// steps an installation can be stopped after.
var DefaultStops = []string{
	"fetch",
	"ready",
	"source",
	"patch",
	"prepare",
	"configure",
	"build",
	"test",
	"install",
	"sanitycheck",
	"cleanup",
	"module",
}
