package main

const (
	ExampleProjectFile = `[Project]

#######################
# Required Parameters #
#######################

# Base directory containing the output_NNNNN directories.
Input = path/to/simulation

# The output number to analyze.
Output = 1

# File the projected maps will be written to.
File = maps.gob.zst

# Comma separated list of the quantities to project and the units to
# convert them into. Units must have one entry per variable, or a single
# entry shared by all of them. "standard" means code units.
Variables = mass
Units = Msun

# Number of pixels across one side of the output maps.
Resolution = 512

#######################
# Optional Parameters #
#######################

# Axis the projection integrates away. Must be one of [ x | y | z ].
# Direction = z

# Aggregation mode. "sum" conserves the projected total across the map,
# "mean" gives an area-weighted average per pixel.
# Mode = sum

# Restrict the projection to a sub-box, given in code units. Any bound
# which is left unset falls back to the full box.
# XMin = 0.25
# XMax = 0.75
# YMin = 0.25
# YMax = 0.75
# ZMin = 0.25
# ZMax = 0.75

# Restrict the level range decoded from disk. 0 means unbounded.
# MinLevel = 0
# MaxLevel = 0

# Output file which is useful for debugging. Generally, there isn't a
# reason to use this unless something goes wrong.
# LogFile = log.out`

	ExampleInfoFile = `[Info]

# Info prints a summary of one output: its metadata, which data kinds
# exist on disk, and the derived unit scales.

#######################
# Required Parameters #
#######################

# Base directory containing the output_NNNNN directories.
Input = path/to/simulation

# The output number to summarize.
Output = 1`

	ExampleMakeTestFile = `[MakeTest]

# MakeTest writes a small synthetic output that the other modes can be
# pointed at. It exists for testing and for trying the tool without a
# real simulation on hand.

#######################
# Required Parameters #
#######################

# Base directory the output_NNNNN directory will be created in.
Input = path/to/simulation

# The output number to create.
Output = 1

#######################
# Optional Parameters #
#######################

# Number of processes the synthetic output is split across.
# NCpu = 4

# Leaf cells are written at this level.
# Level = 5

# Number of particles.
# Particles = 1000`
)

// SharedConfig holds the options every mode understands.
type SharedConfig struct {
	// Required
	Input  string
	Output int
	// Optional
	LogFile string
}

func (con *SharedConfig) ValidInput() bool  { return con.Input != "" }
func (con *SharedConfig) ValidOutput() bool { return con.Output > 0 }

// InfoConfig configures the [Info] mode.
type InfoConfig struct {
	SharedConfig
}

func DefaultInfoWrapper() *InfoWrapper {
	return &InfoWrapper{InfoConfig{}}
}

// ProjectConfig configures the [Project] mode.
type ProjectConfig struct {
	SharedConfig

	// Required
	File       string
	Variables  string
	Units      string
	Resolution int

	// Optional
	Direction string
	Mode      string

	XMin, XMax float64
	YMin, YMax float64
	ZMin, ZMax float64

	MinLevel, MaxLevel int
}

func DefaultProjectWrapper() *ProjectWrapper {
	con := ProjectConfig{}
	con.Direction = "z"
	con.Mode = "sum"
	return &ProjectWrapper{con}
}

func (con *ProjectConfig) ValidFile() bool       { return con.File != "" }
func (con *ProjectConfig) ValidVariables() bool  { return con.Variables != "" }
func (con *ProjectConfig) ValidResolution() bool { return con.Resolution > 0 }
func (con *ProjectConfig) ValidMode() bool {
	return con.Mode == "sum" || con.Mode == "mean"
}

// MakeTestConfig configures the [MakeTest] mode.
type MakeTestConfig struct {
	SharedConfig

	NCpu, Level, Particles int
}

func DefaultMakeTestWrapper() *MakeTestWrapper {
	con := MakeTestConfig{}
	con.NCpu = 4
	con.Level = 5
	con.Particles = 1000
	return &MakeTestWrapper{con}
}

func (con *MakeTestConfig) ValidNCpu() bool  { return con.NCpu > 0 }
func (con *MakeTestConfig) ValidLevel() bool { return con.Level >= 1 }

type InfoWrapper struct {
	Info InfoConfig
}

type ProjectWrapper struct {
	Project ProjectConfig
}

type MakeTestWrapper struct {
	MakeTest MakeTestConfig
}
