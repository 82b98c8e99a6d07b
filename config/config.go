// Package config loads the workbench's optional TOML configuration file: a
// Config seeded with defaults is decoded over with whatever the file
// supplies, via naoina/toml. There is no strict-unknown-field checking —
// an unrecognized key in the file is silently ignored rather than
// rejected.
package config

import (
	"io"
	"os"

	"github.com/naoina/toml"
)

// Sweep holds the register-sweep tunables: which register the puzzle
// varies, how many workers to fan the search out over, and the patches
// applied to the verification routine before flashing. The exact addresses
// are a property of the loaded challenge image, so they live in config
// rather than in code.
type Sweep struct {
	TargetRegister int   `toml:"target_register"`
	Workers        int   `toml:"workers"`
	PatchAddrs     []int `toml:"patch_addresses"`
	PatchValues    []int `toml:"patch_values"`
}

// Solve holds the canned command script replayed by the shell's `solve`
// command.
type Solve struct {
	Script []string `toml:"script"`
}

// Config is the top-level document.
type Config struct {
	ImagePath string `toml:"image_path"`
	Sweep     Sweep  `toml:"sweep"`
	Solve     Solve  `toml:"solve"`
}

// defaultConfig mirrors the ambient defaults used when no config file is
// present: a conservative worker count, register 7 (matching the published
// teleporter puzzle's use of R7), and the community-known walkthrough
// prefix ending in "take teleporter".
func defaultConfig() Config {
	return Config{
		ImagePath: "doc/challenge.bin",
		Sweep: Sweep{
			TargetRegister: 7,
			Workers:        8,
		},
		Solve: Solve{
			Script: defaultSolveScript,
		},
	}
}

// defaultSolveScript is the built-in canned walkthrough for the `solve`
// command: a partial adventure walkthrough ending with "take teleporter".
var defaultSolveScript = []string{
	"take tablet",
	"use tablet",
	"doorway",
	"north",
	"north",
	"bridge",
	"continue",
	"down",
	"east",
	"take empty lantern",
	"west",
	"west",
	"passage",
	"ladder",
	"west",
	"south",
	"north",
	"take can",
	"use can",
	"use lantern",
	"west",
	"ladder",
	"darkness",
	"continue",
	"west",
	"west",
	"west",
	"west",
	"north",
	"take red coin",
	"north",
	"east",
	"take concave coin",
	"down",
	"take corroded coin",
	"up",
	"west",
	"west",
	"take blue coin",
	"up",
	"take shiny coin",
	"down",
	"east",
	"use blue coin",
	"use red coin",
	"use shiny coin",
	"use concave coin",
	"use corroded coin",
	"north",
	"take teleporter",
}

// Load reads path as TOML into a Config seeded with defaults, so a config
// file only needs to override what it cares about. A missing file is not
// an error: Load returns the defaults.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	return cfg, decode(f, &cfg)
}

func decode(r io.Reader, cfg *Config) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return toml.Unmarshal(data, cfg)
}
