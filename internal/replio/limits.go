package replio

import (
	"github.com/caarlos0/env/v6"

	"github.com/mna/dbi"
	"github.com/mna/dbi/lang/compiler"
	"github.com/mna/dbi/lang/machine"
)

// EnvLimits mirrors dbi.Limits with environment-variable tags, so a CLI can
// override resource limits without recompiling (SPEC_FULL's DOMAIN STACK:
// github.com/caarlos0/env/v6, an indirect teacher dependency promoted to
// direct use here). A zero value for any field means "use that subsystem's
// own default", matching the <=0 convention already used throughout
// lang/compiler and lang/machine.
type EnvLimits struct {
	MaxSteps         int `env:"DBI_MAX_STEPS" envDefault:"0"`
	MaxLines         int `env:"DBI_MAX_LINES" envDefault:"0"`
	MaxLineLength    int `env:"DBI_MAX_LINE_LENGTH" envDefault:"0"`
	MaxPoolSize      int `env:"DBI_MAX_POOL_SIZE" envDefault:"0"`
	MaxCodeSize      int `env:"DBI_MAX_CODE_SIZE" envDefault:"0"`
	MaxOperatorStack int `env:"DBI_MAX_OPERATOR_STACK" envDefault:"0"`
	MaxOperandStack  int `env:"DBI_MAX_OPERAND_STACK" envDefault:"0"`
	MaxCallStack     int `env:"DBI_MAX_CALL_STACK" envDefault:"0"`
	MaxFFIArgs       int `env:"DBI_MAX_FFI_ARGS" envDefault:"0"`
	MaxErrorLines    int `env:"DBI_MAX_ERROR_LINES" envDefault:"0"`
}

// LoadLimits parses EnvLimits from the process environment and assembles
// the dbi.Limits a Program and its Runtimes should be constructed with.
func LoadLimits() (dbi.Limits, error) {
	var e EnvLimits
	if err := env.Parse(&e); err != nil {
		return dbi.Limits{}, err
	}
	return dbi.Limits{
		Compiler: compiler.Limits{
			MaxPoolSize:      e.MaxPoolSize,
			MaxCodeSize:      e.MaxCodeSize,
			MaxLineLength:    e.MaxLineLength,
			MaxLines:         e.MaxLines,
			MaxOperatorStack: e.MaxOperatorStack,
		},
		Machine: machine.Limits{
			MaxOperandStack: e.MaxOperandStack,
			MaxCallStack:    e.MaxCallStack,
			MaxFFIArgs:      e.MaxFFIArgs,
			MaxSteps:        e.MaxSteps,
		},
		MaxErrorLines: e.MaxErrorLines,
	}, nil
}
