// Package config provides layered configuration for the hovershell daemon.
//
// A YAML document supplies the trigger bindings, provider list, and terminal
// limits; environment variables (HOVERSHELL_* prefix) override scalar fields.
// Validation runs at load and is all-or-nothing: duplicate binding kinds, more
// than one default provider among the enabled set, or a dwell threshold of
// zero reject the whole document with types.ErrValidation.
//
// Example Usage:
//
//	cfg, err := config.Load("~/.hovershell/config.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
package config
