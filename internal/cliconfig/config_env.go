package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables
// (MRCSLICE_*). It respects flags that have been explicitly set (changed
// map). Returns an error if a variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	if err := s.setIntFromString("start-at-frame", os.Getenv("MRCSLICE_START_AT_FRAME"), &cfg.StartAtFrame); err != nil {
		return err
	}
	if err := s.setIntFromString("stop-at-frame", os.Getenv("MRCSLICE_STOP_AT_FRAME"), &cfg.StopAtFrame); err != nil {
		return err
	}
	s.setString("endianness", os.Getenv("MRCSLICE_ENDIANNESS"), &cfg.Endianness)
	if err := s.setIntFromString("workers", os.Getenv("MRCSLICE_WORKERS"), &cfg.Workers); err != nil {
		return err
	}
	return nil
}
