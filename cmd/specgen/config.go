/*
Copyright © 2024 the isisengine authors.
This file is part of isisengine.

isisengine is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

isisengine is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with isisengine.  If not, see <http://www.gnu.org/licenses/>.*/

package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// Cfg wraps a *viper.Viper the way inmaputil.Cfg does, giving the command
// tree typed accessors over config-file/flag/environment-variable values
// instead of passing a bare *viper.Viper around.
type Cfg struct {
	*viper.Viper
}

func newCfg() *Cfg {
	v := viper.New()
	v.SetEnvPrefix("SPECGEN")
	v.AutomaticEnv()
	v.SetDefault("LineDatabase", "")
	v.SetDefault("TableSource", "")
	v.SetDefault("PlasmaFile", "")
	v.SetDefault("LineResident", false)
	v.SetDefault("ContinuumResident", false)
	v.SetDefault("LogLevel", "info")
	return &Cfg{Viper: v}
}

// setConfig reads the file named by the "config" flag, if any, mirroring
// inmaputil/cmd.go's setConfig.
func setConfig(cfg *Cfg) error {
	cfgpath := cfg.GetString("config")
	if cfgpath == "" {
		return nil
	}
	cfg.SetConfigFile(cfgpath)
	if err := cfg.ReadInConfig(); err != nil {
		return fmt.Errorf("specgen: reading configuration file: %w", err)
	}
	return nil
}

// DerivedConfig is a small standalone TOML document (not part of the main
// viper-bound config) naming the derived-variable expressions a run should
// evaluate, decoded directly with BurntSushi/toml the way cmd/inmapweb's
// main.go decodes its server config.
type DerivedConfig struct {
	Expression map[string]string `toml:"expression"`
}

func readDerivedConfig(path string) (DerivedConfig, error) {
	var c DerivedConfig
	if path == "" {
		return c, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("specgen: opening derived-variable config: %w", err)
	}
	defer f.Close()
	if _, err := toml.DecodeReader(f, &c); err != nil {
		return c, fmt.Errorf("specgen: decoding derived-variable config: %w", err)
	}
	return c, nil
}
