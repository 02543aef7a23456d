/*
 * Copyright (c) 2022. TxnLab Inc.
 * All Rights reserved.
 */

package misc

import (
	"fmt"

	"github.com/joho/godotenv"
)

// LoadEnvSettings loads .env.local then .env from the working directory. Variables already set win, and
// missing files are ignored.
func LoadEnvSettings() {
	godotenv.Load(".env.local")
	godotenv.Load() // .env
}

// LoadEnvFile loads an explicitly named env file, which must exist.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}
