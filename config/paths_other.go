//go:build !unix

package config

import "os"

func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".enrich-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
