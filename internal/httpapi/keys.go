package httpapi

import "os"

func readKeyFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
