package config

import (
	"fmt"
	"os"
)

// jsoncProvider reads a JSONC file and strips its comments before handing
// the bytes to a koanf parser. It implements koanf.Provider directly
// (ReadBytes/Read) rather than wrapping file.Provider, since koanf has no
// comment-aware JSON parser of its own and JSON is a YAML subset the
// project's existing yaml.Parser already handles once comments are gone.
type jsoncProvider struct {
	path string
}

func (p *jsoncProvider) ReadBytes() ([]byte, error) {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.path, err)
	}
	return StripJSONComments(raw), nil
}

func (p *jsoncProvider) Read() (map[string]interface{}, error) {
	return nil, fmt.Errorf("jsoncProvider: Read unsupported, use ReadBytes with a parser")
}
